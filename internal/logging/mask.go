package logging

// MaskSecret keeps the first four and last four characters of a credential.
// Short values are fully masked.
func MaskSecret(s string) string {
	const keep = 4
	if len(s) <= keep*2 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:keep] + "…" + s[len(s)-keep:]
}
