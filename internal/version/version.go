package version

// Version is overridden at build time via -ldflags "-X essayproxy-go/internal/version.Version=...".
var Version = "dev"
