package upstream

import "context"

type ctxKey int

const (
	ctxRequestID ctxKey = iota
)

// WithRequestID 将请求 ID 附着到 context 中，供引擎日志关联。
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestID 从 context 中读取请求 ID。
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}
