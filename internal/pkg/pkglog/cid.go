package pkglog

import "context"

type correlationKey struct{}

// CorrelationID returns the request correlation ID carried by ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(correlationKey{}).(string)
	return cid, ok && cid != ""
}

// WithCorrelationID returns a copy of ctx carrying cid. An empty cid leaves
// ctx untouched.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	if cid == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, cid)
}
