package protocol

import "context"

// callerMetaKey is the context key for caller metadata.
type callerMetaKey struct{}

// CallerMeta holds transport-level metadata associated with a request, such
// as HTTP headers or the remote address. Transports attach it; middleware
// and handlers read it.
type CallerMeta map[string]string

// ContextWithCallerMeta returns a new context with the caller metadata attached.
func ContextWithCallerMeta(ctx context.Context, meta CallerMeta) context.Context {
	return context.WithValue(ctx, callerMetaKey{}, meta)
}

// CallerMetaFromContext returns the caller metadata from the context.
// Returns nil if no metadata is present.
func CallerMetaFromContext(ctx context.Context) CallerMeta {
	if meta, ok := ctx.Value(callerMetaKey{}).(CallerMeta); ok {
		return meta
	}
	return nil
}

// GetCallerMeta returns a specific metadata value from the context.
// Returns empty string if the key is not found or no metadata is present.
func GetCallerMeta(ctx context.Context, key string) string {
	meta := CallerMetaFromContext(ctx)
	if meta == nil {
		return ""
	}
	return meta[key]
}
