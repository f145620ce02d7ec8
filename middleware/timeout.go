package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Timeout returns middleware that enforces a deadline on handler execution.
// If the handler does not complete within the specified duration, the
// context is cancelled and context.DeadlineExceeded is returned, which the
// dispatcher surfaces as an internal error response.
func Timeout(d time.Duration) dispatch.Middleware {
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
