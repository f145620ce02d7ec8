package dispatch

import (
	"context"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Handler is the contract every registrable method implements.
//
// Bind captures the incoming request into a fresh per-call Call and must be
// safe for concurrent use; beyond capturing the request it performs no work.
type Handler interface {
	Bind(req *protocol.Request) (Call, error)
}

// Call is a single bound invocation of a handler.
//
// Execute runs the method against the request captured at Bind time. It may
// block on I/O and should honor ctx cancellation. Returning a *protocol.Error
// (directly or wrapped) maps to that protocol error; any other error maps to
// an internal error.
type Call interface {
	Execute(ctx context.Context) (*protocol.Response, error)
}

// HandlerFunc adapts a plain function to a Handler with no auxiliary state.
// It also serves as the unit middleware operates on.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Bind implements Handler.
func (f HandlerFunc) Bind(req *protocol.Request) (Call, error) {
	return &funcCall{fn: f, req: req}, nil
}

// funcCall is the per-call context derived from a HandlerFunc.
type funcCall struct {
	fn  HandlerFunc
	req *protocol.Request
}

func (c *funcCall) Execute(ctx context.Context) (*protocol.Response, error) {
	return c.fn(ctx, c.req)
}

// Middleware wraps a handler function with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middleware in order, executing the first middleware first.
func Chain(middlewares ...Middleware) Middleware {
	return func(final HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
