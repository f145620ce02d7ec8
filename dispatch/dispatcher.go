package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Dispatcher routes raw JSON-RPC messages to registered handlers and runs
// their executions asynchronously.
type Dispatcher struct {
	registry *Registry
	chain    Middleware
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMiddleware adds middleware around every handler execution, applied in
// the order given. Middleware runs inside the dispatch goroutine, after the
// method has been resolved and bound.
func WithMiddleware(mw ...Middleware) Option {
	return func(d *Dispatcher) {
		if len(mw) == 0 {
			return
		}
		if d.chain == nil {
			d.chain = Chain(mw...)
			return
		}
		prev := d.chain
		next := Chain(mw...)
		d.chain = func(final HandlerFunc) HandlerFunc {
			return prev(next(final))
		}
	}
}

// WithLogger sets the logger used for dispatcher warnings, such as
// application errors that misuse reserved protocol codes.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatcher's method registry. Registrations remain
// legal while dispatches are in flight.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// HandleMessage decodes a raw message, resolves its handler and starts the
// asynchronous execution, returning a Pending handle immediately.
//
// Failures before an id can be trusted — malformed JSON, or an invalid
// request whose id was not extractable — are returned synchronously as a
// *protocol.Error and start no execution. Every other outcome, including
// unknown methods and handler faults, surfaces as an error response through
// the returned handle.
func (d *Dispatcher) HandleMessage(ctx context.Context, raw []byte) (*Pending, error) {
	req, decodeErr := protocol.DecodeRequest(raw)
	if decodeErr != nil {
		if req != nil && len(req.ID) > 0 {
			return resolvedPending(req.IsNotification(), protocol.NewErrorResponse(req.ID, decodeErr)), nil
		}
		return nil, decodeErr
	}

	handler, ok := d.registry.Lookup(req.Method)
	if !ok {
		return resolvedPending(req.IsNotification(), protocol.NewErrorResponse(req.ID, protocol.NewMethodNotFound())), nil
	}

	// The registry is not touched again for the remainder of this call;
	// the bound call is independent of the shared handler template.
	call, err := handler.Bind(req)
	if err != nil {
		return resolvedPending(req.IsNotification(), protocol.NewErrorResponse(req.ID, d.toProtocolError(req.Method, err))), nil
	}

	p := newPending(req.IsNotification())
	go d.run(ctx, p, req, call)
	return p, nil
}

// run executes one bound call through the middleware chain and resolves the
// pending handle with a well-formed response.
func (d *Dispatcher) run(ctx context.Context, p *Pending, req *protocol.Request, call Call) {
	fn := HandlerFunc(func(ctx context.Context, _ *protocol.Request) (*protocol.Response, error) {
		return call.Execute(ctx)
	})
	if d.chain != nil {
		fn = d.chain(fn)
	}

	resp, err := d.invoke(ctx, fn, req)
	p.resolve(d.finalize(req, resp, err))
}

// invoke calls fn, converting panics to internal errors at the dispatch
// boundary instead of unwinding past it.
func (d *Dispatcher) invoke(ctx context.Context, fn HandlerFunc, req *protocol.Request) (resp *protocol.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				slog.String("method", req.Method),
				slog.Any("panic", r),
			)
			resp, err = nil, protocol.NewInternalError(fmt.Sprintf("panic: %v", r))
		}
	}()
	return fn(ctx, req)
}

// finalize normalizes the outcome of an execution into a response carrying
// the request's id.
func (d *Dispatcher) finalize(req *protocol.Request, resp *protocol.Response, err error) *protocol.Response {
	if err != nil {
		return protocol.NewErrorResponse(req.ID, d.toProtocolError(req.Method, err))
	}
	if resp == nil {
		// The handler chose not to build a response; the caller still
		// receives a well-formed null-result success.
		return protocol.NewResponse(req.ID, nil)
	}
	if resp.JSONRPC == "" {
		resp.JSONRPC = protocol.Version
	}
	if len(resp.ID) == 0 {
		resp.ID = req.ID
	}
	if resp.Error != nil {
		resp.Error = d.sanitizeError(req.Method, resp.Error)
	}
	return resp
}

// toProtocolError maps an arbitrary handler failure to a protocol error.
// Explicit *protocol.Error values pass through (after reserved-code
// clamping); anything else becomes an internal error.
func (d *Dispatcher) toProtocolError(method string, err error) *protocol.Error {
	var perr *protocol.Error
	if errors.As(err, &perr) {
		return d.sanitizeError(method, perr)
	}
	return protocol.NewInternalError(err.Error())
}

// sanitizeError clamps application errors that misuse the protocol's
// reserved code range. The five standard codes and the implementation-defined
// server-error band pass through verbatim.
func (d *Dispatcher) sanitizeError(method string, e *protocol.Error) *protocol.Error {
	if !protocol.IsReservedCode(e.Code) || protocol.IsStandardCode(e.Code) || protocol.IsServerErrorCode(e.Code) {
		return e
	}
	d.logger.Warn("application error uses a reserved JSON-RPC code, clamping to internal error",
		slog.String("method", method),
		slog.Int("code", e.Code),
	)
	return protocol.NewInternalError(map[string]any{
		"code":    e.Code,
		"message": e.Message,
	})
}
