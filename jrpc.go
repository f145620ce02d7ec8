// Package jrpc provides a request-dispatch engine for JSON-RPC 2.0.
//
// jrpc-go associates asynchronous handlers with method names and routes raw
// protocol messages to them, producing protocol-compliant responses:
//   - Concurrency-safe method registry with fluent registration
//   - Per-call handler isolation: every dispatch binds its own context
//   - Handler faults converted to protocol errors at the dispatch boundary
//   - Gin-style middleware chains
//   - Pluggable transports (stdio, HTTP, WebSocket)
//
// Basic usage:
//
//	reg := jrpc.NewRegistry()
//	err := reg.Register("echo", jrpc.HandlerFunc(
//	    func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
//	        return jrpc.NewResponse(req.ID, req.Params), nil
//	    }))
//
//	d := jrpc.NewDispatcher(reg)
//	pending, err := d.HandleMessage(ctx,
//	    []byte(`{"jsonrpc":"2.0","method":"echo","params":[1,2],"id":7}`))
//	resp, err := pending.Await(ctx)
//
//	jrpc.ServeStdio(ctx, d)
package jrpc

import (
	"context"
	"time"

	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/middleware"
	"github.com/felixgeelhaar/jrpc-go/protocol"
	"github.com/felixgeelhaar/jrpc-go/transport"
)

// Re-export core types for convenience

// Request represents a JSON-RPC 2.0 request.
type Request = protocol.Request

// Response represents a JSON-RPC 2.0 response.
type Response = protocol.Response

// Error represents a JSON-RPC 2.0 error object.
type Error = protocol.Error

// Handler is the contract every registrable method implements.
type Handler = dispatch.Handler

// Call is a single bound invocation of a handler.
type Call = dispatch.Call

// HandlerFunc adapts a plain function to a Handler with no auxiliary state.
type HandlerFunc = dispatch.HandlerFunc

// Middleware wraps a handler function with additional behavior.
type Middleware = dispatch.Middleware

// Registry is the concurrency-safe method registry.
type Registry = dispatch.Registry

// Dispatcher routes raw messages to registered handlers.
type Dispatcher = dispatch.Dispatcher

// Pending is the handle for an in-flight dispatch.
type Pending = dispatch.Pending

// Option configures a Dispatcher.
type Option = dispatch.Option

// ErrAlreadyRegistered is returned when a method name already has an entry.
var ErrAlreadyRegistered = dispatch.ErrAlreadyRegistered

// Protocol constructors.
var (
	NewResponse      = protocol.NewResponse
	NewErrorResponse = protocol.NewErrorResponse
	NewError         = protocol.NewError
	NewInvalidParams = protocol.NewInvalidParams
	DecodeRequest    = protocol.DecodeRequest
	EncodeResponse   = protocol.EncodeResponse
)

// NewRegistry creates an empty method registry.
func NewRegistry() *Registry {
	return dispatch.NewRegistry()
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	return dispatch.NewDispatcher(reg, opts...)
}

// WithMiddleware adds middleware around every handler execution.
func WithMiddleware(mw ...Middleware) Option {
	return dispatch.WithMiddleware(mw...)
}

// Chain composes multiple middleware into a single middleware.
func Chain(middlewares ...Middleware) Middleware {
	return dispatch.Chain(middlewares...)
}

// Middleware re-exports

// Logger is the interface for structured logging middleware.
type Logger = middleware.Logger

// LogField represents a key-value pair for structured logging.
type LogField = middleware.Field

// Recover returns middleware that catches panics and converts them to internal errors.
func Recover() Middleware {
	return middleware.Recover()
}

// Timeout returns middleware that enforces a deadline on handler execution.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// RequestID returns middleware that injects a correlation ID into the context.
func RequestID() Middleware {
	return middleware.RequestID()
}

// Logging returns middleware that logs request details.
func Logging(logger Logger) Middleware {
	return middleware.Logging(logger)
}

// RateLimit re-exports for convenience.
type RateLimitOption = middleware.RateLimitOption

var (
	RateLimit         = middleware.RateLimit
	RateLimitByMethod = middleware.RateLimitByMethod
	RateLimitByCaller = middleware.RateLimitByCaller
)

// SizeLimit re-exports for convenience.
type SizeLimitOption = middleware.SizeLimitOption

var SizeLimit = middleware.SizeLimit

// Size limit presets.
const (
	KB = middleware.KB
	MB = middleware.MB
)

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// DefaultMiddlewareWithTimeout returns the default stack with a timeout middleware.
func DefaultMiddlewareWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return middleware.DefaultStackWithTimeout(logger, timeout)
}

// LogF creates a new log field with the given key and value.
func LogF(key string, value any) LogField {
	return middleware.F(key, value)
}

// Transport re-exports

// HTTPOption configures the HTTP transport.
type HTTPOption = transport.HTTPOption

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeStdio runs the dispatcher over newline-delimited stdio messages.
// This blocks until the context is canceled or input is exhausted.
func ServeStdio(ctx context.Context, d *Dispatcher) error {
	return transport.NewStdio().Serve(ctx, d)
}

// ServeHTTP runs the dispatcher over HTTP POST.
// This blocks until the context is canceled or an error occurs.
func ServeHTTP(ctx context.Context, d *Dispatcher, addr string, opts ...HTTPOption) error {
	return transport.NewHTTP(addr, opts...).Serve(ctx, d)
}

// ServeWebSocket runs the dispatcher over WebSocket connections.
// This blocks until the context is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, d *Dispatcher, addr string, opts ...WebSocketOption) error {
	return transport.NewWebSocket(addr, opts...).Serve(ctx, d)
}

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return transport.WithReadTimeout(d)
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return transport.WithWriteTimeout(d)
}
