// Package middleware provides composable middleware for jrpc-go dispatchers.
//
// Middleware wraps handler executions with cross-cutting behavior: panic
// recovery, structured logging, request IDs, deadlines, rate limiting,
// request size limits and OpenTelemetry instrumentation.
//
// Middleware runs inside the dispatch goroutine, after the method has been
// resolved, so protocol-level failures (parse errors, unknown methods) never
// reach it.
//
// Example:
//
//	d := dispatch.NewDispatcher(reg,
//	    dispatch.WithMiddleware(middleware.DefaultStack(logger)...),
//	)
package middleware
