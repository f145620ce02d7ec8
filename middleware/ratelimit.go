package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// CodeRateLimited is the implementation-defined server error returned when a
// request exceeds the configured rate.
const CodeRateLimited = -32003

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc func(*protocol.Request) string
	logger  Logger
}

// WithRateLimitKeyFunc sets a function to extract a rate limit key from
// requests. This allows per-client or per-method rate limiting.
func WithRateLimitKeyFunc(fn func(*protocol.Request) string) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// RateLimit returns middleware that limits request rate using a token bucket
// algorithm. The rate is specified as requests per second; burst allows
// short bursts above it.
func RateLimit(rate int, burst int, opts ...RateLimitOption) dispatch.Middleware {
	cfg := &rateLimitConfig{
		keyFunc: func(_ *protocol.Request) string { return "global" },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			key := cfg.keyFunc(req)

			if !limiter.Allow(ctx, key) {
				if cfg.logger != nil {
					cfg.logger.Warn("rate limit exceeded",
						Field{Key: "method", Value: req.Method},
						Field{Key: "key", Value: key},
					)
				}
				return nil, protocol.NewError(CodeRateLimited, "rate limit exceeded", nil)
			}

			return next(ctx, req)
		}
	}
}

// RateLimitByMethod returns rate limiting middleware that applies per-method
// limits.
func RateLimitByMethod(rate int, burst int, opts ...RateLimitOption) dispatch.Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(req *protocol.Request) string {
			return req.Method
		}),
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}

// RateLimitByCaller returns rate limiting middleware that applies per-caller
// limits. The callerIDFunc should extract a unique caller identifier from
// the request.
func RateLimitByCaller(rate int, burst int, callerIDFunc func(*protocol.Request) string, opts ...RateLimitOption) dispatch.Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(callerIDFunc),
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}
