package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// HTTP implements a JSON-RPC transport over HTTP POST. Each request body
// carries one message; the response body carries the completed response.
type HTTP struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxBodyBytes int64
	corsConfig   *CORSConfig

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server

	shutdown *ShutdownManager
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithMaxBodyBytes limits the accepted request body size.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxBodyBytes = n
	}
}

// WithShutdownConfig configures graceful shutdown behavior.
func WithShutdownConfig(config ShutdownConfig) HTTPOption {
	return func(h *HTTP) {
		h.shutdown = NewShutdownManager(config)
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:         addr,
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		maxBodyBytes: 4 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.shutdown == nil {
		h.shutdown = NewShutdownManager(DefaultShutdownConfig())
	}

	return h
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the actual address the server is listening on.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Serve starts the HTTP server and handles requests until ctx is canceled.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = &http.Server{
		Handler:      h.createHandler(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return h.shutdownServer(ctx)
	case err := <-errCh:
		return err
	}
}

func (h *HTTP) shutdownServer(ctx context.Context) error {
	h.shutdown.BeginDrain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdown.Timeout())
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (h *HTTP) createHandler(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if h.shutdown.IsDraining() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"draining"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		h.handleRPC(w, r, handler)
	})

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

// handleRPC handles one JSON-RPC message per POST body.
func (h *HTTP) handleRPC(w http.ResponseWriter, r *http.Request, handler Handler) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.shutdown.TrackRequest() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer h.shutdown.ReleaseRequest()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodyBytes))
	if err != nil {
		h.writeResponse(w, envelope(protocol.NewInvalidRequest("unable to read request body")))
		return
	}

	ctx := protocol.ContextWithCallerMeta(r.Context(), protocol.CallerMeta{
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.UserAgent(),
	})

	pending, err := handler.HandleMessage(ctx, body)
	if err != nil {
		h.writeResponse(w, envelope(err))
		return
	}

	resp, err := pending.Await(ctx)
	if err != nil {
		// Caller is gone; the execution keeps running but has no reader.
		return
	}
	if pending.Notification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeResponse(w, resp)
}

func (h *HTTP) writeResponse(w http.ResponseWriter, resp *protocol.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
