package transport

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Handler dispatches raw JSON-RPC messages. *dispatch.Dispatcher implements it.
type Handler interface {
	// HandleMessage starts handling one raw message, returning a handle for
	// the eventual response. A synchronous error means no execution started:
	// the message was malformed or carried no trustworthy id.
	HandleMessage(ctx context.Context, raw []byte) (*dispatch.Pending, error)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// envelope converts a synchronous dispatch failure into the error response a
// transport writes back. The id is null: by definition the failure happened
// before an id could be trusted.
func envelope(err error) *protocol.Response {
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		perr = protocol.NewInternalError(err.Error())
	}
	return protocol.NewErrorResponse(nil, perr)
}
