package dispatch

import (
	"context"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// Pending is the handle for an in-flight dispatch. It resolves to exactly
// one well-formed response; handler failures surface as protocol error
// responses, never as Await errors.
type Pending struct {
	done         chan struct{}
	resp         *protocol.Response
	notification bool
}

func newPending(notification bool) *Pending {
	return &Pending{
		done:         make(chan struct{}),
		notification: notification,
	}
}

// resolvedPending creates a handle that is already complete, used for
// responses produced synchronously (method not found, correlatable invalid
// requests, bind failures).
func resolvedPending(notification bool, resp *protocol.Response) *Pending {
	p := newPending(notification)
	p.resolve(resp)
	return p
}

func (p *Pending) resolve(resp *protocol.Response) {
	p.resp = resp
	close(p.done)
}

// Await blocks until the dispatch completes or ctx is done. The returned
// error is non-nil only when ctx expires first; the execution itself keeps
// running, and its result remains available through a later Await or Done.
func (p *Pending) Await(ctx context.Context) (*protocol.Response, error) {
	select {
	case <-p.done:
		return p.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the dispatch completes.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Response returns the computed response, or nil if the dispatch has not
// completed yet.
func (p *Pending) Response() *protocol.Response {
	select {
	case <-p.done:
		return p.resp
	default:
		return nil
	}
}

// Notification reports whether the originating request carried no id. The
// response is still fully computed; transports use this to discard it
// instead of writing it back.
func (p *Pending) Notification() bool {
	return p.notification
}
