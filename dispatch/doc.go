// Package dispatch implements the core JSON-RPC request-dispatch engine:
// the method registry, the handler contract and the dispatcher that routes
// raw messages to asynchronous handler executions.
//
// # Handler Contract
//
// A registrable computation implements Handler. Bind captures one incoming
// request into a fresh per-call Call value; Execute performs the work:
//
//	type Handler interface {
//	    Bind(req *protocol.Request) (Call, error)
//	}
//
//	type Call interface {
//	    Execute(ctx context.Context) (*protocol.Response, error)
//	}
//
// Because every dispatch derives its own Call, concurrent invocations of the
// same method never share request state. Auxiliary state owned by the
// Handler itself (configuration, counters, connection pools) is shared
// across calls and protected by the handler's own discipline.
//
// Stateless methods can skip the boilerplate with HandlerFunc:
//
//	reg := dispatch.NewRegistry()
//	err := reg.Register("echo", dispatch.HandlerFunc(
//	    func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
//	        return protocol.NewResponse(req.ID, req.Params), nil
//	    }))
//
// # Dispatching
//
// HandleMessage decodes a raw message, looks up the handler and starts its
// execution, returning a Pending handle immediately:
//
//	d := dispatch.NewDispatcher(reg)
//	pending, err := d.HandleMessage(ctx, raw)
//	if err != nil {
//	    // parse error or uncorrelatable invalid request; no handler ran
//	}
//	resp, err := pending.Await(ctx)
//
// A Pending always resolves to a well-formed response: handler errors and
// panics are converted to protocol error responses at the dispatch boundary,
// never propagated to the caller.
package dispatch
