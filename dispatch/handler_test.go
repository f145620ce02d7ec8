package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// counterHandler owns mutable auxiliary state shared across calls.
type counterHandler struct {
	mu    sync.Mutex
	calls int
}

type counterCall struct {
	h   *counterHandler
	req *protocol.Request
}

func (h *counterHandler) Bind(req *protocol.Request) (Call, error) {
	return &counterCall{h: h, req: req}, nil
}

func (c *counterCall) Execute(_ context.Context) (*protocol.Response, error) {
	c.h.mu.Lock()
	c.h.calls++
	n := c.h.calls
	c.h.mu.Unlock()
	return protocol.NewResponse(c.req.ID, n), nil
}

// greeterHandler borrows externally-owned state for the duration of a call.
type greeterHandler struct {
	greeting *string
}

type greeterCall struct {
	greeting *string
	req      *protocol.Request
}

func (h *greeterHandler) Bind(req *protocol.Request) (Call, error) {
	return &greeterCall{greeting: h.greeting, req: req}, nil
}

func (c *greeterCall) Execute(_ context.Context) (*protocol.Response, error) {
	var name string
	if err := json.Unmarshal(c.req.Params, &name); err != nil {
		return nil, protocol.NewInvalidParams("expected a string")
	}
	return protocol.NewResponse(c.req.ID, *c.greeting+", "+name), nil
}

func TestHandlerFunc(t *testing.T) {
	t.Run("binds a fresh call per request", func(t *testing.T) {
		h := echoFunc()

		reqA := &protocol.Request{JSONRPC: protocol.Version, Method: "echo", ID: json.RawMessage("1")}
		reqB := &protocol.Request{JSONRPC: protocol.Version, Method: "echo", ID: json.RawMessage("2")}

		callA, err := h.Bind(reqA)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		callB, err := h.Bind(reqB)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		respA, _ := callA.Execute(context.Background())
		respB, _ := callB.Execute(context.Background())
		if string(respA.ID) != "1" || string(respB.ID) != "2" {
			t.Errorf("bound calls leaked request state: %s, %s", respA.ID, respB.ID)
		}
	})
}

func TestHandlerVariants(t *testing.T) {
	t.Run("owned auxiliary state is shared across calls", func(t *testing.T) {
		h := &counterHandler{}

		for i := 1; i <= 3; i++ {
			call, err := h.Bind(&protocol.Request{JSONRPC: protocol.Version, Method: "count", ID: json.RawMessage("1")})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			resp, err := call.Execute(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Result != i {
				t.Errorf("call %d result = %v, want %d", i, resp.Result, i)
			}
		}
	})

	t.Run("borrowed state is visible to bound calls", func(t *testing.T) {
		greeting := "Hello"
		h := &greeterHandler{greeting: &greeting}

		call, err := h.Bind(&protocol.Request{
			JSONRPC: protocol.Version,
			Method:  "greet",
			Params:  json.RawMessage(`"World"`),
			ID:      json.RawMessage("1"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		greeting = "Hi" // the handler borrows, it does not copy
		resp, err := call.Execute(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Result != "Hi, World" {
			t.Errorf("result = %v, want %q", resp.Result, "Hi, World")
		}
	})
}

func TestChain(t *testing.T) {
	t.Run("executes middleware in order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next HandlerFunc) HandlerFunc {
				return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}

		fn := Chain(mw("first"), mw("second"))(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
			order = append(order, "handler")
			return protocol.NewResponse(req.ID, nil), nil
		})

		_, err := fn(context.Background(), &protocol.Request{JSONRPC: protocol.Version, Method: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"first", "second", "handler"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
			}
		}
	})
}
