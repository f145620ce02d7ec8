// Package e2e provides end-to-end compliance tests against the JSON-RPC 2.0
// specification examples.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	jrpc "github.com/felixgeelhaar/jrpc-go"
	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/protocol"
	"github.com/felixgeelhaar/jrpc-go/transport"
)

func newComplianceServer(t *testing.T) *jrpc.Dispatcher {
	t.Helper()

	reg := jrpc.NewRegistry()

	reg.MustRegister("subtract", jrpc.HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
		var pos []float64
		if err := json.Unmarshal(req.Params, &pos); err == nil && len(pos) == 2 {
			return jrpc.NewResponse(req.ID, pos[0]-pos[1]), nil
		}

		var named struct {
			Minuend    float64 `json:"minuend"`
			Subtrahend float64 `json:"subtrahend"`
		}
		if err := json.Unmarshal(req.Params, &named); err != nil {
			return nil, jrpc.NewInvalidParams(err.Error())
		}
		return jrpc.NewResponse(req.ID, named.Minuend-named.Subtrahend), nil
	}))

	reg.MustRegister("update", jrpc.HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
		return jrpc.NewResponse(req.ID, "ok"), nil
	}))

	reg.MustRegister("get_data", jrpc.HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
		return jrpc.NewResponse(req.ID, []any{"hello", 5}), nil
	}))

	return jrpc.NewDispatcher(reg,
		dispatch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// serveLines feeds newline-delimited messages through the stdio transport and
// returns the response lines it wrote.
func serveLines(t *testing.T, d *jrpc.Dispatcher, input string) []string {
	t.Helper()

	var out bytes.Buffer
	s := transport.NewStdio(
		transport.WithStdin(strings.NewReader(input)),
		transport.WithStdout(&out),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Serve(ctx, d); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func singleResponse(t *testing.T, lines []string) *protocol.Response {
	t.Helper()

	if len(lines) != 1 {
		t.Fatalf("expected 1 response line, got %d: %v", len(lines), lines)
	}
	var resp protocol.Response
	if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
		t.Fatalf("invalid response %q: %v", lines[0], err)
	}
	return &resp
}

func TestCompliance_Requests(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rpc call with positional parameters",
			in:   `{"jsonrpc": "2.0", "method": "subtract", "params": [42, 23], "id": 1}`,
			want: `{"jsonrpc":"2.0","result":19,"id":1}`,
		},
		{
			name: "rpc call with positional parameters reversed",
			in:   `{"jsonrpc": "2.0", "method": "subtract", "params": [23, 42], "id": 2}`,
			want: `{"jsonrpc":"2.0","result":-19,"id":2}`,
		},
		{
			name: "rpc call with named parameters",
			in:   `{"jsonrpc": "2.0", "method": "subtract", "params": {"subtrahend": 23, "minuend": 42}, "id": 3}`,
			want: `{"jsonrpc":"2.0","result":19,"id":3}`,
		},
		{
			name: "rpc call of non-existent method",
			in:   `{"jsonrpc": "2.0", "method": "foobar", "id": "1"}`,
			want: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":"1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newComplianceServer(t)
			lines := serveLines(t, d, tt.in+"\n")
			if len(lines) != 1 {
				t.Fatalf("expected 1 response, got %d: %v", len(lines), lines)
			}
			if lines[0] != tt.want {
				t.Errorf("response = %s, want %s", lines[0], tt.want)
			}
		})
	}
}

func TestCompliance_Notifications(t *testing.T) {
	d := newComplianceServer(t)

	input := `{"jsonrpc": "2.0", "method": "update", "params": [1,2,3,4,5]}` + "\n" +
		`{"jsonrpc": "2.0", "method": "foobar"}` + "\n"

	lines := serveLines(t, d, input)
	if len(lines) != 0 {
		t.Errorf("notifications must produce no responses, got %v", lines)
	}
}

func TestCompliance_InvalidJSON(t *testing.T) {
	d := newComplianceServer(t)

	lines := serveLines(t, d,
		`{"jsonrpc": "2.0", "method": "foobar, "params": "bar", "baz]`+"\n")

	resp := singleResponse(t, lines)
	if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
		t.Fatalf("expected parse error, got %+v", resp)
	}
	if string(resp.ID) != "null" {
		t.Errorf("id = %q, want null", resp.ID)
	}
}

func TestCompliance_InvalidRequest(t *testing.T) {
	d := newComplianceServer(t)

	lines := serveLines(t, d,
		`{"jsonrpc": "2.0", "method": 1, "params": "bar"}`+"\n")

	resp := singleResponse(t, lines)
	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", resp)
	}
	if string(resp.ID) != "null" {
		t.Errorf("id = %q, want null", resp.ID)
	}
}

// gateWriter unblocks the gate once the first response has been written.
type gateWriter struct {
	buf  bytes.Buffer
	once sync.Once
	gate chan struct{}
}

func (w *gateWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.once.Do(func() { close(w.gate) })
	return n, err
}

func TestCompliance_OutOfOrderCompletion(t *testing.T) {
	reg := jrpc.NewRegistry()

	out := &gateWriter{gate: make(chan struct{})}
	reg.MustRegister("slow", jrpc.HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
		// Held until the fast response has been written out.
		<-out.gate
		return jrpc.NewResponse(req.ID, "slow"), nil
	}))
	reg.MustRegister("fast", jrpc.HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
		return jrpc.NewResponse(req.ID, "fast"), nil
	}))

	d := jrpc.NewDispatcher(reg,
		dispatch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	input := `{"jsonrpc":"2.0","id":1,"method":"slow"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"fast"}` + "\n"

	s := transport.NewStdio(
		transport.WithStdin(strings.NewReader(input)),
		transport.WithStdout(out),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Serve(ctx, d); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d: %v", len(lines), lines)
	}

	// The fast dispatch completes first even though it arrived second.
	var first protocol.Response
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid response %q: %v", lines[0], err)
	}
	if string(first.ID) != "2" {
		t.Errorf("first completed id = %s, want 2", first.ID)
	}
}
