package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/jrpc-go/protocol"
	"github.com/felixgeelhaar/jrpc-go/transport"
)

// startHTTP serves the transport on an ephemeral port and returns its base URL.
func startHTTP(t *testing.T, h *transport.HTTP) (string, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Serve(ctx, newTestDispatcher(t))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for h.ListenAddr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return "http://" + h.ListenAddr(), cancel
}

func postRPC(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(url+"/rpc", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func TestHTTPServe(t *testing.T) {
	t.Run("handles requests", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0")
		url, _ := startHTTP(t, h)

		httpResp, body := postRPC(t, url, `{"jsonrpc":"2.0","id":1,"method":"echo","params":[1,2]}`)
		if httpResp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", httpResp.StatusCode)
		}

		var resp protocol.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("invalid response %q: %v", body, err)
		}
		if resp.Error != nil {
			t.Fatalf("unexpected error: %v", resp.Error)
		}
		if string(resp.ID) != "1" {
			t.Errorf("id = %q, want 1", resp.ID)
		}
	})

	t.Run("returns 204 for notifications", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0")
		url, _ := startHTTP(t, h)

		httpResp, body := postRPC(t, url, `{"jsonrpc":"2.0","method":"echo","params":[1]}`)
		if httpResp.StatusCode != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", httpResp.StatusCode)
		}
		if len(body) != 0 {
			t.Errorf("expected empty body, got %q", body)
		}
	})

	t.Run("returns parse error envelope for malformed body", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0")
		url, _ := startHTTP(t, h)

		_, body := postRPC(t, url, "{broken")

		var resp protocol.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("invalid response %q: %v", body, err)
		}
		if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
			t.Fatalf("expected parse error, got %+v", resp)
		}
		if string(resp.ID) != "null" {
			t.Errorf("id = %q, want null", resp.ID)
		}
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0")
		url, _ := startHTTP(t, h)

		resp, err := http.Get(url + "/rpc")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", resp.StatusCode)
		}
	})

	t.Run("health endpoint reports ok", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0")
		url, _ := startHTTP(t, h)

		resp, err := http.Get(url + "/health")
		if err != nil {
			t.Fatalf("GET /health failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "ok") {
			t.Errorf("unexpected health body %q", body)
		}
	})

	t.Run("enforces body size limit", func(t *testing.T) {
		h := transport.NewHTTP("127.0.0.1:0", transport.WithMaxBodyBytes(32))
		url, _ := startHTTP(t, h)

		big := `{"jsonrpc":"2.0","id":1,"method":"echo","params":"` + strings.Repeat("x", 128) + `"}`
		_, body := postRPC(t, url, big)

		var resp protocol.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("invalid response %q: %v", body, err)
		}
		// A truncated body cannot be valid JSON.
		if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
			t.Fatalf("expected parse error for truncated body, got %+v", resp)
		}
	})
}

func TestHTTPAddr(t *testing.T) {
	h := transport.NewHTTP("127.0.0.1:9999")
	if got := h.Addr(); got != "127.0.0.1:9999" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9999")
	}
}
