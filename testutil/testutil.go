// Package testutil provides testing utilities for jrpc-go dispatchers.
//
// The test client drives a dispatcher with in-memory messages and awaits
// the results, so handler behavior can be asserted without a transport:
//
//	func TestEcho(t *testing.T) {
//	    reg := dispatch.NewRegistry()
//	    reg.MustRegister("echo", echoHandler{})
//	    tc := testutil.NewTestClient(t, dispatch.NewDispatcher(reg))
//
//	    resp := tc.Call("echo", []int{1, 2})
//	    testutil.RequireResult(t, resp)
//	}
package testutil

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/jrpc-go/dispatch"
	"github.com/felixgeelhaar/jrpc-go/protocol"
)

// TestClient drives a dispatcher with in-memory JSON-RPC messages.
type TestClient struct {
	t          testing.TB
	dispatcher *dispatch.Dispatcher
	timeout    time.Duration
	nextID     atomic.Int64
}

// NewTestClient creates a test client for the given dispatcher.
func NewTestClient(t testing.TB, d *dispatch.Dispatcher) *TestClient {
	t.Helper()
	return &TestClient{
		t:          t,
		dispatcher: d,
		timeout:    5 * time.Second,
	}
}

// Call dispatches a request with a fresh numeric id and awaits the response.
// It fails the test on any failure before handler execution.
func (tc *TestClient) Call(method string, params any) *protocol.Response {
	tc.t.Helper()

	id := tc.nextID.Add(1)
	raw := tc.buildRequest(method, params, id)

	resp, err := tc.Dispatch(raw)
	if err != nil {
		tc.t.Fatalf("dispatch %q: %v", method, err)
	}
	return resp
}

// Notify dispatches a notification (no id) and awaits the internally
// computed response, which a real transport would discard.
func (tc *TestClient) Notify(method string, params any) *protocol.Response {
	tc.t.Helper()

	raw := tc.buildRequest(method, params, nil)
	resp, err := tc.Dispatch(raw)
	if err != nil {
		tc.t.Fatalf("notify %q: %v", method, err)
	}
	return resp
}

// Dispatch hands a raw message to the dispatcher and awaits the result.
// Synchronous decode failures are returned, not fatal, so tests can assert
// on them.
func (tc *TestClient) Dispatch(raw []byte) (*protocol.Response, error) {
	tc.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), tc.timeout)
	defer cancel()

	pending, err := tc.dispatcher.HandleMessage(ctx, raw)
	if err != nil {
		return nil, err
	}

	resp, err := pending.Await(ctx)
	if err != nil {
		tc.t.Fatalf("await: %v", err)
	}
	return resp, nil
}

func (tc *TestClient) buildRequest(method string, params any, id any) []byte {
	tc.t.Helper()

	req := map[string]any{
		"jsonrpc": protocol.Version,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	if id != nil {
		req["id"] = id
	}

	raw, err := json.Marshal(req)
	if err != nil {
		tc.t.Fatalf("marshal request: %v", err)
	}
	return raw
}

// RequireResult fails the test unless resp is a success response, and
// returns its result.
func RequireResult(t testing.TB, resp *protocol.Response) any {
	t.Helper()
	if resp == nil {
		t.Fatal("expected response, got nil")
	}
	if resp.Error != nil {
		t.Fatalf("expected result, got error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		t.Fatal("expected result to be set")
	}
	return resp.Result
}

// RequireErrorCode fails the test unless resp is an error response with the
// given code, and returns the error object.
func RequireErrorCode(t testing.TB, resp *protocol.Response, code int) *protocol.Error {
	t.Helper()
	if resp == nil {
		t.Fatal("expected response, got nil")
	}
	if resp.Error == nil {
		t.Fatalf("expected error with code %d, got result %v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Fatalf("error code = %d, want %d", resp.Error.Code, code)
	}
	return resp.Error
}

// ResultJSON re-marshals the response result for structural comparison.
func ResultJSON(t testing.TB, resp *protocol.Response) string {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(data)
}
