package jrpc_test

import (
	"context"
	"encoding/json"
	"fmt"

	jrpc "github.com/felixgeelhaar/jrpc-go"
)

// Example demonstrates registering a method and dispatching a raw message.
func Example() {
	reg := jrpc.NewRegistry()
	reg.MustRegister("sum", jrpc.HandlerFunc(
		func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
			var nums []int
			if err := json.Unmarshal(req.Params, &nums); err != nil {
				return nil, jrpc.NewInvalidParams(err.Error())
			}
			total := 0
			for _, n := range nums {
				total += n
			}
			return jrpc.NewResponse(req.ID, total), nil
		}))

	d := jrpc.NewDispatcher(reg)

	ctx := context.Background()
	pending, err := d.HandleMessage(ctx,
		[]byte(`{"jsonrpc":"2.0","method":"sum","params":[1,2,3],"id":7}`))
	if err != nil {
		fmt.Println("dispatch failed:", err)
		return
	}

	resp, _ := pending.Await(ctx)
	data, _ := jrpc.EncodeResponse(resp)
	fmt.Println(string(data))
	// Output: {"jsonrpc":"2.0","result":6,"id":7}
}

// ExampleChain demonstrates composing middleware around every dispatch.
func ExampleChain() {
	logged := func(next jrpc.HandlerFunc) jrpc.HandlerFunc {
		return func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
			fmt.Println("dispatching", req.Method)
			return next(ctx, req)
		}
	}

	reg := jrpc.NewRegistry()
	reg.MustRegister("ping", jrpc.HandlerFunc(
		func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
			return jrpc.NewResponse(req.ID, "pong"), nil
		}))

	d := jrpc.NewDispatcher(reg, jrpc.WithMiddleware(jrpc.Recover(), logged))

	ctx := context.Background()
	pending, _ := d.HandleMessage(ctx, []byte(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	resp, _ := pending.Await(ctx)
	data, _ := jrpc.EncodeResponse(resp)
	fmt.Println(string(data))
	// Output:
	// dispatching ping
	// {"jsonrpc":"2.0","result":"pong","id":1}
}

// ExampleRegistry_Method demonstrates fluent registration with deferred errors.
func ExampleRegistry_Method() {
	reg := jrpc.NewRegistry()

	err := reg.Method("ping").
		HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
			return jrpc.NewResponse(req.ID, "pong"), nil
		}).
		Method("ping"). // duplicate
		HandlerFunc(func(ctx context.Context, req *jrpc.Request) (*jrpc.Response, error) {
			return jrpc.NewResponse(req.ID, "pong2"), nil
		}).
		Err()

	fmt.Println(err != nil)
	// Output: true
}
