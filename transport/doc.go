// Package transport provides message transports for jrpc-go dispatchers.
//
// A transport frames raw JSON-RPC messages, hands them to a Handler (usually
// a *dispatch.Dispatcher) and writes completed responses back. Three
// transports are provided: newline-delimited stdio, HTTP and WebSocket.
//
// Transports own the notification rule: the dispatcher computes a response
// for every request, and the transport discards it when the request carried
// no id.
package transport
