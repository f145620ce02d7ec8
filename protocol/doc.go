// Package protocol defines the JSON-RPC 2.0 message types and error codes.
//
// This package provides the low-level protocol structures used by jrpc-go.
// Most users should use the higher-level jrpc package instead.
//
// # Request and Response Types
//
// The package defines the core JSON-RPC 2.0 message types:
//
//	type Request struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Method  string          `json:"method"`
//	    Params  json.RawMessage `json:"params,omitempty"`
//	}
//
//	type Response struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    Result  any             `json:"result,omitempty"`
//	    Error   *Error          `json:"error,omitempty"`
//	    ID      json.RawMessage `json:"id"`
//	}
//
// A Response carries exactly one of Result or Error, never both and never
// neither. The NewResponse and NewErrorResponse constructors enforce this;
// Validate checks it on decoded values.
//
// # Decoding
//
// DecodeRequest turns a raw message into a Request and classifies failures
// using the standard JSON-RPC 2.0 error codes:
//
//	CodeParseError     = -32700  // text is not well-formed JSON
//	CodeInvalidRequest = -32600  // JSON is fine, the Request object is not
//	CodeMethodNotFound = -32601  // no handler registered for the method
//	CodeInvalidParams  = -32602  // handler rejected the params shape
//	CodeInternalError  = -32603  // unanticipated handler fault
//
// When the text is well-formed JSON but an invalid Request object,
// DecodeRequest still returns the partially decoded request so a caller can
// correlate the error response with the request id, if one was extractable.
//
// Helper functions create properly formatted errors with the protocol's
// canonical message text:
//
//	err := protocol.NewMethodNotFound()
//	err := protocol.NewInvalidParams("missing required field: name")
//	err := protocol.NewError(1001, "quota exhausted", nil)
package protocol
