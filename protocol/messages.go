package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request has no ID or a null ID.
// The protocol specifies that no response is sent for notifications.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response represents a JSON-RPC 2.0 response. The id member is required by
// the protocol and serializes as null when unknown.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// NewResponse creates a successful response. A nil result is encoded as a
// JSON null result so the result/error exclusivity invariant holds.
func NewResponse(id json.RawMessage, result any) *Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}

// Validate checks the invariants the constructors enforce: the protocol
// version matches and exactly one of result/error is present.
func (r *Response) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("jrpc: response version must be %q, got %q", Version, r.JSONRPC)
	}
	if r.Result != nil && r.Error != nil {
		return errors.New("jrpc: response carries both result and error")
	}
	if r.Result == nil && r.Error == nil {
		return errors.New("jrpc: response carries neither result nor error")
	}
	return nil
}

// DecodeRequest parses a raw message into a Request.
//
// Malformed JSON yields a ParseError with a nil request. Well-formed JSON
// that is not a valid Request object (wrong shape, version mismatch, empty
// method, bad id type) yields an InvalidRequest; the partially decoded
// request is returned alongside so the caller can correlate an error
// response with the request id when one was extractable.
func DecodeRequest(data []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// The document parsed; the Request object is malformed. Fields
			// decoded before the offending one survive, including the id.
			if !validID(req.ID) {
				req.ID = nil
			}
			return &req, NewInvalidRequest(err.Error())
		}
		return nil, NewParseError(err.Error())
	}
	if req.JSONRPC != Version {
		return &req, NewInvalidRequest(fmt.Sprintf("jsonrpc version must be %q", Version))
	}
	if req.Method == "" {
		return &req, NewInvalidRequest("method must be a non-empty string")
	}
	if !validID(req.ID) {
		req.ID = nil
		return &req, NewInvalidRequest("id must be a string, a number or null")
	}
	return &req, nil
}

// EncodeResponse serializes a Response. It never fails for well-formed
// Response values; an error indicates a result value that cannot be
// marshaled to JSON.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// validID reports whether raw is an acceptable request id: absent, a JSON
// string, a JSON number, or null.
func validID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var id any
	if err := json.Unmarshal(raw, &id); err != nil {
		return false
	}
	switch id.(type) {
	case string, float64, nil:
		return true
	}
	return false
}
