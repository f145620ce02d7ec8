package protocol

import "fmt"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Boundaries of the reserved code ranges defined by the protocol.
const (
	// ReservedCodeMin..ReservedCodeMax is reserved for protocol errors.
	ReservedCodeMin = -32768
	ReservedCodeMax = -32000

	// ServerErrorCodeMin..ServerErrorCodeMax is the slice of the reserved
	// range set aside for implementation-defined server errors.
	ServerErrorCodeMin = -32099
	ServerErrorCodeMax = -32000
)

// Canonical message text for the standard codes, per the protocol's
// reserved-code table.
const (
	msgParseError     = "Parse error"
	msgInvalidRequest = "Invalid Request"
	msgMethodNotFound = "Method not found"
	msgInvalidParams  = "Invalid params"
	msgInternalError  = "Internal error"
)

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jrpc: %s (code: %d)", e.Message, e.Code)
}

// Is implements errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithData returns a copy of the error with additional data attached.
func (e *Error) WithData(data any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Data:    data,
	}
}

// IsReservedCode reports whether code lies in the range the protocol
// reserves for pre-defined errors.
func IsReservedCode(code int) bool {
	return code >= ReservedCodeMin && code <= ReservedCodeMax
}

// IsServerErrorCode reports whether code lies in the implementation-defined
// server-error range. These codes are reserved but legal for handlers.
func IsServerErrorCode(code int) bool {
	return code >= ServerErrorCodeMin && code <= ServerErrorCodeMax
}

// IsStandardCode reports whether code is one of the five pre-defined
// protocol error codes.
func IsStandardCode(code int) bool {
	switch code {
	case CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams, CodeInternalError:
		return true
	}
	return false
}

// NewParseError creates a parse error (-32700). Detail, if non-empty, is
// attached as error data.
func NewParseError(detail string) *Error {
	return newStandardError(CodeParseError, msgParseError, detail)
}

// NewInvalidRequest creates an invalid request error (-32600).
func NewInvalidRequest(detail string) *Error {
	return newStandardError(CodeInvalidRequest, msgInvalidRequest, detail)
}

// NewMethodNotFound creates a method not found error (-32601).
func NewMethodNotFound() *Error {
	return &Error{Code: CodeMethodNotFound, Message: msgMethodNotFound}
}

// NewInvalidParams creates an invalid params error (-32602).
func NewInvalidParams(detail string) *Error {
	return newStandardError(CodeInvalidParams, msgInvalidParams, detail)
}

// NewInternalError creates an internal error (-32603). Detail, if non-nil,
// is attached as error data.
func NewInternalError(detail any) *Error {
	e := &Error{Code: CodeInternalError, Message: msgInternalError}
	if detail != nil {
		e.Data = detail
	}
	return e
}

// NewError creates a handler-defined application error. Codes must lie
// outside the reserved range (or inside the server-error band); the
// dispatcher clamps violations to an internal error.
func NewError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func newStandardError(code int, message, detail string) *Error {
	e := &Error{Code: code, Message: message}
	if detail != "" {
		e.Data = detail
	}
	return e
}
