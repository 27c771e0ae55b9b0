package a2a

import "fmt"

// JSON-RPC error codes. The -32600 block is standard JSON-RPC; the -32000
// block is protocol-specific.
const (
	CodeParseError        = -32700
	CodeInvalidRequest    = -32600
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternalError     = -32603
	CodeTaskNotFound      = -32001
	CodeUnsupportedOp     = -32004
	CodeIncompatibleTypes = -32005
)

// JSONRPCError is a structured protocol-level error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewErrorResponse wraps a protocol error in a response envelope.
func NewErrorResponse(id any, rpcErr *JSONRPCError) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: Version, ID: id, Error: rpcErr}
}

// NewIncompatibleTypesError reports that none of the requested output modes
// are supported by the agent. This is a content negotiation failure, not a
// task failure: no task is created.
func NewIncompatibleTypesError() *JSONRPCError {
	return &JSONRPCError{Code: CodeIncompatibleTypes, Message: "incompatible content types"}
}

// NewUnsupportedPartTypeError reports a message whose first part is not text.
func NewUnsupportedPartTypeError() *JSONRPCError {
	return &JSONRPCError{Code: CodeUnsupportedOp, Message: "only text parts are supported"}
}

// NewTaskNotFoundError reports a lookup for an unknown task id.
func NewTaskNotFoundError() *JSONRPCError {
	return &JSONRPCError{Code: CodeTaskNotFound, Message: "task not found"}
}

// NewInternalError reports a server-side failure outside the workflow.
func NewInternalError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInternalError, Message: "internal error", Data: detail}
}

// NewMethodNotFoundError reports an unknown JSON-RPC method.
func NewMethodNotFoundError(method string) *JSONRPCError {
	return &JSONRPCError{Code: CodeMethodNotFound, Message: "method not found", Data: method}
}

// NewParseError reports an unreadable request body.
func NewParseError() *JSONRPCError {
	return &JSONRPCError{Code: CodeParseError, Message: "parse error"}
}

// NewInvalidParamsError reports params that do not match the method.
func NewInvalidParamsError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidParams, Message: "invalid params", Data: detail}
}

// NewInvalidRequestError reports a malformed request envelope.
func NewInvalidRequestError(detail string) *JSONRPCError {
	return &JSONRPCError{Code: CodeInvalidRequest, Message: "invalid request", Data: detail}
}
