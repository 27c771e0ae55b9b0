// Package a2a provides the wire types for the agent-to-agent JSON-RPC surface.
// These types mirror the protocol JSON and are stable for use by pkg/client and
// external callers.
package a2a

import (
	"encoding/json"
	"time"
)

// TaskState enumerates the mutually exclusive states a task may be in.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Terminal reports whether no further workflow progress occurs from s.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateCanceled
}

// Part types carried inside messages and artifacts.
const (
	PartTypeText = "text"
	PartTypeFile = "file"
)

// Part is one typed content element. Only text parts are produced by the
// agents in this repo; the type tag exists so unsupported inbound parts can be
// rejected explicitly.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// Message is a user or agent utterance made of ordered parts.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Artifact is an ordered set of parts produced by a task.
type Artifact struct {
	Parts []Part `json:"parts"`
}

// TaskStatus is the current state of a task plus the transition timestamp.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Task is a unit of work tracked by id, status, and output artifacts.
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId,omitempty"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// TaskSendParams are the params of a tasks/send request.
type TaskSendParams struct {
	ID                  string   `json:"id"`
	SessionID           string   `json:"sessionId"`
	Message             Message  `json:"message"`
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
}

// TaskQueryParams are the params of a tasks/get request.
type TaskQueryParams struct {
	ID string `json:"id"`
}

// JSON-RPC method names served by the agents.
const (
	MethodSendTask = "tasks/send"
	MethodGetTask  = "tasks/get"
)

// JSONRPCRequest is the request envelope.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is the response envelope; exactly one of Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id,omitempty"`
	Result  *Task         `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// NewTaskResponse wraps a task in a success envelope.
func NewTaskResponse(id any, task *Task) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: Version, ID: id, Result: task}
}

// Version is the JSON-RPC protocol version string.
const Version = "2.0"

// AreModalitiesCompatible reports whether the client's accepted output modes
// intersect the agent's supported content types. An empty accepted list means
// the client takes anything.
func AreModalitiesCompatible(accepted, supported []string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, a := range accepted {
		for _, s := range supported {
			if a == s {
				return true
			}
		}
	}
	return false
}
