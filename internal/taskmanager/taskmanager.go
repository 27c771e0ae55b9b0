// Package taskmanager is the service façade behind tasks/send and
// tasks/get: it validates the request, tracks the task, runs the workflow,
// and persists the outcome.
package taskmanager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/otel"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// SupportedContentTypes are the output modes this agent can produce.
var SupportedContentTypes = []string{"text", "text/plain"}

// Workflow turns one session message into a response and terminal state.
// Satisfied by the workflow engine; tests inject fakes.
type Workflow interface {
	Invoke(ctx context.Context, sessionID, message string) (response string, state a2a.TaskState)
}

// Manager coordinates the task store and the workflow.
type Manager struct {
	store  taskstore.Store
	wf     Workflow
	log    *slog.Logger
	now    func() time.Time
	record func(ctx context.Context, state string, d time.Duration)
}

// New builds a Manager. Logger may be nil.
func New(store taskstore.Store, wf Workflow, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, wf: wf, log: log, now: time.Now, record: otel.RecordTaskSend}
}

// SendTask handles one tasks/send request. Protocol-level failures come
// back as a *a2a.JSONRPCError with a nil task; workflow failures come back
// as a well-formed FAILED task. The task is only created after the
// output-mode negotiation succeeds.
func (m *Manager) SendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, *a2a.JSONRPCError) {
	start := m.now()

	if !a2a.AreModalitiesCompatible(params.AcceptedOutputModes, SupportedContentTypes) {
		m.log.Warn("rejecting task with incompatible output modes",
			"task_id", params.ID, "accepted", params.AcceptedOutputModes)
		return nil, a2a.NewIncompatibleTypesError()
	}

	if _, err := m.store.Upsert(ctx, params.ID, params.SessionID); err != nil {
		m.log.Error("task upsert failed", "task_id", params.ID, "error", err)
		return nil, a2a.NewInternalError(err.Error())
	}

	text, ok := firstTextPart(params.Message)
	if !ok {
		return nil, a2a.NewUnsupportedPartTypeError()
	}

	response, state := m.wf.Invoke(ctx, params.SessionID, text)

	status := a2a.TaskStatus{State: state, Timestamp: m.now().UTC()}
	artifacts := []a2a.Artifact{{Parts: []a2a.Part{a2a.TextPart(response)}}}
	task, err := m.store.UpdateStatus(ctx, params.ID, status, artifacts)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			return nil, a2a.NewTaskNotFoundError()
		}
		m.log.Error("task status update failed", "task_id", params.ID, "error", err)
		return nil, a2a.NewInternalError(err.Error())
	}

	m.record(ctx, string(state), m.now().Sub(start))
	m.log.Info("task processed",
		"task_id", task.ID, "session_id", task.SessionID, "state", state)
	return &task, nil
}

// GetTask handles one tasks/get request.
func (m *Manager) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, *a2a.JSONRPCError) {
	task, err := m.store.Get(ctx, params.ID)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			return nil, a2a.NewTaskNotFoundError()
		}
		return nil, a2a.NewInternalError(err.Error())
	}
	return &task, nil
}

// firstTextPart extracts the text of the message's first part. Only text
// parts are supported.
func firstTextPart(msg a2a.Message) (string, bool) {
	if len(msg.Parts) == 0 {
		return "", false
	}
	p := msg.Parts[0]
	if p.Type != a2a.PartTypeText {
		return "", false
	}
	return p.Text, true
}
