package taskstore

import (
	"context"
	"sync"
	"time"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// memoryStore keeps tasks in a map under one coarse lock.
type memoryStore struct {
	mu    sync.Mutex
	tasks map[string]*a2a.Task
}

// NewMemory returns an in-memory Store. Tasks live for the process lifetime.
func NewMemory() Store {
	return &memoryStore{tasks: make(map[string]*a2a.Task)}
}

func (s *memoryStore) Upsert(ctx context.Context, id, sessionID string) (a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return cloneTask(t), nil
	}
	t := &a2a.Task{
		ID:        id,
		SessionID: sessionID,
		Status:    a2a.TaskStatus{State: a2a.TaskStateSubmitted, Timestamp: time.Now().UTC()},
	}
	s.tasks[id] = t
	return cloneTask(t), nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return a2a.Task{}, ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (s *memoryStore) UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts []a2a.Artifact) (a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return a2a.Task{}, ErrTaskNotFound
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	t.Status = status
	if artifacts != nil {
		t.Artifacts = artifacts
	}
	return cloneTask(t), nil
}

func (s *memoryStore) Close() error { return nil }

// cloneTask copies a task so callers never alias store-owned state.
func cloneTask(t *a2a.Task) a2a.Task {
	out := *t
	if t.Artifacts != nil {
		out.Artifacts = make([]a2a.Artifact, len(t.Artifacts))
		copy(out.Artifacts, t.Artifacts)
	}
	return out
}
