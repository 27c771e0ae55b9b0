// Package taskstore defines the persistence interface for protocol tasks.
// Implementations: in-memory (default for tests), SQLite, and PostgreSQL.
package taskstore

import (
	"context"
	"errors"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// ErrTaskNotFound is returned by Get and UpdateStatus for unknown task ids.
// It indicates caller misuse rather than a workflow fault, so it is never
// absorbed into a failed task.
var ErrTaskNotFound = errors.New("task not found")

// Store tracks tasks by id. All mutating operations are serialized by the
// implementation; a store is small and correctness matters more than
// fine-grained concurrency here.
type Store interface {
	// Upsert creates the task if absent (state submitted, no artifacts) and
	// returns it; when the id already exists the existing task is returned
	// unchanged. Concurrent Upserts for the same id create at most one task.
	Upsert(ctx context.Context, id, sessionID string) (a2a.Task, error)

	// Get returns the task or ErrTaskNotFound.
	Get(ctx context.Context, id string) (a2a.Task, error)

	// UpdateStatus sets the status unconditionally and, when artifacts is
	// non-nil, replaces the artifact list. Returns the updated task or
	// ErrTaskNotFound. It never creates a task.
	UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts []a2a.Artifact) (a2a.Task, error)

	Close() error
}
