package taskstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	st, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t)
	ctx := context.Background()

	created, err := st.Upsert(ctx, "t1", "s1")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created.Status.State != a2a.TaskStateSubmitted || len(created.Artifacts) != 0 {
		t.Fatalf("unexpected created task: %+v", created)
	}

	again, err := st.Upsert(ctx, "t1", "s-other")
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if again.SessionID != "s1" {
		t.Fatalf("upsert must not overwrite: got session %q", again.SessionID)
	}
}

func TestSQLite_UpdateStatusRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t)
	ctx := context.Background()
	if _, err := st.Upsert(ctx, "t1", "s1"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	arts := []a2a.Artifact{{Parts: []a2a.Part{a2a.TextPart("結果テキスト")}}}
	task, err := st.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: a2a.TaskStateCompleted}, arts)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if task.Status.State != a2a.TaskStateCompleted {
		t.Fatalf("state: got %s", task.Status.State)
	}
	if len(task.Artifacts) != 1 || task.Artifacts[0].Parts[0].Text != "結果テキスト" {
		t.Fatalf("artifacts did not round-trip: %+v", task.Artifacts)
	}
}

func TestSQLite_UpdateStatusUnknownID(t *testing.T) {
	t.Parallel()
	st := openTestSQLite(t)

	_, err := st.UpdateStatus(context.Background(), "missing", a2a.TaskStatus{State: a2a.TaskStateFailed}, nil)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("got %v, want ErrTaskNotFound", err)
	}
}
