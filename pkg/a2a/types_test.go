package a2a

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTask_roundTrip(t *testing.T) {
	t.Parallel()
	task := &Task{
		ID:        "t1",
		SessionID: "s1",
		Status:    TaskStatus{State: TaskStateCompleted, Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Artifacts: []Artifact{{Parts: []Part{TextPart("分析結果のテキスト")}}},
	}
	env := NewTaskResponse("req-1", task)

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var parsed JSONRPCResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := parsed.Result
	if got.ID != task.ID || got.Status.State != task.Status.State {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Artifacts[0].Parts[0].Text != "分析結果のテキスト" {
		t.Fatalf("artifact text: got %q", got.Artifacts[0].Parts[0].Text)
	}
}

func TestTaskState_Terminal(t *testing.T) {
	t.Parallel()
	for state, want := range map[TaskState]bool{
		TaskStateSubmitted:     false,
		TaskStateInputRequired: false,
		TaskStateCompleted:     true,
		TaskStateFailed:        true,
		TaskStateCanceled:      true,
	} {
		if got := state.Terminal(); got != want {
			t.Errorf("Terminal(%s): got %v, want %v", state, got, want)
		}
	}
}

func TestAreModalitiesCompatible(t *testing.T) {
	t.Parallel()
	supported := []string{"text", "text/plain"}
	cases := []struct {
		name     string
		accepted []string
		want     bool
	}{
		{"empty accepts anything", nil, true},
		{"text match", []string{"text"}, true},
		{"mixed with one match", []string{"image/png", "text/plain"}, true},
		{"no overlap", []string{"image/png", "audio/wav"}, false},
	}
	for _, tc := range cases {
		if got := AreModalitiesCompatible(tc.accepted, supported); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
