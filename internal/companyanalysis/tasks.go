package companyanalysis

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task statuses used by the REST surface.
const (
	StatusCreated   = "created"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is one analysis request tracked by the REST API.
type Task struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Skill     string    `json:"skill"`
	Company   string    `json:"company_name"`
	Result    *Report   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// TaskStore keeps tasks in memory for the process lifetime.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewTaskStore returns an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*Task), now: time.Now}
}

// Create adds a task in the created status.
func (s *TaskStore) Create(skill, company string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t := &Task{
		ID:        uuid.NewString(),
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
		Skill:     skill,
		Company:   company,
	}
	s.tasks[t.ID] = t
	return *t
}

// Get returns a copy of the task, if present.
func (s *TaskStore) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Update sets status plus result or error. Returns false for unknown ids.
func (s *TaskStore) Update(id, status string, result *Report, errMsg string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	t.Status = status
	t.UpdatedAt = s.now().UTC()
	if result != nil {
		t.Result = result
	}
	if errMsg != "" {
		t.Error = errMsg
	}
	return *t, true
}

// List returns copies of all tasks keyed by id.
func (s *TaskStore) List() map[string]Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Task, len(s.tasks))
	for id, t := range s.tasks {
		out[id] = *t
	}
	return out
}

// Delete removes a task. Returns false for unknown ids.
func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}
