// Package session keeps per-session memory of the last resolved workflow
// outputs so a follow-up message can reuse an already-fetched filing.
package session

import (
	"sync"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// DocumentRef points at a filing that was fetched and archived for a session.
type DocumentRef struct {
	Title      string
	FilerName  string
	ObjectName string // key inside the object store
	StorageURI string
}

// Entry is the remembered state for one session. Overwritten wholesale on
// each new document resolution; never expired (process lifetime only).
type Entry struct {
	SessionID   string
	LastMessage string
	CompanyName string
	Document    DocumentRef
	TaskState   a2a.TaskState
}

// State is the in-memory session store shared by concurrent invocations.
type State struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty session store.
func New() *State {
	return &State{entries: make(map[string]Entry)}
}

// Get returns the entry for sessionID, if present.
func (s *State) Get(sessionID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return e, ok
}

// Put stores the entry, replacing any previous one for the same session.
func (s *State) Put(entry Entry) {
	s.mu.Lock()
	s.entries[entry.SessionID] = entry
	s.mu.Unlock()
}

// HasResolvedDocument reports whether the session has already fetched and
// archived a filing. Analysis is only honored once this is true.
func (s *State) HasResolvedDocument(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return ok && e.Document.StorageURI != ""
}
