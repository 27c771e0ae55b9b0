// Package audit records every model call as a JSON document in the object
// store, keyed by date and request id.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/llm"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/objstore"
)

// Record is one archived model call.
type Record struct {
	RequestID        string    `json:"request_id"`
	SessionID        string    `json:"session_id"`
	Step             string    `json:"step"`
	Model            string    `json:"model"`
	Temperature      float64   `json:"temperature"`
	Prompt           string    `json:"prompt"`
	Response         string    `json:"response"`
	FinishReason     string    `json:"finish_reason"`
	PromptTokens     int       `json:"prompt_token_count"`
	CompletionTokens int       `json:"candidates_token_count"`
	TotalTokens      int       `json:"total_token_count"`
	DocumentURI      string    `json:"document_uri,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Logger writes Records into an object store under
// <base>/<yyyyMMdd>/<request id>/llm_log.json.
type Logger struct {
	store       objstore.Store
	base        string
	temperature float64
	log         *slog.Logger
	now         func() time.Time
	newID       func() string
}

// NewLogger builds a Logger. base may be empty, in which case records land
// at the store root.
func NewLogger(store objstore.Store, base string, temperature float64, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{
		store:       store,
		base:        base,
		temperature: temperature,
		log:         log,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Log archives one model call. The returned URI points at the stored
// record. Upload failure propagates to the caller; the model call itself
// has already happened and is not undone.
func (l *Logger) Log(ctx context.Context, sessionID, step, prompt string, res *llm.Result, documentURI string) (string, error) {
	now := l.now().UTC()
	rec := Record{
		RequestID:        l.newID(),
		SessionID:        sessionID,
		Step:             step,
		Model:            res.Model,
		Temperature:      l.temperature,
		Prompt:           prompt,
		Response:         res.Text,
		FinishReason:     res.FinishReason,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		TotalTokens:      res.TotalTokens,
		DocumentURI:      documentURI,
		CreatedAt:        now,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s/%s/llm_log.json", now.Format("20060102"), rec.RequestID)
	if l.base != "" {
		name = l.base + "/" + name
	}
	uri, err := l.store.Put(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("upload audit record: %w", err)
	}
	l.log.Debug("audit record stored", "session_id", sessionID, "step", step, "uri", uri)
	return uri, nil
}
