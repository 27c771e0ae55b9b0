package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/llm"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/session"
)

// ErrInvalidRoutingDecision is returned when the classifier answers with
// anything other than the three allowed labels. No retry, no fallback.
var ErrInvalidRoutingDecision = errors.New("invalid routing decision")

// Router classifies an inbound message into a workflow branch.
type Router struct {
	gen      llm.Generator
	sessions *session.State
}

// NewRouter builds a Router over the classifier and session memory.
func NewRouter(gen llm.Generator, sessions *session.State) *Router {
	return &Router{gen: gen, sessions: sessions}
}

// Route picks the branch for the message. An analyze decision is only
// honored once the session has a resolved document; before that it is
// silently remapped to company-name extraction.
func (r *Router) Route(ctx context.Context, sessionID, message string) (Node, error) {
	prior := ""
	if e, ok := r.sessions.Get(sessionID); ok {
		prior = e.LastMessage
	}
	raw, err := r.gen.Generate(ctx, fmt.Sprintf(routePrompt, prior, message))
	if err != nil {
		return "", fmt.Errorf("routing classification: %w", err)
	}
	label := strings.TrimSpace(raw)
	switch label {
	case labelAskHuman:
		return NodeAskHuman, nil
	case labelExtract:
		return NodeExtractEntity, nil
	case labelAnalyze:
		if !r.sessions.HasResolvedDocument(sessionID) {
			return NodeExtractEntity, nil
		}
		return NodeAnalyze, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoutingDecision, label)
	}
}
