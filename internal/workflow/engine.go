// Package workflow runs the session-scoped state machine that turns an
// inbound user message into a response and a terminal task state.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/audit"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/edinet"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/llm"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/objstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/otel"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/session"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// ErrNoDocumentsFound is returned when the filing index has no candidate
// for the extracted company name.
var ErrNoDocumentsFound = errors.New("no documents found")

// Fixed user-facing responses. Diagnostics go to the server log only.
const (
	askHumanResponse = "どの企業の分析をしたいかを教えてください。"
	confirmResponse  = "この有価証券報告書のURIを分析対象として良いですか？ %s"
	failureResponse  = "エラーが発生したため、処理が失敗しました"
)

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Generator llm.Generator
	Index     edinet.Index
	Fetcher   edinet.Fetcher
	Objects   objstore.Store
	Audit     *audit.Logger
	Sessions  *session.State
	Logger    *slog.Logger
}

// Engine sequences Router -> branch nodes -> terminal for one session
// message. Invocations for the same session are serialized; different
// sessions run concurrently.
type Engine struct {
	router   *Router
	gen      llm.Generator
	index    edinet.Index
	fetcher  edinet.Fetcher
	objects  objstore.Store
	audit    *audit.Logger
	sessions *session.State
	log      *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine builds an Engine. All collaborators are required except Logger.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		router:   NewRouter(cfg.Generator, cfg.Sessions),
		gen:      cfg.Generator,
		index:    cfg.Index,
		fetcher:  cfg.Fetcher,
		objects:  cfg.Objects,
		audit:    cfg.Audit,
		sessions: cfg.Sessions,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// invocation is the state threaded through one run. Discarded after the
// terminal node; only the subset written to session memory survives.
type invocation struct {
	sessionID   string
	message     string
	companyName string
	document    session.DocumentRef
	response    string
	state       a2a.TaskState
}

// Invoke runs the workflow for one message and always yields a response
// body plus a task state: any node failure is logged and converted to a
// FAILED outcome with the fixed failure message, never an error.
func (e *Engine) Invoke(ctx context.Context, sessionID, message string) (string, a2a.TaskState) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	inv := &invocation{sessionID: sessionID, message: message}
	if err := e.run(ctx, inv); err != nil {
		e.log.Error("workflow invocation failed", "session_id", sessionID, "error", err)
		e.remember(inv, a2a.TaskStateFailed)
		return failureResponse, a2a.TaskStateFailed
	}
	e.remember(inv, inv.state)
	return inv.response, inv.state
}

func (e *Engine) run(ctx context.Context, inv *invocation) error {
	node := NodeRouting
	for node != NodeEnd {
		outcome, err := e.step(ctx, node, inv)
		if err != nil {
			return fmt.Errorf("node %s: %w", node, err)
		}
		node, err = next(node, outcome)
		if err != nil {
			return err
		}
	}
	return nil
}

// step executes one node and returns its transition outcome.
func (e *Engine) step(ctx context.Context, node Node, inv *invocation) (string, error) {
	switch node {
	case NodeRouting:
		branch, err := e.router.Route(ctx, inv.sessionID, inv.message)
		if err != nil {
			return "", err
		}
		otel.RecordLLMCall(ctx, string(NodeRouting))
		e.log.Debug("routed message", "session_id", inv.sessionID, "branch", branch)
		return string(branch), nil
	case NodeAskHuman:
		inv.response = askHumanResponse
		inv.state = a2a.TaskStateInputRequired
		return outcomeDone, nil
	case NodeExtractEntity:
		return outcomeDone, e.extractEntity(ctx, inv)
	case NodeFetchDocument:
		return outcomeDone, e.fetchDocument(ctx, inv)
	case NodeAnalyze:
		return outcomeDone, e.analyze(ctx, inv)
	default:
		return "", fmt.Errorf("unexpected node %s", node)
	}
}

func (e *Engine) extractEntity(ctx context.Context, inv *invocation) error {
	raw, err := e.gen.Generate(ctx, fmt.Sprintf(extractPrompt, inv.message))
	if err != nil {
		return fmt.Errorf("extract company name: %w", err)
	}
	otel.RecordLLMCall(ctx, string(NodeExtractEntity))
	inv.companyName = strings.TrimSpace(raw)
	return nil
}

func (e *Engine) fetchDocument(ctx context.Context, inv *invocation) error {
	docs, err := e.index.Search(ctx, inv.companyName)
	if err != nil {
		return fmt.Errorf("search filings for %q: %w", inv.companyName, err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w for %q", ErrNoDocumentsFound, inv.companyName)
	}
	// First candidate wins; the index carries no ranking.
	doc := docs[0]

	localPath, err := e.fetcher.FetchPDF(ctx, doc.DocID)
	if err != nil {
		return fmt.Errorf("fetch filing %s: %w", doc.DocID, err)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("document/%s/%s/%s",
		e.now().UTC().Format("20060102150405"), inv.sessionID, filepath.Base(localPath))
	uri, err := e.objects.Put(ctx, name, data)
	if err != nil {
		return fmt.Errorf("archive filing %s: %w", doc.DocID, err)
	}

	inv.document = session.DocumentRef{
		Title:      doc.Description,
		FilerName:  doc.FilerName,
		ObjectName: name,
		StorageURI: uri,
	}
	inv.response = fmt.Sprintf(confirmResponse, doc.FilerName)
	inv.state = a2a.TaskStateInputRequired
	return nil
}

func (e *Engine) analyze(ctx context.Context, inv *invocation) error {
	entry, ok := e.sessions.Get(inv.sessionID)
	if !ok || entry.Document.StorageURI == "" {
		return errors.New("analyze requested without a resolved document")
	}
	data, err := e.objects.Get(ctx, entry.Document.ObjectName)
	if err != nil {
		return fmt.Errorf("load archived filing %s: %w", entry.Document.ObjectName, err)
	}
	prompt := fmt.Sprintf(analyzePrompt, string(data))
	res, err := e.gen.GenerateDetailed(ctx, prompt)
	if err != nil {
		return fmt.Errorf("analyze filing: %w", err)
	}
	otel.RecordLLMCall(ctx, string(NodeAnalyze))
	// Carry forward the resolved document so the session can analyze again.
	inv.companyName = entry.CompanyName
	inv.document = entry.Document
	inv.response = res.Text
	inv.state = a2a.TaskStateCompleted

	// The analysis is already computed; an audit upload failure still
	// propagates rather than being swallowed.
	if e.audit != nil {
		if _, err := e.audit.Log(ctx, inv.sessionID, string(NodeAnalyze), prompt, res, entry.Document.StorageURI); err != nil {
			return err
		}
	}
	return nil
}

// remember overwrites the session entry with this invocation's outputs.
func (e *Engine) remember(inv *invocation, state a2a.TaskState) {
	entry := session.Entry{
		SessionID:   inv.sessionID,
		LastMessage: inv.message,
		CompanyName: inv.companyName,
		Document:    inv.document,
		TaskState:   state,
	}
	// A failed or clarifying turn must not discard an already resolved
	// document for the session.
	if entry.Document.StorageURI == "" {
		if prev, ok := e.sessions.Get(inv.sessionID); ok {
			entry.Document = prev.Document
			if entry.CompanyName == "" {
				entry.CompanyName = prev.CompanyName
			}
		}
	}
	e.sessions.Put(entry)
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[sessionID] = l
	}
	return l
}
