package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/edinet"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/llm"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/objstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/session"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// fakeGen replays scripted model answers in order.
type fakeGen struct {
	mu      sync.Mutex
	answers []string
	err     error
}

func (g *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.GenerateDetailed(ctx, prompt)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (g *fakeGen) GenerateDetailed(ctx context.Context, prompt string) (*llm.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	if len(g.answers) == 0 {
		return nil, errors.New("fakeGen: no scripted answer left")
	}
	text := g.answers[0]
	g.answers = g.answers[1:]
	return &llm.Result{Text: text, Model: "fake", FinishReason: "stop"}, nil
}

type fakeIndex struct {
	docs []edinet.Document
	err  error
}

func (i *fakeIndex) Search(ctx context.Context, companyName string) ([]edinet.Document, error) {
	return i.docs, i.err
}

// fakeFetcher writes a small PDF-like file into dir and returns its path.
type fakeFetcher struct {
	dir string
	err error
}

func (f *fakeFetcher) FetchPDF(ctx context.Context, docID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, docID+".pdf")
	if err := os.WriteFile(path, []byte("report body for "+docID), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func newTestEngine(t *testing.T, gen llm.Generator, index edinet.Index, fetcher edinet.Fetcher) (*Engine, *session.State, objstore.Store) {
	t.Helper()
	objects, err := objstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	sessions := session.New()
	eng := NewEngine(EngineConfig{
		Generator: gen,
		Index:     index,
		Fetcher:   fetcher,
		Objects:   objects,
		Sessions:  sessions,
	})
	return eng, sessions, objects
}

func TestEngine_Invoke_extractAndFetch(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{answers: []string{"extract_company_name", "ACCERT Inc.\n"}}
	index := &fakeIndex{docs: []edinet.Document{
		{DocID: "D100", FilerName: "ACCERT株式会社", Description: "有価証券報告書"},
		{DocID: "D200", FilerName: "ACCERT Holdings", Description: "有価証券報告書"},
	}}
	eng, sessions, _ := newTestEngine(t, gen, index, &fakeFetcher{dir: t.TempDir()})

	resp, state := eng.Invoke(context.Background(), "s1", "Please analyze ACCERT Inc.")
	if state != a2a.TaskStateInputRequired {
		t.Fatalf("state: got %s, want %s", state, a2a.TaskStateInputRequired)
	}
	// First candidate wins.
	want := fmt.Sprintf(confirmResponse, "ACCERT株式会社")
	if resp != want {
		t.Fatalf("response: got %q, want %q", resp, want)
	}
	if !sessions.HasResolvedDocument("s1") {
		t.Fatal("expected session to have a resolved document")
	}
	entry, _ := sessions.Get("s1")
	if entry.CompanyName != "ACCERT Inc." {
		t.Fatalf("company name: got %q", entry.CompanyName)
	}
	if !strings.Contains(entry.Document.ObjectName, "/s1/") {
		t.Fatalf("object name %q should be keyed by session", entry.Document.ObjectName)
	}
}

func TestEngine_Invoke_analyzeAfterResolution(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{answers: []string{
		"extract_company_name", "ACCERT Inc.",
		"analyze_report", "verbatim analysis text",
	}}
	index := &fakeIndex{docs: []edinet.Document{{DocID: "D100", FilerName: "ACCERT株式会社"}}}
	eng, _, _ := newTestEngine(t, gen, index, &fakeFetcher{dir: t.TempDir()})
	ctx := context.Background()

	if _, state := eng.Invoke(ctx, "s1", "Please analyze ACCERT Inc."); state != a2a.TaskStateInputRequired {
		t.Fatalf("first turn state: got %s", state)
	}
	resp, state := eng.Invoke(ctx, "s1", "analyze it")
	if state != a2a.TaskStateCompleted {
		t.Fatalf("second turn state: got %s, want %s", state, a2a.TaskStateCompleted)
	}
	if resp != "verbatim analysis text" {
		t.Fatalf("response: got %q, want model text verbatim", resp)
	}
}

func TestEngine_Invoke_noDocumentsFound(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{answers: []string{"extract_company_name", "Unknown Corp"}}
	eng, _, _ := newTestEngine(t, gen, &fakeIndex{}, &fakeFetcher{dir: t.TempDir()})

	resp, state := eng.Invoke(context.Background(), "s1", "analyze Unknown Corp")
	if state != a2a.TaskStateFailed {
		t.Fatalf("state: got %s, want %s", state, a2a.TaskStateFailed)
	}
	if resp != failureResponse {
		t.Fatalf("response: got %q, want fixed failure message", resp)
	}
}

func TestEngine_Invoke_askHuman(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{answers: []string{"ask_human"}}
	eng, _, _ := newTestEngine(t, gen, &fakeIndex{}, &fakeFetcher{dir: t.TempDir()})

	resp, state := eng.Invoke(context.Background(), "s1", "hello")
	if state != a2a.TaskStateInputRequired {
		t.Fatalf("state: got %s", state)
	}
	if resp != askHumanResponse {
		t.Fatalf("response: got %q, want fixed clarifying prompt", resp)
	}
}

func TestEngine_Invoke_generatorFailure(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{err: errors.New("model unavailable")}
	eng, _, _ := newTestEngine(t, gen, &fakeIndex{}, &fakeFetcher{dir: t.TempDir()})

	resp, state := eng.Invoke(context.Background(), "s1", "hello")
	if state != a2a.TaskStateFailed || resp != failureResponse {
		t.Fatalf("got (%q, %s), want fixed failure outcome", resp, state)
	}
}

func TestEngine_Invoke_failureKeepsResolvedDocument(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{answers: []string{
		"extract_company_name", "ACCERT Inc.",
		"extract_company_name", "Missing Corp",
	}}
	index := &fakeIndex{docs: []edinet.Document{{DocID: "D100", FilerName: "ACCERT株式会社"}}}
	eng, sessions, _ := newTestEngine(t, gen, index, &fakeFetcher{dir: t.TempDir()})
	ctx := context.Background()

	eng.Invoke(ctx, "s1", "analyze ACCERT Inc.")
	index.docs = nil
	if _, state := eng.Invoke(ctx, "s1", "analyze Missing Corp"); state != a2a.TaskStateFailed {
		t.Fatalf("state: got %s", state)
	}
	if !sessions.HasResolvedDocument("s1") {
		t.Fatal("failed turn must not discard the resolved document")
	}
}

func TestNext_unknownTransition(t *testing.T) {
	t.Parallel()
	if _, err := next(NodeAskHuman, "analyze_report"); err == nil {
		t.Fatal("expected error for missing transition edge")
	}
	node, err := next(NodeRouting, labelAnalyze)
	if err != nil || node != NodeAnalyze {
		t.Fatalf("next routing/analyze: got (%s, %v)", node, err)
	}
}
