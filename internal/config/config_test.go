package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

func TestWithHome_HomeFrom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, ok := HomeFrom(ctx); ok {
		t.Fatal("expected no home in empty context")
	}
	ctx = WithHome(ctx, "/foo/bar")
	got, ok := HomeFrom(ctx)
	if !ok || got != "/foo/bar" {
		t.Fatalf("HomeFrom: got %q, ok=%v; want /foo/bar, true", got, ok)
	}
}

func TestMustHomeFrom(t *testing.T) {
	t.Parallel()
	ctx := WithHome(context.Background(), "/agents")
	if got := MustHomeFrom(ctx); got != "/agents" {
		t.Fatalf("MustHomeFrom: got %q", got)
	}
}

func TestMustHomeFrom_panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when home missing")
		}
	}()
	MustHomeFrom(context.Background())
}

func TestResolveHome_override(t *testing.T) {
	t.Parallel()
	got, err := ResolveHome("/custom/home")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if got != filepath.Clean("/custom/home") {
		t.Fatalf("ResolveHome: got %q", got)
	}
}

func TestResolveHome_env(t *testing.T) {
	t.Setenv("AGENTS_HOME", "/env/home")
	got, err := ResolveHome("")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	if got != filepath.Clean("/env/home") {
		t.Fatalf("ResolveHome from env: got %q", got)
	}
}

func TestResolveHome_default(t *testing.T) {
	t.Setenv("AGENTS_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("UserHomeDir: %v", err)
	}
	got, err := ResolveHome("")
	if err != nil {
		t.Fatalf("ResolveHome: %v", err)
	}
	want := filepath.Join(home, ".sakamomo-agents")
	if got != want {
		t.Fatalf("ResolveHome default: got %q, want %q", got, want)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL_NAME", "gpt-4o-mini")
	t.Setenv("EDINET_API_KEY", "edinet-key")
	t.Setenv("AUDIT_LOG_BASE", "audit")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("OBJECT_STORE_DRIVER", "")
	t.Setenv("OBJECT_STORE_BUCKET", "")
	t.Setenv("DB_DRIVER", "")
}

func TestFromEnv_defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.LLMBaseURL != "https://api.openai.com" {
		t.Errorf("LLMBaseURL default: got %q", cfg.LLMBaseURL)
	}
	if cfg.ObjectStoreDriver != "fs" || cfg.DBDriver != "sqlite" {
		t.Errorf("driver defaults: %q, %q", cfg.ObjectStoreDriver, cfg.DBDriver)
	}
	if cfg.LLMTemperature != 0 {
		t.Errorf("temperature default: got %v", cfg.LLMTemperature)
	}
}

func TestFromEnv_missingReportedTogether(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EDINET_API_KEY", "")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"OPENAI_API_KEY", "EDINET_API_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q missing %s", err, name)
		}
	}
}

func TestFromEnv_natsRequiresBucket(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OBJECT_STORE_DRIVER", "nats")

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "OBJECT_STORE_BUCKET") {
		t.Fatalf("got %v, want missing OBJECT_STORE_BUCKET", err)
	}
}

func TestFromEnv_badTemperature(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_TEMPERATURE", "hot")

	if _, err := FromEnv(); err == nil {
		t.Fatal("invalid temperature must fail")
	}
}

func TestCard_roundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "card.yaml")
	card := &a2a.AgentCard{
		Name:    "asset_securities_report_agent",
		URL:     "http://localhost:10010/",
		Version: "0.1.0",
		Skills:  []a2a.AgentSkill{{ID: "analyze_securities_report", Name: "有価証券報告書分析"}},
	}
	if err := SaveCard(path, card); err != nil {
		t.Fatalf("SaveCard: %v", err)
	}
	got, err := LoadCard(path)
	if err != nil {
		t.Fatalf("LoadCard: %v", err)
	}
	if got == nil || got.Name != card.Name || len(got.Skills) != 1 {
		t.Fatalf("card round trip: %+v", got)
	}
}

func TestLoadCard_missingFile(t *testing.T) {
	t.Parallel()
	card, err := LoadCard(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || card != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", card, err)
	}
}
