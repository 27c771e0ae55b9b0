// Package config resolves the agent home directory and the environment
// credentials the agents require. Missing required credentials are a fatal
// startup error, never a runtime one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the environment-derived configuration for the filing agent.
type Config struct {
	// Model access.
	LLMAPIKey      string  // OPENAI_API_KEY (required)
	LLMBaseURL     string  // OPENAI_BASE_URL (default https://api.openai.com)
	LLMModel       string  // LLM_MODEL_NAME (required)
	LLMTemperature float64 // LLM_TEMPERATURE (default 0)

	// Filing index access.
	EdinetAPIKey string // EDINET_API_KEY (required)

	// Object storage for filings and audit logs.
	ObjectStoreDriver string // OBJECT_STORE_DRIVER: fs (default) or nats
	ObjectStoreBucket string // OBJECT_STORE_BUCKET (nats driver)
	NATSURL           string // NATS_URL (nats driver)
	AuditLogBase      string // AUDIT_LOG_BASE (required): prefix for audit records

	// Task store.
	DBDriver string // DB_DRIVER: memory, sqlite (default), or postgres
	DBURL    string // DATABASE_URL (postgres driver)

	// HTTP surface.
	APIKey string // AGENT_API_KEY: if set, requests must present it
}

// FromEnv loads the configuration. All missing required variables are
// reported together in a single error.
func FromEnv() (Config, error) {
	cfg := Config{
		LLMAPIKey:         os.Getenv("OPENAI_API_KEY"),
		LLMBaseURL:        envDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		LLMModel:          os.Getenv("LLM_MODEL_NAME"),
		EdinetAPIKey:      os.Getenv("EDINET_API_KEY"),
		ObjectStoreDriver: envDefault("OBJECT_STORE_DRIVER", "fs"),
		ObjectStoreBucket: os.Getenv("OBJECT_STORE_BUCKET"),
		NATSURL:           os.Getenv("NATS_URL"),
		AuditLogBase:      os.Getenv("AUDIT_LOG_BASE"),
		DBDriver:          envDefault("DB_DRIVER", "sqlite"),
		DBURL:             os.Getenv("DATABASE_URL"),
		APIKey:            os.Getenv("AGENT_API_KEY"),
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		cfg.LLMTemperature = t
	}

	var missing []string
	for _, req := range []struct{ name, val string }{
		{"OPENAI_API_KEY", cfg.LLMAPIKey},
		{"LLM_MODEL_NAME", cfg.LLMModel},
		{"EDINET_API_KEY", cfg.EdinetAPIKey},
		{"AUDIT_LOG_BASE", cfg.AuditLogBase},
	} {
		if req.val == "" {
			missing = append(missing, req.name)
		}
	}
	if cfg.ObjectStoreDriver == "nats" && cfg.ObjectStoreBucket == "" {
		missing = append(missing, "OBJECT_STORE_BUCKET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
