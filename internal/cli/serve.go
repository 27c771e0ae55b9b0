package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/audit"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/config"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/edinet"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/httpapi"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/llm"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/objstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/otel"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/session"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskmanager"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskstore"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskstore/postgres"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/workflow"
)

func newServeCmd() *cobra.Command {
	var (
		host         string
		port         int
		dev          bool
		envFile      string
		cardPath     string
		lookbackDays int
		enableOtel   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the filing agent JSON-RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := loadEnvFile(envFile); err != nil {
					return err
				}
			}
			home := config.MustHomeFrom(cmd.Context())
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(home, 0o755); err != nil {
				return err
			}
			ctx := cmd.Context()

			var store taskstore.Store
			switch cfg.DBDriver {
			case "memory":
				store = taskstore.NewMemory()
			case "", "sqlite":
				store, err = taskstore.OpenSQLite(home)
			case "postgres":
				store, err = postgres.Open(cfg.DBURL)
			default:
				err = fmt.Errorf("unknown db driver %q", cfg.DBDriver)
			}
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			objects, err := objstore.Open(ctx, cfg.ObjectStoreDriver,
				filepath.Join(home, "objects"), cfg.NATSURL, cfg.ObjectStoreBucket)
			if err != nil {
				return err
			}
			defer func() { _ = objects.Close() }()

			gen, err := llm.NewClient(llm.ClientOpts{
				BaseURL:     cfg.LLMBaseURL,
				APIKey:      cfg.LLMAPIKey,
				Model:       cfg.LLMModel,
				Temperature: cfg.LLMTemperature,
			})
			if err != nil {
				return err
			}
			filings, err := edinet.NewClient(edinet.ClientOpts{
				APIKey:       cfg.EdinetAPIKey,
				OutputDir:    filepath.Join(home, "downloads"),
				LookbackDays: lookbackDays,
			})
			if err != nil {
				return err
			}

			engine := workflow.NewEngine(workflow.EngineConfig{
				Generator: gen,
				Index:     filings,
				Fetcher:   filings,
				Objects:   objects,
				Audit:     audit.NewLogger(objects, cfg.AuditLogBase, cfg.LLMTemperature, slog.Default()),
				Sessions:  session.New(),
			})
			mgr := taskmanager.New(store, engine, slog.Default())

			addr := fmt.Sprintf("%s:%d", host, port)
			card := defaultCard(fmt.Sprintf("http://%s/", addr))
			if cardPath != "" {
				loaded, err := config.LoadCard(cardPath)
				if err != nil {
					return err
				}
				if loaded != nil {
					card = *loaded
				}
			}

			srvOpts := httpapi.ServerOptions{
				Addr:   addr,
				Dev:    dev,
				APIKey: cfg.APIKey,
			}
			if enableOtel {
				metricsHandler, err := otel.InitMeterProvider(ctx, card.Name)
				if err != nil {
					slog.Warn("otel init failed, metrics disabled", "err", err)
				} else {
					srvOpts.MetricsHandler = metricsHandler
					srvOpts.UseOtelHTTP = true
					_ = otel.InitMetrics(ctx)
				}
			}
			app := httpapi.NewApp(srvOpts, mgr, card)

			slog.Info("agent starting", "addr", addr, "home", home, "db_driver", cfg.DBDriver, "object_store", cfg.ObjectStoreDriver)
			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Server.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				_ = app.Server.Shutdown(shutdownCtx)
				return nil
			case err := <-errCh:
				if err == nil || errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Host to bind")
	cmd.Flags().IntVar(&port, "port", 10010, "Port for the JSON-RPC server")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().StringVar(&cardPath, "card", "", "Path to a YAML agent card overriding the built-in one")
	cmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "How many days of filing lists to scan (0 = default)")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter)")

	return cmd
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if key != "" {
			_ = os.Setenv(key, value)
		}
	}
	return sc.Err()
}
