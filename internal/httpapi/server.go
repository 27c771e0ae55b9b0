// Package httpapi serves the agent's JSON-RPC endpoint, the discovery
// document, and the operational endpoints (/health, /metrics, /stream).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/taskmanager"
	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// defaultMaxRequestBodyBytes is the default limit for request body size (1 MiB) to prevent OOM.
const defaultMaxRequestBodyBytes = 1 << 20

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (test UIs on a different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	MetricsHandler http.Handler // if set, used for /metrics (OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
}

// App holds the HTTP server, the SSE hub, and the task manager.
type App struct {
	Server  *http.Server
	Hub     *SSEHub
	Manager *taskmanager.Manager
}

// NewApp creates the HTTP app and registers all routes.
func NewApp(opts ServerOptions, mgr *taskmanager.Manager, card a2a.AgentCard) *App {
	hub := NewSSEHub()
	mux := http.NewServeMux()
	app := &App{Hub: hub, Manager: mgr}

	mux.HandleFunc("/", app.handleRPC)

	mux.HandleFunc("/.well-known/agent.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, card)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	mux.HandleFunc("/stream", hub.Handler())

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(defaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, card.Name)
	}
	app.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      300 * time.Second, // workflow turns include model calls
		IdleTimeout:       60 * time.Second,
	}
	return app
}

// handleRPC dispatches one JSON-RPC request. Transport-level success always
// yields a well-formed envelope; only the envelope's error member signals
// failure.
func (a *App) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req a2a.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, a2a.NewErrorResponse(nil, a2a.NewParseError()))
		return
	}
	if req.JSONRPC != a2a.Version {
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.NewInvalidRequestError("jsonrpc must be 2.0")))
		return
	}

	switch req.Method {
	case a2a.MethodSendTask:
		var params a2a.TaskSendParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.NewInvalidParamsError(err.Error())))
			return
		}
		if params.ID == "" || params.SessionID == "" {
			writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.NewInvalidParamsError("id and sessionId required")))
			return
		}
		task, rpcErr := a.Manager.SendTask(r.Context(), params)
		if rpcErr != nil {
			writeJSON(w, a2a.NewErrorResponse(req.ID, rpcErr))
			return
		}
		a.Hub.PublishJSON(map[string]any{
			"type": "task_update", "task_id": task.ID, "state": task.Status.State,
		})
		writeJSON(w, a2a.NewTaskResponse(req.ID, task))
	case a2a.MethodGetTask:
		var params a2a.TaskQueryParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.NewInvalidParamsError(err.Error())))
			return
		}
		task, rpcErr := a.Manager.GetTask(r.Context(), params)
		if rpcErr != nil {
			writeJSON(w, a2a.NewErrorResponse(req.ID, rpcErr))
			return
		}
		writeJSON(w, a2a.NewTaskResponse(req.ID, task))
	default:
		writeJSON(w, a2a.NewErrorResponse(req.ID, a2a.NewMethodNotFoundError(req.Method)))
	}
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" || path == "/.well-known/agent.json" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
