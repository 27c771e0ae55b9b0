package companyanalysis

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Card is the discovery document for this agent.
type Card struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Auth        CardAuth    `json:"auth"`
	Skills      []CardSkill `json:"skills"`
}

type CardAuth struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type CardSkill struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ServerOptions configures the company analysis server.
type ServerOptions struct {
	Addr        string
	TokenSecret string
	Searcher    Searcher
	Logger      *slog.Logger
}

// Server is the bearer-token REST front end around the Agent.
type Server struct {
	agent  *Agent
	users  *Users
	tokens *Tokens
	tasks  *TaskStore
	log    *slog.Logger
	card   Card
}

// NewServer builds the server and its http.Server.
func NewServer(opts ServerOptions) (*Server, *http.Server) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		agent:  NewAgent(opts.Searcher),
		users:  NewUsers(),
		tokens: NewTokens(opts.TokenSecret),
		tasks:  NewTaskStore(),
		log:    log,
		card: Card{
			Name:        "company_analysis_agent",
			Description: "An agent that performs company analysis using web search results",
			Version:     "0.1.0",
			Auth:        CardAuth{Type: "bearer", Description: "signed bearer token authentication"},
			Skills: []CardSkill{{
				Name:        "analyze_company",
				Description: "Analyze a company using web search results",
				Parameters: map[string]any{
					"company_name": map[string]any{
						"type":        "string",
						"description": "Name of the company to analyze",
					},
				},
			}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/agent-card", s.handleCard)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("/tasks", s.requireAuth(s.handleTasks))
	mux.HandleFunc("/tasks/", s.requireAuth(s.handleTaskByID))

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	return s, srv
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := s.tokens.Verify(token); err != nil {
			writeJSONError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
			return
		}
		next(w, r)
	}
}

// handleToken authenticates a username/password form and issues a token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	username, password, ok := credentialsFromForm(w, r)
	if !ok {
		return
	}
	if err := s.users.Authenticate(username, password); err != nil {
		writeJSONError(w, http.StatusUnauthorized, err.Error())
		return
	}
	token, err := s.tokens.Issue(username)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username, password, ok := credentialsFromForm(w, r)
	if !ok {
		return
	}
	if err := s.users.Register(username, password); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.card)
}

// handleTasks serves POST /tasks (create and run an analysis) and GET /tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		company := r.URL.Query().Get("company_name")
		if company == "" {
			writeJSONError(w, http.StatusBadRequest, "company_name required")
			return
		}
		task := s.tasks.Create("analyze_company", company)
		report, err := s.agent.AnalyzeCompany(r.Context(), company)
		if err != nil {
			task, _ = s.tasks.Update(task.ID, StatusFailed, nil, err.Error())
			s.log.Error("company analysis failed", "task_id", task.ID, "company", company, "error", err)
			writeJSON(w, http.StatusInternalServerError, task)
			return
		}
		task, _ = s.tasks.Update(task.ID, StatusCompleted, report, "")
		s.log.Info("company analysis completed", "task_id", task.ID, "company", company)
		writeJSON(w, http.StatusOK, task)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.tasks.List())
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleTaskByID serves GET and DELETE on /tasks/{id}.
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if id == "" {
		writeJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		task, ok := s.tasks.Get(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if !s.tasks.Delete(id) {
			writeJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func credentialsFromForm(w http.ResponseWriter, r *http.Request) (username, password string, ok bool) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", "", false
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid form")
		return "", "", false
	}
	username = r.PostFormValue("username")
	password = r.PostFormValue("password")
	if username == "" || password == "" {
		writeJSONError(w, http.StatusBadRequest, "username and password required")
		return "", "", false
	}
	return username, password, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"error": message})
}
