package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voxedit-io/voxedit/internal/agent"
	"github.com/voxedit-io/voxedit/internal/journal"
	"github.com/voxedit-io/voxedit/internal/logbuf"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 50
	defaultLogLimit     = 200
)

// Dispatcher runs one voice command to completion.
type Dispatcher interface {
	Execute(ctx context.Context, command string) (*protocol.CommandResult, error)
}

// ToolCatalog describes the tools available to the assistant.
type ToolCatalog interface {
	Catalog() ([]protocol.ToolSpec, error)
}

// History reads the command journal.
type History interface {
	List(filter journal.Filter) ([]*journal.Entry, error)
	Get(id string) (*journal.Entry, error)
}

// LogQuerier abstracts log entry querying.
type LogQuerier interface {
	Query(f logbuf.Filter) []logbuf.Entry
}

// Services are the components the API server exposes. History and Logs
// are optional.
type Services struct {
	Dispatcher Dispatcher
	Tools      ToolCatalog
	History    History
	Logs       LogQuerier
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // API key for Bearer auth
}

// Server is the voxedit REST API server.
type Server struct {
	svc    Services
	cfg    Config
	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates a new API server.
func NewServer(svc Services, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/command", s.requireAuth(s.handleCommand))
	mux.HandleFunc("GET /api/tools", s.requireAuth(s.handleTools))
	mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))
	mux.HandleFunc("GET /api/history/{id}", s.requireAuth(s.handleGetHistory))
	mux.HandleFunc("GET /api/logs", s.requireAuth(s.handleGetLogs))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type commandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusBadRequest, "No command provided")
		return
	}

	// A command runs to completion even if the client goes away.
	ctx := agent.WithSource(context.WithoutCancel(r.Context()), "api")

	start := time.Now()
	result, err := s.svc.Dispatcher.Execute(ctx, req.Command)
	if err != nil {
		s.logger.Error("command failed", "error", err, "duration", time.Since(start))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("command handled",
		"command_id", result.ID,
		"steps", len(result.ProcessDetails),
		"duration", time.Since(start),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	specs, err := s.svc.Tools.Catalog()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error retrieving tools: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": specs})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.svc.History == nil {
		writeJSON(w, http.StatusOK, []*journal.Entry{})
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Status: journal.Status(q.Get("status")),
		Source: q.Get("source"),
		Query:  q.Get("q"),
		Limit:  defaultHistoryLimit,
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if since, ok := parseSince(q.Get("since")); ok {
		filter.Since = since
	}

	entries, err := s.svc.History.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.svc.History == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}

	e, err := s.svc.History.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			writeError(w, http.StatusNotFound, "command not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.svc.Logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Entry{})
		return
	}

	q := r.URL.Query()
	filter := logbuf.Filter{
		MinLevel: slog.LevelDebug,
		Limit:    defaultLogLimit,
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if lvl := q.Get("level"); lvl != "" {
		filter.MinLevel = logbuf.ParseLevel(lvl)
	}
	if since, ok := parseSince(q.Get("since")); ok {
		filter.Since = since
	}
	if id := q.Get("command_id"); id != "" {
		filter.Attrs = map[string]string{"command_id": id}
	}

	writeJSON(w, http.StatusOK, s.svc.Logs.Query(filter))
}

// --- Helpers ---

// parseSince accepts unix milliseconds or an RFC 3339 timestamp.
func parseSince(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
