// Package server exposes the notes agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/notes-agent/pkg/agent"
	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/notes"
	"github.com/entrhq/notes-agent/pkg/render"
	"github.com/entrhq/notes-agent/pkg/security/workspace"
	"github.com/entrhq/notes-agent/pkg/types"
)

var serverLog = logging.MustComponent("server")

// Runner drives one conversation to completion.
type Runner interface {
	Run(ctx context.Context, state *types.State) (*types.State, error)
}

// Server handles the HTTP API.
type Server struct {
	runner      Runner
	registry    *tools.Registry
	defaultPath string
	gatherer    prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultPath sets the notes path used when a request omits one.
func WithDefaultPath(path string) Option {
	return func(s *Server) {
		s.defaultPath = path
	}
}

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler builds the router.
func NewHandler(runner Runner, registry *tools.Registry, opts ...Option) http.Handler {
	s := &Server{
		runner:      runner,
		registry:    registry,
		defaultPath: "./notes/",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/notes", s.AppendNote)
		r.Post("/notes/query", s.QueryNotes)
	})
	return r
}

type askRequest struct {
	Request string `json:"request"`
	Path    string `json:"path"`
}

type appendRequest struct {
	Note string `json:"note"`
	Path string `json:"path"`
}

type queryRequest struct {
	Query string `json:"query"`
	Path  string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Ask handles POST /v1/ask by running a full conversation.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if body.Request == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request must not be empty"})
		return
	}

	start := time.Now()
	state, err := s.runner.Run(r.Context(), agent.NewConversation(s.pathOr(body.Path), body.Request))
	status := http.StatusOK
	if err != nil {
		status = statusForRun(err)
		serverLog.Warnf("ask failed after %s: %v", time.Since(start), err)
	} else {
		serverLog.Infof("ask completed in %s with %d messages", time.Since(start), state.Len())
	}
	writeJSON(w, status, render.NewTranscript(state, err))
}

// AppendNote handles POST /v1/notes.
func (s *Server) AppendNote(w http.ResponseWriter, r *http.Request) {
	var body appendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res, err := s.execute(r.Context(), "append_note", map[string]interface{}{
		"note": body.Note,
		"path": s.pathOr(body.Path),
	})
	if err != nil {
		writeJSON(w, statusForAction(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": res.Output})
}

// QueryNotes handles POST /v1/notes/query.
func (s *Server) QueryNotes(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res, err := s.execute(r.Context(), "query_notes", map[string]interface{}{
		"query": body.Query,
		"path":  s.pathOr(body.Path),
	})
	if err != nil {
		writeJSON(w, statusForAction(err), errorResponse{Error: err.Error()})
		return
	}

	if json.Valid([]byte(res.Output)) {
		writeJSON(w, http.StatusOK, map[string]json.RawMessage{"document": json.RawMessage(res.Output)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": res.Output})
}

func (s *Server) execute(ctx context.Context, name string, args map[string]interface{}) (*tools.ToolResult, error) {
	t, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Execute(ctx, args)
}

func (s *Server) pathOr(path string) string {
	if path == "" {
		return s.defaultPath
	}
	return path
}

func isValidationError(err error) bool {
	return errors.Is(err, notes.ErrEmptyNote) ||
		errors.Is(err, notes.ErrEmptyQuery) ||
		errors.Is(err, notes.ErrInvalidPath)
}

// statusForAction maps errors from a directly invoked action.
func statusForAction(err error) int {
	switch {
	case isValidationError(err), errors.Is(err, tools.ErrMalformedArguments):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, notes.ErrNotesFileMissing):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// statusForRun maps errors from a conversation. A bad action request is
// the model's fault, not the client's.
func statusForRun(err error) int {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, notes.ErrNotesFileMissing):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrUnknownAction), errors.Is(err, tools.ErrMalformedArguments), errors.Is(err, agent.ErrStepLimit):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serverLog.Errorf("response encode failed: %v", err)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serverLog.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		serverLog.Infof("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
