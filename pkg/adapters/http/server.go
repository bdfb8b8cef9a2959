package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/logging"
	"github.com/aretw0/boletim/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodySize bounds every request body. Answers are capped by the engine
// sanitizer well below this.
const MaxBodySize = 1 << 20

// Engine is the subset of *boletim.Engine served over HTTP.
type Engine interface {
	StartSession(ctx context.Context) (boletim.StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID, stepID, text string) (boletim.SubmitResult, error)
	UpdateAnswer(ctx context.Context, sessionID, stepID, text string) (boletim.UpdateResult, error)
	GetProgress(ctx context.Context, sessionID string) (boletim.SessionProgress, error)
	CurrentPrompt(ctx context.Context, sessionID string) (boletim.Prompt, error)
	Answers(ctx context.Context, sessionID string) ([]boletim.SectionAnswers, error)
	Draft(ctx context.Context, sessionID string) (domain.DraftSnapshot, error)
	RestoreDraftJSON(ctx context.Context, sessionID string, data []byte) (boletim.RestoreResult, error)
	Narratives(ctx context.Context, sessionID string) (map[string]domain.NarrativeStatus, error)
	GenerateNarrative(ctx context.Context, sessionID, sectionID string) (string, error)
	ListSessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Server exposes an Engine as a JSON API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// answerRequest is the body of POST /sessions/{id}/answers and PUT .../answers/{stepID}.
type answerRequest struct {
	StepID string `json:"stepId"`
	Text   string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetProgress)
			r.Delete("/", s.DeleteSession)
			r.Get("/prompt", s.GetPrompt)
			r.Post("/answers", s.SubmitAnswer)
			r.Get("/answers", s.GetAnswers)
			r.Put("/answers/{stepID}", s.UpdateAnswer)
			r.Get("/draft", s.GetDraft)
			r.Put("/draft", s.RestoreDraft)
			r.Get("/narratives", s.GetNarratives)
			r.Post("/sections/{sectionID}/narrative", s.GenerateNarrative)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.StartSession(r.Context())
	if err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetProgress handles GET /sessions/{sessionID}.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.GetProgress(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetProgress", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPrompt handles GET /sessions/{sessionID}/prompt.
func (s *Server) GetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.CurrentPrompt(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetPrompt", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// SubmitAnswer handles POST /sessions/{sessionID}/answers.
// Rejected answers are 200 with accepted=false; drift is 409 with the same body.
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var body answerRequest
	if !s.decode(w, r, "SubmitAnswer", &body) {
		return
	}

	res, err := s.Engine.SubmitAnswer(r.Context(), sessionID, body.StepID, body.Text)
	if res.Drift {
		s.writeJSON(w, http.StatusConflict, res)
		return
	}
	if err != nil {
		s.writeError(w, "SubmitAnswer", err)
		return
	}

	if res.Accepted {
		s.broadcast(sessionID, Event{
			Type:      "answer_accepted",
			StepID:    res.StepID,
			SectionID: res.SectionID,
			Version:   res.Snapshot.Version,
			Complete:  res.SessionComplete,
		})
	}
	s.writeJSON(w, http.StatusOK, res)
}

// UpdateAnswer handles PUT /sessions/{sessionID}/answers/{stepID}.
func (s *Server) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stepID := chi.URLParam(r, "stepID")
	var body answerRequest
	if !s.decode(w, r, "UpdateAnswer", &body) {
		return
	}

	res, err := s.Engine.UpdateAnswer(r.Context(), sessionID, stepID, body.Text)
	if err != nil {
		s.writeError(w, "UpdateAnswer", err)
		return
	}
	if res.Accepted {
		s.broadcast(sessionID, Event{Type: "answer_updated", StepID: stepID, SectionID: res.SectionID, Version: res.Snapshot.Version})
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetAnswers handles GET /sessions/{sessionID}/answers.
func (s *Server) GetAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := s.Engine.Answers(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetAnswers", err)
		return
	}
	if answers == nil {
		answers = []boletim.SectionAnswers{}
	}
	s.writeJSON(w, http.StatusOK, answers)
}

// GetDraft handles GET /sessions/{sessionID}/draft.
func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.Draft(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetDraft", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// RestoreDraft handles PUT /sessions/{sessionID}/draft.
// The body is a snapshot as returned by GET .../draft. A draft that does not
// win is 409 with its reason; nothing changes.
func (s *Server) RestoreDraft(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res, err := s.Engine.RestoreDraftJSON(r.Context(), sessionID, data)
	if err != nil {
		s.writeError(w, "RestoreDraft", err)
		return
	}
	if !res.Accepted {
		s.writeJSON(w, http.StatusConflict, res)
		return
	}
	s.broadcast(sessionID, Event{Type: "draft_restored", Version: res.Version})
	s.writeJSON(w, http.StatusOK, res)
}

// GetNarratives handles GET /sessions/{sessionID}/narratives.
func (s *Server) GetNarratives(w http.ResponseWriter, r *http.Request) {
	narratives, err := s.Engine.Narratives(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetNarratives", err)
		return
	}
	s.writeJSON(w, http.StatusOK, narratives)
}

// GenerateNarrative handles POST /sessions/{sessionID}/sections/{sectionID}/narrative.
func (s *Server) GenerateNarrative(w http.ResponseWriter, r *http.Request) {
	text, err := s.Engine.GenerateNarrative(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "sectionID"))
	if err != nil {
		s.writeError(w, "GenerateNarrative", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "boletim-http",
		"version": strings.TrimSpace(boletim.Version),
	})
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Warn(op+": invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) broadcast(sessionID string, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.Streams.Broadcast(sessionID, string(data))
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		unknown  *domain.UnknownNodeError
		ordering *domain.OrderingError
		snapshot *domain.SnapshotError
		collab   *domain.CollaboratorError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &ordering), errors.As(err, &snapshot):
		return http.StatusConflict
	case errors.As(err, &collab):
		return http.StatusBadGateway
	case errors.Is(err, boletim.ErrNoNarrativeGenerator):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
