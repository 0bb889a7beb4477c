package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/orchestrator"
	"github.com/mirelle/solace/internal/profile"
)

// TurnRunner drives one orchestration run per incoming message.
type TurnRunner interface {
	ProcessMessage(ctx context.Context, userID, sessionID, message string) (*orchestrator.Result, error)
}

// SessionStore creates and resolves sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	SessionUser(ctx context.Context, sessionID string) (string, error)
}

// Relations registers new sessions in the relationship graph. Optional.
type Relations interface {
	RecordSession(ctx context.Context, userID, sessionID string) error
}

// ProfileLoader reads persisted profile snapshots for rehydration. Optional.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, userID string) (profileJSON, assessmentJSON []byte, err error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	runner    TurnRunner
	sessions  SessionStore
	registry  *profile.Registry
	relations Relations
	profiles  ProfileLoader
	authToken string
	logger    *zap.Logger
}

// NewHandler creates an API handler. relations and profiles may be nil. An
// empty authToken disables bearer authentication.
func NewHandler(runner TurnRunner, sessions SessionStore, registry *profile.Registry, relations Relations, profiles ProfileLoader, authToken string, logger *zap.Logger) *Handler {
	return &Handler{
		runner:    runner,
		sessions:  sessions,
		registry:  registry,
		relations: relations,
		profiles:  profiles,
		authToken: authToken,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/sessions", h.createSession)
			r.Post("/sessions/{id}/messages", h.postMessage)
			r.Get("/sessions/{id}/assessment", h.getAssessment)
		})
	})

	return r
}

// requireAuth checks the bearer token when one is configured.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != h.authToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "solace"})
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	sessionID, err := h.sessions.CreateSession(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error("session creation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create session"})
		return
	}

	if h.relations != nil {
		if err := h.relations.RecordSession(r.Context(), req.UserID, sessionID); err != nil {
			h.logger.Warn("relation session record failed", zap.Error(err))
		}
	}

	h.rehydrateProfile(r.Context(), req.UserID)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	})
}

// rehydrateProfile restores a persisted profile snapshot into the registry.
// Fails open: a missing or unreadable snapshot just means a fresh profile.
func (h *Handler) rehydrateProfile(ctx context.Context, userID string) {
	if h.profiles == nil || h.registry.Tracks(userID) {
		return
	}
	profileJSON, assessmentJSON, err := h.profiles.LoadProfile(ctx, userID)
	if err != nil {
		h.logger.Warn("profile rehydration failed", zap.String("user", userID), zap.Error(err))
		return
	}
	if profileJSON == nil {
		return
	}
	p := profile.NewPersonalityProfile()
	a := profile.NewTherapeuticAssessment()
	if err := json.Unmarshal(profileJSON, p); err != nil {
		h.logger.Warn("profile snapshot unreadable", zap.String("user", userID), zap.Error(err))
		return
	}
	if err := json.Unmarshal(assessmentJSON, a); err != nil {
		h.logger.Warn("assessment snapshot unreadable", zap.String("user", userID), zap.Error(err))
		return
	}
	h.registry.Restore(userID, p, a)
}

type postMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	userID, err := h.sessions.SessionUser(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, memory.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		h.logger.Error("session lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not resolve session"})
		return
	}

	result, err := h.runner.ProcessMessage(r.Context(), userID, sessionID, req.Message)
	if err != nil {
		// The orchestrator still produced an apology response; surface it
		// rather than a bare error body.
		h.logger.Error("turn failed", zap.String("session", sessionID), zap.Error(err))
	}
	if result == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not process message"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type assessmentResponse struct {
	Profile    *profile.PersonalityProfile    `json:"profile"`
	Assessment *profile.TherapeuticAssessment `json:"assessment"`
}

func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	userID, err := h.sessions.SessionUser(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, memory.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		h.logger.Error("session lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not resolve session"})
		return
	}

	p, a := h.registry.Snapshot(userID)
	writeJSON(w, http.StatusOK, assessmentResponse{Profile: p, Assessment: a})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
