// Package api provides HTTP handlers for the copilot API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/media"
	"github.com/prepsych/copilot/internal/session"
	"github.com/prepsych/copilot/internal/store"
)

// Handler holds the HTTP layer's dependencies. The transport stays a thin
// adapter; all sequencing lives in the session pipeline.
type Handler struct {
	repo     store.Repository
	pipeline *session.Pipeline
	library  *media.Library
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, pipeline *session.Pipeline, library *media.Library) *Handler {
	return &Handler{
		repo:     repo,
		pipeline: pipeline,
		library:  library,
	}
}

// RegisterRoutes registers every API route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/preset-videos", h.ListPresets)
		r.Get("/preset-videos/{filename}", h.GetPresetVideo)
		r.Post("/upload-video", h.UploadVideo)

		r.Post("/vitals", h.PostVitals)
		r.Get("/vitals/{sessionID}", h.GetVitals)

		r.Post("/insights/{sessionID}", h.GenerateInsight)
		r.Get("/insights/{sessionID}", h.ListInsights)
		r.Patch("/insights/{sessionID}/{insightID}", h.AcknowledgeInsight)

		r.Post("/analyze/{sessionID}", h.AnalyzeSession)
	})

	r.Get("/ws/vitals", NewVitalsStreamHandler(h.repo).ServeHTTP)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DomainError maps the error taxonomy to HTTP status codes: validation 400,
// not found 404, collaborator failures 502, everything else 500.
func DomainError(w http.ResponseWriter, err error) {
	var transcription *domain.TranscriptionError
	var generation *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transcription), errors.As(err, &generation):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}
