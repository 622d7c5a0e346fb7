package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prepsych/copilot/internal/domain"
)

// vitalsBatch is a batch of samples posted by the sensing companion
// (iOS SmartSpectra app or the C++ pipeline).
type vitalsBatch struct {
	SessionID string                `json:"session_id"`
	Samples   []domain.VitalsSample `json:"samples"`
}

// PostVitals appends a batch of vitals samples to a session's series.
// Append is pure: malformed optional channels pass through as given.
func (h *Handler) PostVitals(w http.ResponseWriter, r *http.Request) {
	var batch vitalsBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		Error(w, http.StatusBadRequest, "invalid vitals batch")
		return
	}
	sessionID := batch.SessionID
	if sessionID == "" {
		sessionID = "default"
	}

	if err := h.repo.AppendVitals(r.Context(), sessionID, batch.Samples); err != nil {
		slog.Error("Failed to append vitals", "error", err, "session_id", sessionID)
		DomainError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"count":      len(batch.Samples),
	})
}

// GetVitals returns a session's stored vitals series in insertion order.
func (h *Handler) GetVitals(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	samples, err := h.repo.Vitals(r.Context(), sessionID)
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"samples":    samples,
	})
}
