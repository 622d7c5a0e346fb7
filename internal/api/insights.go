package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// generateInsightRequest is the ad-hoc single-insight request body.
type generateInsightRequest struct {
	TranscriptExcerpt string `json:"transcript_excerpt"`
	Context           string `json:"context,omitempty"`
	UseMockVitals     *bool  `json:"use_mock_vitals,omitempty"` // default true
}

// GenerateInsight generates one insight for a transcript excerpt outside a
// full analysis run. Advisory failures surface as 502 here.
func (h *Handler) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req generateInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid insight request")
		return
	}
	allowMock := true
	if req.UseMockVitals != nil {
		allowMock = *req.UseMockVitals
	}

	ins, err := h.pipeline.GenerateInsight(r.Context(), sessionID, req.TranscriptExcerpt, req.Context, allowMock)
	if err != nil {
		slog.Warn("Ad-hoc insight generation failed", "error", err, "session_id", sessionID)
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, ins)
}

// ListInsights returns the session's insight ledger in insertion order.
func (h *Handler) ListInsights(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	insights, err := h.repo.Insights(r.Context(), sessionID)
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"insights":   insights,
	})
}

// AcknowledgeInsight marks an insight as addressed by the therapist.
func (h *Handler) AcknowledgeInsight(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	insightID := chi.URLParam(r, "insightID")

	updated, err := h.repo.AcknowledgeInsight(r.Context(), sessionID, insightID)
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, updated)
}
