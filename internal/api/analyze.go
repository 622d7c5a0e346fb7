package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prepsych/copilot/internal/session"
)

// analyzeRequest selects the media for a full analysis run. Exactly one of
// the two references must be set.
type analyzeRequest struct {
	Upload string `json:"upload,omitempty"` // stored upload filename
	Preset string `json:"preset,omitempty"` // preset library filename
}

// AnalyzeSession runs the full pipeline and returns the session report.
func (h *Handler) AnalyzeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid analyze request")
		return
	}

	report, err := h.pipeline.Analyze(r.Context(), session.Request{
		SessionID: sessionID,
		Upload:    req.Upload,
		Preset:    req.Preset,
	})
	if err != nil {
		slog.Error("Session analysis failed", "error", err, "session_id", sessionID)
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, report)
}
