package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/store"
)

// wsReadTimeout bounds how long the stream may stay silent before the
// connection is dropped.
const wsReadTimeout = 5 * time.Minute

// VitalsStreamHandler ingests live vitals batches over WebSocket, for
// sensing companions that stream during a session instead of posting
// batches after the fact.
type VitalsStreamHandler struct {
	repo store.Repository
}

// NewVitalsStreamHandler creates a WebSocket vitals ingestion handler.
func NewVitalsStreamHandler(repo store.Repository) *VitalsStreamHandler {
	return &VitalsStreamHandler{repo: repo}
}

// wsVitalsFrame is one streamed message: a batch of samples for the session
// named in the query string.
type wsVitalsFrame struct {
	Samples []domain.VitalsSample `json:"samples"`
}

// wsVitalsAck confirms how many samples each frame appended.
type wsVitalsAck struct {
	Received int `json:"received"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *VitalsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id query parameter required", http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept vitals WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close vitals websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	slog.Info("Vitals stream connected", "session_id", sessionID, "ip", r.RemoteAddr)

	for {
		ctx, cancel := context.WithTimeout(r.Context(), wsReadTimeout)
		frames, err := h.readFrame(ctx, ws)
		cancel()
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				slog.Info("Vitals stream closed", "session_id", sessionID)
				return
			}
			slog.Warn("Vitals stream read failed", "error", err, "session_id", sessionID)
			return
		}

		if err := h.repo.AppendVitals(r.Context(), sessionID, frames.Samples); err != nil {
			slog.Error("Failed to append streamed vitals", "error", err, "session_id", sessionID)
			return
		}

		ack, _ := json.Marshal(wsVitalsAck{Received: len(frames.Samples)})
		if err := ws.Write(r.Context(), websocket.MessageText, ack); err != nil {
			slog.Debug("Vitals stream ack failed", "error", err, "session_id", sessionID)
			return
		}
	}
}

func (h *VitalsStreamHandler) readFrame(ctx context.Context, ws *websocket.Conn) (*wsVitalsFrame, error) {
	_, data, err := ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	var frame wsVitalsFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	return &frame, nil
}
