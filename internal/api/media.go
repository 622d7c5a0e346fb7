package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// uploadMemoryLimit bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const uploadMemoryLimit = 32 << 20

// ListPresets returns preset video filenames for the frontend dropdown.
func (h *Handler) ListPresets(w http.ResponseWriter, _ *http.Request) {
	names, err := h.library.Presets()
	if err != nil {
		slog.Error("Failed to list preset videos", "error", err)
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, names)
}

// GetPresetVideo streams a preset video file.
func (h *Handler) GetPresetVideo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	path, err := h.library.PresetPath(name)
	if err != nil {
		DomainError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

// UploadVideo stores an uploaded recording and returns the session id and
// stored filename for later transcription and analysis.
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stored, err := h.library.SaveUpload(sessionID, header.Filename, file)
	if err != nil {
		slog.Error("Failed to store upload", "error", err, "session_id", sessionID)
		DomainError(w, err)
		return
	}

	slog.Info("Stored uploaded recording", "session_id", sessionID, "stored_filename", stored)
	JSON(w, http.StatusOK, map[string]string{
		"session_id":      sessionID,
		"filename":        header.Filename,
		"stored_filename": stored,
	})
}
