// Package media manages uploaded session recordings and the preset video
// library, and resolves analysis requests to a concrete file on disk.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prepsych/copilot/internal/domain"
)

// videoExtensions are the media types accepted as presets and streamed back.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// Library owns the upload and preset directories.
type Library struct {
	uploadDir string
	presetDir string
}

// NewLibrary creates both directories if absent.
func NewLibrary(uploadDir, presetDir string) (*Library, error) {
	for _, dir := range []string{uploadDir, presetDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create media directory %s: %w", dir, err)
		}
	}
	return &Library{uploadDir: uploadDir, presetDir: presetDir}, nil
}

// SaveUpload stores an uploaded recording under the session id, keeping the
// original extension, and returns the stored filename.
func (l *Library) SaveUpload(sessionID, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filepath.Base(filename))
	if ext == "" {
		ext = ".mp4"
	}
	stored := sessionID + ext
	dest := filepath.Join(l.uploadDir, stored)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return stored, nil
}

// Presets lists preset video filenames, sorted for a stable dropdown.
func (l *Library) Presets() ([]string, error) {
	entries, err := os.ReadDir(l.presetDir)
	if err != nil {
		return nil, fmt.Errorf("read preset directory: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PresetPath returns the on-disk path of a preset video, validating the
// name and existence.
func (l *Library) PresetPath(name string) (string, error) {
	if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("preset video %s: %w", name, domain.ErrNotFound)
	}
	path := filepath.Join(l.presetDir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("preset video %s: %w", name, domain.ErrNotFound)
	}
	return path, nil
}

// Resolve maps an analysis request's media reference to a file path.
// Exactly one of uploadName or presetName must be supplied; the referenced
// file must exist. Runs fail here before any expensive work starts.
func (l *Library) Resolve(uploadName, presetName string) (string, error) {
	switch {
	case uploadName == "" && presetName == "":
		return "", fmt.Errorf("provide an uploaded file or a preset file: %w", domain.ErrValidation)
	case uploadName != "" && presetName != "":
		return "", fmt.Errorf("provide only one of uploaded file and preset file: %w", domain.ErrValidation)
	case presetName != "":
		return l.PresetPath(presetName)
	default:
		path := filepath.Join(l.uploadDir, filepath.Base(uploadName))
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("uploaded file %s: %w", uploadName, domain.ErrNotFound)
		}
		return path, nil
	}
}
