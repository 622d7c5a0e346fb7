// Package domain contains core domain types for the copilot service.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing resource (media file, insight id, preset).
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a malformed or incomplete request that was
// rejected before any work ran.
var ErrValidation = errors.New("validation failed")

// TranscriptionError wraps a failure of the transcription collaborator.
// It is fatal to an analysis run: no partial report is produced.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the advisory service for a single
// insight request. During a multi-window analysis run it is confined to its
// window; on a direct single-shot request it surfaces to the caller.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("insight generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
