// Package transcript partitions a session transcript into contiguous
// analysis windows.
package transcript

import (
	"strings"

	"github.com/prepsych/copilot/internal/domain"
)

// DefaultWindowCount is the target number of analysis windows per session.
const DefaultWindowCount = 5

// Window is a contiguous slice of transcript segments analyzed as one unit.
type Window struct {
	Segments []domain.TranscriptSegment
}

// Text joins the window's segment texts with single spaces and trims the
// result. An empty result means the window has nothing to analyze.
func (w Window) Text() string {
	parts := make([]string, len(w.Segments))
	for i, s := range w.Segments {
		parts[i] = s.Text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Split partitions segments into at most windowCount contiguous,
// non-overlapping windows whose concatenation reproduces the input exactly.
// Window size is max(1, len/windowCount); the final window absorbs any
// remainder, so only it may exceed the common size. Zero segments yield
// zero windows.
func Split(segments []domain.TranscriptSegment, windowCount int) []Window {
	if len(segments) == 0 {
		return nil
	}
	if windowCount < 1 {
		windowCount = 1
	}
	size := len(segments) / windowCount
	if size < 1 {
		size = 1
	}

	var out []Window
	for start := 0; start < len(segments); start += size {
		end := start + size
		if end > len(segments) || len(out) == windowCount-1 {
			end = len(segments)
		}
		out = append(out, Window{Segments: segments[start:end]})
		if end == len(segments) {
			break
		}
	}
	return out
}
