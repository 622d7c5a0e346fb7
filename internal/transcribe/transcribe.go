// Package transcribe provides the client for the external speech-to-text
// collaborator. The service is consumed as a black box returning timestamped
// segments; any failure is fatal to the analysis run that requested it.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prepsych/copilot/internal/domain"
)

// Result is a completed transcription: the full text plus ordered segments.
type Result struct {
	FullText string
	Segments []domain.TranscriptSegment
}

// Transcriber is the contract for the speech-to-text collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (*Result, error)
}

// HTTPClient talks to a whisper ASR sidecar over multipart HTTP.
type HTTPClient struct {
	baseURL string
	c       *http.Client
}

// Ensure HTTPClient implements Transcriber.
var _ Transcriber = (*HTTPClient)(nil)

// NewHTTPClient creates a transcription client for the given base URL.
// The timeout must cover whole-file transcription on CPU.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		c:       &http.Client{Timeout: timeout},
	}
}

type transcribeResponse struct {
	Text     string                     `json:"text"`
	Segments []domain.TranscriptSegment `json:"segments"`
}

// Transcribe posts the media file to the sidecar's /transcribe endpoint and
// decodes the timestamped result.
func (h *HTTPClient) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(mediaPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcriber %s: %s", resp.Status, string(body))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcriber decode: %w", err)
	}

	full := strings.TrimSpace(out.Text)
	if full == "" {
		parts := make([]string, 0, len(out.Segments))
		for _, s := range out.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		full = strings.Join(parts, " ")
	}
	return &Result{FullText: full, Segments: out.Segments}, nil
}
