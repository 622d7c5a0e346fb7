// Package session implements the session-analysis pipeline: transcript
// windowing, vitals alignment, per-window insight generation with isolated
// failures, and report assembly.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/store"
	"github.com/prepsych/copilot/internal/transcribe"
	"github.com/prepsych/copilot/internal/transcript"
	"github.com/prepsych/copilot/internal/vitals"
)

// MediaResolver maps a request's media reference to a file path.
// Implemented by media.Library.
type MediaResolver interface {
	Resolve(uploadName, presetName string) (string, error)
}

// InsightGenerator produces one insight for a transcript excerpt.
// Implemented by advisory.Generator.
type InsightGenerator interface {
	Generate(ctx context.Context, excerpt string, samples []domain.VitalsSample, note string) (*domain.Insight, error)
}

// Deps wires the pipeline's collaborators. Zero-value tunables fall back to
// the defaults below.
type Deps struct {
	Media       MediaResolver
	Transcriber transcribe.Transcriber
	Generator   InsightGenerator
	Repo        store.Repository
	Logger      *slog.Logger

	WindowCount       int
	MockVitalsSeconds float64
	Rand              *rand.Rand // optional seed for synthesized vitals
}

const defaultMockVitalsSeconds = 120.0

// Pipeline is the top-level session-analysis control flow.
type Pipeline struct {
	media       MediaResolver
	transcriber transcribe.Transcriber
	generator   InsightGenerator
	repo        store.Repository
	logger      *slog.Logger

	windowCount int
	mockSeconds float64
	rng         *rand.Rand
}

// New creates a pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	windowCount := deps.WindowCount
	if windowCount <= 0 {
		windowCount = transcript.DefaultWindowCount
	}
	mockSeconds := deps.MockVitalsSeconds
	if mockSeconds <= 0 {
		mockSeconds = defaultMockVitalsSeconds
	}
	return &Pipeline{
		media:       deps.Media,
		transcriber: deps.Transcriber,
		generator:   deps.Generator,
		repo:        deps.Repo,
		logger:      logger,
		windowCount: windowCount,
		mockSeconds: mockSeconds,
		rng:         deps.Rand,
	}
}

// Request identifies the session and the media to analyze. Exactly one of
// Upload (stored upload filename) or Preset (preset library filename) must
// be set.
type Request struct {
	SessionID string
	Upload    string
	Preset    string
}

// Analyze runs the full pipeline: resolve media, transcribe, acquire
// vitals, window the transcript, generate per-window insights, and assemble
// the report. A transcription failure aborts the run; a generation failure
// is confined to its window and the run still completes.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*domain.SessionReport, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("session id required: %w", domain.ErrValidation)
	}

	mediaPath, err := p.media.Resolve(req.Upload, req.Preset)
	if err != nil {
		return nil, err
	}

	res, err := p.transcriber.Transcribe(ctx, mediaPath)
	if err != nil {
		return nil, &domain.TranscriptionError{Err: err}
	}

	samples, source, err := p.acquireVitals(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	windows := transcript.Split(res.Segments, p.windowCount)
	total, failed := p.generateWindows(ctx, req.SessionID, windows, samples)

	avgPulse, avgBreathing := vitals.Aggregate(samples)

	// Snapshot after all window attempts resolved; includes insights
	// appended by other entry points during the run.
	insights, err := p.repo.Insights(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("read insight ledger: %w", err)
	}

	p.logger.Info("session analysis completed",
		"session_id", req.SessionID,
		"segments", len(res.Segments),
		"windows", total,
		"windows_failed", failed,
		"vitals_source", source)

	return &domain.SessionReport{
		SessionID: req.SessionID,
		FullText:  res.FullText,
		Segments:  res.Segments,
		Insights:  insights,
		Vitals: domain.VitalsBlock{
			HeartRateBPM: avgPulse,
			BreathingBPM: avgBreathing,
			Source:       source,
		},
		WindowsTotal:  total,
		WindowsFailed: failed,
	}, nil
}

// acquireVitals reads the session's series, falling back to synthesized
// demo data when no sensor feed exists. The provenance tag is "presage"
// only when at least one real sample was stored.
func (p *Pipeline) acquireVitals(ctx context.Context, sessionID string) ([]domain.VitalsSample, string, error) {
	samples, err := p.repo.Vitals(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("read vitals: %w", err)
	}
	if len(samples) > 0 {
		return samples, domain.VitalsSourcePresage, nil
	}
	return vitals.Synthesize(p.mockSeconds, p.rng), domain.VitalsSourceMock, nil
}

// generateWindows drives insight generation per non-empty window.
// Each window's outcome is a typed result: successes land in the ledger
// immediately, failures are counted and logged but never abort the run or
// the remaining windows.
func (p *Pipeline) generateWindows(ctx context.Context, sessionID string, windows []transcript.Window, samples []domain.VitalsSample) (total, failed int) {
	for i, w := range windows {
		text := w.Text()
		if text == "" {
			continue
		}
		total++

		note := fmt.Sprintf("Segment %d", i+1)
		ins, err := p.generator.Generate(ctx, text, samples, note)
		if err != nil {
			failed++
			p.logger.Warn("window insight generation failed",
				"session_id", sessionID,
				"window", i+1,
				"error", err)
			continue
		}
		if err := p.repo.AppendInsight(ctx, sessionID, *ins); err != nil {
			failed++
			p.logger.Error("failed to append insight",
				"session_id", sessionID,
				"window", i+1,
				"error", err)
		}
	}
	return total, failed
}

// GenerateInsight serves the ad-hoc single-insight path outside a full run.
// Unlike the windowed path, a generation failure surfaces to the caller.
// With allowMock set, sessions without stored vitals get synthesized data.
func (p *Pipeline) GenerateInsight(ctx context.Context, sessionID, excerpt, note string, allowMock bool) (*domain.Insight, error) {
	if sessionID == "" || excerpt == "" {
		return nil, fmt.Errorf("session id and transcript excerpt required: %w", domain.ErrValidation)
	}

	samples, err := p.repo.Vitals(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read vitals: %w", err)
	}
	if len(samples) == 0 && allowMock {
		samples = vitals.Synthesize(p.mockSeconds, p.rng)
	}

	ins, err := p.generator.Generate(ctx, excerpt, samples, note)
	if err != nil {
		return nil, err
	}
	if err := p.repo.AppendInsight(ctx, sessionID, *ins); err != nil {
		return nil, fmt.Errorf("append insight: %w", err)
	}
	return ins, nil
}
