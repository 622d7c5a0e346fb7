package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/store"
	"github.com/prepsych/copilot/internal/transcribe"
)

type fakeResolver struct {
	path string
	err  error
}

func (f *fakeResolver) Resolve(upload, preset string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if upload == "" && preset == "" {
		return "", fmt.Errorf("provide an uploaded file or a preset file: %w", domain.ErrValidation)
	}
	return f.path, nil
}

type fakeTranscriber struct {
	result *transcribe.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (*transcribe.Result, error) {
	return f.result, f.err
}

// fakeGenerator yields deterministic insights and can fail selected calls.
type fakeGenerator struct {
	calls    int
	failOn   map[int]bool // 1-based call ordinal
	excerpts []string
	notes    []string
	samples  [][]domain.VitalsSample
}

func (f *fakeGenerator) Generate(_ context.Context, excerpt string, samples []domain.VitalsSample, note string) (*domain.Insight, error) {
	f.calls++
	f.excerpts = append(f.excerpts, excerpt)
	f.notes = append(f.notes, note)
	f.samples = append(f.samples, samples)
	if f.failOn[f.calls] {
		return nil, &domain.GenerationError{Err: errors.New("advisory unavailable")}
	}
	return &domain.Insight{
		ID:             "insight-" + strconv.Itoa(f.calls),
		Text:           "observation " + strconv.Itoa(f.calls),
		Status:         domain.InsightPending,
		TriggerContext: note,
	}, nil
}

func tenSegments() []domain.TranscriptSegment {
	out := make([]domain.TranscriptSegment, 10)
	for i := range out {
		out[i] = domain.TranscriptSegment{
			Start: float64(i * 6),
			End:   float64((i + 1) * 6),
			Text:  "segment " + strconv.Itoa(i),
		}
	}
	return out
}

func newTestPipeline(gen *fakeGenerator, tr *fakeTranscriber, repo store.Repository) *Pipeline {
	return New(Deps{
		Media:       &fakeResolver{path: "/media/demo.mp4"},
		Transcriber: tr,
		Generator:   gen,
		Repo:        repo,
		Rand:        rand.New(rand.NewPCG(1, 1)),
	})
}

func fl(v float64) *float64 { return &v }

func TestAnalyzeFullRunWithMockVitals(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{FullText: "full text", Segments: tenSegments()}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.WindowsTotal != 5 || report.WindowsFailed != 0 {
		t.Errorf("Expected 5 windows, 0 failed; got %d/%d", report.WindowsTotal, report.WindowsFailed)
	}
	if len(report.Insights) != 5 {
		t.Fatalf("Expected 5 insights, got %d", len(report.Insights))
	}
	for i, ins := range report.Insights {
		if ins.Status != domain.InsightPending {
			t.Errorf("Insight %d: expected pending, got %s", i, ins.Status)
		}
		want := "Segment " + strconv.Itoa(i+1)
		if ins.TriggerContext != want {
			t.Errorf("Insight %d: expected trigger %q, got %q", i, want, ins.TriggerContext)
		}
	}

	// Two segments per window, joined.
	if gen.excerpts[0] != "segment 0 segment 1" {
		t.Errorf("Window 1 excerpt wrong: %q", gen.excerpts[0])
	}

	// No stored vitals: 120s of synthesized samples at 2s cadence.
	if len(gen.samples[0]) != 60 {
		t.Errorf("Expected 60 synthesized samples, got %d", len(gen.samples[0]))
	}
	if report.Vitals.Source != domain.VitalsSourceMock {
		t.Errorf("Expected mock provenance, got %s", report.Vitals.Source)
	}
	if report.Vitals.HeartRateBPM == nil || report.Vitals.BreathingBPM == nil {
		t.Error("Expected vitals aggregate present")
	}
	if report.FullText != "full text" {
		t.Errorf("Expected full text in report, got %q", report.FullText)
	}

	// Ledger matches the report snapshot.
	ledger, _ := repo.Insights(context.Background(), "s1")
	if len(ledger) != 5 {
		t.Errorf("Expected 5 ledger entries, got %d", len(ledger))
	}
}

func TestAnalyzeIsolatesWindowFailure(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{failOn: map[int]bool{3: true}}
	tr := &fakeTranscriber{result: &transcribe.Result{FullText: "t", Segments: tenSegments()}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Expected run to complete despite window failure, got %v", err)
	}

	if report.WindowsTotal != 5 || report.WindowsFailed != 1 {
		t.Errorf("Expected 5 windows with 1 failure, got %d/%d", report.WindowsTotal, report.WindowsFailed)
	}
	if len(report.Insights) != 4 {
		t.Fatalf("Expected 4 insights, got %d", len(report.Insights))
	}
	wantTriggers := []string{"Segment 1", "Segment 2", "Segment 4", "Segment 5"}
	for i, ins := range report.Insights {
		if ins.TriggerContext != wantTriggers[i] {
			t.Errorf("Insight %d: expected %q, got %q", i, wantTriggers[i], ins.TriggerContext)
		}
	}
	if gen.calls != 5 {
		t.Errorf("A failed window must not cancel the rest: %d calls", gen.calls)
	}
	if report.Vitals.Source != domain.VitalsSourceMock {
		t.Errorf("Vitals aggregate should survive window failures, got %s", report.Vitals.Source)
	}
}

func TestAnalyzeValidationFailsBeforeAnyWork(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{Segments: tenSegments()}}
	p := newTestPipeline(gen, tr, repo)

	_, err := p.Analyze(context.Background(), Request{SessionID: "s1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("No generation should run on validation failure, got %d calls", gen.calls)
	}
	ledger, _ := repo.Insights(context.Background(), "s1")
	if len(ledger) != 0 {
		t.Errorf("Ledger must stay unchanged, got %d entries", len(ledger))
	}
}

func TestAnalyzeMissingSessionID(t *testing.T) {
	p := newTestPipeline(&fakeGenerator{}, &fakeTranscriber{}, store.NewMemory())

	if _, err := p.Analyze(context.Background(), Request{Preset: "demo.mp4"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty session id, got %v", err)
	}
}

func TestAnalyzeTranscriptionFailureIsFatal(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{err: errors.New("whisper crashed")}
	p := newTestPipeline(gen, tr, repo)

	_, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var te *domain.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TranscriptionError, got %T", err)
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation after fatal transcription failure, got %d calls", gen.calls)
	}
}

func TestAnalyzeUsesStoredVitals(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()
	_ = repo.AppendVitals(ctx, "s1", []domain.VitalsSample{
		{PulseBPM: fl(70)}, {PulseBPM: fl(75)}, {PulseBPM: fl(80)},
	})

	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{Segments: tenSegments()}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(ctx, Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.Vitals.Source != domain.VitalsSourcePresage {
		t.Errorf("Expected presage provenance, got %s", report.Vitals.Source)
	}
	if report.Vitals.HeartRateBPM == nil || *report.Vitals.HeartRateBPM != 75.0 {
		t.Errorf("Expected whole-session pulse average 75.0, got %v", report.Vitals.HeartRateBPM)
	}
	if report.Vitals.BreathingBPM != nil {
		t.Errorf("No breathing channel stored; expected nil, got %v", *report.Vitals.BreathingBPM)
	}
	if len(gen.samples[0]) != 3 {
		t.Errorf("Generator should see the stored series, got %d samples", len(gen.samples[0]))
	}
}

func TestAnalyzeSkipsEmptyWindows(t *testing.T) {
	segments := tenSegments()
	// Windows 2 and 4 (segments 2-3 and 6-7) carry no speech.
	for _, i := range []int{2, 3, 6, 7} {
		segments[i].Text = "  "
	}

	repo := store.NewMemory()
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{Segments: segments}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.WindowsTotal != 3 {
		t.Errorf("Expected 3 non-empty windows, got %d", report.WindowsTotal)
	}
	wantNotes := []string{"Segment 1", "Segment 3", "Segment 5"}
	if len(gen.notes) != 3 {
		t.Fatalf("Expected 3 generation calls, got %d", len(gen.notes))
	}
	for i, note := range gen.notes {
		if note != wantNotes[i] {
			t.Errorf("Call %d: expected note %q, got %q", i, wantNotes[i], note)
		}
	}
}

func TestAnalyzeZeroSegments(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{FullText: "", Segments: nil}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.WindowsTotal != 0 || len(report.Insights) != 0 {
		t.Errorf("Expected empty run, got %d windows %d insights", report.WindowsTotal, len(report.Insights))
	}
}

func TestGenerateInsightAdHoc(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, &fakeTranscriber{}, repo)
	ctx := context.Background()

	ins, err := p.GenerateInsight(ctx, "s1", "I had trouble sleeping.", "", true)
	if err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if ins.Status != domain.InsightPending {
		t.Errorf("Expected pending, got %s", ins.Status)
	}
	// Mock fallback kicks in for the vitals context.
	if len(gen.samples[0]) != 60 {
		t.Errorf("Expected synthesized vitals, got %d samples", len(gen.samples[0]))
	}

	ledger, _ := repo.Insights(ctx, "s1")
	if len(ledger) != 1 || ledger[0].ID != ins.ID {
		t.Errorf("Insight not appended to ledger: %+v", ledger)
	}
}

func TestGenerateInsightSurfacesFailure(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{failOn: map[int]bool{1: true}}
	p := newTestPipeline(gen, &fakeTranscriber{}, repo)

	_, err := p.GenerateInsight(context.Background(), "s1", "excerpt", "", true)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var ge *domain.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("Expected GenerationError, got %T", err)
	}
	ledger, _ := repo.Insights(context.Background(), "s1")
	if len(ledger) != 0 {
		t.Errorf("Failed generation must not append, got %d entries", len(ledger))
	}
}

func TestGenerateInsightNoMockKeepsStoredEmpty(t *testing.T) {
	repo := store.NewMemory()
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, &fakeTranscriber{}, repo)

	if _, err := p.GenerateInsight(context.Background(), "s1", "excerpt", "", false); err != nil {
		t.Fatalf("GenerateInsight failed: %v", err)
	}
	if len(gen.samples[0]) != 0 {
		t.Errorf("Expected no samples without mock fallback, got %d", len(gen.samples[0]))
	}
}

func TestGenerateInsightValidation(t *testing.T) {
	p := newTestPipeline(&fakeGenerator{}, &fakeTranscriber{}, store.NewMemory())

	if _, err := p.GenerateInsight(context.Background(), "", "excerpt", "", true); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty session, got %v", err)
	}
	if _, err := p.GenerateInsight(context.Background(), "s1", "", "", true); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty excerpt, got %v", err)
	}
}

func TestAnalyzeReportIncludesConcurrentInsights(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()

	// An insight appended by another entry point before the run.
	_ = repo.AppendInsight(ctx, "s1", domain.Insight{ID: "external", Status: domain.InsightPending})

	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{Segments: tenSegments()}}
	p := newTestPipeline(gen, tr, repo)

	report, err := p.Analyze(ctx, Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(report.Insights) != 6 {
		t.Fatalf("Expected 6 insights (1 external + 5 generated), got %d", len(report.Insights))
	}
	if report.Insights[0].ID != "external" {
		t.Errorf("Expected the external insight first, got %s", report.Insights[0].ID)
	}
}

func TestAnalyzeSegmentsWhitespaceOnlyStillSkipped(t *testing.T) {
	// One segment whose text trims empty must not reach the generator.
	segments := []domain.TranscriptSegment{{Start: 0, End: 1, Text: " \t"}}
	gen := &fakeGenerator{}
	tr := &fakeTranscriber{result: &transcribe.Result{Segments: segments}}
	p := newTestPipeline(gen, tr, store.NewMemory())

	report, err := p.Analyze(context.Background(), Request{SessionID: "s1", Preset: "demo.mp4"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.WindowsTotal != 0 || gen.calls != 0 {
		t.Errorf("Whitespace-only window should be skipped, got %d windows %d calls", report.WindowsTotal, gen.calls)
	}
	if !strings.Contains(report.Vitals.Source, domain.VitalsSourceMock) {
		t.Errorf("Expected mock vitals, got %s", report.Vitals.Source)
	}
}
