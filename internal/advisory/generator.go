package advisory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/vitals"
)

// defaultTrigger is recorded when no explicit trigger context is supplied.
const defaultTrigger = "Transcript + vitals"

// Generator builds prompts from a transcript window plus a vitals trend and
// turns the advisory service's reply into an insight record. It never
// retries; retry and isolation policy belong to the caller.
type Generator struct {
	chatter Chatter
	now     func() time.Time
	newID   func() string
}

// NewGenerator creates a generator backed by the given advisory client.
func NewGenerator(chatter Chatter) *Generator {
	return &Generator{
		chatter: chatter,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Generate requests one insight for the transcript excerpt. The vitals
// summary is computed from the supplied samples; note, when non-empty, is
// appended to the prompt and recorded as the trigger context. Failures are
// returned as *domain.GenerationError.
func (g *Generator) Generate(ctx context.Context, excerpt string, samples []domain.VitalsSample, note string) (*domain.Insight, error) {
	summary := vitals.Summarize(samples)

	var sb strings.Builder
	sb.WriteString("Transcript excerpt:\n")
	sb.WriteString(excerpt)
	sb.WriteString("\n\nVitals: ")
	sb.WriteString(summary.Text)
	if note != "" {
		sb.WriteString("\nContext: ")
		sb.WriteString(note)
	}

	reply, err := g.chatter.Chat(ctx, systemPrompt, sb.String())
	if err != nil {
		return nil, &domain.GenerationError{Err: err}
	}

	trigger := note
	if trigger == "" {
		trigger = defaultTrigger
	}
	return &domain.Insight{
		ID:             g.newID(),
		Text:           strings.TrimSpace(reply),
		Status:         domain.InsightPending,
		TriggerContext: trigger,
		CreatedAt:      g.now().UTC().Format(time.RFC3339),
	}, nil
}
