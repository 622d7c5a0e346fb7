// Package store provides session state persistence: the per-session vitals
// series and the per-session insight ledger.
package store

import (
	"context"
	"time"

	"github.com/prepsych/copilot/internal/domain"
)

// Repository defines the interface for session state. Sessions are created
// lazily on first write and isolated from each other; mutations within a
// session serialize so insertion order is preserved.
type Repository interface {
	// AppendVitals adds samples to the session's series in order, creating
	// the series if absent. An empty batch leaves the series unchanged.
	AppendVitals(ctx context.Context, sessionID string, samples []domain.VitalsSample) error

	// Vitals returns the session's full series in insertion order. Unknown
	// session ids yield an empty slice, not an error.
	Vitals(ctx context.Context, sessionID string) ([]domain.VitalsSample, error)

	// AppendInsight adds an insight to the session's ordered ledger,
	// creating the ledger if absent.
	AppendInsight(ctx context.Context, sessionID string, insight domain.Insight) error

	// Insights returns a snapshot of the session's ledger in insertion
	// order, or an empty slice if none.
	Insights(ctx context.Context, sessionID string) ([]domain.Insight, error)

	// AcknowledgeInsight replaces the first insight with the given id by an
	// acknowledged copy and returns it. Returns domain.ErrNotFound when no
	// insight matches. Acknowledging an already-acknowledged insight returns
	// the record unchanged.
	AcknowledgeInsight(ctx context.Context, sessionID, insightID string) (*domain.Insight, error)

	// PurgeIdleSessions removes sessions not written to for longer than ttl
	// and reports how many were removed.
	PurgeIdleSessions(ctx context.Context, ttl time.Duration) (int, error)

	// Close releases store resources.
	Close() error
}
