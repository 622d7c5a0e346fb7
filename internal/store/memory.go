package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prepsych/copilot/internal/domain"
)

// MemoryStore implements Repository with in-process maps. This is the
// default backend; state lives as long as the process unless the idle
// sweeper purges it.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	now      func() time.Time
}

// Ensure MemoryStore implements Repository.
var _ Repository = (*MemoryStore)(nil)

type sessionState struct {
	vitals   []domain.VitalsSample
	insights []domain.Insight
	touched  time.Time
}

// NewMemory creates a new in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionState),
		now:      time.Now,
	}
}

func (s *MemoryStore) session(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	st.touched = s.now()
	return st
}

// AppendVitals adds samples to the session's series in insertion order.
func (s *MemoryStore) AppendVitals(_ context.Context, sessionID string, samples []domain.VitalsSample) error {
	if len(samples) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.vitals = append(st.vitals, samples...)
	return nil
}

// Vitals returns a copy of the session's series.
func (s *MemoryStore) Vitals(_ context.Context, sessionID string) ([]domain.VitalsSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return []domain.VitalsSample{}, nil
	}
	out := make([]domain.VitalsSample, len(st.vitals))
	copy(out, st.vitals)
	return out, nil
}

// AppendInsight adds an insight to the session's ledger.
func (s *MemoryStore) AppendInsight(_ context.Context, sessionID string, insight domain.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.session(sessionID)
	st.insights = append(st.insights, insight)
	return nil
}

// Insights returns a snapshot of the session's ledger.
func (s *MemoryStore) Insights(_ context.Context, sessionID string) ([]domain.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return []domain.Insight{}, nil
	}
	out := make([]domain.Insight, len(st.insights))
	copy(out, st.insights)
	return out, nil
}

// AcknowledgeInsight replaces the matching ledger slot with an acknowledged
// copy. Lookup is linear; ledgers stay small (bounded by windows per run).
func (s *MemoryStore) AcknowledgeInsight(_ context.Context, sessionID, insightID string) (*domain.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("insight %s: %w", insightID, domain.ErrNotFound)
	}
	for i := range st.insights {
		if st.insights[i].ID == insightID {
			st.insights[i] = st.insights[i].Acknowledged()
			updated := st.insights[i]
			st.touched = s.now()
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("insight %s: %w", insightID, domain.ErrNotFound)
}

// PurgeIdleSessions drops sessions not written to for longer than ttl.
func (s *MemoryStore) PurgeIdleSessions(_ context.Context, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, st := range s.sessions {
		if st.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
