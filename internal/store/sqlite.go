package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prepsych/copilot/internal/domain"
	"github.com/prepsych/copilot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. It exists for deployments
// that want session state to survive restarts; semantics match MemoryStore.
type SQLiteStore struct {
	db    *sql.DB
	ackMu sync.Mutex // serializes acknowledge read-modify-write per process
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		touched_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS vitals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		pulse_bpm REAL,
		breathing_bpm REAL,
		hrv_ms REAL,
		prq REAL,
		timestamp_ms INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_vitals_session ON vitals(session_id, id);
	CREATE TABLE IF NOT EXISTS insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		insight_id TEXT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL,
		trigger_context TEXT,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_insights_session ON insights(session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) touch(ctx context.Context, tx *sql.Tx, sessionID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, touched_at) VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET touched_at = excluded.touched_at`,
		sessionID, time.Now().Unix())
	return err
}

// AppendVitals adds samples to the session's series in insertion order.
func (s *SQLiteStore) AppendVitals(ctx context.Context, sessionID string, samples []domain.VitalsSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append vitals: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.touch(ctx, tx, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vitals (session_id, pulse_bpm, breathing_bpm, hrv_ms, prq, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append vitals: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		if _, err := stmt.ExecContext(ctx, sessionID,
			nullFloat(sample.PulseBPM), nullFloat(sample.BreathingBPM),
			nullFloat(sample.HRVMs), nullFloat(sample.PRQ),
			nullInt(sample.TimestampMs)); err != nil {
			return fmt.Errorf("insert vitals sample: %w", err)
		}
	}
	return tx.Commit()
}

// Vitals returns the session's full series in insertion order.
func (s *SQLiteStore) Vitals(ctx context.Context, sessionID string) ([]domain.VitalsSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pulse_bpm, breathing_bpm, hrv_ms, prq, timestamp_ms
		FROM vitals WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query vitals: %w", err)
	}
	defer rows.Close()

	out := []domain.VitalsSample{}
	for rows.Next() {
		var pulse, breathing, hrv, prq sql.NullFloat64
		var ts sql.NullInt64
		if err := rows.Scan(&pulse, &breathing, &hrv, &prq, &ts); err != nil {
			return nil, fmt.Errorf("scan vitals sample: %w", err)
		}
		out = append(out, domain.VitalsSample{
			PulseBPM:     floatPtr(pulse),
			BreathingBPM: floatPtr(breathing),
			HRVMs:        floatPtr(hrv),
			PRQ:          floatPtr(prq),
			TimestampMs:  intPtr(ts),
		})
	}
	return out, rows.Err()
}

// AppendInsight adds an insight to the session's ordered ledger.
func (s *SQLiteStore) AppendInsight(ctx context.Context, sessionID string, insight domain.Insight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append insight: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := s.touch(ctx, tx, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO insights (session_id, insight_id, text, status, trigger_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, insight.ID, insight.Text, string(insight.Status),
		insight.TriggerContext, insight.CreatedAt); err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return tx.Commit()
}

// Insights returns the session's ledger in insertion order.
func (s *SQLiteStore) Insights(ctx context.Context, sessionID string) ([]domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT insight_id, text, status, trigger_context, created_at
		FROM insights WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	out := []domain.Insight{}
	for rows.Next() {
		var ins domain.Insight
		var status string
		if err := rows.Scan(&ins.ID, &ins.Text, &status, &ins.TriggerContext, &ins.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		ins.Status = domain.InsightStatus(status)
		out = append(out, ins)
	}
	return out, rows.Err()
}

// AcknowledgeInsight marks the first matching insight acknowledged and
// returns the updated record. Retries on SQLite concurrency conflicts.
func (s *SQLiteStore) AcknowledgeInsight(ctx context.Context, sessionID, insightID string) (*domain.Insight, error) {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()

	var res sql.Result
	var err error
	delay := 50 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		res, err = s.db.ExecContext(ctx, `
			UPDATE insights SET status = ?
			WHERE id = (SELECT MIN(id) FROM insights WHERE session_id = ? AND insight_id = ?)`,
			string(domain.InsightAcknowledged), sessionID, insightID)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("acknowledge insight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("acknowledge insight: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("insight %s: %w", insightID, domain.ErrNotFound)
	}

	var ins domain.Insight
	var status string
	err = s.db.QueryRowContext(ctx, `
		SELECT insight_id, text, status, trigger_context, created_at
		FROM insights WHERE session_id = ? AND insight_id = ?
		ORDER BY id LIMIT 1`, sessionID, insightID).
		Scan(&ins.ID, &ins.Text, &status, &ins.TriggerContext, &ins.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("read acknowledged insight: %w", err)
	}
	ins.Status = domain.InsightStatus(status)
	return &ins, nil
}

// PurgeIdleSessions removes sessions not written to for longer than ttl.
func (s *SQLiteStore) PurgeIdleSessions(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, table := range []string{"vitals", "insights"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE session_id IN (SELECT session_id FROM sessions WHERE touched_at < ?)",
			cutoff); err != nil {
			return 0, fmt.Errorf("purge %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE touched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
