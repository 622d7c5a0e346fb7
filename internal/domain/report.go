package domain

// SessionReport is the aggregate produced by a full analysis run. It is
// computed fresh per run and never stored. The insight list is a snapshot of
// the session's ledger at aggregation time, including insights appended by
// other entry points during the run.
type SessionReport struct {
	SessionID     string              `json:"session_id"`
	FullText      string              `json:"full_text"`
	Segments      []TranscriptSegment `json:"segments"`
	Insights      []Insight           `json:"insights"`
	Vitals        VitalsBlock         `json:"vitals"`
	WindowsTotal  int                 `json:"windows_total"`
	WindowsFailed int                 `json:"windows_failed"`
}
