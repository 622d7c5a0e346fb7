package domain

// InsightStatus is the lifecycle state of an insight.
type InsightStatus string

const (
	// InsightPending marks an insight not yet reviewed by the therapist.
	InsightPending InsightStatus = "pending"
	// InsightAcknowledged marks an insight the therapist has addressed.
	InsightAcknowledged InsightStatus = "acknowledged"
)

// Insight is a short advisory record correlating speech content with the
// client's vitals trend. Records are replaced wholesale on status
// transition; the identifier is stable across transitions.
type Insight struct {
	ID             string        `json:"id"`
	Text           string        `json:"text"`
	Status         InsightStatus `json:"status"`
	TriggerContext string        `json:"trigger_context,omitempty"` // e.g. "Segment 3"
	CreatedAt      string        `json:"created_at,omitempty"`
}

// Acknowledged returns a copy of the insight with status acknowledged and
// every other field unchanged.
func (i Insight) Acknowledged() Insight {
	i.Status = InsightAcknowledged
	return i
}
