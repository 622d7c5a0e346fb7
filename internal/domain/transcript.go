package domain

// TranscriptSegment is one timed span of transcribed speech, as returned by
// the transcription collaborator. Segments are immutable and ordered by
// start time.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
