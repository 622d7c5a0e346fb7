package domain

// VitalsSample is one physiological reading from the contactless sensing
// pipeline (Presage SmartSpectra or compatible). Every channel is optional;
// sensors may drop individual channels at any time. Samples are immutable
// once stored.
type VitalsSample struct {
	PulseBPM     *float64 `json:"pulse_bpm,omitempty"`
	BreathingBPM *float64 `json:"breathing_bpm,omitempty"`
	HRVMs        *float64 `json:"hrv_ms,omitempty"`
	PRQ          *float64 `json:"prq,omitempty"` // pulse respiration quotient
	TimestampMs  *int64   `json:"timestamp_ms,omitempty"`
}

// Vitals provenance values.
const (
	// VitalsSourcePresage marks vitals measured by the real sensing pipeline.
	VitalsSourcePresage = "presage"
	// VitalsSourceMock marks synthesized fallback vitals.
	VitalsSourceMock = "mock"
)

// VitalsBlock is the whole-session vitals aggregate attached to a session
// report. Unlike the windowed summary fed to the advisory service, it
// averages over the entire sample set used for the run.
type VitalsBlock struct {
	HeartRateBPM *float64 `json:"heart_rate_bpm"`
	BreathingBPM *float64 `json:"breathing_bpm"`
	Source       string   `json:"source"`
}
