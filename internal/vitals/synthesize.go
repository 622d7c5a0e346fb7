package vitals

import (
	"math/rand/v2"

	"github.com/prepsych/copilot/internal/domain"
)

// Synthesis constants: one sample every 2 seconds, centered on resting
// adult baselines with bounded jitter.
const (
	synthStepSeconds  = 2.0
	synthBasePulse    = 72.0
	synthBaseBreathes = 14.0
)

// Synthesize produces plausible demo vitals for sessions with no sensor
// feed: a sample every 2 seconds from t=0 up to (excluding) durationSec,
// pulse in [69, 77) BPM and breathing in [13, 16) BPM. Callers must tag the
// result as mock provenance. A nil rng falls back to an unseeded source.
func Synthesize(durationSec float64, rng *rand.Rand) []domain.VitalsSample {
	var out []domain.VitalsSample
	for t := 0.0; t < durationSec; t += synthStepSeconds {
		pulse := synthBasePulse + jitter(rng, -3, 5)
		breathing := synthBaseBreathes + jitter(rng, -1, 2)
		ts := int64(t * 1000)
		out = append(out, domain.VitalsSample{
			PulseBPM:     &pulse,
			BreathingBPM: &breathing,
			TimestampMs:  &ts,
		})
	}
	return out
}

// jitter returns a value in [lo, hi).
func jitter(rng *rand.Rand, lo, hi float64) float64 {
	if rng == nil {
		return lo + rand.Float64()*(hi-lo)
	}
	return lo + rng.Float64()*(hi-lo)
}
