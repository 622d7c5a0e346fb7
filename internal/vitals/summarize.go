// Package vitals reduces physiological sample series into compact summaries
// and synthesizes demo fallback data when no sensor feed exists.
package vitals

import (
	"fmt"
	"math"
	"strings"

	"github.com/prepsych/copilot/internal/domain"
)

// NoDataText is returned when no channel has any present value.
const NoDataText = "No vitals data available."

// recentWindow bounds how many trailing samples feed the windowed summary.
const recentWindow = 10

// Summary is a compact description of a recent vitals trend, fed to the
// advisory service as context. Same samples always yield the same summary.
type Summary struct {
	Text            string
	AvgPulseBPM     *float64
	AvgBreathingBPM *float64
}

// Summarize reduces the most recent samples (at most 10) into a
// human-readable trend line. Channels with no present values are omitted;
// with nothing present the text is NoDataText.
func Summarize(samples []domain.VitalsSample) Summary {
	recent := samples
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var pulse, breathing []float64
	for _, s := range recent {
		if s.PulseBPM != nil {
			pulse = append(pulse, *s.PulseBPM)
		}
		if s.BreathingBPM != nil {
			breathing = append(breathing, *s.BreathingBPM)
		}
	}

	var out Summary
	var parts []string
	if len(pulse) > 0 {
		avg := mean(pulse)
		out.AvgPulseBPM = &avg
		parts = append(parts, fmt.Sprintf("heart rate ~%.0f BPM", avg))
	}
	if len(breathing) > 0 {
		avg := mean(breathing)
		out.AvgBreathingBPM = &avg
		parts = append(parts, fmt.Sprintf("breathing ~%.1f BPM", avg))
	}
	if len(parts) == 0 {
		out.Text = NoDataText
		return out
	}
	out.Text = strings.Join(parts, "; ")
	return out
}

// Aggregate averages each channel over the entire sample set, rounded to one
// decimal place. Used for the whole-session vitals block on a report.
func Aggregate(samples []domain.VitalsSample) (avgPulse, avgBreathing *float64) {
	var pulse, breathing []float64
	for _, s := range samples {
		if s.PulseBPM != nil {
			pulse = append(pulse, *s.PulseBPM)
		}
		if s.BreathingBPM != nil {
			breathing = append(breathing, *s.BreathingBPM)
		}
	}
	if len(pulse) > 0 {
		v := round1(mean(pulse))
		avgPulse = &v
	}
	if len(breathing) > 0 {
		v := round1(mean(breathing))
		avgBreathing = &v
	}
	return avgPulse, avgBreathing
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
