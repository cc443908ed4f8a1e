// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typemaster/internal/model"
)

const (
	sparkChars   = " .:-=+*#%@"
	charsPerWord = 5.0
)

// Metrics is a derived WPM/accuracy pair.
type Metrics struct {
	WPM      float64
	Accuracy float64
}

// Compute derives live metrics from cumulative counters. It returns prev
// unchanged while the run has not started or no time has elapsed.
func Compute(st model.Stats, prev Metrics, now time.Time) Metrics {
	if st.StartTime.IsZero() {
		return prev
	}
	minutes := float64(now.Sub(st.StartTime).Milliseconds()) / 60000.0
	if minutes <= 0 {
		return prev
	}
	return Metrics{
		WPM:      (float64(st.CorrectChars) / charsPerWord) / minutes,
		Accuracy: Accuracy(st.CorrectChars, st.TotalChars),
	}
}

// Accuracy returns correct/total as a percentage, 100 for no attempts.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 100
	}
	acc := float64(correct) / float64(total) * 100
	return math.Max(0, math.Min(100, acc))
}

// SessionMetrics computes WPM, CPM, and accuracy (0-1) for a stored paragraph.
func SessionMetrics(correct, incorrect int, durationMs int64) (wpm, cpm, accuracy float64) {
	if durationMs <= 0 {
		return 0, 0, 0
	}
	minutes := float64(durationMs) / 60000.0
	wpm = (float64(correct) / charsPerWord) / minutes
	cpm = float64(correct) / minutes
	den := float64(correct + incorrect)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	return wpm, cpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - minVal) / (maxVal - minVal) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
