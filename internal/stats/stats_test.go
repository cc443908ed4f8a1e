package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typemaster/internal/model"
)

func TestComputeWPMOverOneMinute(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	st := model.Stats{TotalChars: 55, CorrectChars: 50, Errors: 5, StartTime: start}

	got := Compute(st, Metrics{}, start.Add(time.Minute))

	assert.InDelta(t, 10.0, got.WPM, 1e-9)
	assert.InDelta(t, 50.0/55.0*100, got.Accuracy, 1e-9)
}

func TestComputeKeepsPreviousBeforeStart(t *testing.T) {
	prev := Metrics{WPM: 0, Accuracy: 100}
	got := Compute(model.NewStats(), prev, time.Now())
	assert.Equal(t, prev, got)
}

func TestComputeKeepsPreviousWithoutElapsedTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	prev := Metrics{WPM: 42, Accuracy: 90}
	st := model.Stats{TotalChars: 1, CorrectChars: 1, StartTime: start}

	assert.Equal(t, prev, Compute(st, prev, start))
	assert.Equal(t, prev, Compute(st, prev, start.Add(-time.Second)))
}

func TestAccuracyBounds(t *testing.T) {
	assert.Equal(t, 100.0, Accuracy(0, 0))
	assert.Equal(t, 0.0, Accuracy(0, 4))
	assert.Equal(t, 75.0, Accuracy(3, 4))
	assert.Equal(t, 100.0, Accuracy(4, 4))
}

func TestSessionMetrics(t *testing.T) {
	wpm, cpm, acc := SessionMetrics(100, 25, 60000)
	assert.InDelta(t, 20.0, wpm, 1e-9)
	assert.InDelta(t, 100.0, cpm, 1e-9)
	assert.InDelta(t, 0.8, acc, 1e-9)

	wpm, cpm, acc = SessionMetrics(10, 0, 0)
	assert.Zero(t, wpm)
	assert.Zero(t, cpm)
	assert.Zero(t, acc)
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, got)
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 1))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "+++", Sparkline([]float64{5, 5, 5}))
	line := Sparkline([]float64{0, 50, 100})
	require.Len(t, line, 3)
	assert.Equal(t, byte(' '), line[0])
	assert.Equal(t, byte('@'), line[2])
}

func TestSelectWeakChars(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "a", Mistakes: 1},
		{Char: " ", Mistakes: 9},
		{Char: "k", Mistakes: 5},
		{Char: "j", Mistakes: 5},
		{Char: "z", Mistakes: 0},
	}
	weak := SelectWeakChars(aggs, 2)
	assert.Equal(t, map[rune]struct{}{'j': {}, 'k': {}}, weak)
	assert.Len(t, SelectWeakChars(aggs, 0), 3)
}

func TestRenderTierTableListsAllTiers(t *testing.T) {
	recs := model.NewRecords()
	rec := recs[model.TierMedium]
	rec.CompletedParagraphs = 2
	rec.TotalTyped = 10
	rec.TotalCorrect = 9
	rec.Errors = 1
	recs[model.TierMedium] = rec

	var buf bytes.Buffer
	require.NoError(t, RenderTierTable(&buf, recs))
	out := buf.String()
	assert.Contains(t, out, "easy")
	assert.Contains(t, out, "hard")
	assert.Contains(t, out, "90.0%")
	assert.Contains(t, out, "never")
}

func TestParagraphCurveOrdersByIndex(t *testing.T) {
	rec := model.NewDifficultyRecord()
	rec.ParagraphAccuracies[3] = 80
	rec.ParagraphAccuracies[0] = 100
	rec.ParagraphAccuracies[1] = 90

	idx, values := ParagraphCurve(rec)
	assert.Equal(t, []int{0, 1, 3}, idx)
	assert.Equal(t, []float64{100, 90, 80}, values)
}

func TestRenderParagraphCurvesShowsRecentAverage(t *testing.T) {
	recs := model.NewRecords()
	rec := model.NewDifficultyRecord()
	for i, acc := range []float64{100, 100, 50, 60, 70, 80, 90} {
		rec.ParagraphAccuracies[i] = acc
	}
	recs[model.TierMedium] = rec

	var buf bytes.Buffer
	require.NoError(t, RenderParagraphCurves(&buf, recs))
	out := buf.String()
	assert.Contains(t, out, "min 50%, max 100%, recent avg 70%")
	assert.Contains(t, out, "no paragraphs yet")
}
