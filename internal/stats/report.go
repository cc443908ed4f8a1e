package stats

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/verte-zerg/typemaster/internal/model"
)

const (
	reportMistakeWindow = 50
	curveTrendWindow    = 5
)

// HistorySource lists stored paragraph history.
type HistorySource interface {
	ListParagraphs(ctx context.Context, cfg model.StatsConfig) ([]model.ParagraphAggregate, error)
	GetWeakChars(ctx context.Context, window int, tier model.Tier) ([]model.CharAggregate, error)
}

// RecordSource loads the per-tier records.
type RecordSource interface {
	Load(ctx context.Context) model.Records
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Records    model.Records
	Paragraphs []model.ParagraphAggregate
	Mistakes   []model.CharAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, hist HistorySource, recs RecordSource, cfg model.StatsConfig) (Report, error) {
	paragraphs, err := hist.ListParagraphs(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("list paragraphs: %w", err)
	}
	if cfg.Last > 0 && len(paragraphs) > cfg.Last {
		paragraphs = paragraphs[len(paragraphs)-cfg.Last:]
	}
	mistakes, err := hist.GetWeakChars(ctx, reportMistakeWindow, cfg.Tier)
	if err != nil {
		return Report{}, fmt.Errorf("list mistakes: %w", err)
	}
	sort.Slice(mistakes, func(i, j int) bool {
		if mistakes[i].Mistakes == mistakes[j].Mistakes {
			return mistakes[i].Char < mistakes[j].Char
		}
		return mistakes[i].Mistakes > mistakes[j].Mistakes
	})
	return Report{
		Records:    recs.Load(ctx),
		Paragraphs: paragraphs,
		Mistakes:   mistakes,
	}, nil
}

// TierRows formats the per-tier records as table rows.
func TierRows(recs model.Records) [][]string {
	rows := make([][]string, 0, len(model.Tiers))
	for _, tier := range model.Tiers {
		rec, ok := recs[tier]
		if !ok {
			rec = model.NewDifficultyRecord()
		}
		updated := "never"
		if !rec.UpdatedAt.IsZero() {
			updated = rec.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			string(tier),
			strconv.Itoa(rec.CompletedParagraphs),
			strconv.Itoa(rec.TotalTyped),
			strconv.Itoa(rec.Errors),
			fmt.Sprintf("%.1f%%", rec.Accuracy()),
			updated,
		})
	}
	return rows
}

// TierHeaders are the column titles matching TierRows.
var TierHeaders = []string{"Tier", "Completed", "Typed", "Errors", "Accuracy", "Updated"}

// RenderTierTable prints the per-tier records.
func RenderTierTable(w io.Writer, recs model.Records) error {
	lines := formatTable(TierHeaders, TierRows(recs), map[int]bool{1: true, 2: true, 3: true, 4: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// ParagraphCurve returns recorded paragraph accuracies ordered by index.
func ParagraphCurve(rec model.DifficultyRecord) (indices []int, values []float64) {
	for idx := range rec.ParagraphAccuracies {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	values = make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = rec.ParagraphAccuracies[idx]
	}
	return indices, values
}

// RenderParagraphCurves prints an accuracy sparkline per tier.
func RenderParagraphCurves(w io.Writer, recs model.Records) error {
	if _, err := fmt.Fprintln(w, "Paragraph accuracy"); err != nil {
		return err
	}
	for _, tier := range model.Tiers {
		_, values := ParagraphCurve(recs[tier])
		line := "no paragraphs yet"
		if len(values) > 0 {
			lo, hi := values[0], values[0]
			for _, v := range values {
				lo = min(lo, v)
				hi = max(hi, v)
			}
			trend := MovingAverage(values, curveTrendWindow)
			line = fmt.Sprintf("%s  (min %.0f%%, max %.0f%%, recent avg %.0f%%)", Sparkline(values), lo, hi, trend[len(trend)-1])
		}
		if _, err := fmt.Fprintf(w, "%-7s %s\n", tier, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderSummary prints a summary of stored paragraphs.
func RenderSummary(w io.Writer, paragraphs []model.ParagraphAggregate) error {
	if len(paragraphs) == 0 {
		_, err := fmt.Fprintln(w, "No paragraphs completed yet.")
		return err
	}
	var totalWPM, totalCPM, totalAcc, bestWPM float64
	for _, p := range paragraphs {
		wpm, cpm, acc := SessionMetrics(p.Correct, p.Incorrect, p.DurationMs)
		totalWPM += wpm
		totalCPM += cpm
		totalAcc += acc
		bestWPM = max(bestWPM, wpm)
	}
	count := float64(len(paragraphs))
	lines := []string{
		"Summary",
		fmt.Sprintf("Paragraphs: %d", len(paragraphs)),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Best WPM: %.2f", bestWPM),
		fmt.Sprintf("Avg CPM: %.2f", totalCPM/count),
		fmt.Sprintf("Avg Accuracy: %.2f%%", (totalAcc/count)*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderMistakes prints the most-mistyped characters.
func RenderMistakes(w io.Writer, aggs []model.CharAggregate, top int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No mistakes recorded.")
		return err
	}
	if top > 0 && len(aggs) > top {
		aggs = aggs[:top]
	}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{CharLabel(agg.Char), strconv.Itoa(agg.Mistakes)})
	}
	if _, err := fmt.Fprintln(w, "Most mistyped"); err != nil {
		return err
	}
	for _, line := range formatTable([]string{"Char", "Mistakes"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// CharLabel makes whitespace characters readable.
func CharLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\n":
		return "<enter>"
	default:
		return ch
	}
}
