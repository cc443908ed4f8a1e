package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemaster/internal/model"
)

type fakeHistory struct {
	paragraphs []model.ParagraphAggregate
	mistakes   []model.CharAggregate
	err        error
	tiers      []model.Tier
}

func (f *fakeHistory) ListParagraphs(_ context.Context, cfg model.StatsConfig) ([]model.ParagraphAggregate, error) {
	f.tiers = append(f.tiers, cfg.Tier)
	return f.paragraphs, f.err
}

func (f *fakeHistory) GetWeakChars(context.Context, int, model.Tier) ([]model.CharAggregate, error) {
	return f.mistakes, nil
}

type fakeRecords struct{ recs model.Records }

func (f fakeRecords) Load(context.Context) model.Records { return f.recs }

func TestViewShowsSummaryAndTabs(t *testing.T) {
	hist := &fakeHistory{
		paragraphs: []model.ParagraphAggregate{{Correct: 50, DurationMs: 60000}},
		mistakes:   []model.CharAggregate{{Char: ";", Mistakes: 4}},
	}
	m := NewModel(hist, fakeRecords{recs: model.NewRecords()}, model.StatsConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()
	for _, want := range []string{"Overview", "Tiers", "Mistakes", "Avg WPM", "10.0", "tier=all"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "Completed") {
		t.Fatalf("tiers tab missing table header:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "Most mistyped") {
		t.Fatalf("mistakes tab missing content:\n%s", out)
	}
}

func TestCycleTierRefreshesReport(t *testing.T) {
	hist := &fakeHistory{}
	m := NewModel(hist, fakeRecords{recs: model.NewRecords()}, model.StatsConfig{})
	for range len(model.Tiers) + 1 {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	}
	want := []model.Tier{"", model.TierEasy, model.TierMedium, model.TierHard, ""}
	if len(hist.tiers) != len(want) {
		t.Fatalf("expected %d reports, got %d", len(want), len(hist.tiers))
	}
	for i := range want {
		if hist.tiers[i] != want[i] {
			t.Fatalf("report %d: expected tier %q, got %q", i, want[i], hist.tiers[i])
		}
	}
}

func TestReportErrorShown(t *testing.T) {
	hist := &fakeHistory{err: errors.New("db locked")}
	m := NewModel(hist, fakeRecords{}, model.StatsConfig{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	out := m.View()
	if !strings.Contains(out, "db locked") || !strings.Contains(out, "Failed to load stats.") {
		t.Fatalf("expected error in view:\n%s", out)
	}
}
