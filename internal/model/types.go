// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a named difficulty bucket with its own paragraph pool and record.
type Tier string

// Difficulty tiers.
const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists every tier in display order.
var Tiers = []Tier{TierEasy, TierMedium, TierHard}

// ParseTier resolves a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q (expected easy, medium or hard)", s)
}

// Next returns the tier after t, wrapping around.
func (t Tier) Next() Tier {
	for i, known := range Tiers {
		if known == t {
			return Tiers[(i+1)%len(Tiers)]
		}
	}
	return Tiers[0]
}

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhaseFinished
	PhaseLoading
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	case PhaseLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Stats holds the running totals of the active run.
type Stats struct {
	TotalChars   int
	CorrectChars int
	Errors       int
	// StartTime is zero until the first content keystroke.
	StartTime time.Time
	WPM       float64
	Accuracy  float64
}

// NewStats returns zeroed stats with the accuracy of an empty run.
func NewStats() Stats {
	return Stats{Accuracy: 100}
}

// DifficultyRecord is the durable aggregate for one tier.
type DifficultyRecord struct {
	CompletedParagraphs int             `json:"completedParagraphs"`
	TotalTyped          int             `json:"totalTyped"`
	TotalCorrect        int             `json:"totalCorrect"`
	Errors              int             `json:"errors"`
	ParagraphAccuracies map[int]float64 `json:"paragraphAccuracies"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// NewDifficultyRecord returns an empty record.
func NewDifficultyRecord() DifficultyRecord {
	return DifficultyRecord{ParagraphAccuracies: map[int]float64{}}
}

// Clone returns a deep copy of the record.
func (r DifficultyRecord) Clone() DifficultyRecord {
	out := r
	out.ParagraphAccuracies = make(map[int]float64, len(r.ParagraphAccuracies))
	for k, v := range r.ParagraphAccuracies {
		out.ParagraphAccuracies[k] = v
	}
	return out
}

// Accuracy returns the record's lifetime accuracy percentage.
func (r DifficultyRecord) Accuracy() float64 {
	if r.TotalTyped == 0 {
		return 100
	}
	return float64(r.TotalCorrect) / float64(r.TotalTyped) * 100
}

// Records maps every tier to its record.
type Records map[Tier]DifficultyRecord

// NewRecords returns empty records for all tiers.
func NewRecords() Records {
	recs := make(Records, len(Tiers))
	for _, t := range Tiers {
		recs[t] = NewDifficultyRecord()
	}
	return recs
}

// Clone returns a deep copy of the records.
func (r Records) Clone() Records {
	out := make(Records, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// Config defines practice settings.
type Config struct {
	Tier         Tier
	Source       string
	Paragraphs   int
	Words        int
	CapsPct      float64
	PunctPct     float64
	PunctSet     string
	FocusWeak    bool
	WeakTop      int
	WeakFactor   float64
	WeakWindow   int
	WordListPath string
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Tier Tier
	Last int
}

// ParagraphResult captures one completed paragraph.
type ParagraphResult struct {
	RunID          string
	Tier           Tier
	ParagraphIndex int
	StartedAt      time.Time
	EndedAt        time.Time
	Correct        int
	Incorrect      int
	Accuracy       float64
}

// DurationMs returns the paragraph's typing time in milliseconds.
func (p ParagraphResult) DurationMs() int64 {
	if p.StartedAt.IsZero() || p.EndedAt.Before(p.StartedAt) {
		return 0
	}
	return p.EndedAt.Sub(p.StartedAt).Milliseconds()
}

// CharMistakes counts wrong keystrokes by the character that was expected.
type CharMistakes struct {
	Char  string
	Count int
}

// ParagraphAggregate summarizes a stored paragraph for reporting.
type ParagraphAggregate struct {
	ID             int64
	RunID          string
	Tier           Tier
	ParagraphIndex int
	EndedAt        time.Time
	Correct        int
	Incorrect      int
	DurationMs     int64
}

// CharAggregate aggregates mistakes per expected character across paragraphs.
type CharAggregate struct {
	Char     string
	Mistakes int
}
