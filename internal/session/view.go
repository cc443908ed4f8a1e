package session

import (
	"github.com/verte-zerg/typemaster/internal/model"
)

func (s *Session) Phase() model.Phase { return s.phase }
func (s *Session) Tier() model.Tier   { return s.tier }
func (s *Session) Index() int         { return s.index }
func (s *Session) Focused() bool      { return s.focused }
func (s *Session) RunID() string      { return s.runID }
func (s *Session) Limit() int         { return s.limit }

// Completed counts paragraphs finished in this run.
func (s *Session) Completed() int { return s.completed }

// Text returns the current target paragraph.
func (s *Session) Text() string { return string(s.text) }

// Target returns the target runes. Callers must not modify the slice.
func (s *Session) Target() []rune { return s.text }

// Cursor is the number of accepted runes.
func (s *Session) Cursor() int { return len(s.input) }

// Input returns the accepted prefix of the target.
func (s *Session) Input() string { return string(s.input) }

// Expected returns the rune under the cursor.
func (s *Session) Expected() (rune, bool) {
	if len(s.input) >= len(s.text) {
		return 0, false
	}
	return s.text[len(s.input)], true
}

// ErrorFlag reports whether the last compared keystroke was wrong.
func (s *Session) ErrorFlag() bool { return s.errorFlag }

// Mistyped reports whether position i was ever mistyped in this paragraph.
func (s *Session) Mistyped(i int) bool {
	_, ok := s.mistakes[i]
	return ok
}

// MistakeIndices returns the mistyped positions of the current paragraph.
func (s *Session) MistakeIndices() map[int]struct{} {
	out := make(map[int]struct{}, len(s.mistakes))
	for i := range s.mistakes {
		out[i] = struct{}{}
	}
	return out
}

// ParagraphMistakes counts mistakes by expected rune in the current paragraph.
func (s *Session) ParagraphMistakes() map[rune]int { return copyCounts(s.perRune) }

// LastParagraphMistakes is the tally of the previously completed paragraph.
func (s *Session) LastParagraphMistakes() map[rune]int { return copyCounts(s.lastRune) }

// Stats returns the run's cumulative stats.
func (s *Session) Stats() model.Stats { return s.stats }

// Record returns a copy of the active tier's record.
func (s *Session) Record() model.DifficultyRecord { return s.records[s.tier].Clone() }

// Records returns a copy of every tier's record.
func (s *Session) Records() model.Records { return s.records.Clone() }

// Loading reports whether the session waits for text.
func (s *Session) Loading() bool { return s.phase == model.PhaseLoading }

func copyCounts(m map[rune]int) map[rune]int {
	out := make(map[rune]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
