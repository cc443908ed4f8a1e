package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typemaster/internal/lesson"
	"github.com/verte-zerg/typemaster/internal/model"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memRecords struct {
	recs  model.Records
	saves int
	err   error
}

func (m *memRecords) Load(context.Context) model.Records {
	if m.recs == nil {
		return model.NewRecords()
	}
	return m.recs.Clone()
}

func (m *memRecords) Save(_ context.Context, recs model.Records) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.recs = recs.Clone()
	return nil
}

type memHistory struct {
	rows     []model.ParagraphResult
	mistakes [][]model.CharMistakes
	deleted  []model.Tier
}

func (h *memHistory) InsertParagraph(_ context.Context, p model.ParagraphResult, m []model.CharMistakes) (int64, error) {
	h.rows = append(h.rows, p)
	h.mistakes = append(h.mistakes, m)
	return int64(len(h.rows)), nil
}

func (h *memHistory) DeleteHistory(_ context.Context, tier model.Tier) error {
	h.deleted = append(h.deleted, tier)
	return nil
}

type blockingSource struct {
	calls int
}

func (b *blockingSource) Next(_ context.Context, _ model.Tier, _ int) string {
	b.calls++
	return "unused"
}

func (b *blockingSource) Blocking() bool { return true }

func tables(easy ...string) map[model.Tier][]string {
	return map[model.Tier][]string{
		model.TierEasy:   easy,
		model.TierMedium: {"medium one", "medium two"},
		model.TierHard:   {"hard\n"},
	}
}

func newSession(t *testing.T, opts Options) (*Session, *memRecords) {
	t.Helper()
	store := &memRecords{}
	if opts.Records == nil {
		opts.Records = store
	}
	if opts.Source == nil {
		opts.Source = lesson.NewStaticTables(tables("cat", "dog", "owl"))
	}
	return New(opts), store
}

func typeString(s *Session, text string, at time.Time) []Result {
	var out []Result
	for _, r := range text {
		ev := Content(r)
		if r == '\n' {
			ev = Enter()
		}
		out = append(out, s.Accept(ev, at))
	}
	return out
}

func assertCounters(t *testing.T, s *Session) {
	t.Helper()
	st := s.Stats()
	assert.Equal(t, st.TotalChars, st.CorrectChars+st.Errors)
	assert.LessOrEqual(t, st.CorrectChars, st.TotalChars)
}

func TestNewStartsIdle(t *testing.T) {
	s, _ := newSession(t, Options{})
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Equal(t, "cat", s.Text())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 100.0, s.Stats().Accuracy)
	assert.True(t, s.Stats().StartTime.IsZero())
	assert.NotEmpty(t, s.RunID())
}

func TestCatWithOneMistake(t *testing.T) {
	hist := &memHistory{}
	s, store := newSession(t, Options{History: hist})

	s.Accept(Content('c'), t0)
	assert.Equal(t, model.PhasePlaying, s.Phase())
	assert.Equal(t, t0, s.Stats().StartTime)
	s.Accept(Content('a'), t0)
	res := s.Accept(Content('x'), t0)
	assert.Equal(t, OutcomeMistake, res.Outcome)
	assert.Equal(t, 't', res.Expected)

	st := s.Stats()
	assert.Equal(t, 3, st.TotalChars)
	assert.Equal(t, 2, st.CorrectChars)
	assert.Equal(t, 1, st.Errors)
	assert.Equal(t, map[int]struct{}{2: {}}, s.MistakeIndices())
	assert.Equal(t, map[rune]int{'t': 1}, s.ParagraphMistakes())
	assert.True(t, s.ErrorFlag())
	assert.Equal(t, "ca", s.Input())

	res = s.Accept(Content('t'), t0.Add(3*time.Second))
	require.True(t, res.Advanced)
	assert.Equal(t, map[rune]int{'t': 1}, s.LastParagraphMistakes())
	assert.Empty(t, s.ParagraphMistakes())
	assert.Empty(t, s.MistakeIndices())
	assert.False(t, s.ErrorFlag())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, "dog", s.Text())
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, 1, s.Completed())
	assert.Equal(t, t0, s.Stats().StartTime)

	rec := store.recs[model.TierEasy]
	assert.Equal(t, 1, rec.CompletedParagraphs)
	assert.Equal(t, 4, rec.TotalTyped)
	assert.Equal(t, 3, rec.TotalCorrect)
	assert.Equal(t, 1, rec.Errors)
	assert.InDelta(t, 75.0, rec.ParagraphAccuracies[0], 1e-9)

	require.Len(t, hist.rows, 1)
	row := hist.rows[0]
	assert.Equal(t, s.RunID(), row.RunID)
	assert.Equal(t, 0, row.ParagraphIndex)
	assert.Equal(t, 3, row.Correct)
	assert.Equal(t, 1, row.Incorrect)
	assert.Equal(t, int64(3000), row.DurationMs())
	assert.Equal(t, []model.CharMistakes{{Char: "t", Count: 1}}, hist.mistakes[0])
}

func TestExactTypingAdvancesOnceOnFinalKeystroke(t *testing.T) {
	s, _ := newSession(t, Options{})
	results := typeString(s, "cat", t0)
	for i, res := range results {
		assert.Equal(t, OutcomeCorrect, res.Outcome)
		assert.Equal(t, i == len(results)-1, res.Advanced, "keystroke %d", i)
		assertCounters(t, s)
	}
	assert.Equal(t, 0, s.Stats().Errors)
	assert.Empty(t, s.LastParagraphMistakes())
	assert.Equal(t, 1, s.Completed())
	assert.Equal(t, 100.0, s.Record().ParagraphAccuracies[0])
}

func TestMistakeThenCorrectionKeepsHistory(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.Accept(Content('c'), t0)
	s.Accept(Content('e'), t0)
	s.Accept(Content('a'), t0)

	assert.Equal(t, "ca", s.Input())
	assert.True(t, s.Mistyped(1))
	assert.False(t, s.Mistyped(0))
	assert.Equal(t, 1, s.ParagraphMistakes()['a'])
	assert.False(t, s.ErrorFlag())
}

func TestBackspaceNeverChangesCounters(t *testing.T) {
	s, store := newSession(t, Options{})
	s.Accept(Content('c'), t0)
	s.Accept(Content('x'), t0)
	before := s.Stats()
	saves := store.saves

	res := s.Accept(Backspace(), t0)
	assert.Equal(t, OutcomeErased, res.Outcome)
	assert.Equal(t, before, s.Stats())
	assert.False(t, s.ErrorFlag())
	assert.Equal(t, "", s.Input())
	assert.True(t, s.Mistyped(1), "mistake history survives backspace")
	assert.Equal(t, saves, store.saves)

	s.Accept(Backspace(), t0)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, before, s.Stats())
}

func TestControlKeysAreIgnored(t *testing.T) {
	s, store := newSession(t, Options{})
	for _, c := range []Control{ControlShift, ControlCtrl, ControlAlt, ControlMeta, ControlCapsLock, ControlTab} {
		res := s.Accept(ControlKey(c), t0)
		assert.Equal(t, OutcomeIgnored, res.Outcome, c.String())
	}
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Zero(t, s.Stats().TotalChars)
	assert.Zero(t, store.saves)
}

func TestEnterMidParagraphIsIgnored(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.Accept(Content('c'), t0)
	res := s.Accept(Enter(), t0)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, 1, s.Stats().TotalChars)
	assert.False(t, s.ErrorFlag())
}

func TestTerminatorRequiresEnter(t *testing.T) {
	s, _ := newSession(t, Options{Tier: model.TierHard})
	require.Equal(t, "hard\n", s.Text())

	typeString(s, "hard", t0)
	assert.Equal(t, 0, s.Completed())
	assert.Equal(t, 4, s.Cursor())

	res := s.Accept(Content(' '), t0)
	assert.Equal(t, OutcomeMistake, res.Outcome)
	assert.Equal(t, '\n', res.Expected)

	res = s.Accept(Enter(), t0)
	assert.True(t, res.Advanced)
	assert.Equal(t, 1, s.Completed())
}

func TestMetricsTick(t *testing.T) {
	s, _ := newSession(t, Options{Source: lesson.NewStaticTables(tables(repeat('a', 60)))})
	assert.False(t, s.Tick(t0), "no tick before the run starts")

	typeString(s, repeat('a', 50), t0)
	require.True(t, s.Tick(t0.Add(time.Minute)))
	assert.InDelta(t, 10.0, s.Stats().WPM, 1e-9)
	assert.Equal(t, 100.0, s.Stats().Accuracy)

	s.Accept(Content('b'), t0)
	s.Tick(t0.Add(time.Minute))
	assert.InDelta(t, 50.0/51.0*100, s.Stats().Accuracy, 1e-9)
}

func repeat(r rune, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

func TestWriteThroughSave(t *testing.T) {
	s, store := newSession(t, Options{})
	s.Accept(Content('c'), t0)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.recs[model.TierEasy].TotalTyped)
	s.Accept(Content('q'), t0)
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, 1, store.recs[model.TierEasy].Errors)
}

func TestSaveFailureIsNotFatal(t *testing.T) {
	store := &memRecords{err: errors.New("disk full")}
	s, _ := newSession(t, Options{Records: store})
	results := typeString(s, "cat", t0)
	assert.True(t, results[2].Advanced)
	assert.Equal(t, 1, s.Record().CompletedParagraphs)
}

func TestChangeTierPreservesOtherRecords(t *testing.T) {
	s, store := newSession(t, Options{})
	typeString(s, "cat", t0)
	easy := store.recs[model.TierEasy].Clone()

	s.ChangeTier(model.TierMedium)
	assert.Equal(t, model.TierMedium, s.Tier())
	assert.Equal(t, "medium one", s.Text())
	typeString(s, "mx", t0)

	assert.Equal(t, easy, store.recs[model.TierEasy])
	assert.Equal(t, 2, store.recs[model.TierMedium].TotalTyped)

	s.ChangeTier(model.TierEasy)
	assert.Equal(t, 1, s.Index(), "resumes at the saved completed count")
	assert.Equal(t, "dog", s.Text())
	assert.Equal(t, 0, s.Cursor())
	assert.Empty(t, s.MistakeIndices())
	assert.Equal(t, 5, s.Stats().TotalChars, "run stats carry over")
}

func TestResetFullKeepsRecords(t *testing.T) {
	s, store := newSession(t, Options{})
	typeString(s, "cat", t0)
	s.Accept(Content('x'), t0)

	s.Reset(ScopeFull)
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, "cat", s.Text())
	assert.Equal(t, model.NewStats(), s.Stats())
	assert.Empty(t, s.LastParagraphMistakes())
	assert.Equal(t, 0, s.Completed())
	assert.Equal(t, 1, store.recs[model.TierEasy].CompletedParagraphs)
}

func TestResetTierWipesOnlyActiveRecord(t *testing.T) {
	hist := &memHistory{}
	s, store := newSession(t, Options{History: hist})
	typeString(s, "cat", t0)
	s.ChangeTier(model.TierMedium)
	typeString(s, "medium one", t0)
	require.Equal(t, 1, store.recs[model.TierMedium].CompletedParagraphs)

	s.Reset(ScopeTier)
	assert.Equal(t, model.NewDifficultyRecord(), store.recs[model.TierMedium])
	assert.Equal(t, 1, store.recs[model.TierEasy].CompletedParagraphs)
	assert.Equal(t, []model.Tier{model.TierMedium}, hist.deleted)
	assert.Equal(t, "medium one", s.Text())
}

func TestJumpKeepsAccuracies(t *testing.T) {
	s, _ := newSession(t, Options{})
	typeString(s, "cat", t0)
	s.Accept(Content('d'), t0)

	s.JumpTo(2)
	assert.Equal(t, "owl", s.Text())
	assert.Equal(t, 0, s.Cursor())
	assert.Contains(t, s.Record().ParagraphAccuracies, 0)

	s.JumpTo(4)
	assert.Equal(t, "dog", s.Text(), "index wraps modulo the table")
	s.JumpTo(-3)
	assert.Equal(t, 0, s.Index())
}

func TestSkipDoesNotCount(t *testing.T) {
	s, store := newSession(t, Options{})
	s.Accept(Content('c'), t0)
	before := s.Stats()

	s.Skip()
	assert.Equal(t, "dog", s.Text())
	assert.Equal(t, 0, s.Completed())
	assert.Equal(t, before, s.Stats())
	assert.Equal(t, 0, store.recs[model.TierEasy].CompletedParagraphs)
}

func TestParagraphLimitFinishes(t *testing.T) {
	s, _ := newSession(t, Options{ParagraphLimit: 2})
	typeString(s, "cat", t0)
	assert.Equal(t, model.PhasePlaying, s.Phase())
	typeString(s, "dog", t0)
	assert.Equal(t, model.PhaseFinished, s.Phase())
	assert.False(t, s.Tick(t0.Add(time.Second)))

	res := s.Accept(Content('o'), t0)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, 6, s.Stats().TotalChars)

	s.Reset(ScopeFull)
	assert.Equal(t, model.PhaseIdle, s.Phase())
}

func TestFinishedRunHasFinalMetrics(t *testing.T) {
	s, _ := newSession(t, Options{ParagraphLimit: 1})
	keys := []rune{'c', 'x', 'a', 't'}
	for i, r := range keys {
		s.Accept(Content(r), t0.Add(time.Duration(i)*200*time.Millisecond))
	}
	require.Equal(t, model.PhaseFinished, s.Phase())

	st := s.Stats()
	assert.Equal(t, 4, st.TotalChars)
	assert.Equal(t, 1, st.Errors)
	assert.InDelta(t, 75.0, st.Accuracy, 1e-9)
	// 3 correct chars over 600ms.
	assert.InDelta(t, 60.0, st.WPM, 1e-6)
}

func TestUnfocusedDropsInput(t *testing.T) {
	s, _ := newSession(t, Options{})
	s.SetFocused(false)
	assert.Equal(t, OutcomeIgnored, s.Accept(Content('c'), t0).Outcome)
	assert.Equal(t, model.PhaseIdle, s.Phase())
	s.SetFocused(true)
	assert.Equal(t, OutcomeCorrect, s.Accept(Content('c'), t0).Outcome)
}

func TestOutOfBoundsKeystrokeIgnored(t *testing.T) {
	s, _ := newSession(t, Options{ParagraphLimit: 1})
	typeString(s, "cat", t0)
	assert.Equal(t, OutcomeIgnored, s.Accept(Content('x'), t0).Outcome)
}

func TestRecordsLoadedOnStart(t *testing.T) {
	recs := model.NewRecords()
	easy := recs[model.TierEasy]
	easy.CompletedParagraphs = 2
	recs[model.TierEasy] = easy
	s, _ := newSession(t, Options{Records: &memRecords{recs: recs}})
	assert.Equal(t, 2, s.Index())
	assert.Equal(t, "owl", s.Text())
}

func TestBlockingSourceLoadsThroughFetch(t *testing.T) {
	src := &blockingSource{}
	s, _ := newSession(t, Options{Source: src})
	assert.Equal(t, model.PhaseLoading, s.Phase())
	assert.Zero(t, src.calls, "blocking sources are never called inline")
	assert.Equal(t, OutcomeIgnored, s.Accept(Content('c'), t0).Outcome)

	req, ok := s.TakeFetch()
	require.True(t, ok)
	_, again := s.TakeFetch()
	assert.False(t, again)
	assert.Equal(t, 0, req.Index)

	require.True(t, s.Deliver(req, "hi"))
	assert.Equal(t, model.PhaseIdle, s.Phase())
	assert.Equal(t, "hi", s.Text())
	assert.False(t, s.Deliver(req, "late duplicate"))
}

func TestStaleDeliveryDiscarded(t *testing.T) {
	s, _ := newSession(t, Options{Source: &blockingSource{}})
	stale, _ := s.TakeFetch()

	s.ChangeTier(model.TierHard)
	assert.Equal(t, model.PhaseLoading, s.Phase())
	assert.False(t, s.Deliver(stale, "stale text"))

	fresh, ok := s.TakeFetch()
	require.True(t, ok)
	assert.Equal(t, model.TierHard, fresh.Tier)
	require.True(t, s.Deliver(fresh, "ok\n"))
	assert.Equal(t, "ok\n", s.Text())
}

func TestPrefetchMakesAdvanceSynchronous(t *testing.T) {
	s, _ := newSession(t, Options{Source: &blockingSource{}})
	req, _ := s.TakeFetch()
	s.Deliver(req, "ab")

	next, ok := s.TakePrefetch()
	require.True(t, ok)
	assert.Equal(t, 1, next.Index)
	_, again := s.TakePrefetch()
	assert.False(t, again, "one prefetch per paragraph")
	require.True(t, s.StorePrefetch(next, "cd"))

	typeString(s, "ab", t0)
	assert.Equal(t, model.PhasePlaying, s.Phase())
	assert.Equal(t, "cd", s.Text())
	_, ok = s.TakeFetch()
	assert.False(t, ok)
}

func TestPrefetchDiscardedAfterTextChange(t *testing.T) {
	s, _ := newSession(t, Options{Source: &blockingSource{}})
	req, _ := s.TakeFetch()
	s.Deliver(req, "ab")
	next, _ := s.TakePrefetch()

	s.Reset(ScopeFull)
	assert.False(t, s.StorePrefetch(next, "stale"))
	assert.Equal(t, model.PhaseLoading, s.Phase())
}

func TestAdvanceWithoutPrefetchEntersLoading(t *testing.T) {
	s, _ := newSession(t, Options{Source: &blockingSource{}})
	req, _ := s.TakeFetch()
	s.Deliver(req, "ab")

	typeString(s, "ab", t0)
	assert.Equal(t, model.PhaseLoading, s.Phase())
	assert.False(t, s.Tick(t0.Add(time.Second)))

	req, ok := s.TakeFetch()
	require.True(t, ok)
	assert.Equal(t, 1, req.Index)
	s.Deliver(req, "")
	assert.Equal(t, model.PhasePlaying, s.Phase(), "resumes the interrupted phase")
	assert.Equal(t, lesson.Fallback, s.Text())
}

func TestPrefetchStopsBeforeLimit(t *testing.T) {
	s, _ := newSession(t, Options{Source: &blockingSource{}, ParagraphLimit: 1})
	req, _ := s.TakeFetch()
	s.Deliver(req, "ab")
	_, ok := s.TakePrefetch()
	assert.False(t, ok)
}

func TestStaticSourceNeverPrefetches(t *testing.T) {
	s, _ := newSession(t, Options{})
	_, ok := s.TakePrefetch()
	assert.False(t, ok)
	_, ok = s.TakeFetch()
	assert.False(t, ok)
}
