// Package session implements the typing session state machine: it validates
// keystrokes against the target paragraph, keeps mistake bookkeeping,
// advances through paragraphs and writes per-tier records through.
package session

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typemaster/internal/lesson"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

// Terminator ends a paragraph that must be confirmed with Enter.
const Terminator = '\n'

// RecordStore loads and saves all tier records at once.
type RecordStore interface {
	Load(ctx context.Context) model.Records
	Save(ctx context.Context, recs model.Records) error
}

// History receives one row per completed paragraph.
type History interface {
	InsertParagraph(ctx context.Context, p model.ParagraphResult, mistakes []model.CharMistakes) (int64, error)
	DeleteHistory(ctx context.Context, tier model.Tier) error
}

// Scope selects what Reset clears.
type Scope int

const (
	// ScopeFull restarts the run and keeps stored records.
	ScopeFull Scope = iota
	// ScopeTier also wipes the active tier's record.
	ScopeTier
)

// Request identifies a paragraph fetch. Gen is the text generation the
// result is valid for.
type Request struct {
	Gen   uint64
	Tier  model.Tier
	Index int
}

// Options configures a Session.
type Options struct {
	// Context is passed to the source and the stores. Defaults to
	// context.Background.
	Context context.Context
	Source  lesson.Source
	// Records may be nil; records are then kept in memory only.
	Records RecordStore
	History History
	Logger  *slog.Logger
	Tier    model.Tier
	// ParagraphLimit finishes the run after this many completions; 0 is
	// endless.
	ParagraphLimit int
}

type prefetched struct {
	req  Request
	text string
}

// Session is not safe for concurrent use; drive it from one goroutine.
type Session struct {
	ctx     context.Context
	source  lesson.Source
	store   RecordStore
	history History
	logger  *slog.Logger
	limit   int

	runID   string
	tier    model.Tier
	phase   model.Phase
	resume  model.Phase
	focused bool

	index     int
	text      []rune
	input     []rune
	errorFlag bool
	mistakes  map[int]struct{}
	perRune   map[rune]int
	lastRune  map[rune]int

	paraCorrect  int
	paraAttempts int
	paraStart    time.Time
	completed    int

	stats   model.Stats
	records model.Records

	textGen      uint64
	pending      *Request
	pendingTaken bool
	prefetchSent bool
	prefetch     *prefetched
}

// New loads records and the first paragraph. With a blocking source the
// session starts in Loading; see TakeFetch.
func New(opts Options) *Session {
	s := &Session{
		ctx:     opts.Context,
		source:  opts.Source,
		store:   opts.Records,
		history: opts.History,
		logger:  opts.Logger,
		limit:   opts.ParagraphLimit,
		tier:    opts.Tier,
		focused: true,
		stats:   model.NewStats(),
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.source == nil {
		s.source = lesson.NewStatic()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tier == "" {
		s.tier = model.TierEasy
	}
	if s.store != nil {
		s.records = s.store.Load(s.ctx)
	}
	if s.records == nil {
		s.records = model.NewRecords()
	}
	s.ensureRecord(s.tier)
	s.runID = uuid.NewString()
	s.clearParagraph()
	s.lastRune = map[rune]int{}
	s.index = s.records[s.tier].CompletedParagraphs
	s.loadText()
	return s
}

// Accept applies one key event at time now.
func (s *Session) Accept(ev Event, now time.Time) Result {
	if !s.focused || s.phase == model.PhaseLoading || s.phase == model.PhaseFinished {
		return Result{Outcome: OutcomeIgnored}
	}
	switch ev.Kind {
	case KindBackspace:
		if len(s.input) > 0 {
			s.input = s.input[:len(s.input)-1]
		}
		s.errorFlag = false
		return Result{Outcome: OutcomeErased}
	case KindEnter:
		if exp, ok := s.Expected(); !ok || exp != Terminator {
			return Result{Outcome: OutcomeIgnored}
		}
		return s.compare(Terminator, now)
	case KindContent:
		return s.compare(ev.Rune, now)
	default:
		return Result{Outcome: OutcomeIgnored}
	}
}

func (s *Session) compare(r rune, now time.Time) Result {
	expected, ok := s.Expected()
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}
	if s.phase == model.PhaseIdle {
		s.phase = model.PhasePlaying
		s.stats.StartTime = now
	}
	if s.paraStart.IsZero() {
		s.paraStart = now
	}

	rec := s.records[s.tier]
	s.stats.TotalChars++
	s.paraAttempts++
	rec.TotalTyped++

	res := Result{Outcome: OutcomeCorrect, Expected: expected}
	if r == expected {
		s.input = append(s.input, r)
		s.stats.CorrectChars++
		s.paraCorrect++
		rec.TotalCorrect++
		s.errorFlag = false
	} else {
		s.stats.Errors++
		rec.Errors++
		s.mistakes[len(s.input)] = struct{}{}
		s.perRune[expected]++
		s.errorFlag = true
		res.Outcome = OutcomeMistake
	}
	rec.UpdatedAt = now
	s.records[s.tier] = rec

	if res.Outcome == OutcomeCorrect && len(s.input) == len(s.text) {
		s.advance(now)
		res.Advanced = true
		return res
	}
	s.save()
	return res
}

func (s *Session) advance(now time.Time) {
	s.lastRune = s.perRune
	acc := stats.Accuracy(s.paraCorrect, s.paraAttempts)

	rec := s.records[s.tier]
	if rec.ParagraphAccuracies == nil {
		rec.ParagraphAccuracies = map[int]float64{}
	}
	rec.ParagraphAccuracies[s.index] = acc
	rec.CompletedParagraphs++
	rec.UpdatedAt = now
	s.records[s.tier] = rec
	s.completed++
	s.save()

	s.recordHistory(model.ParagraphResult{
		RunID:          s.runID,
		Tier:           s.tier,
		ParagraphIndex: s.index,
		StartedAt:      s.paraStart,
		EndedAt:        now,
		Correct:        s.paraCorrect,
		Incorrect:      s.paraAttempts - s.paraCorrect,
		Accuracy:       acc,
	}, s.lastRune)

	s.clearParagraph()
	if s.limit > 0 && s.completed >= s.limit {
		m := stats.Compute(s.stats, stats.Metrics{WPM: s.stats.WPM, Accuracy: s.stats.Accuracy}, now)
		s.stats.WPM = m.WPM
		s.stats.Accuracy = m.Accuracy
		s.phase = model.PhaseFinished
		s.textGen++
		s.pending = nil
		s.prefetch = nil
		return
	}
	s.index++
	s.loadText()
}

func (s *Session) recordHistory(p model.ParagraphResult, perRune map[rune]int) {
	if s.history == nil {
		return
	}
	mistakes := make([]model.CharMistakes, 0, len(perRune))
	for r, n := range perRune {
		mistakes = append(mistakes, model.CharMistakes{Char: string(r), Count: n})
	}
	sort.Slice(mistakes, func(i, j int) bool { return mistakes[i].Char < mistakes[j].Char })
	if _, err := s.history.InsertParagraph(s.ctx, p, mistakes); err != nil {
		s.logger.Warn("record paragraph failed", "tier", p.Tier, "index", p.ParagraphIndex, "err", err)
	}
}

// Skip moves to the next paragraph without counting a completion.
func (s *Session) Skip() {
	if s.phase == model.PhaseLoading || s.phase == model.PhaseFinished {
		return
	}
	s.clearParagraph()
	s.index++
	s.loadText()
}

// JumpTo moves to paragraph index, discarding in-progress input. Recorded
// accuracies are kept.
func (s *Session) JumpTo(index int) {
	if s.phase == model.PhaseFinished {
		return
	}
	if index < 0 {
		index = 0
	}
	s.clearParagraph()
	s.index = index
	s.loadText()
}

// Reset restarts the run from paragraph 0.
func (s *Session) Reset(scope Scope) {
	s.stats = model.NewStats()
	s.completed = 0
	s.phase = model.PhaseIdle
	s.resume = model.PhaseIdle
	s.runID = uuid.NewString()
	s.clearParagraph()
	s.lastRune = map[rune]int{}
	s.index = 0
	if scope == ScopeTier {
		s.records[s.tier] = model.NewDifficultyRecord()
		s.save()
		if s.history != nil {
			if err := s.history.DeleteHistory(s.ctx, s.tier); err != nil {
				s.logger.Warn("delete tier history failed", "tier", s.tier, "err", err)
			}
		}
	}
	s.loadText()
}

// ChangeTier switches to tier and resumes at its saved paragraph count.
// Cumulative run stats carry over.
func (s *Session) ChangeTier(tier model.Tier) {
	s.tier = tier
	s.ensureRecord(tier)
	s.clearParagraph()
	s.index = s.records[tier].CompletedParagraphs
	if s.phase == model.PhaseFinished {
		s.textGen++
		s.prefetch = nil
		return
	}
	s.loadText()
}

// Tick recomputes live metrics. It reports false when the session is not
// Playing and the caller should stop ticking.
func (s *Session) Tick(now time.Time) bool {
	if s.phase != model.PhasePlaying {
		return false
	}
	m := stats.Compute(s.stats, stats.Metrics{WPM: s.stats.WPM, Accuracy: s.stats.Accuracy}, now)
	s.stats.WPM = m.WPM
	s.stats.Accuracy = m.Accuracy
	return true
}

// SetFocused toggles whether keystrokes are accepted.
func (s *Session) SetFocused(focused bool) {
	s.focused = focused
}

// TakeFetch returns the outstanding blocking fetch once.
func (s *Session) TakeFetch() (Request, bool) {
	if s.pending == nil || s.pendingTaken {
		return Request{}, false
	}
	s.pendingTaken = true
	return *s.pending, true
}

// Deliver installs text for a fetch. Results for a superseded generation
// are dropped and Deliver reports false.
func (s *Session) Deliver(req Request, text string) bool {
	if s.pending == nil || req.Gen != s.textGen || req != *s.pending {
		return false
	}
	s.pending = nil
	s.setText(text)
	return true
}

// TakePrefetch returns, once per paragraph, a request for the following
// paragraph when the source is blocking.
func (s *Session) TakePrefetch() (Request, bool) {
	if !s.source.Blocking() || s.prefetchSent || s.pending != nil || s.phase == model.PhaseFinished {
		return Request{}, false
	}
	if s.limit > 0 && s.completed+1 >= s.limit {
		return Request{}, false
	}
	s.prefetchSent = true
	return Request{Gen: s.textGen, Tier: s.tier, Index: s.index + 1}, true
}

// StorePrefetch keeps text for the next advance if the session has not
// moved since req was issued.
func (s *Session) StorePrefetch(req Request, text string) bool {
	if req.Gen != s.textGen || req.Tier != s.tier || req.Index != s.index+1 {
		return false
	}
	s.prefetch = &prefetched{req: req, text: text}
	return true
}

func (s *Session) loadText() {
	s.textGen++
	s.pending = nil
	s.pendingTaken = false
	s.prefetchSent = false
	s.text = nil

	if p := s.prefetch; p != nil && p.req.Tier == s.tier && p.req.Index == s.index {
		s.prefetch = nil
		s.setText(p.text)
		return
	}
	s.prefetch = nil
	if !s.source.Blocking() {
		s.setText(s.source.Next(s.ctx, s.tier, s.index))
		return
	}
	if s.phase != model.PhaseLoading {
		s.resume = s.phase
	}
	s.phase = model.PhaseLoading
	s.pending = &Request{Gen: s.textGen, Tier: s.tier, Index: s.index}
}

func (s *Session) setText(text string) {
	if text == "" {
		text = lesson.Fallback
	}
	s.text = []rune(text)
	if s.phase == model.PhaseLoading {
		s.phase = s.resume
	}
}

func (s *Session) clearParagraph() {
	s.input = s.input[:0]
	s.errorFlag = false
	s.mistakes = map[int]struct{}{}
	s.perRune = map[rune]int{}
	s.paraCorrect = 0
	s.paraAttempts = 0
	s.paraStart = time.Time{}
}

func (s *Session) ensureRecord(tier model.Tier) {
	if _, ok := s.records[tier]; !ok {
		s.records[tier] = model.NewDifficultyRecord()
	}
}

func (s *Session) save() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.ctx, s.records); err != nil {
		s.logger.Warn("save records failed", "tier", s.tier, "err", err)
	}
}
