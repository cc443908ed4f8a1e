package lesson

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/verte-zerg/typemaster/internal/generator"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

//go:embed words_en.txt
var embeddedWords string

// DefaultPunctSet is used when no punctuation set is configured.
const DefaultPunctSet = ".,;:!?'\""

// Profile shapes generated text for one tier.
type Profile struct {
	Words      int
	CapsPct    float64
	PunctPct   float64
	PunctSet   string
	MaxWordLen int
	// Terminate ends the paragraph with a line terminator.
	Terminate bool
}

var profiles = map[model.Tier]Profile{
	model.TierEasy:   {Words: 12, MaxWordLen: 5},
	model.TierMedium: {Words: 16, CapsPct: 0.3, PunctPct: 0.2, PunctSet: ".,;"},
	model.TierHard:   {Words: 20, CapsPct: 0.6, PunctPct: 0.6, PunctSet: DefaultPunctSet, Terminate: true},
}

// ProfileFor returns the tier's profile with cfg overrides applied.
// Negative percentages and zero word counts keep the tier default.
func ProfileFor(tier model.Tier, cfg model.Config) Profile {
	p, ok := profiles[tier]
	if !ok {
		p = profiles[model.TierEasy]
	}
	if cfg.Words > 0 {
		p.Words = cfg.Words
	}
	if cfg.CapsPct >= 0 {
		p.CapsPct = min(cfg.CapsPct, 1)
	}
	if cfg.PunctPct >= 0 {
		p.PunctPct = min(cfg.PunctPct, 1)
	}
	if cfg.PunctSet != "" {
		p.PunctSet = cfg.PunctSet
	}
	return p
}

// WeakFinder reports the characters mistyped most often for a tier.
type WeakFinder interface {
	GetWeakChars(ctx context.Context, window int, tier model.Tier) ([]model.CharAggregate, error)
}

// Words generates paragraphs from a word list.
type Words struct {
	mu     sync.Mutex
	gen    *generator.Generator
	words  []string
	cfg    model.Config
	weak   WeakFinder
	logger *slog.Logger
}

// NewWords returns a word source. weak may be nil when cfg.FocusWeak is off.
func NewWords(words []string, cfg model.Config, weak WeakFinder, logger *slog.Logger) *Words {
	if logger == nil {
		logger = slog.Default()
	}
	return &Words{
		gen:    generator.New(),
		words:  words,
		cfg:    cfg,
		weak:   weak,
		logger: logger,
	}
}

// WithSeed makes generation deterministic.
func (w *Words) WithSeed(seed int64) *Words {
	w.gen = generator.NewSeeded(seed)
	return w
}

func (w *Words) Next(ctx context.Context, tier model.Tier, _ int) string {
	p := ProfileFor(tier, w.cfg)
	opts := generator.Options{
		Words:      p.Words,
		CapsPct:    p.CapsPct,
		PunctPct:   p.PunctPct,
		PunctSet:   []rune(p.PunctSet),
		MaxWordLen: p.MaxWordLen,
	}
	if w.cfg.FocusWeak && w.weak != nil {
		aggs, err := w.weak.GetWeakChars(ctx, w.cfg.WeakWindow, tier)
		if err != nil {
			w.logger.Warn("weak chars lookup failed", "tier", tier, "err", err)
		} else {
			opts.Weak = stats.SelectWeakChars(aggs, w.cfg.WeakTop)
			opts.WeakFactor = w.cfg.WeakFactor
		}
	}

	w.mu.Lock()
	text := w.gen.Paragraph(w.words, opts)
	w.mu.Unlock()

	if text == "" {
		w.logger.Warn("word source produced no text", "tier", tier, "words", len(w.words))
		return Fallback
	}
	if p.Terminate {
		text += "\n"
	}
	return text
}

func (w *Words) Blocking() bool { return false }

// DefaultWords returns the built-in English word list.
func DefaultWords() []string {
	words, err := readWords(strings.NewReader(embeddedWords), FilterForLang("en"))
	if err != nil {
		panic(fmt.Sprintf("embedded word list: %v", err))
	}
	return words
}

// LoadWords reads one word per line from path, keeping words the filter
// accepts.
func LoadWords(path string, keep FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	words, err := readWords(file, keep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

func readWords(r io.Reader, keep FilterFunc) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || (keep != nil && !keep(line)) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(string) bool { return true }
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
