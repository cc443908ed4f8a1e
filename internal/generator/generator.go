// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Options shapes a generated paragraph.
type Options struct {
	Words    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
	// MaxWordLen drops longer words when > 0.
	MaxWordLen int
	// Weak biases selection toward words containing these runes.
	Weak       map[rune]struct{}
	WeakFactor float64
}

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Paragraph joins generated words with spaces and ends the paragraph with a
// period when no punctuation was applied to the last word.
func (g *Generator) Paragraph(words []string, opts Options) string {
	picked := g.Words(words, opts)
	if len(picked) == 0 {
		return ""
	}
	last := []rune(picked[len(picked)-1])
	if !unicode.IsPunct(last[len(last)-1]) && opts.PunctPct > 0 {
		picked[len(picked)-1] += "."
	}
	return strings.Join(picked, " ")
}

// Words selects opts.Words words, weighted toward weak runes when set, and
// applies caps/punctuation rules.
func (g *Generator) Words(words []string, opts Options) []string {
	pool := words
	if opts.MaxWordLen > 0 {
		pool = make([]string, 0, len(words))
		for _, w := range words {
			if len([]rune(w)) <= opts.MaxWordLen {
				pool = append(pool, w)
			}
		}
	}
	if len(pool) == 0 || opts.Words <= 0 {
		return nil
	}
	pick := g.uniform(pool)
	if len(opts.Weak) > 0 && opts.WeakFactor > 0 {
		pick = g.weighted(pool, opts.Weak, opts.WeakFactor)
	}

	result := make([]string, 0, opts.Words)
	for i := 0; i < opts.Words; i++ {
		word := pick()
		word = applyCaps(g.rnd, word, opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
		result = append(result, word)
	}
	return result
}

func (g *Generator) uniform(words []string) func() string {
	return func() string {
		return words[g.rnd.Intn(len(words))]
	}
}

func (g *Generator) weighted(words []string, weak map[rune]struct{}, factor float64) func() string {
	cumulative := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		weakCount := 0
		for _, r := range word {
			if _, ok := weak[unicode.ToLower(r)]; ok {
				weakCount++
			}
		}
		total += 1.0 + float64(weakCount)*factor
		cumulative[i] = total
	}
	return func() string {
		r := g.rnd.Float64() * total
		for i, acc := range cumulative {
			if r <= acc {
				return words[i]
			}
		}
		return words[len(words)-1]
	}
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
