package generator

import (
	"strings"
	"testing"
	"unicode"
)

func TestWordsCountAndPool(t *testing.T) {
	g := NewSeeded(1)
	words := []string{"alpha", "be", "cat", "delta"}
	got := g.Words(words, Options{Words: 20, MaxWordLen: 3})
	if len(got) != 20 {
		t.Fatalf("expected 20 words, got %d", len(got))
	}
	for _, w := range got {
		if w != "be" && w != "cat" {
			t.Fatalf("unexpected word %q outside length limit", w)
		}
	}
}

func TestWordsEmptyPool(t *testing.T) {
	g := NewSeeded(1)
	if got := g.Words([]string{"long"}, Options{Words: 3, MaxWordLen: 2}); got != nil {
		t.Fatalf("expected nil for empty pool, got %v", got)
	}
}

func TestWeightedPrefersWeakRunes(t *testing.T) {
	g := NewSeeded(7)
	words := []string{"zzz", "aaa"}
	got := g.Words(words, Options{
		Words:      400,
		Weak:       map[rune]struct{}{'z': {}},
		WeakFactor: 10,
	})
	zCount := 0
	for _, w := range got {
		if w == "zzz" {
			zCount++
		}
	}
	if zCount < 300 {
		t.Fatalf("expected weak word to dominate, got %d/400", zCount)
	}
}

func TestParagraphCapsAndPunct(t *testing.T) {
	g := NewSeeded(3)
	p := g.Paragraph([]string{"word"}, Options{Words: 5, CapsPct: 1, PunctPct: 1, PunctSet: []rune{","}})
	parts := strings.Split(p, " ")
	if len(parts) != 5 {
		t.Fatalf("expected 5 words, got %q", p)
	}
	for _, part := range parts {
		if !unicode.IsUpper([]rune(part)[0]) {
			t.Fatalf("expected capitalized word, got %q", part)
		}
		if !strings.HasSuffix(part, ",") {
			t.Fatalf("expected punctuation suffix, got %q", part)
		}
	}
}

func TestParagraphPlainHasNoTrailingPeriod(t *testing.T) {
	g := NewSeeded(3)
	p := g.Paragraph([]string{"word"}, Options{Words: 2})
	if p != "word word" {
		t.Fatalf("unexpected paragraph %q", p)
	}
}
