package lesson

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typemaster/internal/llm"
	"github.com/verte-zerg/typemaster/internal/model"
)

func TestStaticWrapsAround(t *testing.T) {
	src := NewStatic()
	ctx := context.Background()
	for _, tier := range model.Tiers {
		n := src.Len(tier)
		require.Positive(t, n, "tier %s has no paragraphs", tier)
		assert.Equal(t, src.Next(ctx, tier, 0), src.Next(ctx, tier, n))
		assert.Equal(t, src.Next(ctx, tier, 1), src.Next(ctx, tier, n+1))
	}
	assert.False(t, src.Blocking())
}

func TestStaticUnknownTierFallsBack(t *testing.T) {
	src := NewStaticTables(map[model.Tier][]string{model.TierEasy: {"only"}})
	assert.Equal(t, "only", src.Next(context.Background(), model.TierEasy, 7))
	assert.Equal(t, Fallback, src.Next(context.Background(), model.TierHard, 0))
}

func TestStaticTerminatorsOnlyAtEnd(t *testing.T) {
	src := NewStatic()
	found := false
	for _, tier := range model.Tiers {
		for i := 0; i < src.Len(tier); i++ {
			text := src.Next(context.Background(), tier, i)
			require.NotEmpty(t, text)
			if strings.HasSuffix(text, "\n") {
				found = true
			}
		}
	}
	assert.True(t, found, "expected at least one paragraph ending in a terminator")
}

type fakeWeak struct {
	aggs  []model.CharAggregate
	err   error
	calls int
}

func (f *fakeWeak) GetWeakChars(_ context.Context, _ int, _ model.Tier) ([]model.CharAggregate, error) {
	f.calls++
	return f.aggs, f.err
}

func wordsConfig() model.Config {
	return model.Config{CapsPct: -1, PunctPct: -1}
}

func TestWordsEasyProfile(t *testing.T) {
	src := NewWords(DefaultWords(), wordsConfig(), nil, nil).WithSeed(1)
	text := src.Next(context.Background(), model.TierEasy, 0)
	words := strings.Fields(text)
	require.Len(t, words, 12)
	for _, w := range words {
		assert.LessOrEqual(t, len(w), 5)
		assert.Equal(t, strings.ToLower(w), w)
	}
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestWordsHardEndsWithTerminator(t *testing.T) {
	src := NewWords(DefaultWords(), wordsConfig(), nil, nil).WithSeed(2)
	text := src.Next(context.Background(), model.TierHard, 0)
	assert.True(t, strings.HasSuffix(text, "\n"))
	assert.Len(t, strings.Fields(text), 20)
}

func TestWordsOverrides(t *testing.T) {
	cfg := model.Config{Words: 3, CapsPct: 0, PunctPct: 0}
	p := ProfileFor(model.TierHard, cfg)
	assert.Equal(t, 3, p.Words)
	assert.Zero(t, p.CapsPct)
	assert.Zero(t, p.PunctPct)

	p = ProfileFor(model.TierMedium, wordsConfig())
	assert.Equal(t, profiles[model.TierMedium], p)
}

func TestWordsFocusWeak(t *testing.T) {
	cfg := wordsConfig()
	cfg.FocusWeak = true
	cfg.WeakTop = 1
	cfg.WeakFactor = 50
	weak := &fakeWeak{aggs: []model.CharAggregate{{Char: "z", Mistakes: 9}}}
	src := NewWords([]string{"zoo", "cat", "dog", "sun"}, cfg, weak, nil).WithSeed(3)

	text := src.Next(context.Background(), model.TierEasy, 0)
	assert.Equal(t, 1, weak.calls)
	assert.GreaterOrEqual(t, strings.Count(text, "zoo"), 6)
}

func TestWordsWeakLookupErrorStillGenerates(t *testing.T) {
	cfg := wordsConfig()
	cfg.FocusWeak = true
	src := NewWords([]string{"cat"}, cfg, &fakeWeak{err: errors.New("db closed")}, nil)
	assert.NotEqual(t, Fallback, src.Next(context.Background(), model.TierEasy, 0))
}

func TestWordsEmptyListFallsBack(t *testing.T) {
	src := NewWords(nil, wordsConfig(), nil, nil)
	assert.Equal(t, Fallback, src.Next(context.Background(), model.TierEasy, 0))
}

func TestGenerativeUsesProviderText(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "  “Hello,” she said;\n  it’s late.  "})
	src := NewGenerative(mock, time.Second, nil)

	text := src.Next(context.Background(), model.TierHard, 4)
	assert.Equal(t, "\"Hello,\" she said; it's late.", text)
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0].Prompt, "semicolon")
	assert.True(t, src.Blocking())
}

func TestGenerativeFailsClosed(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("offline")}},
		llm.MockResponse{Text: "   "},
	)
	src := NewGenerative(mock, 0, nil)
	assert.Equal(t, Fallback, src.Next(context.Background(), model.TierEasy, 0))
	assert.Equal(t, Fallback, src.Next(context.Background(), model.TierEasy, 1))
}

func TestFilterEnglishASCII(t *testing.T) {
	filter := FilterForLang("en")
	assert.True(t, filter("hello"))
	for _, word := range []string{"résumé", "naïve", "don’t", "co-op"} {
		assert.False(t, filter(word), word)
	}
}

func TestLoadWordsFiltersAndRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/words.txt"
	require.NoError(t, writeFile(path, "alpha\n\nBeta\ngamma\n"))
	words, err := LoadWords(path, FilterForLang("en"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "gamma"}, words)

	empty := dir + "/empty.txt"
	require.NoError(t, writeFile(empty, "\n"))
	_, err = LoadWords(empty, nil)
	require.ErrorContains(t, err, "word list is empty")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
