package lesson

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/verte-zerg/typemaster/internal/llm"
	"github.com/verte-zerg/typemaster/internal/model"
)

const systemPrompt = "You write practice paragraphs for a touch-typing trainer. Reply with the raw paragraph only: no markdown, no quotes around it, no explanations."

var tierPrompts = map[model.Tier]string{
	model.TierEasy: `Create a single paragraph for a typing lesson.
Constraints:
1. Use only lowercase English letters and spaces.
2. Prefer short, common words.
3. The text should be coherent and about 25-35 words long.`,
	model.TierMedium: `Create a single paragraph for a typing lesson.
Constraints:
1. Must include both uppercase and lowercase English alphabets.
2. Use ordinary sentence punctuation: commas and periods.
3. The text should be coherent, interesting to read, and about 35-50 words long.`,
	model.TierHard: `Create a single paragraph for a typing lesson.
Constraints:
1. Must include both uppercase and lowercase English alphabets.
2. Must frequently use the following symbols: comma (,), colon (:), semicolon (;), period (.), single quote ('), double quote (").
3. Include a few digits.
4. The text should be coherent, interesting to read, and about 40-60 words long.`,
}

// Generative asks a language model for each paragraph.
type Generative struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGenerative returns a model-backed source. A zero timeout disables the
// per-request deadline.
func NewGenerative(provider llm.Provider, timeout time.Duration, logger *slog.Logger) *Generative {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generative{provider: provider, timeout: timeout, logger: logger}
}

func (g *Generative) Next(ctx context.Context, tier model.Tier, index int) string {
	prompt, ok := tierPrompts[tier]
	if !ok {
		prompt = tierPrompts[model.TierMedium]
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   400,
		Temperature: 0.9,
	})
	if err != nil {
		g.logger.Warn("lesson generation failed, using fallback",
			"tier", tier, "index", index, "model", g.provider.ModelID(), "err", err)
		return Fallback
	}
	text := Normalize(resp.Text)
	if text == "" {
		g.logger.Warn("lesson generation returned no text, using fallback", "tier", tier, "index", index)
		return Fallback
	}
	return text
}

func (g *Generative) Blocking() bool { return true }

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", "\"", "”", "\"",
	"–", "-", "—", "-",
	"…", "...",
	"\u00a0", " ",
)

// Normalize flattens model output into one typeable line: typographic
// punctuation becomes ASCII and whitespace runs collapse to single spaces.
func Normalize(text string) string {
	text = typographic.Replace(text)
	text = strings.Trim(strings.TrimSpace(text), "`")
	return strings.Join(strings.Fields(text), " ")
}
