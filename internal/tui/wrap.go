package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	terminatorGlyph = '↵'
	wrongSpaceGlyph = '•'
)

type styledRune struct {
	s         string
	width     int
	isSpace   bool
	lineBreak bool
}

// paragraphView is what the renderer needs from the session.
type paragraphView struct {
	target    []rune
	typed     int
	errorFlag bool
	mistyped  func(int) bool
}

func buildStyledRunes(v paragraphView) []styledRune {
	cursorIndex := -1
	if v.typed < len(v.target) {
		cursorIndex = v.typed
	}
	words := findWords(v.target)
	currentWord := wordForCursor(words, cursorIndex)

	out := make([]styledRune, 0, len(v.target))
	for i, target := range v.target {
		displayed := target
		if target == '\n' {
			displayed = terminatorGlyph
		}
		style := pendingStyle
		switch {
		case i < v.typed:
			style = correctStyle
			if v.mistyped != nil && v.mistyped(i) {
				style = mistakeStyle
			}
		case i == cursorIndex && v.errorFlag:
			style = errorCursorStyle
			if target == ' ' {
				displayed = wrongSpaceGlyph
			}
		case target != ' ' && currentWord != nil && i >= currentWord.start && i < currentWord.end:
			style = currentWordStyle
		}
		if i == cursorIndex && !v.errorFlag {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:         style.Render(string(displayed)),
			width:     runewidth.RuneWidth(displayed),
			isSpace:   target == ' ',
			lineBreak: target == '\n',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(targetRunes []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range targetRunes {
		if r == ' ' || r == '\n' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(targetRunes)})
	}
	return words
}

func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 || cursorIndex < 0 {
		return nil
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return nil
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
		if item.lineBreak {
			b.WriteRune('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderLine(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderLine(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
		if item.lineBreak && i < len(runes) {
			out.WriteString(renderLine(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			lastSpaceIdx = -1
		}
	}
	out.WriteString(renderLine(line))
	return out.String()
}

func renderLine(line []styledRune) string {
	var b strings.Builder
	for _, item := range line {
		b.WriteString(item.s)
	}
	return b.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
