package input

import (
	"strings"
	"unicode"
)

// Physical codes for keys that are not letters or digits.
const (
	CodeSpace     = "Space"
	CodeEnter     = "Enter"
	CodeBackspace = "Backspace"
	CodeTab       = "Tab"
	CodeShift     = "ShiftLeft"
)

// shifted maps a shifted symbol to its unshifted key on a US layout.
var shifted = map[rune]rune{
	'~': '`', '!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0', '_': '-',
	'+': '=', '{': '[', '}': ']', '|': '\\', ':': ';', '"': '\'',
	'<': ',', '>': '.', '?': '/',
}

var symbolCodes = map[rune]string{
	'`': "Backquote", '-': "Minus", '=': "Equal", '[': "BracketLeft",
	']': "BracketRight", '\\': "Backslash", ';': "Semicolon", '\'': "Quote",
	',': "Comma", '.': "Period", '/': "Slash", ' ': CodeSpace, '\n': CodeEnter,
}

// CodeFor returns the physical key code that produces r and whether shift
// is needed. Unknown runes yield an empty code.
func CodeFor(r rune) (code string, shift bool) {
	if base, ok := shifted[r]; ok {
		r = base
		shift = true
	}
	switch {
	case r >= 'a' && r <= 'z':
		return "Key" + strings.ToUpper(string(r)), shift
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r), true
	case r >= '0' && r <= '9':
		return "Digit" + string(r), shift
	}
	if code, ok := symbolCodes[r]; ok {
		return code, shift
	}
	if unicode.IsUpper(r) {
		shift = true
	}
	return "", shift
}

// Label is the printable face of a physical code, used for display.
func Label(code string) string {
	switch {
	case strings.HasPrefix(code, "Key"):
		return strings.TrimPrefix(code, "Key")
	case strings.HasPrefix(code, "Digit"):
		return strings.TrimPrefix(code, "Digit")
	case code == CodeSpace:
		return "␣"
	case code == CodeEnter:
		return "↵"
	}
	for r, c := range symbolCodes {
		if c == code {
			return string(r)
		}
	}
	return code
}
