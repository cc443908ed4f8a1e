package session

// Kind classifies a key event.
type Kind int

const (
	KindContent Kind = iota
	KindControl
	KindBackspace
	KindEnter
)

// Control names a modifier or navigation key that never reaches the text.
type Control int

const (
	ControlShift Control = iota
	ControlCtrl
	ControlAlt
	ControlMeta
	ControlCapsLock
	ControlTab
)

func (c Control) String() string {
	switch c {
	case ControlShift:
		return "shift"
	case ControlCtrl:
		return "control"
	case ControlAlt:
		return "alt"
	case ControlMeta:
		return "meta"
	case ControlCapsLock:
		return "capslock"
	case ControlTab:
		return "tab"
	default:
		return "unknown"
	}
}

// Event is one key press as seen by the session.
type Event struct {
	Kind    Kind
	Rune    rune
	Control Control
}

// Content is a printable key press.
func Content(r rune) Event { return Event{Kind: KindContent, Rune: r} }

// ControlKey is a modifier press.
func ControlKey(c Control) Event { return Event{Kind: KindControl, Control: c} }

// Backspace deletes the last accepted rune.
func Backspace() Event { return Event{Kind: KindBackspace} }

// Enter types the line terminator.
func Enter() Event { return Event{Kind: KindEnter, Rune: Terminator} }

// Outcome is what Accept did with an event.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeErased
	OutcomeCorrect
	OutcomeMistake
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeErased:
		return "erased"
	case OutcomeCorrect:
		return "correct"
	case OutcomeMistake:
		return "mistake"
	default:
		return "unknown"
	}
}

// Result reports the effect of one event.
type Result struct {
	Outcome Outcome
	// Expected is the rune the cursor was on for compared keystrokes.
	Expected rune
	// Advanced is set when the keystroke completed the paragraph.
	Advanced bool
}
