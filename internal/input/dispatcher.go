// Package input turns terminal key messages into session events.
package input

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemaster/internal/session"
)

// ReleaseDelay is how long a key counts as held. Terminals never report
// key-up, so releases are synthesised.
const ReleaseDelay = 150 * time.Millisecond

// Target receives dispatched events.
type Target interface {
	Accept(ev session.Event, now time.Time) session.Result
	Loading() bool
}

// Key is a decoded key press.
type Key struct {
	Event session.Event
	// Code is the physical key, e.g. "KeyA" or "Digit1".
	Code  string
	Shift bool
}

// Dispatch reports what happened to one key message.
type Dispatch struct {
	Key    Key
	Result session.Result
	// Dropped is set when the key was valid but discarded while busy.
	Dropped bool
	// Seq identifies the press for ReleaseAfter.
	Seq uint64
}

// ReleaseMsg asks the dispatcher to release a synthesised key-up.
type ReleaseMsg struct {
	Code string
	Seq  uint64
}

// Dispatcher feeds key presses to a Target and tracks held keys.
type Dispatcher struct {
	target    Target
	pressed   map[string]uint64
	seq       uint64
	shiftHeld bool
}

// New returns a Dispatcher for target.
func New(target Target) *Dispatcher {
	return &Dispatcher{target: target, pressed: map[string]uint64{}}
}

// Decode maps a Bubble Tea key message. ok is false for keys the session
// never sees (arrows, function keys, pastes, bindings with ctrl).
func Decode(msg tea.KeyMsg) (Key, bool) {
	if msg.Paste {
		return Key{}, false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return Key{}, false
		}
		r := msg.Runes[0]
		if msg.Alt {
			return Key{Event: session.ControlKey(session.ControlAlt)}, true
		}
		code, shift := CodeFor(r)
		return Key{Event: session.Content(r), Code: code, Shift: shift}, true
	case tea.KeySpace:
		return Key{Event: session.Content(' '), Code: CodeSpace}, true
	case tea.KeyEnter:
		return Key{Event: session.Enter(), Code: CodeEnter}, true
	case tea.KeyBackspace, tea.KeyCtrlH:
		return Key{Event: session.Backspace(), Code: CodeBackspace}, true
	case tea.KeyTab:
		return Key{Event: session.ControlKey(session.ControlTab), Code: CodeTab}, true
	case tea.KeyShiftTab:
		return Key{Event: session.ControlKey(session.ControlShift), Code: CodeShift, Shift: true}, true
	case tea.KeyEscape:
		return Key{Event: session.ControlKey(session.ControlMeta)}, true
	default:
		return Key{}, false
	}
}

// Press dispatches msg at now. ok is false when msg is not a typing key.
func (d *Dispatcher) Press(msg tea.KeyMsg, now time.Time) (Dispatch, bool) {
	key, ok := Decode(msg)
	if !ok {
		return Dispatch{}, false
	}
	d.seq++
	out := Dispatch{Key: key, Seq: d.seq}
	if key.Code != "" {
		d.pressed[key.Code] = d.seq
	}
	d.shiftHeld = key.Shift
	if d.target.Loading() {
		out.Dropped = true
		out.Result = session.Result{Outcome: session.OutcomeIgnored}
		return out, true
	}
	out.Result = d.target.Accept(key.Event, now)
	return out, true
}

// ReleaseAfter returns a command that releases the press after ReleaseDelay.
func (d Dispatch) ReleaseAfter() tea.Cmd {
	if d.Key.Code == "" && !d.Key.Shift {
		return nil
	}
	code, seq := d.Key.Code, d.Seq
	return tea.Tick(ReleaseDelay, func(time.Time) tea.Msg {
		return ReleaseMsg{Code: code, Seq: seq}
	})
}

// Release handles a synthesised key-up. A newer press of the same key keeps
// it held.
func (d *Dispatcher) Release(msg ReleaseMsg) {
	if seq, ok := d.pressed[msg.Code]; ok && seq == msg.Seq {
		delete(d.pressed, msg.Code)
	}
	if msg.Seq == d.seq {
		d.shiftHeld = false
	}
}

// ShiftHeld reports whether the latest press needed shift and is still held.
func (d *Dispatcher) ShiftHeld() bool { return d.shiftHeld }

// Held returns the codes currently held, sorted.
func (d *Dispatcher) Held() []string {
	out := make([]string, 0, len(d.pressed))
	for code := range d.pressed {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// IsHeld reports whether code is currently held.
func (d *Dispatcher) IsHeld(code string) bool {
	_, ok := d.pressed[code]
	return ok
}
