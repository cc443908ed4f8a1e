package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemaster/internal/input"
	"github.com/verte-zerg/typemaster/internal/model"
)

const maxTextWidth = 80

// View implements tea.Model.
func (m *Model) View() string {
	width := m.textWidth()
	sections := []string{m.renderHeader(), ""}

	switch {
	case m.sess.Phase() == model.PhaseFinished:
		sections = append(sections, m.renderFinished())
	case m.sess.Loading():
		sections = append(sections, fmt.Sprintf("%s generating paragraph...", m.spinner.View()))
	default:
		sections = append(sections, wrapStyledRunes(buildStyledRunes(m.paragraphView()), width))
		if hint := m.renderKeyHint(); hint != "" {
			sections = append(sections, "", hint)
		}
	}

	sections = append(sections, "", m.renderProgress(width), m.renderFooter())
	if !m.sess.Focused() && m.sess.Phase() != model.PhaseFinished {
		sections = append(sections, "", overlayStyle.Render("Paused. Focus the terminal to keep typing."))
	}
	sections = append(sections, "", m.help.View(m.keys))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) paragraphView() paragraphView {
	return paragraphView{
		target:    m.sess.Target(),
		typed:     m.sess.Cursor(),
		errorFlag: m.sess.ErrorFlag(),
		mistyped:  m.sess.Mistyped,
	}
}

func (m *Model) textWidth() int {
	if m.width <= 0 {
		return maxTextWidth
	}
	return min(m.width-4, maxTextWidth)
}

func (m *Model) renderHeader() string {
	st := m.sess.Stats()
	parts := []string{
		fmt.Sprintf("Tier %s", m.sess.Tier()),
		m.paragraphLabel(),
		fmt.Sprintf("WPM %.1f", st.WPM),
		fmt.Sprintf("Acc %.1f%%", st.Accuracy),
		fmt.Sprintf("Errors %d", st.Errors),
	}
	if limit := m.sess.Limit(); limit > 0 {
		parts = append(parts, fmt.Sprintf("Done %d/%d", m.sess.Completed(), limit))
	}
	if m.sourceName != "" {
		parts = append(parts, m.sourceName)
	}
	if m.disp.ShiftHeld() {
		parts = append(parts, "⇧")
	}
	return headerStyle.Render(strings.Join(parts, " | "))
}

// sizedSource is implemented by sources with a fixed paragraph table.
type sizedSource interface {
	Len(tier model.Tier) int
}

func (m *Model) paragraphLabel() string {
	idx := m.sess.Index()
	if sized, ok := m.source.(sizedSource); ok {
		if n := sized.Len(m.sess.Tier()); n > 0 {
			return fmt.Sprintf("Paragraph %d (%d/%d)", idx+1, idx%n+1, n)
		}
	}
	return fmt.Sprintf("Paragraph %d", idx+1)
}

// renderKeyHint names the key for the rune under the cursor and lists the
// keys still held. A held expected key is bracketed.
func (m *Model) renderKeyHint() string {
	r, ok := m.sess.Expected()
	if !ok {
		return ""
	}
	code, shift := input.CodeFor(r)
	next := string(r)
	if code != "" {
		next = input.Label(code)
		if m.disp.IsHeld(code) {
			next = "[" + next + "]"
		}
	}
	if shift {
		next = "⇧" + next
	}
	parts := []string{"Next " + next}
	if held := m.disp.Held(); len(held) > 0 {
		labels := make([]string, len(held))
		for i, c := range held {
			labels[i] = input.Label(c)
		}
		parts = append(parts, "Held "+strings.Join(labels, " "))
	}
	return footerStyle.Render(strings.Join(parts, " | "))
}

func (m *Model) renderProgress(width int) string {
	m.progress.Width = width
	return m.progress.ViewAs(m.progressRatio())
}

func (m *Model) progressRatio() float64 {
	total := len(m.sess.Target())
	if total == 0 {
		return 0
	}
	return float64(m.sess.Cursor()) / float64(total)
}

func (m *Model) renderFooter() string {
	parts := []string{fmt.Sprintf("Progress %d%%", int(m.progressRatio()*100))}
	if m.footer.hasLast {
		parts = append(parts, fmt.Sprintf("Last %.1f WPM %.1f%%", m.footer.lastWPM, m.footer.lastAcc*100))
		parts = append(parts, fmt.Sprintf("All-time %.1f WPM %.1f%%", m.footer.allWPM, m.footer.allAcc*100))
	}
	rec := m.sess.Record()
	parts = append(parts, fmt.Sprintf("Tier record %d paragraphs %.1f%%", rec.CompletedParagraphs, rec.Accuracy()))
	return footerStyle.Render(strings.Join(parts, " | "))
}

func (m *Model) renderFinished() string {
	st := m.sess.Stats()
	lines := []string{
		"Run complete.",
		fmt.Sprintf("%d paragraphs | %.1f WPM | %.1f%% accuracy | %d errors", m.sess.Completed(), st.WPM, st.Accuracy, st.Errors),
		"ctrl+r to start again, ctrl+t to switch tier",
	}
	return overlayStyle.Render(strings.Join(lines, "\n"))
}
