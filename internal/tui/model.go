// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemaster/internal/input"
	"github.com/verte-zerg/typemaster/internal/lesson"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/session"
	statsPkg "github.com/verte-zerg/typemaster/internal/stats"
)

const metricsInterval = time.Second

// FooterSource lists stored paragraphs for the footer's last and all-time
// figures.
type FooterSource interface {
	ListParagraphs(ctx context.Context, cfg model.StatsConfig) ([]model.ParagraphAggregate, error)
}

// Options wires the typing UI.
type Options struct {
	Session *session.Session
	// Source serves fetches for blocking sources. It should be the same
	// source the session was built with.
	Source     lesson.Source
	History    FooterSource
	SourceName string
	Logger     *slog.Logger
	// Now is the clock; tests replace it.
	Now func() time.Time
	// Context bounds paragraph generation and history reads. Cancelling it
	// aborts in-flight fetches.
	Context context.Context
}

type footerStats struct {
	lastWPM float64
	lastAcc float64
	hasLast bool

	allWPM       float64
	allAcc       float64
	allCorrect   int
	allIncorrect int
	allDuration  int64
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	ctx        context.Context
	sess       *session.Session
	disp       *input.Dispatcher
	source     lesson.Source
	history    FooterSource
	sourceName string
	logger     *slog.Logger
	now        func() time.Time

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model

	width  int
	height int

	tickID  int
	ticking bool

	footer     footerStats
	footerTier model.Tier
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mistakeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	errorCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#A8071A"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	overlayStyle     = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	m := &Model{
		ctx:        opts.Context,
		sess:       opts.Session,
		source:     opts.Source,
		history:    opts.History,
		sourceName: opts.SourceName,
		logger:     opts.Logger,
		now:        opts.Now,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(currentWordStyle)),
		progress:   progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.source == nil {
		m.source = lesson.NewStatic()
	}
	m.disp = input.New(m.sess)
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.afterChange()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.FocusMsg:
		m.sess.SetFocused(true)
		return m, nil
	case tea.BlurMsg:
		m.sess.SetFocused(false)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case input.ReleaseMsg:
		m.disp.Release(msg)
		return m, nil
	case metricsTickMsg:
		return m, m.handleTick(msg)
	case textMsg:
		return m, m.handleText(msg)
	case spinner.TickMsg:
		if !m.sess.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.sess.Reset(session.ScopeFull)
		return m, m.afterChange()
	case key.Matches(msg, m.keys.ResetTier):
		m.sess.Reset(session.ScopeTier)
		m.footerTier = ""
		return m, m.afterChange()
	case key.Matches(msg, m.keys.Tier):
		m.sess.ChangeTier(m.sess.Tier().Next())
		return m, m.afterChange()
	case key.Matches(msg, m.keys.Skip):
		m.sess.Skip()
		return m, m.afterChange()
	case key.Matches(msg, m.keys.Prev):
		m.sess.JumpTo(m.sess.Index() - 1)
		return m, m.afterChange()
	case key.Matches(msg, m.keys.Next):
		m.sess.JumpTo(m.sess.Index() + 1)
		return m, m.afterChange()
	}

	out, ok := m.disp.Press(msg, m.now())
	if !ok {
		return m, nil
	}
	if out.Dropped {
		m.logger.Debug("keystroke dropped while loading", "code", out.Key.Code)
	}
	if out.Result.Advanced {
		m.footerTier = ""
	}
	return m, tea.Batch(out.ReleaseAfter(), m.afterChange())
}

// afterChange reconciles timers and fetches with the session phase.
func (m *Model) afterChange() tea.Cmd {
	var cmds []tea.Cmd
	phase := m.sess.Phase()
	switch {
	case phase == model.PhasePlaying && !m.ticking:
		m.ticking = true
		m.tickID++
		cmds = append(cmds, m.scheduleTick())
	case phase != model.PhasePlaying && m.ticking:
		m.ticking = false
		m.tickID++
	}
	if req, ok := m.sess.TakeFetch(); ok {
		cmds = append(cmds, m.fetch(req, false), m.spinner.Tick)
	}
	if req, ok := m.sess.TakePrefetch(); ok {
		cmds = append(cmds, m.fetch(req, true))
	}
	if m.footerTier != m.sess.Tier() {
		m.loadFooterStats()
	}
	return tea.Batch(cmds...)
}

func (m *Model) scheduleTick() tea.Cmd {
	id := m.tickID
	return tea.Tick(metricsInterval, func(t time.Time) tea.Msg {
		return metricsTickMsg{id: id, at: t}
	})
}

func (m *Model) handleTick(msg metricsTickMsg) tea.Cmd {
	if msg.id != m.tickID {
		return nil
	}
	if !m.sess.Tick(msg.at) {
		m.ticking = false
		m.tickID++
		return nil
	}
	return m.scheduleTick()
}

func (m *Model) fetch(req session.Request, prefetch bool) tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		return textMsg{req: req, text: src.Next(ctx, req.Tier, req.Index), prefetch: prefetch}
	}
}

func (m *Model) handleText(msg textMsg) tea.Cmd {
	if msg.prefetch {
		if !m.sess.StorePrefetch(msg.req, msg.text) {
			m.logger.Debug("stale prefetch discarded", "tier", msg.req.Tier, "index", msg.req.Index)
		}
		return nil
	}
	if !m.sess.Deliver(msg.req, msg.text) {
		m.logger.Debug("stale paragraph discarded", "tier", msg.req.Tier, "index", msg.req.Index)
		return nil
	}
	return m.afterChange()
}

func (m *Model) loadFooterStats() {
	m.footer = footerStats{}
	m.footerTier = m.sess.Tier()
	if m.history == nil {
		return
	}
	paragraphs, err := m.history.ListParagraphs(m.ctx, model.StatsConfig{Tier: m.footerTier})
	if err != nil {
		m.logger.Warn("load footer stats failed", "tier", m.footerTier, "err", err)
		return
	}
	if len(paragraphs) == 0 {
		return
	}
	last := paragraphs[len(paragraphs)-1]
	m.footer.lastWPM, _, m.footer.lastAcc = statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.footer.hasLast = true
	for _, p := range paragraphs {
		m.footer.allCorrect += p.Correct
		m.footer.allIncorrect += p.Incorrect
		m.footer.allDuration += p.DurationMs
	}
	m.footer.allWPM, _, m.footer.allAcc = statsPkg.SessionMetrics(m.footer.allCorrect, m.footer.allIncorrect, m.footer.allDuration)
}
