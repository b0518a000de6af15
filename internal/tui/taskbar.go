package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/1broseidon/termdesk/internal/config"
)

const tooltipDuration = 2 * time.Second

var (
	taskbarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("250"))

	startButtonStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("252"))

	linkButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("26"))

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("252"))

	tooltipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("229"))
)

type taskbarAction int

const (
	actionStart taskbarAction = iota
	actionLink
	actionClock
)

// span is a clickable run of taskbar cells.
type span struct {
	start, end int
	action     taskbarAction
	link       int
}

type clockTickMsg time.Time

type tooltipExpiredMsg struct{ seq int }

// taskbar is the bottom row: start button, quick-launch links and a clock
// that toggles between local time and the configured home zone.
type taskbar struct {
	links []config.LinkConfig
	clock config.ClockConfig
	home  *time.Location
	local *time.Location

	now      time.Time
	showHome bool

	tooltip    string
	tooltipSeq int

	spans []span
}

func newTaskbar(cfg *config.Config, now time.Time) taskbar {
	home, err := cfg.HomeLocation()
	if err != nil {
		home = time.Local
	}
	return taskbar{
		links: cfg.Taskbar.Links,
		clock: cfg.Clock,
		home:  home,
		local: time.Local,
		now:   now,
	}
}

func clockTick() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// toggleClock flips the displayed zone and shows its label for a moment.
func (t *taskbar) toggleClock() tea.Cmd {
	t.showHome = !t.showHome
	t.tooltip = t.clock.LocalLabel
	if t.showHome {
		t.tooltip = t.clock.HomeLabel
	}
	t.tooltipSeq++
	seq := t.tooltipSeq
	return tea.Tick(tooltipDuration, func(time.Time) tea.Msg {
		return tooltipExpiredMsg{seq: seq}
	})
}

func (t *taskbar) expireTooltip(seq int) {
	if seq == t.tooltipSeq {
		t.tooltip = ""
	}
}

func (t *taskbar) clockText() string {
	loc := t.local
	if t.showHome {
		loc = t.home
	}
	return t.now.In(loc).Format(t.clock.Format)
}

// hit returns the span under column x.
func (t *taskbar) hit(x int) (span, bool) {
	for _, s := range t.spans {
		if x >= s.start && x < s.end {
			return s, true
		}
	}
	return span{}, false
}

// render draws the taskbar at width cells and records the clickable spans.
func (t *taskbar) render(width int) string {
	t.spans = t.spans[:0]

	var b strings.Builder
	col := 0
	add := func(text string, style lipgloss.Style, s span) {
		s.start = col
		col += ansi.StringWidth(text)
		s.end = col
		t.spans = append(t.spans, s)
		b.WriteString(style.Render(text))
	}
	gap := func() {
		b.WriteString(taskbarStyle.Render(" "))
		col++
	}

	add(" ▤ Start ", startButtonStyle, span{action: actionStart})
	gap()
	for i, l := range t.links {
		add(" "+l.Label+" ", linkButtonStyle, span{action: actionLink, link: i})
		gap()
	}

	clock := " " + t.clockText() + " "
	cw := ansi.StringWidth(clock)
	if fill := width - col - cw; fill > 0 {
		b.WriteString(taskbarStyle.Render(strings.Repeat(" ", fill)))
		col += fill
	}
	add(clock, clockStyle, span{action: actionClock})

	return ansi.Truncate(b.String(), width, "")
}

// renderTooltip returns the tooltip block and its column, or "" when hidden.
func (t *taskbar) renderTooltip(width int) (string, int) {
	if t.tooltip == "" {
		return "", 0
	}
	text := tooltipStyle.Render(" " + t.tooltip + " ")
	x := width - ansi.StringWidth(text)
	for _, s := range t.spans {
		if s.action == actionClock {
			x = min(x, s.start)
		}
	}
	return text, max(0, x)
}
