package widget

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/1broseidon/termdesk/internal/audio"
)

const (
	skipStep    = 5 * time.Second
	volumeStep  = 10
	playerTick  = 250 * time.Millisecond
	playerLines = 4
)

// PlayerKeys are the media player key bindings.
type PlayerKeys struct {
	Toggle     key.Binding
	Stop       key.Binding
	Back       key.Binding
	Forward    key.Binding
	Mute       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
}

func DefaultPlayerKeys() PlayerKeys {
	return PlayerKeys{
		Toggle:     key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		Forward:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		Mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolumeDown: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "volume down")),
	}
}

// playerReadyMsg reports that the backend built by Init is waiting in
// pending.
type playerReadyMsg struct {
	token uint64
	err   error
}

type playerTickMsg struct {
	token uint64
}

// MediaPlayer plays one audio file with transport controls.
type MediaPlayer struct {
	id        string
	token     uint64
	path      string
	title     string
	autoplay  bool
	newPlayer audio.Factory
	keys      PlayerKeys

	player   audio.Player
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int
	muted    bool
	err      error

	// mu guards closed and pending, which the Init command touches off the
	// event loop.
	mu      sync.Mutex
	closed  bool
	pending audio.Player

	bar      progress.Model
	controls []control
}

type control struct {
	label  string
	action func(*MediaPlayer)
	start  int
	end    int
}

func NewMediaPlayer(windowID, path string, autoplay bool, newPlayer audio.Factory) *MediaPlayer {
	p := &MediaPlayer{
		id:        windowID,
		token:     nextToken(),
		path:      path,
		title:     filepath.Base(path),
		autoplay:  autoplay,
		newPlayer: newPlayer,
		keys:      DefaultPlayerKeys(),
		volume:    100,
		bar: progress.New(
			progress.WithSolidFill("#FF8800"),
			progress.WithoutPercentage(),
		),
	}
	return p
}

func (p *MediaPlayer) WindowID() string { return p.id }

// Playing reports whether playback is running.
func (p *MediaPlayer) Playing() bool { return p.playing }

// Volume returns the volume percentage.
func (p *MediaPlayer) Volume() int { return p.volume }

// Muted reports whether output is muted.
func (p *MediaPlayer) Muted() bool { return p.muted }

// Position returns the last observed playhead.
func (p *MediaPlayer) Position() time.Duration { return p.position }

// Err returns the last playback error.
func (p *MediaPlayer) Err() error { return p.err }

func (p *MediaPlayer) Init() tea.Cmd {
	token, factory := p.token, p.newPlayer
	return func() tea.Msg {
		pl, err := factory()
		if err != nil {
			return playerReadyMsg{token: token, err: err}
		}
		if !p.park(pl) {
			return nil
		}
		return playerReadyMsg{token: token}
	}
}

// park stores a freshly built backend for the ready message to collect. A
// player that closed in the meantime releases it instead.
func (p *MediaPlayer) park(pl audio.Player) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		pl.Close()
		return false
	}
	p.pending = pl
	p.mu.Unlock()
	return true
}

func (p *MediaPlayer) takePending() audio.Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl := p.pending
	p.pending = nil
	return pl
}

func (p *MediaPlayer) tick() tea.Cmd {
	token := p.token
	return tea.Tick(playerTick, func(time.Time) tea.Msg {
		return playerTickMsg{token: token}
	})
}

func (p *MediaPlayer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case playerReadyMsg:
		if msg.token != p.token {
			return nil
		}
		if msg.err != nil {
			p.err = msg.err
			return nil
		}
		pl := p.takePending()
		if pl == nil || p.player != nil {
			return nil
		}
		p.player = pl
		if err := p.player.Load(p.path); err != nil {
			p.err = err
			return nil
		}
		p.player.SetVolume(p.volume)
		if p.autoplay {
			p.play()
		}
		return p.tick()

	case playerTickMsg:
		if msg.token != p.token || p.closed {
			return nil
		}
		p.refresh()
		return p.tick()

	case tea.KeyMsg:
		if p.player == nil {
			return nil
		}
		switch {
		case key.Matches(msg, p.keys.Toggle):
			p.Toggle()
		case key.Matches(msg, p.keys.Stop):
			p.Stop()
		case key.Matches(msg, p.keys.Back):
			p.Skip(-skipStep)
		case key.Matches(msg, p.keys.Forward):
			p.Skip(skipStep)
		case key.Matches(msg, p.keys.Mute):
			p.ToggleMute()
		case key.Matches(msg, p.keys.VolumeUp):
			p.SetVolume(p.volume + volumeStep)
		case key.Matches(msg, p.keys.VolumeDown):
			p.SetVolume(p.volume - volumeStep)
		}
	}
	return nil
}

func (p *MediaPlayer) refresh() {
	if p.player == nil {
		return
	}
	p.position = p.player.Position()
	p.duration = p.player.Duration()
	if p.playing && audio.Ended(p.player) {
		p.playing = false
	}
}

func (p *MediaPlayer) play() {
	if err := p.player.Play(); err != nil {
		p.err = err
		p.playing = false
		return
	}
	p.err = nil
	p.playing = true
}

// Toggle switches between playing and paused.
func (p *MediaPlayer) Toggle() {
	if p.player == nil {
		return
	}
	if p.playing {
		p.player.Pause()
		p.playing = false
		return
	}
	p.play()
}

// Stop pauses and rewinds to the start.
func (p *MediaPlayer) Stop() {
	if p.player == nil {
		return
	}
	p.player.Pause()
	p.player.Seek(0)
	p.playing = false
	p.position = 0
}

// Skip moves the playhead by d, clamped to the track.
func (p *MediaPlayer) Skip(d time.Duration) {
	if p.player == nil {
		return
	}
	p.refresh()
	p.seek(p.position + d)
}

// SeekFraction moves the playhead to frac of the track length.
func (p *MediaPlayer) SeekFraction(frac float64) {
	if p.player == nil || p.duration <= 0 {
		return
	}
	p.seek(time.Duration(frac * float64(p.duration)))
}

func (p *MediaPlayer) seek(target time.Duration) {
	if target < 0 {
		target = 0
	}
	if p.duration > 0 && target > p.duration {
		target = p.duration
	}
	if err := p.player.Seek(target); err != nil {
		p.err = err
		return
	}
	p.position = target
}

func (p *MediaPlayer) ToggleMute() {
	if p.player == nil {
		return
	}
	p.muted = !p.muted
	p.player.SetMute(p.muted)
}

// SetVolume sets the volume, clamped to [0, 100].
func (p *MediaPlayer) SetVolume(v int) {
	v = max(0, min(100, v))
	p.volume = v
	if p.player != nil {
		p.player.SetVolume(v)
	}
}

// Close stops playback and releases the audio device.
func (p *MediaPlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	if pending != nil {
		pending.Close()
	}

	p.playing = false
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	err := p.player.Close()
	p.player = nil
	return err
}

// Click handles a primary click at (x, y) relative to the widget body.
func (p *MediaPlayer) Click(x, y, width int) tea.Cmd {
	switch y {
	case 1:
		if width > 0 {
			p.SeekFraction(float64(x) / float64(width))
		}
	case 3:
		for _, c := range p.controls {
			if x >= c.start && x < c.end {
				c.action(p)
				break
			}
		}
	}
	return nil
}

var (
	playerTitleStyle = lipgloss.NewStyle().Bold(true)
	buttonStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("238"))
	volumeFillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func (p *MediaPlayer) View(width, _ int) string {
	if width < 1 {
		width = 1
	}
	lines := make([]string, 0, playerLines+1)

	lines = append(lines, ansi.Truncate(playerTitleStyle.Render("♪ "+p.title), width, "…"))

	pct := 0.0
	if p.duration > 0 {
		pct = float64(p.position) / float64(p.duration)
	}
	p.bar.Width = width
	lines = append(lines, p.bar.ViewAs(pct))

	elapsed := formatClock(int(p.position / time.Second))
	total := formatClock(int(p.duration / time.Second))
	gap := max(1, width-len(elapsed)-len(total))
	lines = append(lines, elapsed+strings.Repeat(" ", gap)+total)

	lines = append(lines, p.renderControls())

	if p.err != nil {
		lines = append(lines, errorStyle.Render(ansi.Truncate(fmt.Sprintf("Playback error: %v", p.err), width, "…")))
	}
	return strings.Join(lines, "\n")
}

// renderControls draws the button row and records each button's cell span
// for Click.
func (p *MediaPlayer) renderControls() string {
	toggle := "▶"
	if p.playing {
		toggle = "❚❚"
	}
	mute := "vol"
	if p.muted {
		mute = "mute"
	}
	p.controls = []control{
		{label: toggle, action: (*MediaPlayer).Toggle},
		{label: "■", action: (*MediaPlayer).Stop},
		{label: "«", action: func(p *MediaPlayer) { p.Skip(-skipStep) }},
		{label: "»", action: func(p *MediaPlayer) { p.Skip(skipStep) }},
		{label: mute, action: (*MediaPlayer).ToggleMute},
	}

	var b strings.Builder
	col := 0
	for i := range p.controls {
		c := &p.controls[i]
		if i > 0 {
			b.WriteString(" ")
			col++
		}
		label := " " + c.label + " "
		c.start = col
		col += ansi.StringWidth(label)
		c.end = col
		b.WriteString(buttonStyle.Render(label))
	}

	level := p.volume / 10
	b.WriteString(" ")
	b.WriteString(volumeFillStyle.Render(strings.Repeat("█", level)))
	b.WriteString(mutedStyle.Render(strings.Repeat("░", 10-level)))
	b.WriteString(fmt.Sprintf(" %d%%", p.volume))
	return b.String()
}
