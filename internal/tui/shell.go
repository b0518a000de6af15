// Package tui is the desktop shell: a bubbletea program that draws the
// wallpaper, icons, open windows and taskbar, and routes input to them.
//
// All window state lives in the desk coordinator. The shell only mutates it
// from inside Update, either directly for mouse and key input or through
// Remote for callers outside the event loop.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/termdesk/internal/audio"
	"github.com/1broseidon/termdesk/internal/config"
	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/frame"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/logging"
	"github.com/1broseidon/termdesk/internal/widget"
)

// startSoundLimit caps how long the start sound may hold the audio device.
const startSoundLimit = 10 * time.Second

const wheelStep = 3

// Options configures a Shell. Config, Desk and Catalog are required.
type Options struct {
	Config  *config.Config
	Desk    *desk.Coordinator[widget.Widget]
	Catalog *launcher.Catalog

	// Audio builds players for the start sound. Defaults to audio.NewPlayer.
	Audio audio.Factory
	// OpenURL opens taskbar links. Defaults to the configured opener command.
	OpenURL func(url string) error
	Now     func() time.Time
	Logger  *slog.Logger
}

type errMsg struct {
	op  string
	err error
}

// Shell is the root bubbletea model.
type Shell struct {
	cfg      *config.Config
	desk     *desk.Coordinator[widget.Widget]
	catalog  *launcher.Catalog
	newAudio audio.Factory
	openURL  func(string) error
	now      func() time.Time
	log      *slog.Logger
	keys     KeyMap

	mu          sync.Mutex
	incoming    *desk.Snapshot[widget.Widget]
	unsubscribe func()

	snap     desk.Snapshot[widget.Widget]
	windows  map[string]*window
	dragging string // id of the window whose frame is being dragged
	initCmds []tea.Cmd

	icons       iconLayer
	taskbar     taskbar
	taskbarView string
	wallpaper   lipgloss.Style

	width  int
	height int
}

func New(opts Options) *Shell {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Audio == nil {
		opts.Audio = audio.NewPlayer
	}
	if opts.OpenURL == nil {
		opts.OpenURL = commandOpener(opts.Config.Taskbar.Opener)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := &Shell{
		cfg:       opts.Config,
		desk:      opts.Desk,
		catalog:   opts.Catalog,
		newAudio:  opts.Audio,
		openURL:   opts.OpenURL,
		now:       opts.Now,
		log:       logging.Component(opts.Logger, "shell"),
		keys:      DefaultKeyMap(),
		windows:   make(map[string]*window),
		icons:     newIconLayer(opts.Config.Desktop.Icons),
		taskbar:   newTaskbar(opts.Config, opts.Now()),
		wallpaper: lipgloss.NewStyle().Background(lipgloss.Color(opts.Config.Desktop.Wallpaper)),
	}
	s.unsubscribe = s.desk.Subscribe(s.receive)
	s.initCmds = s.reconcile(s.desk.Snapshot())
	return s
}

func commandOpener(opener string) func(string) error {
	return func(url string) error {
		if opener == "" {
			return errors.New("no opener configured")
		}
		cmd := exec.Command(opener, url)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to run %s: %w", opener, err)
		}
		go cmd.Wait()
		return nil
	}
}

// receive is the coordinator subscription. It may run on any goroutine; the
// snapshot is applied on the next Update.
func (s *Shell) receive(snap desk.Snapshot[widget.Widget]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incoming == nil || snap.Version() > s.incoming.Version() {
		s.incoming = &snap
	}
}

func (s *Shell) takeIncoming() (desk.Snapshot[widget.Widget], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incoming == nil {
		return desk.Snapshot[widget.Widget]{}, false
	}
	snap := *s.incoming
	s.incoming = nil
	return snap, true
}

// Close releases the subscription and every live widget. Call it after the
// program exits.
func (s *Shell) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	for id, w := range s.windows {
		s.retire(id, w)
	}
	s.windows = make(map[string]*window)
}

// Init implements tea.Model.
func (s *Shell) Init() tea.Cmd {
	cmds := append([]tea.Cmd{clockTick()}, s.initCmds...)
	s.initCmds = nil
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := s.handle(msg)
	if snap, ok := s.takeIncoming(); ok && snap.Version() > s.snap.Version() {
		cmds = append(cmds, s.reconcile(snap)...)
	}
	s.layout()
	return s, tea.Batch(cmds...)
}

func (s *Shell) handle(msg tea.Msg) []tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return nil

	case tea.KeyMsg:
		return s.handleKey(msg)

	case tea.MouseMsg:
		return s.handleMouse(msg)

	case clockTickMsg:
		s.taskbar.now = time.Time(msg)
		return []tea.Cmd{clockTick()}

	case tooltipExpiredMsg:
		s.taskbar.expireTooltip(msg.seq)
		return nil

	case remoteCall:
		msg.reply <- msg.fn(s)
		return nil

	case errMsg:
		if msg.err != nil {
			s.log.Warn(msg.op+" failed", slog.Any("error", msg.err))
		}
		return nil
	}

	// Everything else belongs to the widgets, which ignore messages for
	// other windows.
	var cmds []tea.Cmd
	for _, d := range s.snap.Windows() {
		if w := s.windows[d.ID]; w != nil && w.content != nil {
			cmds = append(cmds, w.content.Update(msg))
		}
	}
	return cmds
}

func (s *Shell) handleKey(msg tea.KeyMsg) []tea.Cmd {
	if key.Matches(msg, s.keys.Quit) {
		return []tea.Cmd{tea.Quit}
	}
	id, ok := s.snap.Focused()
	if !ok {
		if key.Matches(msg, s.keys.QuitIdle) {
			return []tea.Cmd{tea.Quit}
		}
		return nil
	}
	w := s.windows[id]
	if w == nil {
		return nil
	}

	switch {
	case key.Matches(msg, s.keys.CloseWindow):
		s.desk.Close(id)
	case key.Matches(msg, s.keys.ScrollUp):
		w.vp.ScrollUp(1)
	case key.Matches(msg, s.keys.ScrollDown):
		w.vp.ScrollDown(1)
	case key.Matches(msg, s.keys.PageUp):
		w.vp.PageUp()
	case key.Matches(msg, s.keys.PageDown):
		w.vp.PageDown()
	default:
		if w.content != nil {
			return []tea.Cmd{w.content.Update(msg)}
		}
	}
	return nil
}

func (s *Shell) handleMouse(msg tea.MouseMsg) []tea.Cmd {
	p := desk.Point{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionMotion:
		if w := s.windows[s.dragging]; w != nil {
			w.frame.Move(p)
		} else if s.icons.dragging {
			s.icons.move(p, s.desktopArea())
		}
		return nil

	case tea.MouseActionRelease:
		if w := s.windows[s.dragging]; w != nil {
			w.frame.Release(p)
		}
		s.dragging = ""
		s.icons.release()
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if _, w := s.windowAt(p); w != nil {
			if msg.Button == tea.MouseButtonWheelUp {
				w.vp.ScrollUp(wheelStep)
			} else {
				w.vp.ScrollDown(wheelStep)
			}
		}
		return nil
	case tea.MouseButtonLeft:
		return s.press(p)
	}
	return nil
}

func (s *Shell) press(p desk.Point) []tea.Cmd {
	if p.Y == s.height-1 {
		return s.pressTaskbar(p.X)
	}

	if id, w := s.windowAt(p); w != nil {
		s.icons.deselect()
		region := frame.HitTest(w.frame.Bounds(), p)
		w.frame.Press(p)
		if w.frame.Dragging() {
			s.dragging = id
		}
		if region == frame.RegionBody {
			if c, ok := w.content.(widget.Clicker); ok {
				o := w.contentOrigin()
				return []tea.Cmd{c.Click(p.X-o.X, p.Y-o.Y+w.vp.YOffset, w.vp.Width)}
			}
		}
		return nil
	}

	if i := s.icons.hit(p); i >= 0 {
		if id := s.icons.press(i, p, s.now()); id != "" {
			if err := s.open(id); err != nil {
				s.log.Warn("open failed", slog.String("id", id), slog.Any("error", err))
			}
		}
		return nil
	}

	s.icons.deselect()
	return nil
}

func (s *Shell) pressTaskbar(x int) []tea.Cmd {
	sp, ok := s.taskbar.hit(x)
	if !ok {
		return nil
	}
	switch sp.action {
	case actionStart:
		return []tea.Cmd{s.playStartSound()}
	case actionLink:
		link := s.taskbar.links[sp.link]
		open := s.openURL
		return []tea.Cmd{func() tea.Msg {
			return errMsg{op: "open link", err: open(link.URL)}
		}}
	case actionClock:
		return []tea.Cmd{s.taskbar.toggleClock()}
	}
	return nil
}

func (s *Shell) playStartSound() tea.Cmd {
	if s.cfg.Taskbar.StartSound == "" {
		return nil
	}
	path := s.cfg.ResolveSource(s.cfg.Taskbar.StartSound)
	factory := s.newAudio
	return func() tea.Msg {
		return errMsg{op: "start sound", err: audio.PlayOnce(factory, path, startSoundLimit)}
	}
}

// open launches the catalog window id.
func (s *Shell) open(id string) error {
	req, err := s.catalog.Request(id)
	if err != nil {
		return err
	}
	s.log.Debug("opening window", slog.String("id", id))
	return s.desk.Open(req)
}

// windowAt returns the topmost open window under p.
func (s *Shell) windowAt(p desk.Point) (string, *window) {
	order := s.snap.PaintOrder()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i].ID
		if w := s.windows[id]; w != nil && w.frame.Bounds().Contains(p) {
			return id, w
		}
	}
	return "", nil
}

func (s *Shell) desktopArea() desk.Rect {
	return desk.Rect{Width: s.width, Height: max(0, s.height-1)}
}

// reconcile adopts snap: it creates frames for newly opened windows, starts
// new content widgets and releases content whose window closed or was
// replaced.
func (s *Shell) reconcile(snap desk.Snapshot[widget.Widget]) []tea.Cmd {
	var cmds []tea.Cmd
	for _, d := range snap.Windows() {
		w := s.windows[d.ID]
		if !d.Open {
			if w != nil {
				s.retire(d.ID, w)
				delete(s.windows, d.ID)
			}
			continue
		}

		if w == nil {
			w = newWindow(d.ID, s.desk)
			s.windows[d.ID] = w
		}
		if w.content != d.Content {
			if w.content != nil {
				closeContent(s.log, d.ID, w.content)
			}
			w.content = d.Content
			bw, bh := bodySize(d.Size)
			w.vp = viewport.New(bw, bh)
			if d.Content != nil {
				cmds = append(cmds, d.Content.Init())
			}
		}
		w.title = d.Title
		w.icon = d.Icon
		w.frame.Sync(d.Position, d.Size)
	}
	s.snap = snap
	return cmds
}

func (s *Shell) retire(id string, w *window) {
	w.frame.Cancel()
	if s.dragging == id {
		s.dragging = ""
	}
	if w.content != nil {
		closeContent(s.log, id, w.content)
	}
}

func closeContent(log *slog.Logger, id string, content widget.Widget) {
	c, ok := content.(widget.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to release window content", slog.String("id", id), slog.Any("error", err))
	}
}

// layout renders widget content and the taskbar ahead of View.
func (s *Shell) layout() {
	for _, d := range s.snap.PaintOrder() {
		if w := s.windows[d.ID]; w != nil {
			w.refresh(d.Size)
		}
	}
	if s.width > 0 {
		s.taskbarView = s.taskbar.render(s.width)
	}
}

// View implements tea.Model.
func (s *Shell) View() string {
	if s.width == 0 || s.height == 0 {
		return ""
	}

	c := newCanvas(s.width, s.height, s.wallpaper)
	s.icons.paint(c)

	focused, _ := s.snap.Focused()
	for _, d := range s.snap.PaintOrder() {
		w := s.windows[d.ID]
		if w == nil {
			continue
		}
		b := w.frame.Bounds()
		c.place(b.X, b.Y, w.render(d.ID == focused))
	}

	if tip, x := s.taskbar.renderTooltip(s.width); tip != "" {
		c.place(x, s.height-2, tip)
	}
	c.place(0, s.height-1, s.taskbarView)
	return c.String()
}
