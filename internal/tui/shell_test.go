package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/1broseidon/termdesk/internal/audio"
	"github.com/1broseidon/termdesk/internal/config"
	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/widget"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type urlRecorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *urlRecorder) open(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

type testDesk struct {
	shell   *Shell
	desk    *desk.Coordinator[widget.Widget]
	catalog *launcher.Catalog
	clock   *fakeClock
	urls    *urlRecorder

	mu      sync.Mutex
	players []*audio.Silent
}

func newTestDesk(t *testing.T) *testDesk {
	t.Helper()
	td := &testDesk{
		clock: &fakeClock{t: time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC)},
		urls:  &urlRecorder{},
	}
	factory := func() (audio.Player, error) {
		p := audio.NewSilent(time.Minute, td.clock.now)
		td.mu.Lock()
		td.players = append(td.players, p)
		td.mu.Unlock()
		return p, nil
	}
	cfg := config.DefaultConfig()
	td.desk = desk.New[widget.Widget]()
	td.catalog = launcher.New(cfg, factory)
	td.shell = New(Options{
		Config:  cfg,
		Desk:    td.desk,
		Catalog: td.catalog,
		Audio:   factory,
		OpenURL: td.urls.open,
		Now:     td.clock.now,
	})
	t.Cleanup(td.shell.Close)
	td.shell.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return td
}

func (td *testDesk) press(x, y int) tea.Cmd {
	_, cmd := td.shell.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return cmd
}

func (td *testDesk) motion(x, y int) {
	td.shell.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
}

func (td *testDesk) release(x, y int) {
	td.shell.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
}

func (td *testDesk) open(t *testing.T, id string) {
	t.Helper()
	if err := td.shell.open(id); err != nil {
		t.Fatalf("open(%q): %v", id, err)
	}
	// Apply the published snapshot.
	td.shell.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
}

func (td *testDesk) focused() string {
	id, _ := td.desk.Snapshot().Focused()
	return id
}

func TestCanvas_Place(t *testing.T) {
	tests := []struct {
		name  string
		x, y  int
		block string
		want  []string
	}{
		{"inside", 2, 1, "abc", []string{"          ", "  abc     ", "          "}},
		{"clipped left", -1, 0, "xyz", []string{"yz        ", "          ", "          "}},
		{"clipped right", 8, 2, "abcd", []string{"          ", "          ", "        ab"}},
		{"multi line", 0, 1, "ab\ncd\nef", []string{"          ", "ab        ", "cd        "}},
		{"off canvas", 20, 0, "abc", []string{"          ", "          ", "          "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCanvas(10, 3, lipgloss.NewStyle())
			c.place(tt.x, tt.y, tt.block)
			got := strings.Split(ansi.Strip(c.String()), "\n")
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestShell_IconDoubleClickOpens(t *testing.T) {
	td := newTestDesk(t)

	// The bio icon sits at (2,1).
	td.press(3, 1)
	td.release(3, 1)
	if td.shell.icons.selected != 0 {
		t.Fatalf("selected = %d, want 0", td.shell.icons.selected)
	}
	if td.desk.Snapshot().IsOpen("bio") {
		t.Fatal("single click opened the window")
	}

	td.clock.advance(200 * time.Millisecond)
	if cmd := td.press(3, 1); cmd == nil {
		t.Fatal("double click did not start the window content")
	}
	td.release(3, 1)

	snap := td.desk.Snapshot()
	if !snap.IsOpen("bio") || td.focused() != "bio" {
		t.Fatalf("bio open=%v focused=%q", snap.IsOpen("bio"), td.focused())
	}
	if _, ok := td.shell.windows["bio"]; !ok {
		t.Fatal("shell has no frame for bio")
	}
}

func TestShell_SlowSecondClickDoesNotOpen(t *testing.T) {
	td := newTestDesk(t)
	td.press(3, 1)
	td.release(3, 1)
	td.clock.advance(700 * time.Millisecond)
	td.press(3, 1)
	td.release(3, 1)
	if td.desk.Snapshot().IsOpen("bio") {
		t.Fatal("clicks 700ms apart opened the window")
	}
}

func TestShell_ClickDesktopDeselects(t *testing.T) {
	td := newTestDesk(t)
	td.press(3, 1)
	td.press(90, 20)
	if td.shell.icons.selected != -1 {
		t.Fatalf("selected = %d after clicking the desktop", td.shell.icons.selected)
	}
}

func TestShell_IconDragStaysOnDesktop(t *testing.T) {
	td := newTestDesk(t)
	td.press(3, 1)
	td.release(3, 1)
	td.clock.advance(time.Second)

	td.press(3, 1) // pressing a selected icon starts a drag
	td.motion(50, 40)
	td.release(50, 40)

	got := td.shell.icons.icons[0].pos
	want := desk.Point{X: 49, Y: 30 - 1 - iconHeight}
	if got != want {
		t.Fatalf("icon position = %v, want %v", got, want)
	}
}

func TestShell_DragCommitsOnRelease(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "bio") // at (16,2), 50x16

	td.press(20, 2)
	if td.shell.dragging != "bio" {
		t.Fatalf("dragging = %q, want bio", td.shell.dragging)
	}
	td.motion(30, 10)

	d, _ := td.desk.Snapshot().Get("bio")
	if d.Position != (desk.Point{X: 16, Y: 2}) {
		t.Fatalf("position committed mid-drag: %v", d.Position)
	}
	if got := td.shell.windows["bio"].frame.Position(); got != (desk.Point{X: 26, Y: 10}) {
		t.Fatalf("frame position = %v, want (26,10)", got)
	}

	td.release(30, 10)
	d, _ = td.desk.Snapshot().Get("bio")
	if d.Position != (desk.Point{X: 26, Y: 10}) {
		t.Fatalf("committed position = %v, want (26,10)", d.Position)
	}
	if td.shell.dragging != "" {
		t.Fatal("drag still active after release")
	}
}

func TestShell_CloseButton(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "bio")

	// [x] starts four cells from the right edge: 16+50-4.
	td.press(62, 2)
	if td.desk.Snapshot().IsOpen("bio") {
		t.Fatal("close control did not close the window")
	}
	if _, ok := td.shell.windows["bio"]; ok {
		t.Fatal("closed window still has a frame")
	}
	if td.focused() != "" {
		t.Fatalf("focused = %q after closing the focused window", td.focused())
	}
}

func TestShell_ClickBringsToFront(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "bio")      // x 16..65, y 2..17
	td.open(t, "projects") // x 20..83, y 3..22, on top

	// Overlap: the top window takes the press.
	td.press(30, 10)
	if td.focused() != "projects" {
		t.Fatalf("focused = %q, want projects", td.focused())
	}

	// Visible part of bio.
	td.press(17, 10)
	if td.focused() != "bio" {
		t.Fatalf("focused = %q, want bio", td.focused())
	}
	order := td.desk.Snapshot().PaintOrder()
	if order[len(order)-1].ID != "bio" {
		t.Fatalf("top of paint order = %q, want bio", order[len(order)-1].ID)
	}
}

func TestShell_ClosingPlayerReleasesAudio(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "vlc-player")

	d, _ := td.desk.Snapshot().Get("vlc-player")
	player := d.Content.(*widget.MediaPlayer)
	// Deliver the backend as the Init command would.
	td.shell.Update(player.Init()())
	if !player.Playing() {
		t.Fatal("autoplay did not start")
	}

	td.shell.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if td.desk.Snapshot().IsOpen("vlc-player") {
		t.Fatal("esc did not close the focused window")
	}

	td.mu.Lock()
	defer td.mu.Unlock()
	if len(td.players) != 1 || !td.players[0].Closed() {
		t.Fatal("closing the window did not release the player")
	}
}

func TestShell_ReopenReplacesContent(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "bio")
	first := td.shell.windows["bio"].content
	td.open(t, "bio")
	if td.shell.windows["bio"].content == first {
		t.Fatal("reopen kept the old content widget")
	}
}

func TestShell_ReopenPlayerIgnoresOldBackend(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "vlc-player")
	first := td.shell.windows["vlc-player"].content
	// The first backend is built but its ready message is still in flight
	// when the icon is opened again.
	firstReady := first.Init()()

	td.open(t, "vlc-player")
	second, ok := td.shell.windows["vlc-player"].content.(*widget.MediaPlayer)
	if !ok || widget.Widget(second) == first {
		t.Fatal("reopen did not install a new player")
	}
	td.shell.Update(second.Init()())
	if !second.Playing() {
		t.Fatal("replacement player did not autoplay")
	}

	if _, cmd := td.shell.Update(firstReady); cmd != nil {
		t.Fatal("old ready message produced follow-up work")
	}

	td.mu.Lock()
	defer td.mu.Unlock()
	if len(td.players) != 2 {
		t.Fatalf("built %d backends, want 2", len(td.players))
	}
	if old := td.players[0]; !old.Closed() || old.Playing() {
		t.Fatalf("old backend closed=%v playing=%v, want released", old.Closed(), old.Playing())
	}
	if cur := td.players[1]; cur.Closed() || !cur.Playing() {
		t.Fatalf("current backend closed=%v playing=%v, want playing", cur.Closed(), cur.Playing())
	}
}

func TestShell_QuitKeys(t *testing.T) {
	td := newTestDesk(t)

	_, cmd := td.shell.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q with no focused window did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not return tea.Quit")
	}

	td.open(t, "bio")
	_, cmd = td.shell.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q quit while a window had focus")
		}
	}

	_, cmd = td.shell.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c did not return tea.Quit")
	}
}

func (td *testDesk) taskbarSpan(t *testing.T, action taskbarAction) span {
	t.Helper()
	for _, s := range td.shell.taskbar.spans {
		if s.action == action {
			return s
		}
	}
	t.Fatalf("no taskbar span for action %d", action)
	return span{}
}

func TestShell_ClockToggleShowsTooltip(t *testing.T) {
	td := newTestDesk(t)
	clock := td.taskbarSpan(t, actionClock)

	cmd := td.press(clock.start, 29)
	if cmd == nil {
		t.Fatal("clock click scheduled no tooltip expiry")
	}
	if !td.shell.taskbar.showHome {
		t.Fatal("clock did not switch to the home zone")
	}
	view := ansi.Strip(td.shell.View())
	if !strings.Contains(view, "My time") {
		t.Fatal("tooltip not shown")
	}
	// 15:04 UTC is 3:04 PM in London during winter time.
	if !strings.Contains(view, "3:04 PM") {
		t.Fatalf("clock text missing from taskbar:\n%s", view)
	}

	td.shell.Update(tooltipExpiredMsg{seq: td.shell.taskbar.tooltipSeq})
	if strings.Contains(ansi.Strip(td.shell.View()), "My time") {
		t.Fatal("tooltip still shown after expiry")
	}

	td.press(td.taskbarSpan(t, actionClock).start, 29)
	if td.shell.taskbar.showHome || td.shell.taskbar.tooltip != "Your time" {
		t.Fatalf("second click: showHome=%v tooltip=%q", td.shell.taskbar.showHome, td.shell.taskbar.tooltip)
	}
}

func TestShell_StaleTooltipExpiryIgnored(t *testing.T) {
	td := newTestDesk(t)
	td.press(td.taskbarSpan(t, actionClock).start, 29)
	stale := td.shell.taskbar.tooltipSeq
	td.press(td.taskbarSpan(t, actionClock).start, 29)
	td.shell.Update(tooltipExpiredMsg{seq: stale})
	if td.shell.taskbar.tooltip == "" {
		t.Fatal("expiry of an older tooltip hid the current one")
	}
}

func TestShell_LinkOpensURL(t *testing.T) {
	td := newTestDesk(t)
	var link span
	for _, s := range td.shell.taskbar.spans {
		if s.action == actionLink && s.link == 1 {
			link = s
		}
	}
	cmd := td.press(link.start, 29)
	if cmd == nil {
		t.Fatal("link click returned no command")
	}
	td.shell.Update(cmd())

	want := config.DefaultConfig().Taskbar.Links[1].URL
	if len(td.urls.urls) != 1 || td.urls.urls[0] != want {
		t.Fatalf("opened %v, want [%s]", td.urls.urls, want)
	}
}

func TestShell_StartButtonPlaysSound(t *testing.T) {
	td := newTestDesk(t)
	cmd := td.press(td.taskbarSpan(t, actionStart).start, 29)
	if cmd == nil {
		t.Fatal("start click returned no command")
	}
	msg, ok := cmd().(errMsg)
	if !ok || msg.err != nil {
		t.Fatalf("start sound = %+v", msg)
	}

	td.mu.Lock()
	defer td.mu.Unlock()
	if len(td.players) != 1 || !strings.HasSuffix(td.players[0].Loaded(), "startup.mp3") {
		t.Fatalf("start sound players = %v", td.players)
	}
}

func TestShell_ViewDrawsWindowsAndTaskbar(t *testing.T) {
	td := newTestDesk(t)
	td.open(t, "bio")

	lines := strings.Split(ansi.Strip(td.shell.View()), "\n")
	if len(lines) != 30 {
		t.Fatalf("View() has %d rows, want 30", len(lines))
	}
	for i, l := range lines {
		if w := ansi.StringWidth(l); w != 100 {
			t.Fatalf("row %d is %d cells wide, want 100", i, w)
		}
	}
	if !strings.Contains(lines[2], "Bio.txt") || !strings.Contains(lines[2], "[x]") {
		t.Fatalf("title bar row = %q", lines[2])
	}
	if !strings.Contains(lines[29], "Start") {
		t.Fatalf("taskbar row = %q", lines[29])
	}
}

// runLoop stands in for a running program: it feeds sent messages to s on
// its own goroutine until stop is called.
func runLoop(t *testing.T, s *Shell) (send func(tea.Msg), done <-chan struct{}, stop func()) {
	t.Helper()
	msgs := make(chan tea.Msg)
	quit := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case msg := <-msgs:
				s.Update(msg)
			case <-quit:
				return
			}
		}
	}()
	var once sync.Once
	stop = func() {
		once.Do(func() { close(quit) })
		<-exited
	}
	t.Cleanup(stop)
	send = func(msg tea.Msg) {
		select {
		case msgs <- msg:
		case <-quit:
		}
	}
	return send, quit, stop
}

func TestRemote_RoutesThroughLoop(t *testing.T) {
	td := newTestDesk(t)
	r := NewRemote(td.desk, td.catalog)
	ctx := context.Background()

	if err := r.Open(ctx, "bio"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Open before Attach = %v, want ErrNotRunning", err)
	}

	send, done, stop := runLoop(t, td.shell)
	r.Attach(send, done)

	if err := r.Open(ctx, "bio"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Open(ctx, "projects"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Focus(ctx, "bio"); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := r.Move(ctx, "bio", desk.Point{X: 5, Y: 6}); err != nil {
		t.Fatalf("Move: %v", err)
	}

	st := r.State()
	if st.Focused != "bio" {
		t.Fatalf("Focused = %q, want bio", st.Focused)
	}
	w, _ := st.Window("bio")
	if w.Position != (desk.Point{X: 5, Y: 6}) || w.Layer != "focused" {
		t.Fatalf("bio = %+v", w)
	}

	if err := r.Close(ctx, "bio"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(ctx, "nope"); err != nil {
		t.Fatalf("Close(unknown) = %v, want nil", err)
	}
	if st := r.State(); st.Focused != "" {
		t.Fatalf("Focused = %q after closing it", st.Focused)
	}

	var uerr *launcher.UnknownWindowError
	if err := r.Open(ctx, "boi"); !errors.As(err, &uerr) || uerr.Suggestion != "bio" {
		t.Fatalf("Open(boi) = %v", err)
	}

	stop()
	if err := r.Focus(ctx, "projects"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Focus after exit = %v, want ErrNotRunning", err)
	}
}

func TestRemote_Watch(t *testing.T) {
	td := newTestDesk(t)
	r := NewRemote(td.desk, td.catalog)
	send, done, _ := runLoop(t, td.shell)
	r.Attach(send, done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := r.Watch(ctx)

	first := <-states
	if first.Version != 0 {
		t.Fatalf("first state version = %d, want 0", first.Version)
	}
	if err := r.Open(ctx, "bio"); err != nil {
		t.Fatal(err)
	}
	select {
	case st := <-states:
		if st.Focused != "bio" {
			t.Fatalf("watched state = %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state after Open")
	}

	cancel()
	for range states {
	}
}

func TestRemote_ExpiredCallDoesNotMutate(t *testing.T) {
	td := newTestDesk(t)
	r := NewRemote(td.desk, td.catalog)
	msgs := make(chan tea.Msg, 1)
	r.Attach(func(msg tea.Msg) { msgs <- msg }, make(chan struct{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Open(ctx, "bio"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open with cancelled ctx = %v, want context.Canceled", err)
	}

	// The loop only picks the call up after the caller gave up.
	select {
	case msg := <-msgs:
		td.shell.Update(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("call was never sent to the loop")
	}
	if td.desk.Snapshot().IsOpen("bio") {
		t.Fatal("abandoned Open still opened the window")
	}
	if v := td.desk.Snapshot().Version(); v != 0 {
		t.Fatalf("Version() = %d after abandoned call, want 0", v)
	}
}
