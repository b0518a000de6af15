package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// WindowKind selects the content widget a launcher builds.
type WindowKind string

const (
	KindText     WindowKind = "text"     // Scrollable text file viewer.
	KindProjects WindowKind = "projects" // Project gallery loaded from JSON.
	KindPlayer   WindowKind = "player"   // Audio player.
)

// WindowConfig describes one launchable window.
type WindowConfig struct {
	ID       string     `yaml:"id"`
	Title    string     `yaml:"title"`
	Kind     WindowKind `yaml:"kind"`
	Source   string     `yaml:"source"` // File the content widget loads
	Icon     string     `yaml:"icon,omitempty"`
	X        int        `yaml:"x"`
	Y        int        `yaml:"y"`
	Width    int        `yaml:"width"`
	Height   int        `yaml:"height"`
	Autoplay bool       `yaml:"autoplay,omitempty"` // player only
}

// IconConfig places a desktop icon that opens a window on double click.
type IconConfig struct {
	Window string `yaml:"window"`
	Label  string `yaml:"label"`
	Glyph  string `yaml:"glyph,omitempty"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
}

type DesktopConfig struct {
	Wallpaper string       `yaml:"wallpaper"` // lipgloss color
	Icons     []IconConfig `yaml:"icons"`
}

// ClockConfig controls the taskbar clock. Clicking the clock toggles between
// the local zone and HomeTimezone.
type ClockConfig struct {
	HomeTimezone string `yaml:"home_timezone"`
	HomeLabel    string `yaml:"home_label"`
	LocalLabel   string `yaml:"local_label"`
	Format       string `yaml:"format"`
}

type LinkConfig struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type TaskbarConfig struct {
	StartSound string       `yaml:"start_sound,omitempty"`
	Links      []LinkConfig `yaml:"links"`
	Opener     string       `yaml:"opener"` // Command used to open links
}

// LoggingConfig configures the desktop log file.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type IPCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Socket  string `yaml:"socket,omitempty"` // Empty uses the runtime dir
}

// Config is the termdesk configuration.
type Config struct {
	Desktop DesktopConfig  `yaml:"desktop"`
	Windows []WindowConfig `yaml:"windows"`
	Clock   ClockConfig    `yaml:"clock"`
	Taskbar TaskbarConfig  `yaml:"taskbar"`
	Logging LoggingConfig  `yaml:"logging"`
	API     APIConfig      `yaml:"api"`
	IPC     IPCConfig      `yaml:"ipc"`

	// baseDir anchors relative window sources. It is the directory of the
	// loaded config file, or empty for the working directory.
	baseDir string `yaml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Desktop: DesktopConfig{
			Wallpaper: "30",
			Icons: []IconConfig{
				{Window: "bio", Label: "Bio.txt", Glyph: "≡", X: 2, Y: 1},
				{Window: "projects", Label: "My Projects", Glyph: "▦", X: 2, Y: 6},
				{Window: "vlc-player", Label: "VLC", Glyph: "♪", X: 2, Y: 11},
			},
		},
		Windows: []WindowConfig{
			{
				ID:     "bio",
				Title:  "Bio.txt",
				Kind:   KindText,
				Source: "bio.txt",
				Icon:   "≡",
				X:      16,
				Y:      2,
				Width:  50,
				Height: 16,
			},
			{
				ID:     "projects",
				Title:  "My Projects",
				Kind:   KindProjects,
				Source: "projects.json",
				Icon:   "▦",
				X:      20,
				Y:      3,
				Width:  64,
				Height: 20,
			},
			{
				ID:       "vlc-player",
				Title:    "VLC media player",
				Kind:     KindPlayer,
				Source:   "Michael Haggins - Daybreak.mp3",
				Icon:     "♪",
				X:        26,
				Y:        5,
				Width:    44,
				Height:   9,
				Autoplay: true,
			},
		},
		Clock: ClockConfig{
			HomeTimezone: "Europe/London",
			HomeLabel:    "My time",
			LocalLabel:   "Your time",
			Format:       "3:04 PM",
		},
		Taskbar: TaskbarConfig{
			StartSound: "startup.mp3",
			Links: []LinkConfig{
				{Label: "in", URL: "https://www.linkedin.com/"},
				{Label: "gh", URL: "https://github.com/"},
				{Label: "M", URL: "https://medium.com/"},
			},
			Opener: "xdg-open",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		API: APIConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7777",
		},
		IPC: IPCConfig{
			Enabled: true,
		},
	}
}

// Window returns the launcher entry for id.
func (c *Config) Window(id string) (WindowConfig, bool) {
	for _, w := range c.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowConfig{}, false
}

// ResolveSource returns src as an absolute path when it is relative, anchored
// at the config file's directory.
func (c *Config) ResolveSource(src string) string {
	if src == "" || filepath.IsAbs(src) {
		return src
	}
	if strings.HasPrefix(src, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, src[2:])
		}
	}
	return filepath.Join(c.baseDir, src)
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/termdesk/termdesk.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// HomeLocation resolves the clock's home timezone.
func (c *Config) HomeLocation() (*time.Location, error) {
	return time.LoadLocation(c.Clock.HomeTimezone)
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path. Comments in an existing file are
// not preserved.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Windows))
	for i, w := range c.Windows {
		path := fmt.Sprintf("windows[%d]", i)
		if strings.TrimSpace(w.ID) == "" {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("id is required")}
		}
		if _, dup := seen[w.ID]; dup {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("duplicate window id %q", w.ID)}
		}
		seen[w.ID] = struct{}{}
		switch w.Kind {
		case KindText, KindProjects, KindPlayer:
		default:
			return &ValidationError{Path: path + ".kind", Err: fmt.Errorf("kind must be one of: text, projects, player")}
		}
		if strings.TrimSpace(w.Source) == "" {
			return &ValidationError{Path: path + ".source", Err: fmt.Errorf("source is required")}
		}
		if w.Width < MinWindowWidth || w.Height < MinWindowHeight {
			return &ValidationError{Path: path, Err: fmt.Errorf("window must be at least %dx%d", MinWindowWidth, MinWindowHeight)}
		}
		if w.Autoplay && w.Kind != KindPlayer {
			return &ValidationError{Path: path + ".autoplay", Err: fmt.Errorf("autoplay only applies to player windows")}
		}
	}

	for i, icon := range c.Desktop.Icons {
		path := fmt.Sprintf("desktop.icons[%d]", i)
		if _, ok := seen[icon.Window]; !ok {
			return &ValidationError{Path: path + ".window", Err: fmt.Errorf("unknown window %q", icon.Window)}
		}
		if icon.X < 0 || icon.Y < 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("icon position must be >= 0")}
		}
	}

	if _, err := time.LoadLocation(c.Clock.HomeTimezone); err != nil {
		return &ValidationError{Path: "clock.home_timezone", Err: err}
	}
	if strings.TrimSpace(c.Clock.Format) == "" {
		return &ValidationError{Path: "clock.format", Err: fmt.Errorf("format is required")}
	}

	for i, link := range c.Taskbar.Links {
		if strings.TrimSpace(link.URL) == "" {
			return &ValidationError{Path: fmt.Sprintf("taskbar.links[%d].url", i), Err: fmt.Errorf("url is required")}
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging", Err: fmt.Errorf("max_size_mb and max_files must be >= 0")}
	}

	if c.API.Enabled && strings.TrimSpace(c.API.Addr) == "" {
		return &ValidationError{Path: "api.addr", Err: fmt.Errorf("addr is required when the api is enabled")}
	}
	return nil
}

// Minimum window extent: a title bar plus one body row, wide enough for the
// icon, a few title cells and the close control.
const (
	MinWindowWidth  = 12
	MinWindowHeight = 3
)

// ValidationError names the config path that failed validation.
type ValidationError struct {
	Path string
	File string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := ""
	if e.File != "" {
		prefix = e.File + ": "
	}
	if e.Path != "" {
		return fmt.Sprintf("%s%s: %v", prefix, e.Path, e.Err)
	}
	return prefix + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
