package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	for _, id := range []string{"bio", "projects", "vlc-player"} {
		if _, ok := cfg.Window(id); !ok {
			t.Errorf("expected default window %q", id)
		}
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("File = %q, want empty", res.File)
	}
	if len(res.Config.Windows) != 3 {
		t.Fatalf("expected 3 default windows, got %d", len(res.Config.Windows))
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Clock.HomeTimezone != "Europe/London" {
		t.Fatalf("expected default timezone, got %q", res.Config.Clock.HomeTimezone)
	}
}

func TestLoadFromPath_PartialOverlay(t *testing.T) {
	path := writeConfig(t, `
clock:
  home_timezone: America/New_York
api:
  enabled: true
logging:
  level: debug
`)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Clock.HomeTimezone != "America/New_York" {
		t.Errorf("home_timezone = %q", cfg.Clock.HomeTimezone)
	}
	if cfg.Clock.Format != "3:04 PM" {
		t.Errorf("format = %q, want default", cfg.Clock.Format)
	}
	if !cfg.API.Enabled || cfg.API.Addr != "127.0.0.1:7777" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
	if len(cfg.Windows) != 3 {
		t.Errorf("windows replaced unexpectedly: %d", len(cfg.Windows))
	}
}

func TestLoadFromPath_WindowsReplaceDefaults(t *testing.T) {
	path := writeConfig(t, `
windows:
  - id: notes
    title: Notes
    kind: text
    source: notes.txt
    x: 1
    y: 1
    width: 40
    height: 10
desktop:
  icons:
    - window: notes
      label: Notes
      x: 0
      y: 0
`)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Windows) != 1 || res.Config.Windows[0].ID != "notes" {
		t.Fatalf("windows = %+v", res.Config.Windows)
	}
	got := res.Config.ResolveSource("notes.txt")
	want := filepath.Join(filepath.Dir(path), "notes.txt")
	if got != want {
		t.Fatalf("ResolveSource() = %q, want %q", got, want)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, "wallpaper_color: blue\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestLoadFromPath_ValidationErrorNamesFile(t *testing.T) {
	path := writeConfig(t, "clock:\n  home_timezone: Mars/Olympus\n")
	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Path != "clock.home_timezone" {
		t.Errorf("Path = %q", verr.Path)
	}
	if !strings.Contains(err.Error(), "config.yaml") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{"empty id", func(c *Config) { c.Windows[0].ID = "" }, "windows[0].id"},
		{"duplicate id", func(c *Config) { c.Windows[1].ID = "bio" }, "windows[1].id"},
		{"bad kind", func(c *Config) { c.Windows[0].Kind = "video" }, "windows[0].kind"},
		{"missing source", func(c *Config) { c.Windows[2].Source = " " }, "windows[2].source"},
		{"too small", func(c *Config) { c.Windows[0].Width = 4 }, "windows[0]"},
		{"autoplay on text", func(c *Config) { c.Windows[0].Autoplay = true }, "windows[0].autoplay"},
		{"icon for unknown window", func(c *Config) { c.Desktop.Icons[0].Window = "ghost" }, "desktop.icons[0].window"},
		{"empty link", func(c *Config) { c.Taskbar.Links[1].URL = "" }, "taskbar.links[1].url"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"api without addr", func(c *Config) {
			c.API.Enabled = true
			c.API.Addr = ""
		}, "api.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Path != tt.wantPath {
				t.Fatalf("Path = %q, want %q", verr.Path, tt.wantPath)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.Enabled = true
	cfg.Clock.HomeTimezone = "Asia/Tokyo"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.API.Enabled || res.Config.Clock.HomeTimezone != "Asia/Tokyo" {
		t.Fatalf("reloaded config = %+v", res.Config)
	}
}

func TestGetLoggingConfigDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := &Config{}
	got := cfg.GetLoggingConfig()
	if got.Level != "info" || got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Fatalf("GetLoggingConfig() = %+v", got)
	}
	if !strings.HasSuffix(got.File, filepath.Join("termdesk", "termdesk.log")) {
		t.Fatalf("File = %q", got.File)
	}
}
