package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/termdesk/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingFile_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "desk.log")
	w, err := OpenRotating(path, 1, 2)
	if err != nil {
		t.Fatalf("OpenRotating: %v", err)
	}
	defer w.Close()

	chunk := []byte(strings.Repeat("x", 400*1024) + "\n")
	for i := 0; i < 8; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
	}

	for _, name := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected %s.3 to be pruned, stat err = %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("active log size = %d, want <= 1MiB", info.Size())
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	w, err := OpenRotating(filepath.Join(t.TempDir(), "a.log"), 1, 1)
	if err != nil {
		t.Fatalf("OpenRotating: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Write([]byte("late")); err == nil {
		t.Fatal("expected error writing to closed log")
	}
}

func TestOpenFile_WritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.log")
	logger, closer, err := OpenFile(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxFiles: 1})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	Component(logger, "shell").Debug("window opened", "id", "bio")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	for _, want := range []string{"window opened", "component=shell", "id=bio"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("file log output contains color escapes: %q", out)
	}
}
