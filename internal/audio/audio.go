// Package audio plays sound files for the media player window and the start
// button.
package audio

import (
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrNotLoaded is returned by transport calls made before Load.
	ErrNotLoaded = errors.New("no media loaded")
	// ErrClosed is returned by calls on a closed player.
	ErrClosed = errors.New("player closed")
)

// Player is a single-track audio transport. Implementations are safe for use
// from multiple goroutines.
type Player interface {
	Load(path string) error
	Play() error
	Pause() error
	// Seek moves the playhead to an absolute position.
	Seek(pos time.Duration) error
	// SetVolume takes a percentage in [0, 100].
	SetVolume(percent int) error
	SetMute(muted bool) error
	Position() time.Duration
	// Duration is zero until the track length is known.
	Duration() time.Duration
	Close() error
}

// Factory builds a fresh Player.
type Factory func() (Player, error)

// NewPlayer returns an mpv-backed player, falling back to a silent player
// when the binary was built without the mpv tag or libmpv fails to start.
func NewPlayer() (Player, error) {
	p, err := NewMPV()
	if err == nil {
		return p, nil
	}
	slog.Debug("mpv unavailable, using silent player", slog.String("component", "audio"), slog.Any("error", err))
	return NewSilent(0, time.Now), nil
}

// PlayOnce plays path in the background and releases the player when the
// track ends or maxLength elapses. It returns once playback has started.
func PlayOnce(factory Factory, path string, maxLength time.Duration) error {
	p, err := factory()
	if err != nil {
		return err
	}
	if err := p.Load(path); err != nil {
		p.Close()
		return err
	}
	if err := p.Play(); err != nil {
		p.Close()
		return err
	}
	go func() {
		defer p.Close()

		deadline := time.NewTimer(maxLength)
		defer deadline.Stop()
		tick := time.NewTicker(250 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case <-deadline.C:
				return
			case <-tick.C:
				if Ended(p) {
					return
				}
			}
		}
	}()
	return nil
}

// Ended reports whether p has reached the end of a track of known length.
func Ended(p Player) bool {
	d := p.Duration()
	return d > 0 && p.Position() >= d
}
