//go:build mpv

package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/go-mpv"
)

// https://mpv.io/manual/master/#property-list
const (
	propertyPause    = "pause"
	propertyTimePos  = "time-pos"
	propertyDuration = "duration"
	propertyVolume   = "volume"
	propertyMute     = "mute"
)

// MPV plays audio through libmpv.
type MPV struct {
	mu     sync.Mutex
	m      *mpv.Mpv
	loaded bool
}

// NewMPV initializes an audio-only libmpv instance.
func NewMPV() (Player, error) {
	m := mpv.New()
	if m == nil {
		return nil, fmt.Errorf("libmpv: failed to create handle")
	}

	_ = m.SetOptionString("vid", "no")                   // audio only
	_ = m.SetOptionString("terminal", "no")              // the desktop owns the tty
	_ = m.SetOption("idle", mpv.FormatFlag, true)        // stay alive between tracks
	_ = m.SetOption(propertyPause, mpv.FormatFlag, true) // Play starts playback

	if err := m.Initialize(); err != nil {
		m.TerminateDestroy()
		return nil, fmt.Errorf("libmpv: initialize: %w", err)
	}
	return &MPV{m: m}, nil
}

func (p *MPV) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		return ErrClosed
	}
	if err := p.m.SetProperty(propertyPause, mpv.FormatFlag, true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := p.m.Command([]string{"loadfile", path}); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	p.loaded = true
	return nil
}

func (p *MPV) Play() error {
	return p.setFlag(propertyPause, false)
}

func (p *MPV) Pause() error {
	return p.setFlag(propertyPause, true)
}

func (p *MPV) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		return ErrClosed
	}
	if !p.loaded {
		return ErrNotLoaded
	}
	return p.m.SetProperty(propertyTimePos, mpv.FormatDouble, math.Max(0, pos.Seconds()))
}

func (p *MPV) SetVolume(percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		return ErrClosed
	}
	return p.m.SetProperty(propertyVolume, mpv.FormatInt64, int64(percent))
}

func (p *MPV) SetMute(muted bool) error {
	return p.setFlag(propertyMute, muted)
}

func (p *MPV) Position() time.Duration {
	return p.seconds(propertyTimePos)
}

func (p *MPV) Duration() time.Duration {
	return p.seconds(propertyDuration)
}

func (p *MPV) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		return nil
	}
	p.m.TerminateDestroy()
	p.m = nil
	return nil
}

func (p *MPV) setFlag(name string, v bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		return ErrClosed
	}
	if name == propertyPause && !v && !p.loaded {
		return ErrNotLoaded
	}
	if err := p.m.SetProperty(name, mpv.FormatFlag, v); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// seconds reads a time property. Properties are unavailable while nothing is
// loaded, which reads as zero.
func (p *MPV) seconds(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil || !p.loaded {
		return 0
	}
	v, err := p.m.GetProperty(name, mpv.FormatDouble)
	if err != nil {
		return 0
	}
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
