package audio

import (
	"sync"
	"time"
)

// Silent is a Player that keeps transport state against a clock without
// producing sound. It stands in when libmpv is missing and drives tests.
type Silent struct {
	mu       sync.Mutex
	now      func() time.Time
	length   time.Duration
	loaded   string
	playing  bool
	base     time.Duration // playhead when playback last started or stopped
	since    time.Time
	volume   int
	muted    bool
	closed   bool
	failPlay error
}

// NewSilent returns a silent player. A zero length means the track length is
// unknown and the playhead runs unbounded.
func NewSilent(length time.Duration, now func() time.Time) *Silent {
	if now == nil {
		now = time.Now
	}
	return &Silent{now: now, length: length, volume: 100}
}

// FailPlay makes the next Play calls return err. Pass nil to clear.
func (s *Silent) FailPlay(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPlay = err
}

func (s *Silent) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = path
	s.playing = false
	s.base = 0
	return nil
}

// Loaded returns the path passed to the last Load.
func (s *Silent) Loaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Silent) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == "" {
		return ErrNotLoaded
	}
	if s.failPlay != nil {
		return s.failPlay
	}
	if !s.playing {
		s.playing = true
		s.since = s.now()
	}
	return nil
}

func (s *Silent) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.base = s.positionLocked()
		s.playing = false
	}
	return nil
}

// Playing reports whether the transport is running.
func (s *Silent) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Silent) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == "" {
		return ErrNotLoaded
	}
	s.base = s.clamp(pos)
	s.since = s.now()
	return nil
}

func (s *Silent) SetVolume(percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = percent
	return nil
}

// Volume returns the last volume set.
func (s *Silent) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Silent) SetMute(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	return nil
}

// Muted returns the last mute state set.
func (s *Silent) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Silent) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Silent) Duration() time.Duration {
	return s.length
}

func (s *Silent) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Silent) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Silent) positionLocked() time.Duration {
	if !s.playing {
		return s.base
	}
	return s.clamp(s.base + s.now().Sub(s.since))
}

func (s *Silent) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if s.length > 0 && d > s.length {
		return s.length
	}
	return d
}
