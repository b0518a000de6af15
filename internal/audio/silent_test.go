package audio

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSilent_Transport(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	p := NewSilent(30*time.Second, clk.now)

	if err := p.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Play() before Load = %v, want ErrNotLoaded", err)
	}
	if err := p.Load("song.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	clk.advance(4 * time.Second)
	if got := p.Position(); got != 4*time.Second {
		t.Fatalf("Position() = %v, want 4s", got)
	}

	p.Pause()
	clk.advance(10 * time.Second)
	if got := p.Position(); got != 4*time.Second {
		t.Fatalf("Position() after pause = %v, want 4s", got)
	}

	p.Seek(28 * time.Second)
	p.Play()
	clk.advance(10 * time.Second)
	if got := p.Position(); got != 30*time.Second {
		t.Fatalf("Position() = %v, want clamped 30s", got)
	}
	if !Ended(p) {
		t.Fatal("Ended() = false at end of track")
	}

	p.Seek(-5 * time.Second)
	if got := p.Position(); got != 0 {
		t.Fatalf("Position() after negative seek = %v, want 0", got)
	}
}

func TestSilent_FailPlay(t *testing.T) {
	p := NewSilent(0, nil)
	p.Load("a.mp3")
	boom := errors.New("autoplay blocked")
	p.FailPlay(boom)
	if err := p.Play(); !errors.Is(err, boom) {
		t.Fatalf("Play() = %v, want %v", err, boom)
	}
	if p.Playing() {
		t.Fatal("Playing() = true after failed Play")
	}
}

func TestPlayOnce_ClosesAfterDeadline(t *testing.T) {
	s := NewSilent(0, nil)
	err := PlayOnce(func() (Player, error) { return s, nil }, "start.mp3", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("PlayOnce: %v", err)
	}
	if s.Loaded() != "start.mp3" {
		t.Fatalf("Loaded() = %q", s.Loaded())
	}

	deadline := time.Now().Add(2 * time.Second)
	for !s.Closed() {
		if time.Now().After(deadline) {
			t.Fatal("player was not closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPlayOnce_FactoryError(t *testing.T) {
	boom := errors.New("no device")
	err := PlayOnce(func() (Player, error) { return nil, boom }, "x.mp3", time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("PlayOnce() = %v, want %v", err, boom)
	}
}
