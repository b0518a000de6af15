package bus

import (
	"context"
	"testing"
	"time"
)

func recv(t *testing.T, c <-chan int) (int, bool) {
	t.Helper()
	select {
	case v, ok := <-c:
		return v, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return 0, false
	}
}

func TestHub_LatestWins(t *testing.T) {
	h := NewHub[int]()
	c, cancel := h.Subscribe(context.Background())
	defer cancel()

	for i := 1; i <= 5; i++ {
		h.Broadcast(i)
	}

	got, ok := recv(t, c)
	if !ok || got != 5 {
		t.Fatalf("recv() = %d, %v, want 5, true", got, ok)
	}
	select {
	case v := <-c:
		t.Fatalf("unexpected extra event %d", v)
	default:
	}
}

func TestHub_NewSubscriberGetsLastEvent(t *testing.T) {
	h := NewHub[int]()
	h.Broadcast(7)

	c, cancel := h.Subscribe(context.Background())
	defer cancel()

	got, _ := recv(t, c)
	if got != 7 {
		t.Fatalf("recv() = %d, want 7", got)
	}
}

func TestHub_NoEventBeforeFirstBroadcast(t *testing.T) {
	h := NewHub[int]()
	c, cancel := h.Subscribe(context.Background())
	defer cancel()

	select {
	case v := <-c:
		t.Fatalf("unexpected event %d", v)
	default:
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	h := NewHub[int]()
	c, cancel := h.Subscribe(context.Background())
	cancel()
	cancel()

	if _, ok := recv(t, c); ok {
		t.Fatal("expected closed channel")
	}
	if got := h.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	h.Broadcast(1)
}

func TestHub_ContextDoneUnsubscribes(t *testing.T) {
	h := NewHub[int]()
	ctx, cancel := context.WithCancel(context.Background())
	c, _ := h.Subscribe(ctx)
	cancel()

	if _, ok := recv(t, c); ok {
		t.Fatal("expected closed channel after context cancel")
	}
	if got := h.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}
