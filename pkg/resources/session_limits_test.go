package resources

import (
	"errors"
	"testing"
	"time"
)

func newTestLimiter(limits Limits) (*SessionLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewSessionLimiter(limits)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestSessionsPerIP(t *testing.T) {
	l, _ := newTestLimiter(Limits{MaxSessionsPerIP: 2})

	for _, id := range []string{"a", "b"} {
		if err := l.RegisterSession(id, "10.0.0.1"); err != nil {
			t.Fatalf("RegisterSession(%s): %v", id, err)
		}
	}
	if err := l.RegisterSession("a", "10.0.0.9"); !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
	if err := l.RegisterSession("c", "10.0.0.1"); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}
	if err := l.RegisterSession("c", "10.0.0.2"); err != nil {
		t.Errorf("other address should be admitted: %v", err)
	}

	l.UnregisterSession("a")
	if err := l.RegisterSession("d", "10.0.0.1"); err != nil {
		t.Errorf("slot should be free after unregister: %v", err)
	}
	if got := l.SessionCount(); got != 3 {
		t.Errorf("SessionCount = %d, want 3", got)
	}
}

func TestMessageRateWindow(t *testing.T) {
	l, now := newTestLimiter(Limits{MaxMessages: 3, MaxBandwidthBytes: 100})
	if err := l.RegisterSession("s", "127.0.0.1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := l.CheckMessage("s", 10); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}
	if err := l.CheckMessage("s", 10); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	*now = now.Add(time.Minute)
	if err := l.CheckMessage("s", 10); err != nil {
		t.Fatalf("new window should reset counters: %v", err)
	}
	if err := l.CheckMessage("s", 200); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected bandwidth limit, got %v", err)
	}
}

func TestCheckUnknownSession(t *testing.T) {
	l, _ := newTestLimiter(Limits{})
	if err := l.CheckMessage("ghost", 1); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("expected ErrUnknownSession, got %v", err)
	}
}
