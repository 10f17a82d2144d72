// Package resources enforces per-connection limits on the terminal.
package resources

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

var (
	// ErrTooManySessions is returned when an address has too many sessions.
	ErrTooManySessions = errors.New("maximum sessions per IP reached")
	// ErrRateLimited is returned when a session sends too much in a minute.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrSessionActive is returned when the session is already registered.
	ErrSessionActive = errors.New("session already registered")
	// ErrUnknownSession is returned for sessions that were never registered.
	ErrUnknownSession = errors.New("session not found")
)

// rateWindow is the length of one rate limiting period.
const rateWindow = time.Minute

// Limits sind die Grenzwerte pro Session bzw. IP
type Limits struct {
	MaxSessionsPerIP  int
	MaxMessages       int64 // pro Minute
	MaxBandwidthBytes int64 // pro Minute
}

// LoadLimits reads the [Security] section.
func LoadLimits() Limits {
	return Limits{
		MaxSessionsPerIP:  configuration.GetInt("Security", "max_sessions_per_ip", 5),
		MaxMessages:       int64(configuration.GetInt("Security", "rate_limit_messages", 600)),
		MaxBandwidthBytes: int64(configuration.GetInt("Security", "rate_limit_bandwidth", 65536)),
	}
}

// SessionResource holds the counters of one session.
type SessionResource struct {
	SessionID     string
	IPAddress     string
	CreatedAt     time.Time
	MessageCount  int64 // im aktuellen Fenster
	BandwidthUsed int64 // im aktuellen Fenster
	windowStart   time.Time
}

// SessionLimiter tracks registered sessions and their message rates.
type SessionLimiter struct {
	limits   Limits
	now      func() time.Time
	mutex    sync.Mutex
	sessions map[string]*SessionResource
}

// NewSessionLimiter creates a limiter with the given limits.
func NewSessionLimiter(limits Limits) *SessionLimiter {
	return &SessionLimiter{
		limits:   limits,
		now:      time.Now,
		sessions: make(map[string]*SessionResource),
	}
}

// RegisterSession admits a session unless it is already registered or
// its address is at the limit.
func (l *SessionLimiter) RegisterSession(sessionID, ipAddress string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, ok := l.sessions[sessionID]; ok {
		return fmt.Errorf("%w: %s", ErrSessionActive, sessionID)
	}

	// Prüfe maximale Sessions pro IP
	count := 0
	for _, s := range l.sessions {
		if s.IPAddress == ipAddress {
			count++
		}
	}
	if l.limits.MaxSessionsPerIP > 0 && count >= l.limits.MaxSessionsPerIP {
		logger.SecurityWarn("Session %s from %s rejected: %d sessions open", sessionID, ipAddress, count)
		return fmt.Errorf("%w: %s", ErrTooManySessions, ipAddress)
	}

	now := l.now()
	l.sessions[sessionID] = &SessionResource{
		SessionID:   sessionID,
		IPAddress:   ipAddress,
		CreatedAt:   now,
		windowStart: now,
	}
	logger.Debug(logger.AreaSecurity, "Session registered: %s (IP: %s)", sessionID, ipAddress)
	return nil
}

// UnregisterSession forgets the session.
func (l *SessionLimiter) UnregisterSession(sessionID string) {
	l.mutex.Lock()
	s, ok := l.sessions[sessionID]
	delete(l.sessions, sessionID)
	l.mutex.Unlock()

	if ok {
		logger.Debug(logger.AreaSecurity, "Session unregistered: %s (Duration: %v)",
			sessionID, l.now().Sub(s.CreatedAt))
	}
}

// CheckMessage counts one incoming message of size bytes and reports
// whether the session is still within its per-minute limits.
func (l *SessionLimiter) CheckMessage(sessionID string, size int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	now := l.now()
	if now.Sub(s.windowStart) >= rateWindow {
		s.windowStart = now
		s.MessageCount = 0
		s.BandwidthUsed = 0
	}
	s.MessageCount++
	s.BandwidthUsed += int64(size)

	if l.limits.MaxMessages > 0 && s.MessageCount > l.limits.MaxMessages {
		return fmt.Errorf("%w: %d messages per minute", ErrRateLimited, s.MessageCount)
	}
	if l.limits.MaxBandwidthBytes > 0 && s.BandwidthUsed > l.limits.MaxBandwidthBytes {
		return fmt.Errorf("%w: %d bytes per minute", ErrRateLimited, s.BandwidthUsed)
	}
	return nil
}

// SessionCount returns the number of registered sessions.
func (l *SessionLimiter) SessionCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.sessions)
}
