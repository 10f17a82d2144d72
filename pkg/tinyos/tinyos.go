// Package tinyos is the small shell around the BASIC interpreter. Each
// connected terminal gets a Session that is either in system mode or in
// BASIC mode.
package tinyos

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// ErrSessionExists is returned when a session ID is already registered.
var ErrSessionExists = errors.New("session already exists")

// TinyOS tracks sessions and the limit on concurrent BASIC sessions.
type TinyOS struct {
	journal *Journal

	sessionMutex sync.RWMutex
	sessions     map[string]*Session

	basicSessionMutex   sync.RWMutex
	activeBasicSessions map[string]bool
	maxBasicSessions    int
}

// NewTinyOS creates the shell. journal may be nil.
func NewTinyOS(journal *Journal) *TinyOS {
	return &TinyOS{
		journal:             journal,
		sessions:            make(map[string]*Session),
		activeBasicSessions: make(map[string]bool),
		maxBasicSessions:    maxBasicSessions(),
	}
}

// GenerateSessionID erzeugt eine eindeutige Session-ID
func GenerateSessionID() string {
	return uuid.New().String()
}

// NewSession registers a session that prints to out and reads INKEY()
// bytes from keys.
func (os *TinyOS) NewSession(id string, out tinybasic.Output, keys tinybasic.KeySource) (*Session, error) {
	os.sessionMutex.Lock()
	defer os.sessionMutex.Unlock()

	if _, exists := os.sessions[id]; exists {
		return nil, ErrSessionExists
	}
	s := &Session{
		ID:   id,
		os:   os,
		out:  out,
		keys: keys,
		mode: ModeOS,
	}
	os.sessions[id] = s
	logger.Info(logger.AreaSession, "session %s opened (%d active)", id, len(os.sessions))
	return s, nil
}

// CloseSession releases the session and its BASIC slot.
func (os *TinyOS) CloseSession(id string) {
	os.sessionMutex.Lock()
	delete(os.sessions, id)
	remaining := len(os.sessions)
	os.sessionMutex.Unlock()

	os.EndBasicSession(id)
	logger.Info(logger.AreaSession, "session %s closed (%d active)", id, remaining)
}

// SessionCount returns the number of open sessions.
func (os *TinyOS) SessionCount() int {
	os.sessionMutex.RLock()
	defer os.sessionMutex.RUnlock()
	return len(os.sessions)
}

// StartBasicSession startet eine neue BASIC-Sitzung, wenn das Limit nicht erreicht ist
func (os *TinyOS) StartBasicSession(sessionID string) bool {
	os.basicSessionMutex.Lock()
	defer os.basicSessionMutex.Unlock()

	if os.activeBasicSessions[sessionID] {
		return true
	}
	if len(os.activeBasicSessions) >= os.maxBasicSessions {
		logger.Warn(logger.AreaSession, "maximum BASIC sessions reached (%d/%d), denying session %s",
			len(os.activeBasicSessions), os.maxBasicSessions, sessionID)
		return false
	}

	os.activeBasicSessions[sessionID] = true
	logger.Debug(logger.AreaSession, "started BASIC session %s (total: %d/%d)",
		sessionID, len(os.activeBasicSessions), os.maxBasicSessions)
	return true
}

// EndBasicSession beendet eine BASIC-Sitzung
func (os *TinyOS) EndBasicSession(sessionID string) {
	os.basicSessionMutex.Lock()
	defer os.basicSessionMutex.Unlock()

	if os.activeBasicSessions[sessionID] {
		delete(os.activeBasicSessions, sessionID)
		logger.Debug(logger.AreaSession, "ended BASIC session %s (remaining: %d/%d)",
			sessionID, len(os.activeBasicSessions), os.maxBasicSessions)
	}
}

// ActiveBasicSessions gibt die Anzahl aktiver BASIC-Sitzungen zurück
func (os *TinyOS) ActiveBasicSessions() int {
	os.basicSessionMutex.RLock()
	defer os.basicSessionMutex.RUnlock()
	return len(os.activeBasicSessions)
}
