package tinyos

import (
	"github.com/antibyte/retrobasic/pkg/configuration"
)

const (
	// DefaultMaxBasicSessions is used when [BASIC] max_sessions is not set.
	// When the limit is reached, no new BASIC sessions can be started.
	DefaultMaxBasicSessions = 20

	// SessionLimitMessage is the message displayed when the session limit is reached
	SessionLimitMessage = "Too many active sessions. Try later."

	// RecentRunsLimit is the number of journal rows the runs command shows.
	RecentRunsLimit = 10
)

// Shell modes, also sent to the frontend in mode messages.
const (
	ModeOS    = "os"
	ModeBasic = "basic"
)

// Prompts per mode.
const (
	PromptOS    = "> "
	PromptBasic = "BASIC> "
)

func maxBasicSessions() int {
	n := configuration.GetInt("BASIC", "max_sessions", DefaultMaxBasicSessions)
	if n < 1 {
		return DefaultMaxBasicSessions
	}
	return n
}
