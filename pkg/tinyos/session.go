package tinyos

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// Session is one terminal attached to the shell. Lines must be fed through
// ProcessLine from a single goroutine; the accessors may be called from
// any goroutine.
type Session struct {
	ID string

	os   *TinyOS
	out  tinybasic.Output
	keys tinybasic.KeySource

	mu    sync.Mutex
	mode  string
	basic *tinybasic.TinyBASIC
}

// Mode returns ModeOS or ModeBasic.
func (s *Session) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Prompt returns the prompt for the current mode.
func (s *Session) Prompt() string {
	if s.Mode() == ModeBasic {
		return PromptBasic
	}
	return PromptOS
}

// ProcessLine handles one line of input in the current mode.
func (s *Session) ProcessLine(line string) {
	s.mu.Lock()
	mode := s.mode
	basic := s.basic
	s.mu.Unlock()

	if mode == ModeBasic && basic != nil {
		if err := basic.Execute(line); errors.Is(err, tinybasic.ErrExit) {
			s.setMode(ModeOS)
			s.os.EndBasicSession(s.ID)
		}
		return
	}
	s.executeSystemCommand(strings.TrimSpace(line))
}

// Close releases the session in its TinyOS.
func (s *Session) Close() {
	s.os.CloseSession(s.ID)
}

func (s *Session) setMode(mode string) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	logger.Debug(logger.AreaSession, "session %s switched to %s mode", s.ID, mode)
}

// enterBasic switches to BASIC mode. The interpreter is created on first
// use and keeps its program and variables across mode switches.
func (s *Session) enterBasic() {
	if !s.os.StartBasicSession(s.ID) {
		s.out.PrintLine(SessionLimitMessage)
		return
	}

	s.mu.Lock()
	if s.basic == nil {
		s.basic = tinybasic.NewTinyBASIC(s.out, s.keys)
		s.basic.SetOnProgramEnd(s.recordRun)
	}
	s.mode = ModeBasic
	s.mu.Unlock()

	s.out.PrintLine("Entering BASIC mode (type EXIT to return to shell)")
	s.out.PrintLine("Commands: LIST, RUN, NEW, SAVE, LOAD, DIR")
}

// recordRun journals a finished RUN. Errors are logged only.
func (s *Session) recordRun(report tinybasic.RunReport) {
	if err := s.os.journal.RecordRun(s.ID, report); err != nil {
		logger.Error(logger.AreaDatabase, "session %s: %v", s.ID, err)
	}
}

// showRuns prints the most recent runs of this session.
func (s *Session) showRuns() {
	if s.os.journal == nil {
		s.out.PrintLine("Run journal not available")
		return
	}
	records, err := s.os.journal.RecentRuns(s.ID, RecentRunsLimit)
	if err != nil {
		logger.Error(logger.AreaDatabase, "session %s: %v", s.ID, err)
		s.out.PrintLine("Run journal not available")
		return
	}
	if len(records) == 0 {
		s.out.PrintLine("No runs recorded")
		return
	}
	s.out.PrintLine("Recent runs:")
	for _, r := range records {
		name := r.Program
		if name == "" {
			name = "(unnamed)"
		}
		s.out.PrintLine(fmt.Sprintf("  %s  %-16s %-15s %d instructions",
			r.FinishedAt.Format("15:04:05"), name, r.State, r.Instructions))
	}
}
