package tinybasic

import (
	"strings"
	"sync"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// RunState describes where the execution engine is.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateHaltedNormal
	StateHaltedBudget
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateHaltedNormal:
		return "halted"
	case StateHaltedBudget:
		return "budget_exceeded"
	default:
		return "unknown"
	}
}

// RunReport summarises one RUN.
type RunReport struct {
	State        RunState
	Instructions int
	Lines        int
	Program      string
}

// TinyBASIC is the interpreter. All state is guarded by mu, which is held
// for the duration of one Execute call.
type TinyBASIC struct {
	mu sync.Mutex

	out  Output
	keys KeySource

	program   Program
	directory Directory
	vars      VariableSpace
	loops     loopStack
	rng       *LCG

	pc               int
	running          bool
	instructionCount int
	state            RunState

	sleep func(time.Duration)

	// Wird nach jedem RUN aufgerufen, während mu gehalten wird
	onProgramEnd func(RunReport)
}

// NewTinyBASIC creates an interpreter writing to out and reading INKEY()
// bytes from keys. Either may be nil. The RND seed comes from
// [BASIC] rng_seed.
func NewTinyBASIC(out Output, keys KeySource) *TinyBASIC {
	if out == nil {
		out = discardOutput{}
	}
	seed := configuration.GetInt("BASIC", "rng_seed", DefaultSeed)
	return &TinyBASIC{
		out:   out,
		keys:  keys,
		rng:   NewLCG(uint32(seed)),
		sleep: busyWait,
		state: StateIdle,
	}
}

// SetOnProgramEnd sets a callback invoked after every RUN. The callback
// must not call back into the interpreter.
func (b *TinyBASIC) SetOnProgramEnd(callback func(RunReport)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onProgramEnd = callback
}

// SetSleepFunc replaces the SLEEP wait, mainly for tests.
func (b *TinyBASIC) SetSleepFunc(sleep func(time.Duration)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sleep = sleep
}

// Execute processes one line of input. A line starting with a line number
// is stored; anything else is run as a command or statement immediately.
// It returns ErrExit after EXIT and nil otherwise.
func (b *TinyBASIC) Execute(input string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if number, code, ok := parseProgramLine(input); ok {
		if err := b.program.AddOrReplace(number, code); err != nil {
			logger.Debug(logger.AreaTinyBasic, "line %d dropped: %v", number, err)
		}
		return nil
	}

	return b.executeCommand(input)
}

// parseProgramLine splits "<number> <code>". The number must fit in uint16.
func parseProgramLine(line string) (uint16, string, bool) {
	spaceIdx := strings.IndexAny(line, " \t")
	if spaceIdx <= 0 {
		return 0, "", false
	}
	number, ok := parseLineNumber(line[:spaceIdx])
	if !ok {
		return 0, "", false
	}
	return number, strings.TrimSpace(line[spaceIdx+1:]), true
}

// State returns the state left by the last RUN.
func (b *TinyBASIC) State() RunState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsRunning returns the running flag. It waits for an active Execute, so
// outside callers only see it set when a RUN was left unfinished.
func (b *TinyBASIC) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// InstructionCount returns the instruction counter of the last RUN.
func (b *TinyBASIC) InstructionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instructionCount
}

// ProgramLines returns a copy of the current program.
func (b *TinyBASIC) ProgramLines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.program.Lines()
}

// ProgramNames lists the programs in the directory.
func (b *TinyBASIC) ProgramNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.directory.Names()
}

// Variable returns the value of scalar variable name (A-Z).
func (b *TinyBASIC) Variable(name string) (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := varIndex(name)
	if !ok {
		return 0, false
	}
	return b.vars.Scalar(idx), true
}
