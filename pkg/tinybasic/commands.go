package tinybasic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antibyte/retrobasic/pkg/logger"
)

// executeCommand dispatches system commands and falls back to statements.
func (b *TinyBASIC) executeCommand(cmd string) error {
	upper := upperASCII(cmd)

	switch {
	case strings.HasPrefix(upper, "LIST"):
		b.cmdList()
	case strings.HasPrefix(upper, "RUN"):
		b.cmdRun()
	case strings.HasPrefix(upper, "NEW"):
		b.cmdNew()
	case strings.HasPrefix(upper, "SAVE "):
		b.cmdSave(cmd[len("SAVE "):])
	case strings.HasPrefix(upper, "LOAD "):
		b.cmdLoad(cmd[len("LOAD "):])
	case strings.HasPrefix(upper, "DIR"):
		b.cmdDir()
	case strings.HasPrefix(upper, "DELETE "):
		b.cmdDelete(cmd[len("DELETE "):])
	case strings.HasPrefix(upper, "DEL "):
		b.cmdDelete(cmd[len("DEL "):])
	case strings.HasPrefix(upper, "DIM "):
		b.cmdDim(cmd[len("DIM "):])
	case strings.HasPrefix(upper, "CLS"):
		b.out.Clear()
	case strings.HasPrefix(upper, "EXIT"):
		b.out.PrintLine(msgExiting)
		return ErrExit
	default:
		b.executeStatement(cmd)
	}
	return nil
}

func (b *TinyBASIC) cmdList() {
	for i := 0; i < b.program.Len(); i++ {
		line := b.program.Line(i)
		b.printf("%d %s", line.Number, line.Text)
	}
}

// cmdNew clears the program and all variables. Saved programs stay.
func (b *TinyBASIC) cmdNew() {
	b.program.Reset()
	b.vars.Reset()
	b.loops.reset()
	b.out.PrintLine(msgProgramCleared)
}

func (b *TinyBASIC) cmdSave(args string) {
	name := programName(args)
	if name == "" {
		b.out.PrintLine(msgSaveUsage)
		return
	}
	if err := b.directory.Save(name, b.program); err != nil {
		if errors.Is(err, ErrStorageFull) {
			b.out.PrintLine(msgStorageFull)
		}
		return
	}
	b.program.name = truncate(name, MaxNameLen)
	b.printf(msgProgramSaved, name)
}

// cmdLoad replaces the current program. Variables are left alone.
func (b *TinyBASIC) cmdLoad(args string) {
	name := programName(args)
	if name == "" {
		b.out.PrintLine(msgLoadUsage)
		return
	}
	p, err := b.directory.Load(name)
	if err != nil {
		b.printf(msgProgramNotFound, name)
		return
	}
	b.program = p
	b.printf(msgProgramLoaded, name)
}

func (b *TinyBASIC) cmdDir() {
	b.out.PrintLine(msgStoredPrograms)
	for _, name := range b.directory.Names() {
		b.out.PrintLine("  " + name)
	}
}

func (b *TinyBASIC) cmdDelete(args string) {
	number, ok := parseLineNumber(args)
	if !ok {
		b.out.PrintLine(msgDeleteUsage)
		return
	}
	if b.program.Delete(number) {
		b.printf(msgLineDeleted, number)
	} else {
		b.printf(msgLineNotFound, number)
	}
}

// cmdRun executes the current program from its first line until it ends,
// halts, or exhausts the instruction budget.
func (b *TinyBASIC) cmdRun() {
	b.pc = 0
	b.loops.reset()
	b.instructionCount = 0
	b.running = true
	b.state = StateRunning
	logger.Debug(logger.AreaTinyBasic, "RUN started with %d lines", b.program.Len())

	for b.running && b.pc < b.program.Len() {
		b.instructionCount++
		if b.instructionCount >= MaxInstructions {
			b.out.PrintLine("")
			b.out.PrintLine(msgBudgetExceeded)
			b.printf(msgBudgetCount, MaxInstructions)
			b.state = StateHaltedBudget
			break
		}
		b.executeStatement(b.program.Line(b.pc).Text)
		b.pc++
	}

	b.running = false
	if b.state == StateRunning {
		b.state = StateHaltedNormal
	}

	report := RunReport{
		State:        b.state,
		Instructions: b.instructionCount,
		Lines:        b.program.Len(),
		Program:      b.program.name,
	}
	logger.Debug(logger.AreaTinyBasic, "RUN finished: %s after %d instructions", report.State, report.Instructions)
	if b.onProgramEnd != nil {
		b.onProgramEnd(report)
	}
}

// programName strips whitespace and optional surrounding quotes.
func programName(args string) string {
	name := strings.TrimSpace(args)
	if lit, ok := quoted(name); ok {
		name = strings.TrimSpace(lit)
	}
	return name
}

func (b *TinyBASIC) printf(format string, args ...interface{}) {
	b.out.PrintLine(fmt.Sprintf(format, args...))
}
