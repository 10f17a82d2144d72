package tinybasic

import (
	"strconv"
	"strings"
	"time"

	"github.com/antibyte/retrobasic/pkg/logger"
)

// loopFrame is one active FOR loop. NEXT jumps back to reentry, the index
// of the FOR line itself; the increment of pc then moves past it.
type loopFrame struct {
	reentry int
	varIdx  int
	end     int32
}

// loopStack is a bounded stack of FOR frames. Pushing onto a full stack
// drops the frame.
type loopStack struct {
	frames [MaxLoopDepth]loopFrame
	depth  int
}

func (s *loopStack) push(f loopFrame) bool {
	if s.depth >= MaxLoopDepth {
		return false
	}
	s.frames[s.depth] = f
	s.depth++
	return true
}

func (s *loopStack) top() (loopFrame, bool) {
	if s.depth == 0 {
		return loopFrame{}, false
	}
	return s.frames[s.depth-1], true
}

func (s *loopStack) pop() {
	if s.depth > 0 {
		s.depth--
	}
}

func (s *loopStack) reset() {
	s.depth = 0
}

// executeStatement runs one statement. Unknown statements are ignored.
func (b *TinyBASIC) executeStatement(stmt string) {
	stmt = strings.TrimSpace(stmt)
	upper := upperASCII(stmt)

	switch {
	case strings.HasPrefix(upper, "PRINT "):
		b.cmdPrint(stmt[len("PRINT "):])
	case strings.HasPrefix(upper, "DIM "):
		b.cmdDim(stmt[len("DIM "):])
	case strings.HasPrefix(upper, "LET "):
		b.cmdLet(stmt[len("LET "):])
	case strings.HasPrefix(upper, "GOTO "):
		b.cmdGoto(stmt[len("GOTO "):])
	case strings.HasPrefix(upper, "IF "):
		b.cmdIf(stmt[len("IF "):])
	case strings.HasPrefix(upper, "FOR "):
		b.cmdFor(stmt[len("FOR "):])
	case strings.HasPrefix(upper, "NEXT"):
		b.cmdNext()
	case strings.HasPrefix(upper, "INPUT "):
		b.cmdInput(stmt[len("INPUT "):])
	case strings.HasPrefix(upper, "SLEEP "):
		b.cmdSleep(stmt[len("SLEEP "):])
	case strings.HasPrefix(upper, "CLS"):
		b.out.Clear()
	case strings.HasPrefix(upper, "END"):
		b.running = false
	case strings.HasPrefix(upper, "STOP"):
		b.running = false
		b.out.PrintLine(msgProgramStopped)
	default:
		logger.Debug(logger.AreaTinyBasic, "ignoring unknown statement %q", stmt)
	}
}

// cmdPrint handles PRINT. A trailing ';' keeps the cursor on the line and
// separates the value with a single space.
func (b *TinyBASIC) cmdPrint(args string) {
	expr := strings.TrimSpace(args)
	newline := true
	if strings.HasSuffix(expr, ";") {
		newline = false
		expr = strings.TrimSpace(expr[:len(expr)-1])
	}

	text, ok := b.printValue(expr)
	if !ok {
		return
	}
	if newline {
		b.out.PrintLine(text)
	} else {
		b.out.Print(text + " ")
	}
}

// printValue renders a PRINT argument: quoted literal, string variable,
// array element, then any integer expression.
func (b *TinyBASIC) printValue(expr string) (string, bool) {
	if lit, ok := quoted(expr); ok {
		return lit, true
	}
	if idx, ok := stringVarIndex(expr); ok {
		return b.vars.strings[idx], true
	}
	if name, arg, ok := splitCall(expr); ok {
		if slot, ok := arrayIndex(name); ok {
			v, ok := b.readArray(name, slot, arg, true)
			if !ok {
				return "", false
			}
			return strconv.Itoa(int(v)), true
		}
	}
	v, ok := b.evaluate(expr)
	if !ok {
		return "", false
	}
	return strconv.Itoa(int(v)), true
}

// cmdLet assigns to a string variable, an array element or a scalar.
func (b *TinyBASIC) cmdLet(args string) {
	target, value, found := strings.Cut(args, "=")
	if !found {
		return
	}
	target = strings.TrimSpace(target)
	value = strings.TrimSpace(value)

	if idx, ok := stringVarIndex(target); ok {
		if lit, ok := quoted(value); ok {
			b.vars.strings[idx] = truncate(lit, MaxLineLen)
		}
		return
	}

	if name, arg, ok := splitCall(target); ok {
		slot, ok := arrayIndex(name)
		if !ok {
			return
		}
		i, ok := b.arrayElement(name, slot, arg, true)
		if !ok {
			return
		}
		if v, ok := b.evaluate(value); ok {
			b.vars.arrays[slot][i] = v
		}
		return
	}

	if idx, ok := varIndex(target); ok {
		if v, ok := b.evaluate(value); ok {
			b.vars.scalars[idx] = v
		}
	}
}

// cmdGoto sets pc so the increment after this statement lands on the target.
func (b *TinyBASIC) cmdGoto(args string) {
	number, ok := parseLineNumber(args)
	if !ok {
		return
	}
	if idx, found := b.program.IndexOf(number); found {
		b.pc = idx - 1
	}
}

// cmdIf runs the action after THEN when the condition holds. A bare line
// number after THEN jumps there.
func (b *TinyBASIC) cmdIf(args string) {
	pos := strings.Index(upperASCII(args), "THEN")
	if pos < 0 {
		return
	}
	cond := args[:pos]
	action := strings.TrimSpace(args[pos+len("THEN"):])
	if !b.evaluateCondition(cond) {
		return
	}
	if _, ok := parseLineNumber(action); ok {
		b.cmdGoto(action)
		return
	}
	b.executeStatement(action)
}

// cmdFor handles FOR v = start TO end.
func (b *TinyBASIC) cmdFor(args string) {
	name, rest, found := strings.Cut(args, "=")
	if !found {
		return
	}
	idx, ok := varIndex(name)
	if !ok {
		return
	}
	rest = strings.TrimSpace(rest)
	to := strings.Index(upperASCII(rest), " TO ")
	if to < 0 {
		return
	}
	start, ok := b.evaluate(rest[:to])
	if !ok {
		return
	}
	end, ok := b.evaluate(rest[to+len(" TO "):])
	if !ok {
		return
	}

	b.vars.scalars[idx] = start
	if !b.loops.push(loopFrame{reentry: b.pc, varIdx: idx, end: end}) {
		logger.Debug(logger.AreaTinyBasic, "FOR stack full, frame for %c dropped", 'A'+idx)
	}
}

// cmdNext steps the innermost loop. With no active loop it does nothing.
func (b *TinyBASIC) cmdNext() {
	frame, ok := b.loops.top()
	if !ok {
		return
	}
	b.vars.scalars[frame.varIdx]++
	if b.vars.scalars[frame.varIdx] <= frame.end {
		b.pc = frame.reentry
		return
	}
	b.loops.pop()
}

// cmdInput prompts and stores 0; there is no interactive input.
func (b *TinyBASIC) cmdInput(args string) {
	idx, ok := varIndex(args)
	if !ok {
		return
	}
	b.out.Print(msgInputPrompt)
	b.vars.scalars[idx] = 0
}

func (b *TinyBASIC) cmdSleep(args string) {
	ms, ok := b.evaluate(args)
	if !ok || ms <= 0 {
		return
	}
	b.sleep(time.Duration(ms) * time.Millisecond)
}

// cmdDim handles DIM X(n). Existing element values are kept.
func (b *TinyBASIC) cmdDim(args string) {
	args = strings.TrimSpace(args)
	open := strings.IndexByte(args, '(')
	closing := strings.LastIndexByte(args, ')')
	if open < 0 || closing < open {
		return
	}
	slot, ok := arrayIndex(args[:open])
	if !ok {
		b.out.PrintLine(msgArrayName)
		return
	}
	size, err := strconv.Atoi(strings.TrimSpace(args[open+1 : closing]))
	if err != nil {
		b.out.PrintLine(msgArraySizeInvalid)
		return
	}
	if size < 1 || size > MaxArraySize {
		b.out.PrintLine(msgArraySizeRange)
		return
	}
	b.vars.dims[slot] = size
	b.printf(msgArrayDimensioned, strings.TrimSpace(args[:open]), size)
}

// busyWait spins on the calling goroutine until d has passed.
func busyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// quoted returns the text between surrounding double quotes.
func quoted(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// parseLineNumber parses a trimmed uint16 line number.
func parseLineNumber(s string) (uint16, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}
