// Package console attaches a TinyOS session to the process's own terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/keyboard"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinyos"
)

// DefaultRows is the CLS height when the terminal size is unknown.
const DefaultRows = 25

// maxPasswordAttempts before the console gives up.
const maxPasswordAttempts = 3

// ErrAccessDenied is returned when the console password was not given.
var ErrAccessDenied = errors.New("console: access denied")

// lineReader is satisfied by the readline and the plain scanner front ends.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Close() error
}

// screen is the tinybasic.Output of the console.
type screen struct {
	w    io.Writer
	rows int
}

func (s *screen) Print(text string)     { fmt.Fprint(s.w, text) }
func (s *screen) PrintLine(text string) { fmt.Fprintln(s.w, text) }

// Clear scrolls the screen empty, one blank line per row.
func (s *screen) Clear() {
	fmt.Fprint(s.w, strings.Repeat("\n", s.rows))
}

// Run serves one session on in/out until end of input. When in is an
// interactive terminal the input gets line editing and history.
func Run(sys *tinyos.TinyOS, in io.Reader, out io.Writer) error {
	reader, rows, err := openReader(in, out)
	if err != nil {
		return err
	}
	defer reader.Close()

	if auth.PasswordRequired() {
		if err := login(reader, out); err != nil {
			return err
		}
	}

	keys := keyboard.NewBuffer()
	session, err := sys.NewSession(tinyos.GenerateSessionID(), &screen{w: out, rows: rows}, keys)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer session.Close()
	logger.Info(logger.AreaTerminal, "console session %s started", session.ID)

	fmt.Fprintln(out, "TinyOS console. Type 'help' for commands, quit with <ctrl>D")
	for {
		line, err := reader.ReadLine(session.Prompt())
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			logger.Info(logger.AreaTerminal, "console session %s ended", session.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		session.ProcessLine(line)
	}
}

func login(reader lineReader, out io.Writer) error {
	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		password, err := reader.ReadPassword("Password: ")
		if err != nil {
			return ErrAccessDenied
		}
		if auth.CheckConsolePassword(password) {
			return nil
		}
		fmt.Fprintln(out, "Invalid password")
	}
	logger.AuthWarn("console login failed after %d attempts", maxPasswordAttempts)
	return ErrAccessDenied
}

// openReader picks readline for terminals and a scanner for anything else.
func openReader(in io.Reader, out io.Writer) (lineReader, int, error) {
	if f, ok := in.(*os.File); ok && f == os.Stdin && term.IsTerminal(int(f.Fd())) {
		rl, err := readline.New("")
		if err != nil {
			return nil, 0, fmt.Errorf("console: %w", err)
		}
		rows := DefaultRows
		if _, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && h > 0 {
			rows = h
		}
		return &editor{rl: rl}, rows, nil
	}
	return &scanner{s: bufio.NewScanner(in), out: out}, DefaultRows, nil
}

// editor wraps a readline instance.
type editor struct {
	rl *readline.Instance
}

func (e *editor) ReadLine(prompt string) (string, error) {
	e.rl.SetPrompt(prompt)
	return e.rl.Readline()
}

func (e *editor) ReadPassword(prompt string) (string, error) {
	b, err := e.rl.ReadPassword(prompt)
	return string(b), err
}

func (e *editor) Close() error { return e.rl.Close() }

// scanner reads plain lines, for pipes and tests. The prompt is still
// written so transcripts look like an interactive session.
type scanner struct {
	s   *bufio.Scanner
	out io.Writer
}

func (s *scanner) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.s.Scan() {
		if err := s.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.s.Text(), "\r"), nil
}

func (s *scanner) ReadPassword(prompt string) (string, error) {
	return s.ReadLine(prompt)
}

func (s *scanner) Close() error { return nil }
