package tinyos

import (
	"fmt"
	"strings"
)

var helpLines = []string{
	"Available commands:",
	"  help     - Show this help message",
	"  echo     - Echo back the arguments",
	"  clear    - Clear the screen",
	"  car      - Prints a car",
	"  hello    - Print a greeting",
	"  about    - About this OS",
	"  runs     - Show your recent BASIC runs",
	"  basic    - Enter BASIC programming mode",
}

var carLines = []string{
	`      /\_/\  `,
	`     ( o.o ) `,
	`      > ^ <  `,
	`     /|   |\`,
	`    (_|   |_)`,
}

// executeSystemCommand runs one system-mode command. cmd is trimmed.
func (s *Session) executeSystemCommand(cmd string) {
	if strings.HasPrefix(cmd, "echo ") {
		s.out.PrintLine(cmd[len("echo "):])
		return
	}

	switch cmd {
	case "":
	case "help":
		s.printLines(helpLines)
	case "clear":
		s.out.Clear()
	case "hello":
		s.out.PrintLine("Hello from TinyOS!")
	case "car":
		s.printLines(carLines)
	case "about":
		s.out.PrintLine("TinyOS v0.1.0")
		s.out.PrintLine("A resident BASIC console")
		s.out.PrintLine(fmt.Sprintf("Session %s", s.ID))
	case "runs":
		s.showRuns()
	case "basic":
		s.enterBasic()
	default:
		s.out.PrintLine(fmt.Sprintf("Unknown command: '%s'. Type 'help' for available commands.", cmd))
	}
}

func (s *Session) printLines(lines []string) {
	for _, line := range lines {
		s.out.PrintLine(line)
	}
}
