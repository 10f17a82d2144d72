package tinybasic

import (
	"unicode/utf8"
)

// Line is one numbered program line.
type Line struct {
	Number uint16
	Text   string
}

// Program holds up to MaxLines lines in ascending line-number order.
// It is a value type; copying a Program copies its lines.
type Program struct {
	name  string
	lines [MaxLines]Line
	count int
}

// Name returns the name the program was saved or loaded under.
func (p *Program) Name() string {
	return p.name
}

// Len returns the number of stored lines.
func (p *Program) Len() int {
	return p.count
}

// Line returns the line at index i. i must be in [0, Len()).
func (p *Program) Line(i int) Line {
	return p.lines[i]
}

// Lines returns a copy of the stored lines in order.
func (p *Program) Lines() []Line {
	out := make([]Line, p.count)
	copy(out, p.lines[:p.count])
	return out
}

// IndexOf returns the index of the line with the given number.
func (p *Program) IndexOf(number uint16) (int, bool) {
	for i := 0; i < p.count; i++ {
		if p.lines[i].Number == number {
			return i, true
		}
	}
	return 0, false
}

// AddOrReplace stores text under number. An existing line is replaced in
// place; a new line is inserted in order. Returns ErrProgramFull when the
// line is new and the program already holds MaxLines lines.
func (p *Program) AddOrReplace(number uint16, text string) error {
	text = truncate(text, MaxLineLen)

	pos := 0
	for pos < p.count && p.lines[pos].Number < number {
		pos++
	}
	if pos < p.count && p.lines[pos].Number == number {
		p.lines[pos].Text = text
		return nil
	}
	if p.count >= MaxLines {
		return ErrProgramFull
	}

	copy(p.lines[pos+1:p.count+1], p.lines[pos:p.count])
	p.lines[pos] = Line{Number: number, Text: text}
	p.count++
	return nil
}

// Delete removes the line with the given number and reports whether it existed.
func (p *Program) Delete(number uint16) bool {
	idx, ok := p.IndexOf(number)
	if !ok {
		return false
	}
	copy(p.lines[idx:p.count-1], p.lines[idx+1:p.count])
	p.count--
	p.lines[p.count] = Line{}
	return true
}

// Reset removes all lines and the name.
func (p *Program) Reset() {
	*p = Program{}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
