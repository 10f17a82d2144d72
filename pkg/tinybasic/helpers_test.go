package tinybasic

import (
	"strings"
	"testing"
	"time"
)

// recordingOutput captures everything printed as a transcript.
type recordingOutput struct {
	sb     strings.Builder
	clears int
}

func (o *recordingOutput) Print(text string)     { o.sb.WriteString(text) }
func (o *recordingOutput) PrintLine(text string) { o.sb.WriteString(text + "\n") }
func (o *recordingOutput) Clear()                { o.clears++ }

func (o *recordingOutput) String() string { return o.sb.String() }

func (o *recordingOutput) Reset() { o.sb.Reset() }

// queuedKeys is a KeySource over a fixed byte slice.
type queuedKeys struct {
	pending []byte
}

func (k *queuedKeys) NextKey() (byte, bool) {
	if len(k.pending) == 0 {
		return 0, false
	}
	c := k.pending[0]
	k.pending = k.pending[1:]
	return c, true
}

// newTestBasic creates an interpreter with a recording output and a no-op SLEEP.
func newTestBasic() (*TinyBASIC, *recordingOutput) {
	out := &recordingOutput{}
	b := NewTinyBASIC(out, nil)
	b.SetSleepFunc(func(time.Duration) {})
	return b, out
}

// execAll feeds every line to Execute and fails on unexpected errors.
func execAll(t *testing.T, b *TinyBASIC, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := b.Execute(line); err != nil {
			t.Fatalf("Execute(%q) returned %v", line, err)
		}
	}
}

func mustVar(t *testing.T, b *TinyBASIC, name string) int32 {
	t.Helper()
	v, ok := b.Variable(name)
	if !ok {
		t.Fatalf("variable %s not addressable", name)
	}
	return v
}
