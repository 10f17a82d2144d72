package tinybasic

// Output receives everything the interpreter prints.
type Output interface {
	// Print writes text without a trailing newline.
	Print(text string)
	// PrintLine writes text followed by a newline.
	PrintLine(text string)
	// Clear clears the whole display.
	Clear()
}

// KeySource supplies pending keyboard bytes for INKEY().
type KeySource interface {
	// NextKey removes and returns the oldest pending byte.
	NextKey() (byte, bool)
}

type discardOutput struct{}

func (discardOutput) Print(string)     {}
func (discardOutput) PrintLine(string) {}
func (discardOutput) Clear()           {}
