// Package tinybasic implements a small line-oriented BASIC interpreter with
// fixed-capacity program, directory and variable storage.
package tinybasic

// Capacity limits. Every store is a bounded arena; nothing grows past these.
const (
	// MaxLines is the number of lines a program can hold.
	MaxLines = 256
	// MaxLineLen is the maximum stored length of a line or string value, in bytes.
	MaxLineLen = 80
	// MaxPrograms is the number of programs the directory can hold.
	MaxPrograms = 8
	// MaxNameLen is the maximum length of a program name, in bytes.
	MaxNameLen = 16
	// MaxArrays is the number of array slots (letters A-J).
	MaxArrays = 10
	// MaxArraySize is the largest dimension an array may have.
	MaxArraySize = 100
	// MaxLoopDepth is the number of nested FOR frames.
	MaxLoopDepth = 8
	// MaxInstructions is the per-RUN instruction budget.
	MaxInstructions = 1_000_000
	// NumVariables is the number of scalar and string variables (A-Z).
	NumVariables = 26
)

// DefaultSeed is the LCG seed used when none is configured.
const DefaultSeed = 12345

// Diagnostics printed by the interpreter. Formats take the values named in
// the constant.
const (
	msgProgramCleared   = "Program cleared"
	msgProgramSaved     = "Program saved as '%s'"
	msgStorageFull      = "Program storage full"
	msgProgramLoaded    = "Program '%s' loaded"
	msgProgramNotFound  = "Program '%s' not found"
	msgStoredPrograms   = "Stored programs:"
	msgLineDeleted      = "Line %d deleted"
	msgLineNotFound     = "Line %d not found"
	msgDeleteUsage      = "Usage: DELETE line_number"
	msgSaveUsage        = "Usage: SAVE name"
	msgLoadUsage        = "Usage: LOAD name"
	msgExiting          = "Exiting BASIC mode"
	msgProgramStopped   = "Program stopped"
	msgBudgetExceeded   = "ERROR: Program stopped - too many instructions (possible infinite loop)"
	msgBudgetCount      = "Executed %d instructions."
	msgArrayDimensioned = "Array %s dimensioned with %d elements"
	msgArraySizeRange   = "Array size must be 1-100"
	msgArraySizeInvalid = "Invalid array size"
	msgArrayName        = "Array name must be A-J"
	msgArrayUndim       = "Array %s not dimensioned"
	msgArrayBounds      = "Array index out of bounds: %d"
	msgInputPrompt      = "? "
)
