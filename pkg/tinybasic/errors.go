package tinybasic

import (
	"errors"
)

// ErrExit wird zurückgegeben, wenn der EXIT-Befehl ausgeführt wird.
var ErrExit = errors.New("EXIT command executed")

// Store errors. They never leave Execute; the interpreter turns them into
// diagnostics.
var (
	ErrStorageFull     = errors.New("program storage full")
	ErrProgramNotFound = errors.New("program not found")
	ErrProgramFull     = errors.New("program full")
)
