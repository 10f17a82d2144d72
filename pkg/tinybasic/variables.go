package tinybasic

import (
	"strings"
)

// VariableSpace holds the 26 integer scalars, the 26 string variables and
// the ten arrays A-J. An array with dimension 0 is undimensioned.
type VariableSpace struct {
	scalars [NumVariables]int32
	strings [NumVariables]string
	arrays  [MaxArrays][MaxArraySize]int32
	dims    [MaxArrays]int
}

// Reset clears every variable, string and array.
func (v *VariableSpace) Reset() {
	*v = VariableSpace{}
}

// Scalar returns the value of scalar variable idx (0 = A).
func (v *VariableSpace) Scalar(idx int) int32 {
	return v.scalars[idx]
}

// varIndex maps a single letter (any case, surrounding whitespace ignored)
// to 0..25.
func varIndex(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if len(name) != 1 {
		return 0, false
	}
	c := name[0]
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), true
	}
	return 0, false
}

// stringVarIndex maps "X$" to 0..25.
func stringVarIndex(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if len(name) != 2 || name[1] != '$' {
		return 0, false
	}
	return varIndex(name[:1])
}

// arrayIndex maps a letter A-J to an array slot 0..9.
func arrayIndex(name string) (int, bool) {
	idx, ok := varIndex(name)
	if !ok || idx >= MaxArrays {
		return 0, false
	}
	return idx, true
}
