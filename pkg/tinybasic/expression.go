package tinybasic

import (
	"strconv"
	"strings"
)

// arithmeticOps are tried in this order; the first symbol present splits
// the expression at its first occurrence.
var arithmeticOps = []byte{'+', '-', '*', '/'}

// relationalOps are tried in this order, so two-character operators win
// over their one-character prefixes.
var relationalOps = []string{">=", "<=", "<>", "==", "=", ">", "<"}

// evaluate computes the integer value of expr. The second result is false
// when the expression cannot be evaluated. Array access here is silent:
// undimensioned arrays and bad indices just fail.
func (b *TinyBASIC) evaluate(expr string) (int32, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	if name, arg, ok := splitCall(expr); ok {
		switch upperASCII(name) {
		case "RND":
			n, ok := b.evaluate(arg)
			if !ok || n <= 0 {
				return 0, true
			}
			return b.rng.Intn(n), true
		case "INKEY":
			if strings.TrimSpace(arg) == "" {
				return b.inkey(), true
			}
		}
		if slot, ok := arrayIndex(name); ok {
			return b.readArray(name, slot, arg, false)
		}
	}

	if idx, ok := varIndex(expr); ok {
		return b.vars.scalars[idx], true
	}

	if n, err := strconv.ParseInt(expr, 10, 32); err == nil {
		return int32(n), true
	}

	for _, op := range arithmeticOps {
		pos := strings.IndexByte(expr, op)
		if pos < 0 {
			continue
		}
		left, ok := b.evaluate(expr[:pos])
		if !ok {
			return 0, false
		}
		right, ok := b.evaluate(expr[pos+1:])
		if !ok {
			return 0, false
		}
		return applyOp(op, left, right), true
	}

	return 0, false
}

// applyOp performs 32-bit wrapping arithmetic. Division by zero yields 0.
func applyOp(op byte, left, right int32) int32 {
	switch op {
	case '+':
		return left + right
	case '-':
		return left - right
	case '*':
		return left * right
	case '/':
		if right == 0 {
			return 0
		}
		if left == -2147483648 && right == -1 {
			return left
		}
		return left / right
	}
	return 0
}

// evaluateCondition compares two expressions. Operands that fail to
// evaluate count as 0; a condition without an operator is false.
func (b *TinyBASIC) evaluateCondition(cond string) bool {
	for _, op := range relationalOps {
		pos := strings.Index(cond, op)
		if pos < 0 {
			continue
		}
		left, _ := b.evaluate(cond[:pos])
		right, _ := b.evaluate(cond[pos+len(op):])
		switch op {
		case ">=":
			return left >= right
		case "<=":
			return left <= right
		case "<>":
			return left != right
		case "==", "=":
			return left == right
		case ">":
			return left > right
		case "<":
			return left < right
		}
	}
	return false
}

// readArray evaluates the index expression and returns the element of slot.
// With report set, failures print a diagnostic naming the array as typed.
func (b *TinyBASIC) readArray(name string, slot int, indexExpr string, report bool) (int32, bool) {
	i, ok := b.arrayElement(name, slot, indexExpr, report)
	if !ok {
		return 0, false
	}
	return b.vars.arrays[slot][i], true
}

// arrayElement resolves slot(indexExpr) to a checked element index.
func (b *TinyBASIC) arrayElement(name string, slot int, indexExpr string, report bool) (int, bool) {
	dim := b.vars.dims[slot]
	if dim == 0 {
		if report {
			b.printf(msgArrayUndim, strings.TrimSpace(name))
		}
		return 0, false
	}
	idx, ok := b.evaluate(indexExpr)
	if !ok {
		return 0, false
	}
	if idx < 0 || int(idx) >= dim {
		if report {
			b.printf(msgArrayBounds, idx)
		}
		return 0, false
	}
	return int(idx), true
}

// inkey pops one pending keyboard byte, 0 when there is none.
func (b *TinyBASIC) inkey() int32 {
	if b.keys == nil {
		return 0
	}
	if key, ok := b.keys.NextKey(); ok {
		return int32(key)
	}
	return 0
}

// splitCall recognises NAME(arg) where the '(' after NAME is closed by the
// final ')' of expr. NAME is returned trimmed.
func splitCall(expr string) (name, arg string, ok bool) {
	open := strings.IndexByte(expr, '(')
	if open <= 0 || expr[len(expr)-1] != ')' {
		return "", "", false
	}
	depth := 0
	for i := open; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(expr)-1 {
				return "", "", false
			}
		}
	}
	if depth != 0 {
		return "", "", false
	}
	name = strings.TrimSpace(expr[:open])
	if name == "" {
		return "", "", false
	}
	return name, expr[open+1 : len(expr)-1], true
}

// upperASCII upper-cases ASCII letters only, so byte offsets stay valid.
func upperASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			buf := []byte(s)
			for j := i; j < len(buf); j++ {
				if buf[j] >= 'a' && buf[j] <= 'z' {
					buf[j] -= 'a' - 'A'
				}
			}
			return string(buf)
		}
	}
	return s
}
