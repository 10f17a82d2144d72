package tinybasic

import (
	"testing"
)

func TestEvaluate(t *testing.T) {
	b, _ := newTestBasic()
	execAll(t, b, "LET A = 7", "LET B = 3", "DIM C(5)", "LET C(2) = 42")

	tests := []struct {
		name   string
		expr   string
		want   int32
		wantOK bool
	}{
		{"literal", "42", 42, true},
		{"negative literal", "-5", -5, true},
		{"variable", "A", 7, true},
		{"lower case variable", " b ", 3, true},
		{"addition", "2+3", 5, true},
		{"plus before times", "2+3*4", 14, true},
		{"times then plus", "2*3+4", 10, true},
		{"minus splits at first", "10-2-3", 11, true},
		{"divide splits at first", "8/4/2", 4, true},
		{"times before divide", "2*3/4", 0, true},
		{"division by zero", "5/0", 0, true},
		{"variables", "A*B", 21, true},
		{"array element", "C(2)", 42, true},
		{"array index expression", "C(B-1)", 42, true},
		{"array out of bounds", "C(5)", 0, false},
		{"array negative index", "C(-1)", 0, false},
		{"array negative index expression", "C(B-4)", 0, false},
		{"array undimensioned", "D(1)", 0, false},
		{"array inside arithmetic", "C(2)+1", 43, true},
		{"unary minus variable", "-A", 0, false},
		{"empty", "", 0, false},
		{"garbage", "HELLO", 0, false},
		{"wraps", "2147483647+1", -2147483648, true},
		{"out of range literal", "3000000000", 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := b.evaluate(test.expr)
			if ok != test.wantOK {
				t.Fatalf("evaluate(%q) ok = %v, want %v", test.expr, ok, test.wantOK)
			}
			if ok && got != test.want {
				t.Errorf("evaluate(%q) = %d, want %d", test.expr, got, test.want)
			}
		})
	}
}

func TestEvaluateRND(t *testing.T) {
	b, _ := newTestBasic()
	ref := NewLCG(DefaultSeed)

	for i := 0; i < 50; i++ {
		got, ok := b.evaluate("RND(10)")
		if !ok {
			t.Fatal("RND(10) failed")
		}
		if got < 0 || got >= 10 {
			t.Fatalf("RND(10) = %d out of range", got)
		}
		if want := ref.Intn(10); got != want {
			t.Fatalf("draw %d: got %d, want %d", i, got, want)
		}
	}

	for _, expr := range []string{"RND(0)", "RND(-3)", "rnd(X$)"} {
		if got, ok := b.evaluate(expr); !ok || got != 0 {
			t.Errorf("%s = %d, %v; want 0, true", expr, got, ok)
		}
	}
}

func TestLCGSequence(t *testing.T) {
	g := NewLCG(12345)
	state := uint32(12345)
	state = state*1103515245 + 12345
	want := int32((state / 65536) % 100)
	if got := g.Intn(100); got != want {
		t.Errorf("first draw = %d, want %d", got, want)
	}
}

func TestEvaluateINKEY(t *testing.T) {
	out := &recordingOutput{}
	b := NewTinyBASIC(out, &queuedKeys{pending: []byte("ab")})

	for _, want := range []int32{'a', 'b', 0} {
		got, ok := b.evaluate("INKEY()")
		if !ok || got != want {
			t.Errorf("INKEY() = %d, %v; want %d", got, ok, want)
		}
	}

	noKeys, _ := newTestBasic()
	if got, ok := noKeys.evaluate("inkey()"); !ok || got != 0 {
		t.Errorf("INKEY() without source = %d, %v", got, ok)
	}
}

func TestEvaluateCondition(t *testing.T) {
	b, _ := newTestBasic()
	execAll(t, b, "LET A = 5")

	tests := []struct {
		cond string
		want bool
	}{
		{"A > 3", true},
		{"A < 3", false},
		{"A >= 5", true},
		{"A <= 4", false},
		{"A <> 5", false},
		{"A = 5", true},
		{"A == 5", true},
		{"A+1 = 6", true},
		{"X = 0", true},
		{"JUNK = 0", true},
		{"A", false},
	}
	for _, test := range tests {
		t.Run(test.cond, func(t *testing.T) {
			if got := b.evaluateCondition(test.cond); got != test.want {
				t.Errorf("evaluateCondition(%q) = %v, want %v", test.cond, got, test.want)
			}
		})
	}
}

func TestSplitCall(t *testing.T) {
	tests := []struct {
		expr     string
		name     string
		arg      string
		wantCall bool
	}{
		{"RND(5)", "RND", "5", true},
		{"A(B(1))", "A", "B(1)", true},
		{"A (3)", "A", "3", true},
		{"A(1)+B(2)", "", "", false},
		{"(1)", "", "", false},
		{"A(1", "", "", false},
		{"A", "", "", false},
	}
	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			name, arg, ok := splitCall(test.expr)
			if ok != test.wantCall || name != test.name || arg != test.arg {
				t.Errorf("splitCall(%q) = %q, %q, %v", test.expr, name, arg, ok)
			}
		})
	}
}
