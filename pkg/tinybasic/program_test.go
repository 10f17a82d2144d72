package tinybasic

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProgramAddOrReplaceKeepsOrder(t *testing.T) {
	var p Program
	for _, n := range []uint16{30, 10, 20, 10} {
		if err := p.AddOrReplace(n, fmt.Sprintf("PRINT %d", n)); err != nil {
			t.Fatalf("AddOrReplace(%d): %v", n, err)
		}
	}
	p.AddOrReplace(10, "PRINT \"new\"")

	lines := p.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	want := []uint16{10, 20, 30}
	for i, line := range lines {
		if line.Number != want[i] {
			t.Errorf("line %d number = %d, want %d", i, line.Number, want[i])
		}
	}
	if lines[0].Text != "PRINT \"new\"" {
		t.Errorf("replace did not update text: %q", lines[0].Text)
	}
}

func TestProgramCapacity(t *testing.T) {
	var p Program
	for i := 1; i <= MaxLines; i++ {
		if err := p.AddOrReplace(uint16(i), "END"); err != nil {
			t.Fatalf("line %d rejected: %v", i, err)
		}
	}
	if err := p.AddOrReplace(MaxLines+1, "END"); !errors.Is(err, ErrProgramFull) {
		t.Errorf("expected ErrProgramFull, got %v", err)
	}
	// Ersetzen funktioniert auch bei voller Tabelle
	if err := p.AddOrReplace(5, "STOP"); err != nil {
		t.Errorf("replace on full program failed: %v", err)
	}
	if p.Len() != MaxLines {
		t.Errorf("Len = %d, want %d", p.Len(), MaxLines)
	}
}

func TestProgramDelete(t *testing.T) {
	var p Program
	p.AddOrReplace(10, "A")
	p.AddOrReplace(20, "B")
	p.AddOrReplace(30, "C")

	if !p.Delete(20) {
		t.Fatal("Delete(20) reported missing line")
	}
	if p.Delete(20) {
		t.Error("second Delete(20) should report missing line")
	}
	if _, ok := p.IndexOf(30); !ok {
		t.Error("line 30 lost after delete")
	}
	if p.Len() != 2 || p.Line(1).Number != 30 {
		t.Errorf("unexpected program after delete: %+v", p.Lines())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 5, "abcde"},
		{"rune boundary", "abcdä", 5, "abcd"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := truncate(test.in, test.n); got != test.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", test.in, test.n, got, test.want)
			}
		})
	}
}

func TestLongLineIsTruncated(t *testing.T) {
	b, _ := newTestBasic()
	execAll(t, b, "10 PRINT \""+strings.Repeat("x", 100)+"\"")
	lines := b.ProgramLines()
	if len(lines) != 1 || len(lines[0].Text) != MaxLineLen {
		t.Fatalf("expected one line of %d bytes, got %+v", MaxLineLen, lines)
	}
}

func TestDirectorySaveLoad(t *testing.T) {
	var d Directory
	var p Program
	p.AddOrReplace(10, "PRINT 1")

	if err := d.Save("first", p); err != nil {
		t.Fatal(err)
	}
	p.AddOrReplace(20, "PRINT 2")
	if err := d.Save("first", p); err != nil {
		t.Fatal(err)
	}

	loaded, err := d.Load("first")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 1 {
		t.Errorf("Load should return the first match, got %d lines", loaded.Len())
	}
	if _, err := d.Load("missing"); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("expected ErrProgramNotFound, got %v", err)
	}

	for i := d.Len(); i < MaxPrograms; i++ {
		if err := d.Save(fmt.Sprintf("p%d", i), p); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := d.Save("overflow", p); !errors.Is(err, ErrStorageFull) {
		t.Errorf("expected ErrStorageFull, got %v", err)
	}
	if names := d.Names(); len(names) != MaxPrograms || names[0] != "first" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestDirectoryNameTruncation(t *testing.T) {
	var d Directory
	var p Program
	long := "averyveryverylongname"
	if err := d.Save(long, p); err != nil {
		t.Fatal(err)
	}
	if got := d.Names()[0]; got != long[:MaxNameLen] {
		t.Errorf("stored name = %q", got)
	}
	if _, err := d.Load(long); err != nil {
		t.Errorf("lookup by the untruncated name failed: %v", err)
	}
}
