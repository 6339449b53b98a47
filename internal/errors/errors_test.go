package errors

import (
	"strings"
	"testing"
)

func TestFormatIncludesCaretAtColumn(t *testing.T) {
	d := New(Position{Filename: "counter.ledger", Line: 2, Column: 6}, "undefined variable: x", "(define-public (f)\n  (+ x 1))")
	got := d.Format(false)
	lines := strings.Split(got, "\n")
	if lines[0] != "Error in counter.ledger:2:6" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "(+ x 1))") {
		t.Errorf("source line = %q, want it to contain the offending line", lines[1])
	}
	caretLine := lines[2]
	if strings.TrimSpace(caretLine) != "^" {
		t.Errorf("caret line = %q, want a lone caret", caretLine)
	}
	if strings.Index(caretLine, "^") != strings.Index(lines[1], "x") {
		t.Errorf("caret at column %d, want it aligned under %q at column %d",
			strings.Index(caretLine, "^"), "x", strings.Index(lines[1], "x"))
	}
	if lines[3] != "undefined variable: x" {
		t.Errorf("message line = %q", lines[3])
	}
}

func TestFormatWithoutFilenameUsesBareLocation(t *testing.T) {
	d := New(Position{Line: 1, Column: 1}, "parse error", "")
	got := d.Format(false)
	want := "Error at line 1:1\nparse error"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatAllJoinsDiagnostics(t *testing.T) {
	diags := []*Diagnostic{
		New(Position{Line: 1, Column: 1}, "first error", ""),
		New(Position{Line: 2, Column: 1}, "second error", ""),
	}
	got := FormatAll(diags, false)
	want := "Error at line 1:1\nfirst error\nError at line 2:1\nsecond error\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
