package parser

import (
	"testing"

	"github.com/ledgervm/ledgervm/internal/address"
	"github.com/ledgervm/ledgervm/internal/ast"
)

func TestParseIntegerLiteral(t *testing.T) {
	exprs, errs := Parse("42", "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(exprs) != 1 {
		t.Fatalf("expected 1 expression, got %d", len(exprs))
	}
	av, ok := exprs[0].(*ast.AtomValue)
	if !ok {
		t.Fatalf("expected *ast.AtomValue, got %T", exprs[0])
	}
	if av.Value.String() != "42" {
		t.Errorf("got %s, want 42", av.Value.String())
	}
}

func TestParseNestedList(t *testing.T) {
	exprs, errs := Parse("(+ 1 (- 2 3))", "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(exprs) != 1 {
		t.Fatalf("expected 1 expression, got %d", len(exprs))
	}
	l, ok := exprs[0].(*ast.List)
	if !ok {
		t.Fatalf("expected *ast.List, got %T", exprs[0])
	}
	if len(l.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(l.Children))
	}
	if l.Children[0].(*ast.Atom).Name != "+" {
		t.Errorf("head atom = %q, want +", l.Children[0].(*ast.Atom).Name)
	}
}

func TestParseUnbalancedParens(t *testing.T) {
	_, errs := Parse("(+ 1 2", "<test>")
	if len(errs) == 0 {
		t.Fatal("expected an unbalanced-parentheses error, got none")
	}
}

func TestParseUnexpectedCloseParen(t *testing.T) {
	_, errs := Parse(")", "<test>")
	if len(errs) == 0 {
		t.Fatal("expected an error for a stray ')', got none")
	}
}

func TestParseQuotedPrincipal(t *testing.T) {
	addr := address.Encode(0x16, [20]byte{1, 2, 3, 4, 5})
	source := "'" + addr
	exprs, errs := Parse(source, "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	av, ok := exprs[0].(*ast.AtomValue)
	if !ok {
		t.Fatalf("expected *ast.AtomValue, got %T", exprs[0])
	}
	if av.Value.Kind.String() != "principal" {
		t.Errorf("got kind %s, want principal", av.Value.Kind)
	}
}

func TestParseBooleanLiterals(t *testing.T) {
	exprs, errs := Parse("true false", "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(exprs) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(exprs))
	}
	if exprs[0].(*ast.AtomValue).Value.String() != "true" {
		t.Errorf("expected true, got %s", exprs[0].String())
	}
	if exprs[1].(*ast.AtomValue).Value.String() != "false" {
		t.Errorf("expected false, got %s", exprs[1].String())
	}
}

func TestParseBufferLiteral(t *testing.T) {
	exprs, errs := Parse("0xdeadbeef", "<test>")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	av := exprs[0].(*ast.AtomValue)
	if av.Value.String() != "0xdeadbeef" {
		t.Errorf("got %s, want 0xdeadbeef", av.Value.String())
	}
}
