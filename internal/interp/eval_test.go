package interp

import (
	"path/filepath"
	"testing"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/parser"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

func newTestSavepoint(t *testing.T) *store.Savepoint {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Initialize(path)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	sp, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	t.Cleanup(func() { sp.Rollback() })
	return sp
}

func parseOne(t *testing.T, src string) ast.Expr {
	t.Helper()
	exprs, errs := parser.Parse(src, "<test>")
	if len(errs) != 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	if len(exprs) != 1 {
		t.Fatalf("parse %q: expected 1 expression, got %d", src, len(exprs))
	}
	return exprs[0]
}

func evalTop(t *testing.T, sp *store.Savepoint, c *store.Contract, readOnly bool, src string) value.Value {
	t.Helper()
	e := NewEval(sp, c, value.Principal{}, readOnly)
	root := NewEnvironment()
	root.SeedGlobals(c.Constants)
	v, err := e.EvalTop(parseOne(t, src), root)
	if err != nil {
		t.Fatalf("EvalTop(%q): %v", src, err)
	}
	return v
}

func emptyContract() *store.Contract {
	return &store.Contract{
		Name:      "t",
		Functions: map[string]*store.Function{},
		Maps:      map[string]store.MapSchema{},
		Vars:      map[string]*value.Type{},
		Constants: map[string]value.Value{},
	}
}

func TestEvalArithmetic(t *testing.T) {
	sp := newTestSavepoint(t)
	v := evalTop(t, sp, emptyContract(), true, "(+ 1 (* 2 3))")
	if v.String() != "7" {
		t.Errorf("got %s, want 7", v.String())
	}
}

func TestEvalIfBranches(t *testing.T) {
	sp := newTestSavepoint(t)
	c := emptyContract()
	if got := evalTop(t, sp, c, true, "(if true 1 2)").String(); got != "1" {
		t.Errorf("if true branch = %s, want 1", got)
	}
	if got := evalTop(t, sp, c, true, "(if false 1 2)").String(); got != "2" {
		t.Errorf("if false branch = %s, want 2", got)
	}
}

func TestEvalLetShadowsOuterScope(t *testing.T) {
	sp := newTestSavepoint(t)
	v := evalTop(t, sp, emptyContract(), true, "(let ((x 1) (y (+ x 1))) (+ x y))")
	if v.String() != "3" {
		t.Errorf("got %s, want 3", v.String())
	}
}

func TestEvalMatchOptional(t *testing.T) {
	sp := newTestSavepoint(t)
	c := emptyContract()
	some := evalTop(t, sp, c, true, "(match (some 5) value (+ value 1) 0)")
	if some.String() != "6" {
		t.Errorf("some branch = %s, want 6", some.String())
	}
	none := evalTop(t, sp, c, true, "(match (none) value (+ value 1) 0)")
	if none.String() != "0" {
		t.Errorf("none branch = %s, want 0", none.String())
	}
}

func TestEvalDivisionByZeroRaisesError(t *testing.T) {
	sp := newTestSavepoint(t)
	e := NewEval(sp, emptyContract(), value.Principal{}, true)
	_, err := e.EvalTop(parseOne(t, "(/ 1 0)"), NewEnvironment())
	if err == nil {
		t.Fatal("expected DivisionByZeroError, got nil")
	}
}

func TestEvalVarSetRejectedInReadOnlyCall(t *testing.T) {
	sp := newTestSavepoint(t)
	c := emptyContract()
	c.Vars["count"] = value.IntType()
	if err := sp.PutContract(c, map[string]value.Value{"count": value.NewIntFromInt64(0)}); err != nil {
		t.Fatalf("PutContract: %v", err)
	}
	reloaded, found, err := sp.GetContract("t")
	if err != nil || !found {
		t.Fatalf("GetContract: found=%v err=%v", found, err)
	}

	e := NewEval(sp, reloaded, value.Principal{}, true)
	_, err = e.EvalTop(parseOne(t, "(var-set count 1)"), NewEnvironment())
	if err == nil {
		t.Fatal("expected a read-only violation, got nil")
	}
}

func TestEvalRecursionDetected(t *testing.T) {
	sp := newTestSavepoint(t)
	c := emptyContract()
	c.Functions["loop"] = &store.Function{
		Name:       "loop",
		Kind:       store.Private,
		ReturnType: value.IntType(),
		Body:       parseOne(t, "(loop)"),
	}
	e := NewEval(sp, c, value.Principal{}, false)
	_, err := e.EvalTop(parseOne(t, "(loop)"), NewEnvironment())
	if err == nil {
		t.Fatal("expected RecursionDetectedError, got nil")
	}
}
