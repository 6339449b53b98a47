package store

import (
	"path/filepath"
	"testing"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/parser"
	"github.com/ledgervm/ledgervm/internal/value"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Initialize(path)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInitializeRejectsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Initialize(path)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	st.Close()

	if _, err := Initialize(path); err == nil {
		t.Fatal("expected Initialize to reject an existing file, got nil error")
	}
}

func TestOpenMissingFileFails(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("expected Open to fail on a missing file, got nil error")
	}
}

func TestMineBlockIncrementsHeight(t *testing.T) {
	st := openTestStore(t)
	sp, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	defer sp.Rollback()

	height, err := sp.BlockHeight()
	if err != nil {
		t.Fatalf("BlockHeight: %v", err)
	}
	if height != 0 {
		t.Fatalf("initial height = %d, want 0", height)
	}

	if _, err := sp.MineBlock(100); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}
	if _, err := sp.MineBlock(200); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	height, err = sp.BlockHeight()
	if err != nil {
		t.Fatalf("BlockHeight: %v", err)
	}
	if height != 2 {
		t.Fatalf("height after two MineBlock calls = %d, want 2", height)
	}

	bt, ok, err := sp.BlockTime(1)
	if err != nil || !ok {
		t.Fatalf("BlockTime(1) = %d, %v, %v", bt, ok, err)
	}
	if bt != 100 {
		t.Errorf("BlockTime(1) = %d, want 100", bt)
	}
}

func TestNestedSavepointRollbackIsInvisibleToParent(t *testing.T) {
	st := openTestStore(t)
	outer, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	defer outer.Rollback()

	child, err := outer.Nest()
	if err != nil {
		t.Fatalf("Nest: %v", err)
	}
	if _, err := child.MineBlock(1); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}
	if err := child.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	height, err := outer.BlockHeight()
	if err != nil {
		t.Fatalf("BlockHeight: %v", err)
	}
	if height != 0 {
		t.Fatalf("height after rolled-back child = %d, want 0", height)
	}
}

func TestNestedSavepointCommitIsVisibleToParent(t *testing.T) {
	st := openTestStore(t)
	outer, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	defer outer.Rollback()

	child, err := outer.Nest()
	if err != nil {
		t.Fatalf("Nest: %v", err)
	}
	if _, err := child.MineBlock(1); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}
	if err := child.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	height, err := outer.BlockHeight()
	if err != nil {
		t.Fatalf("BlockHeight: %v", err)
	}
	if height != 1 {
		t.Fatalf("height after committed child = %d, want 1", height)
	}
}

func TestPutContractThenGetContractRoundTrips(t *testing.T) {
	st := openTestStore(t)
	outer, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	defer outer.Rollback()

	c := &Contract{
		Name:   "counter",
		Source: "(define-public (noop) (ok true))",
		Functions: map[string]*Function{
			"noop": {
				Name:       "noop",
				Kind:       Public,
				Params:     nil,
				ReturnType: value.ResponseType(value.BoolType(), value.NoType()),
				Body:       mustParseExpr(t, "(ok true)"),
			},
		},
		Maps:      map[string]MapSchema{},
		Vars:      map[string]*value.Type{"count": value.IntType()},
		Constants: map[string]value.Value{"LIMIT": value.NewIntFromInt64(10)},
	}

	if err := outer.PutContract(c, map[string]value.Value{"count": value.NewIntFromInt64(0)}); err != nil {
		t.Fatalf("PutContract: %v", err)
	}

	got, found, err := outer.GetContract("counter")
	if err != nil {
		t.Fatalf("GetContract: %v", err)
	}
	if !found {
		t.Fatal("expected contract to be found")
	}
	if got.Name != "counter" {
		t.Errorf("Name = %q, want counter", got.Name)
	}
	if _, ok := got.Functions["noop"]; !ok {
		t.Error("expected function noop to round-trip")
	}
	if !got.Vars["count"].Equal(value.IntType()) {
		t.Errorf("var count type = %s, want int", got.Vars["count"])
	}
	if got.Constants["LIMIT"].String() != "10" {
		t.Errorf("constant LIMIT = %s, want 10", got.Constants["LIMIT"].String())
	}
}

func TestPutContractRejectsDuplicateName(t *testing.T) {
	st := openTestStore(t)
	outer, err := st.BeginOuter()
	if err != nil {
		t.Fatalf("BeginOuter: %v", err)
	}
	defer outer.Rollback()

	c := &Contract{
		Name:      "dup",
		Source:    "",
		Functions: map[string]*Function{},
		Maps:      map[string]MapSchema{},
		Vars:      map[string]*value.Type{},
		Constants: map[string]value.Value{},
	}
	if err := outer.PutContract(c, nil); err != nil {
		t.Fatalf("first PutContract: %v", err)
	}
	err = outer.PutContract(c, nil)
	if err == nil {
		t.Fatal("expected ContractAlreadyExistsError on duplicate launch")
	}
	if _, ok := err.(*ContractAlreadyExistsError); !ok {
		t.Errorf("got error type %T, want *ContractAlreadyExistsError", err)
	}
}

func mustParseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	exprs, errs := parser.Parse(src, "<test>")
	if len(errs) != 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	return exprs[0]
}
