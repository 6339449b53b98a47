package semantic

import (
	"path/filepath"
	"testing"

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

func analyzeSource(t *testing.T, sp *store.Savepoint, name, source string) (*ContractAnalysis, error) {
	t.Helper()
	exprs, errs := parser.Parse(source, name)
	if len(errs) != 0 {
		t.Fatalf("parse %s: %v", name, errs)
	}
	return Analyze(sp, name, exprs)
}

func TestAnalyzeSimpleCounter(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-constant LIMIT 100)
(define-data-var count int 0)
(define-public (increment)
  (begin
    (var-set count (+ (var-get count) 1))
    (ok (var-get count))))
(define-read-only (get-count)
  (var-get count))
`
	ca, err := analyzeSource(t, sp, "counter", source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if ca.ConstantValues["LIMIT"].String() != "100" {
		t.Errorf("LIMIT = %s, want 100", ca.ConstantValues["LIMIT"].String())
	}
	if ca.InitialVarValues["count"].String() != "0" {
		t.Errorf("count init = %s, want 0", ca.InitialVarValues["count"].String())
	}

	inc, ok := ca.Functions["increment"]
	if !ok {
		t.Fatal("expected function increment")
	}
	if !inc.Mutating {
		t.Error("expected increment to be marked mutating")
	}
	if inc.Kind != store.Public {
		t.Errorf("increment kind = %v, want Public", inc.Kind)
	}

	get, ok := ca.Functions["get-count"]
	if !ok {
		t.Fatal("expected function get-count")
	}
	if get.Mutating {
		t.Error("get-count should not be marked mutating")
	}
	if get.Kind != store.ReadOnly {
		t.Errorf("get-count kind = %v, want ReadOnly", get.Kind)
	}
	if !get.ReturnType.Equal(value.IntType()) {
		t.Errorf("get-count return type = %s, want int", get.ReturnType)
	}
}

func TestAnalyzeRejectsMutationInReadOnlyFunction(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-data-var count int 0)
(define-read-only (bad)
  (var-set count 1))
`
	_, err := analyzeSource(t, sp, "bad", source)
	if err == nil {
		t.Fatal("expected a read-only violation during analysis, got nil")
	}
}

func TestAnalyzePublicFunctionMustReturnResponse(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `(define-public (f) 1)`
	_, err := analyzeSource(t, sp, "bad", source)
	if err == nil {
		t.Fatal("expected public function with a non-response return type to be rejected, got nil")
	}
}

func TestAnalyzeReadOnlyRejectsTransitiveMutationThroughPrivateCall(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-data-var count int 0)
(define-private (bump)
  (var-set count 1))
(define-read-only (bad)
  (bump))
`
	_, err := analyzeSource(t, sp, "bad", source)
	if err == nil {
		t.Fatal("expected a read-only violation for a call to a transitively mutating private function, got nil")
	}
}

func TestAnalyzeTracksMutatingFlagThroughPrivateCall(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-data-var count int 0)
(define-private (bump)
  (var-set count 1))
(define-public (wrapper)
  (begin
    (bump)
    (ok true)))
`
	ca, err := analyzeSource(t, sp, "wrap", source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	wrapper, ok := ca.Functions["wrapper"]
	if !ok {
		t.Fatal("expected function wrapper")
	}
	if !wrapper.Mutating {
		t.Error("expected wrapper to be marked mutating via its call to bump, got false")
	}
}

func TestAnalyzeRejectsTypeMismatchInIf(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-public (f) (if true 1 false))
`
	_, err := analyzeSource(t, sp, "bad", source)
	if err == nil {
		t.Fatal("expected a type-unification error for mismatched if branches, got nil")
	}
}

func TestAnalyzeConstantsCanReferenceEarlierConstants(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `
(define-constant BASE 10)
(define-constant DOUBLE (* BASE 2))
`
	ca, err := analyzeSource(t, sp, "consts", source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ca.ConstantValues["DOUBLE"].String() != "20" {
		t.Errorf("DOUBLE = %s, want 20", ca.ConstantValues["DOUBLE"].String())
	}
}

func TestCheckExprAgainstAnalysis(t *testing.T) {
	sp := newTestSavepoint(t)
	source := `(define-constant LIMIT 100)`
	ca, err := analyzeSource(t, sp, "consts", source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	exprs, errs := parser.Parse("(+ LIMIT 1)", "<eval>")
	if len(errs) != 0 {
		t.Fatalf("parse: %v", errs)
	}
	typ, err := CheckExpr(sp, ca, exprs[0])
	if err != nil {
		t.Fatalf("CheckExpr: %v", err)
	}
	if !typ.Equal(value.IntType()) {
		t.Errorf("CheckExpr type = %s, want int", typ)
	}
}
