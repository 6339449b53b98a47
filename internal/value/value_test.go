package value

import "testing"

func TestEqualResponse(t *testing.T) {
	a := ResponseOk(NewIntFromInt64(1))
	b := ResponseOk(NewIntFromInt64(1))
	c := ResponseErr(NewIntFromInt64(1))
	if !Equal(a, b) {
		t.Error("expected (ok 1) == (ok 1)")
	}
	if Equal(a, c) {
		t.Error("expected (ok 1) != (err 1)")
	}
}

func TestNewListRejectsOverLength(t *testing.T) {
	els := []Value{NewIntFromInt64(1), NewIntFromInt64(2), NewIntFromInt64(3)}
	if _, err := NewList(els, IntType(), 2); err == nil {
		t.Fatal("expected BadListLengthError for a 3-element list with max-len 2")
	}
	if _, err := NewList(els, IntType(), 3); err != nil {
		t.Fatalf("NewList at exactly max-len failed: %v", err)
	}
}

func TestTypeOfTuple(t *testing.T) {
	tup := NewTuple([]string{"a", "b"}, map[string]Value{"a": NewIntFromInt64(1), "b": Bool(true)})
	typ := TypeOf(tup)
	if typ.Kind != KindTuple {
		t.Fatalf("TypeOf(tuple) = %s, want tuple", typ)
	}
	if !typ.Fields["a"].Equal(IntType()) || !typ.Fields["b"].Equal(BoolType()) {
		t.Errorf("unexpected field types in %s", typ)
	}
}

func TestOptionalStringRendersSomeAndNone(t *testing.T) {
	some := OptionalSome(NewIntFromInt64(7))
	none := OptionalNone(IntType())
	if some.String() != "(some 7)" {
		t.Errorf("some.String() = %q, want %q", some.String(), "(some 7)")
	}
	if none.String() != "none" {
		t.Errorf("none.String() = %q, want %q", none.String(), "none")
	}
}
