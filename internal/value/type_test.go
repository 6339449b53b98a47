package value

import "testing"

func TestUnifyAnyAbsorbs(t *testing.T) {
	got, ok := Unify(AnyType(), BoolType())
	if !ok {
		t.Fatal("Unify(Any, Bool) should succeed")
	}
	if got.Kind != KindBool {
		t.Errorf("Unify(Any, Bool) = %s, want Bool", got)
	}
}

func TestUnifyNoneAbsorbs(t *testing.T) {
	got, ok := Unify(NoType(), IntType())
	if !ok {
		t.Fatal("Unify(None, Int) should succeed")
	}
	if got.Kind != KindInt {
		t.Errorf("Unify(None, Int) = %s, want Int", got)
	}
}

func TestUnifyMismatchedKindsFail(t *testing.T) {
	if _, ok := Unify(IntType(), BoolType()); ok {
		t.Fatal("Unify(Int, Bool) should fail")
	}
}

func TestUnifyOptionalWidensInner(t *testing.T) {
	a := OptionalType(NoType())
	b := OptionalType(IntType())
	got, ok := Unify(a, b)
	if !ok {
		t.Fatal("Unify(Optional(None), Optional(Int)) should succeed")
	}
	if got.Inner.Kind != KindInt {
		t.Errorf("unified inner = %s, want Int", got.Inner)
	}
}

func TestTypeEqual(t *testing.T) {
	a := TupleType([]string{"x", "y"}, map[string]*Type{"x": IntType(), "y": BoolType()})
	b := TupleType([]string{"x", "y"}, map[string]*Type{"x": IntType(), "y": BoolType()})
	if !a.Equal(b) {
		t.Errorf("expected equal tuple types, got %s vs %s", a, b)
	}
}
