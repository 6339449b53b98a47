package jsonvalue

import "testing"

func TestObjectPreservesInsertionOrder(t *testing.T) {
	obj := Object()
	obj.Set("zebra", String("z"))
	obj.Set("apple", String("a"))
	obj.Set("mango", String("m"))

	b, err := obj.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	got := string(b)
	want := `{"zebra":"z","apple":"a","mango":"m"}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSetOverwritesWithoutReordering(t *testing.T) {
	obj := Object()
	obj.Set("a", Int64(1))
	obj.Set("b", Int64(2))
	obj.Set("a", Int64(3))

	b, err := obj.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"a":3,"b":2}`
	if string(b) != want {
		t.Errorf("got %s, want %s", string(b), want)
	}
}

func TestArrayMarshalsInAppendOrder(t *testing.T) {
	arr := Array()
	arr.Append(Int64(1))
	arr.Append(Boolean(true))
	arr.Append(Null())

	b, err := arr.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `[1,true,null]`
	if string(b) != want {
		t.Errorf("got %s, want %s", string(b), want)
	}
}

func TestNilValueMarshalsNull(t *testing.T) {
	var v *Value
	b, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("got %s, want null", string(b))
	}
	if v.Kind() != KindNull {
		t.Errorf("nil Value.Kind() = %v, want KindNull", v.Kind())
	}
}
