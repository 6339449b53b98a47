package value

import (
	"math/big"
	"testing"
)

func TestAddIntOverflow(t *testing.T) {
	max, err := NewInt(maxInt128)
	if err != nil {
		t.Fatalf("NewInt(maxInt128) failed: %v", err)
	}
	one := NewIntFromInt64(1)

	if _, err := AddInt(max, one); err == nil {
		t.Fatal("expected OverflowError adding 1 to max int128, got nil")
	}

	sum, err := AddInt(NewIntFromInt64(2), NewIntFromInt64(3))
	if err != nil {
		t.Fatalf("AddInt(2, 3) returned error: %v", err)
	}
	if sum.Int.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("AddInt(2, 3) = %s, want 5", sum.Int)
	}
}

func TestDivIntByZero(t *testing.T) {
	if _, err := DivInt(NewIntFromInt64(10), NewIntFromInt64(0)); err == nil {
		t.Fatal("expected DivisionByZeroError, got nil")
	}
	q, err := DivInt(NewIntFromInt64(10), NewIntFromInt64(3))
	if err != nil {
		t.Fatalf("DivInt(10, 3) returned error: %v", err)
	}
	if q.Int.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("DivInt(10, 3) = %s, want 3", q.Int)
	}
}

func TestModIntByZero(t *testing.T) {
	if _, err := ModInt(NewIntFromInt64(10), NewIntFromInt64(0)); err == nil {
		t.Fatal("expected DivisionByZeroError, got nil")
	}
}

func TestPowIntOverflow(t *testing.T) {
	big2 := NewIntFromInt64(2)
	exp := NewIntFromInt64(200)
	if _, err := PowInt(big2, exp); err == nil {
		t.Fatal("expected OverflowError for 2^200, got nil")
	}
}

func TestNewIntBounds(t *testing.T) {
	tooBig := new(big.Int).Add(maxInt128, big.NewInt(1))
	if _, err := NewInt(tooBig); err == nil {
		t.Fatal("expected OverflowError constructing out-of-range Int, got nil")
	}
	tooSmall := new(big.Int).Sub(minInt128, big.NewInt(1))
	if _, err := NewInt(tooSmall); err == nil {
		t.Fatal("expected OverflowError constructing below-range Int, got nil")
	}
}
