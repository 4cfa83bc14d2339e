package ir

import "testing"

func TestWideningResultType(t *testing.T) {
	x := NewVar("a", I16)
	y := NewVar("b", I16)
	call := Widening(WideningAdd, x, y)
	if call.ExprType() != I32 {
		t.Fatalf("widening_add(i16,i16).ExprType() = %v, want i32", call.ExprType())
	}
	if call.Name != WideningAdd {
		t.Fatalf("call.Name = %q, want %q", call.Name, WideningAdd)
	}
}

func TestAbsDiffResultTypeIsUnsigned(t *testing.T) {
	x := NewVar("a", I32)
	y := NewVar("b", I32)
	call := AbsDiff(x, y)
	if call.ExprType() != U32 {
		t.Fatalf("absd(i32,i32).ExprType() = %v, want u32", call.ExprType())
	}
}

func TestIsIntrinsic(t *testing.T) {
	if !IsIntrinsic(SaturatingAdd) {
		t.Fatal("SaturatingAdd should be recognised as an intrinsic name")
	}
	if IsIntrinsic("not_an_intrinsic") {
		t.Fatal("arbitrary name should not be recognised as an intrinsic")
	}
}
