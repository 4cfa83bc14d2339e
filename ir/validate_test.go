package ir

import "testing"

func TestValidateBinaryTypeMismatch(t *testing.T) {
	x := NewVar("a", I16)
	y := NewVar("b", I32)
	if err := Validate(NewAdd(x, y)); err == nil {
		t.Fatal("expected a type-mismatch error")
	}
}

func TestValidateBinaryOK(t *testing.T) {
	x := NewVar("a", I32)
	y := NewVar("b", I32)
	if err := Validate(NewAdd(x, y)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateComparisonAllowsBoolResult(t *testing.T) {
	x := NewVar("a", I32)
	y := NewVar("b", I32)
	cmp := NewLT(x, y)
	if !cmp.ExprType().IsBool() {
		t.Fatalf("comparison result type = %v, want bool", cmp.ExprType())
	}
	if err := Validate(cmp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSelectCondMustBeBool(t *testing.T) {
	cond := NewVar("c", I32) // not bool
	sel := NewSelect(cond, NewVar("t", I32), NewVar("f", I32))
	if err := Validate(sel); err == nil {
		t.Fatal("expected error: select condition must be bool")
	}
}

func TestValidateSelectBranchMismatch(t *testing.T) {
	cond := NewLT(NewVar("a", I32), NewVar("b", I32))
	sel := NewSelect(cond, NewVar("t", I32), NewVar("f", I16))
	if err := Validate(sel); err == nil {
		t.Fatal("expected error: select branch type mismatch")
	}
}

func TestValidateKernelWorkgroupSizeConsistent(t *testing.T) {
	i := NewVar("i", I32)
	j := NewVar("j", I32)
	body := NewBlock(
		GPUThread(i, 0, Int64(I32, 0), Int64(I32, 64), NewEvaluate(Int64(I32, 0))),
		GPUThread(j, 0, Int64(I32, 0), Int64(I32, 64), NewEvaluate(Int64(I32, 0))),
	)
	k := NewKernel("f", nil, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 64, Y: 1, Z: 1})
	k.Body = body
	if err := ValidateKernel(k); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateKernelWorkgroupSizeConflict(t *testing.T) {
	i := NewVar("i", I32)
	j := NewVar("j", I32)
	body := NewBlock(
		GPUThread(i, 0, Int64(I32, 0), Int64(I32, 64), NewEvaluate(Int64(I32, 0))),
		GPUThread(j, 0, Int64(I32, 0), Int64(I32, 32), NewEvaluate(Int64(I32, 0))),
	)
	k := NewKernel("f", nil, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 64, Y: 1, Z: 1})
	k.Body = body
	if err := ValidateKernel(k); err == nil {
		t.Fatal("expected a workgroup-size conflict error")
	}
}
