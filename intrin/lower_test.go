package intrin

import (
	"testing"

	"github.com/kforge/kforge/ir"
)

func lowerAndEval(t *testing.T, call *ir.Call) EvalValue {
	t.Helper()
	lowered, err := Lower(call)
	if err != nil {
		t.Fatalf("Lower(%q): %v", call.Name, err)
	}
	if err := ir.Validate(lowered); err != nil {
		t.Fatalf("Lower(%q) produced an ill-typed tree: %v", call.Name, err)
	}
	v, err := Eval(lowered)
	if err != nil {
		t.Fatalf("Eval(Lower(%q)): %v", call.Name, err)
	}
	return v
}

// S3 — saturating_add for u8 and i8.
func TestS3SaturatingAddUint8(t *testing.T) {
	call := ir.Saturating(ir.SaturatingAdd, ir.Uint64(ir.U8, 200), ir.Uint64(ir.U8, 100))
	v := lowerAndEval(t, call)
	if v.Raw != 255 {
		t.Fatalf("saturating_add(u8 200, u8 100) = %d, want 255", v.Raw)
	}
}

func TestS3SaturatingAddInt8(t *testing.T) {
	call := ir.Saturating(ir.SaturatingAdd, ir.Int64(ir.I8, 120), ir.Int64(ir.I8, 20))
	v := lowerAndEval(t, call)
	got := signExtend(v.Raw, 8)
	if got != 127 {
		t.Fatalf("saturating_add(i8 120, i8 20) = %d, want 127", got)
	}
}

func TestSaturatingSubUint8Clamps(t *testing.T) {
	call := ir.Saturating(ir.SaturatingSub, ir.Uint64(ir.U8, 10), ir.Uint64(ir.U8, 100))
	v := lowerAndEval(t, call)
	if v.Raw != 0 {
		t.Fatalf("saturating_sub(u8 10, u8 100) = %d, want 0", v.Raw)
	}
}

// S4 — rounding_mul_shift_right(i16 30000, i16 30000, 15) == 27466.
func TestS4RoundingMulShiftRight(t *testing.T) {
	call := ir.MulShift(ir.RoundingMulShift,
		ir.Int64(ir.I16, 30000), ir.Int64(ir.I16, 30000), ir.Int64(ir.I16, 15))
	v := lowerAndEval(t, call)
	got := signExtend(v.Raw, 16)
	if got != 27466 {
		t.Fatalf("rounding_mul_shift_right(i16 30000, i16 30000, 15) = %d, want 27466", got)
	}
}

func TestMulShiftRightBasic(t *testing.T) {
	// (100 * 100) >> 4 = 625, well within i16 range, no saturation.
	call := ir.MulShift(ir.MulShiftRight, ir.Int64(ir.I16, 100), ir.Int64(ir.I16, 100), ir.Int64(ir.I16, 4))
	v := lowerAndEval(t, call)
	got := signExtend(v.Raw, 16)
	if got != 625 {
		t.Fatalf("mul_shift_right(i16 100, i16 100, 4) = %d, want 625", got)
	}
}

func TestHalvingAddUint8(t *testing.T) {
	call := ir.Halving(ir.HalvingAdd, ir.Uint64(ir.U8, 10), ir.Uint64(ir.U8, 21))
	v := lowerAndEval(t, call)
	if v.Raw != 15 { // floor(31/2)
		t.Fatalf("halving_add(u8 10, u8 21) = %d, want 15", v.Raw)
	}
}

func TestRoundingHalvingAddUint8(t *testing.T) {
	call := ir.Halving(ir.RoundingHalvAdd, ir.Uint64(ir.U8, 10), ir.Uint64(ir.U8, 21))
	v := lowerAndEval(t, call)
	if v.Raw != 16 { // floor((10+21+1)/2)
		t.Fatalf("rounding_halving_add(u8 10, u8 21) = %d, want 16", v.Raw)
	}
}

func TestSortedAvg(t *testing.T) {
	call := ir.SortedAverage(ir.Int64(ir.I32, 10), ir.Int64(ir.I32, 21))
	v := lowerAndEval(t, call)
	got := signExtend(v.Raw, 32)
	if got != 15 { // 10 + (21-10)/2 = 10+5 = 15
		t.Fatalf("sorted_avg(10, 21) = %d, want 15", got)
	}
}

func TestAbsDiff(t *testing.T) {
	call := ir.AbsDiff(ir.Int64(ir.I32, 5), ir.Int64(ir.I32, 20))
	v := lowerAndEval(t, call)
	if v.Raw != 15 {
		t.Fatalf("absd(5, 20) = %d, want 15", v.Raw)
	}
}

func TestWideningAddResultValue(t *testing.T) {
	call := ir.Widening(ir.WideningAdd, ir.Int64(ir.I16, 20000), ir.Int64(ir.I16, 20000))
	v := lowerAndEval(t, call)
	got := signExtend(v.Raw, 32)
	if got != 40000 {
		t.Fatalf("widening_add(i16 20000, i16 20000) = %d, want 40000", got)
	}
}

func TestLowerUnknownIntrinsicErrors(t *testing.T) {
	call := &ir.Call{Typ: ir.I32, Name: "not_an_intrinsic", Args: []ir.Expr{ir.Int64(ir.I32, 1)}}
	if _, err := Lower(call); err == nil {
		t.Fatal("expected an error lowering an unrecognised intrinsic")
	}
}
