package intrin

import (
	"github.com/kforge/kforge/ir"
	"github.com/pkg/errors"
)

// LowerSemantic rewrites a single intrinsic Call into a reference
// expression that is always correct but not necessarily what a target
// would efficiently execute (spec.md §4.2's "reference path", used to
// check Lower's output for the round-trip invariant, spec.md §8
// invariant 1). Widening intrinsics and a few others share their
// definition with Lower's efficient path; the rest use an explicit
// widen/narrow sandwich while the result is at most 32 (or, for
// rounding_mul_shift_right, 16) bits wide, and fall back to Lower above
// that width, matching the original's per-op bit-width gate.
func LowerSemantic(call *ir.Call) (ir.Expr, error) {
	a := func(i int) ir.Expr { return call.Args[i] }
	t := call.Typ
	switch call.Name {
	case ir.WidenRightAdd:
		return ir.NewAdd(a(0), widen(a(1))), nil
	case ir.WidenRightMul:
		return ir.NewMul(a(0), widen(a(1))), nil
	case ir.WidenRightSub:
		return ir.NewSub(a(0), widen(a(1))), nil
	case ir.WideningAdd:
		return ir.NewAdd(widen(a(0)), widen(a(1))), nil
	case ir.WideningMul:
		return ir.NewMul(widen(a(0)), widen(a(1))), nil
	case ir.WideningSub:
		return lowerWideningSub(a(0), a(1)), nil
	case ir.SaturatingAdd:
		if t.Bits() > 32 {
			return Lower(call)
		}
		return saturatingNarrow(ir.NewAdd(widen(a(0)), widen(a(1)))), nil
	case ir.SaturatingSub:
		if t.Bits() > 32 {
			return Lower(call)
		}
		return saturatingNarrow(lowerWideningSub(a(0), a(1))), nil
	case ir.SaturatingCast:
		return lowerSaturatingCast(t, a(0)), nil
	case ir.WideningShiftL:
		return ir.NewShl(widen(a(0)), a(1)), nil
	case ir.WideningShiftR:
		return ir.NewShr(widen(a(0)), a(1)), nil
	case ir.RoundingShiftR:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y := a(0), a(1)
		zero, one := zeroOf(x.ExprType()), oneOf(x.ExprType())
		round := ir.NewSelect(ir.NewGT(y, zero), ir.NewShl(one, ir.NewSub(y, one)), zero)
		return saturatingNarrow(ir.NewShr(ir.NewAdd(widen(x), widen(round)), y)), nil
	case ir.RoundingShiftL:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y := a(0), a(1)
		zero, one := zeroOf(x.ExprType()), oneOf(x.ExprType())
		round := ir.NewSelect(ir.NewLT(y, zero), ir.NewShr(one, ir.NewAdd(y, one)), zero)
		return saturatingNarrow(ir.NewShl(ir.NewAdd(widen(x), widen(round)), y)), nil
	case ir.HalvingAdd:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y := a(0), a(1)
		return narrow(ir.NewDiv(ir.NewAdd(widen(x), widen(y)), ir.Int64(widen(x).ExprType(), 2))), nil
	case ir.HalvingSub:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y := a(0), a(1)
		return narrow(ir.NewDiv(ir.NewSub(widen(x), widen(y)), ir.Int64(widen(x).ExprType(), 2))), nil
	case ir.RoundingHalvAdd:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y := a(0), a(1)
		wt := widen(x).ExprType()
		return narrow(ir.NewDiv(ir.NewAdd(ir.NewAdd(widen(x), widen(y)), ir.Int64(wt, 1)), ir.Int64(wt, 2))), nil
	case ir.RoundingMulShift:
		if t.Bits() > 16 {
			return Lower(call)
		}
		x, y, q := a(0), a(1), a(2)
		wt := widen(x).ExprType()
		return saturatingNarrow(lowerRoundingShiftRight(ir.NewMul(widen(x), widen(y)), matchWidth(wt, q))), nil
	case ir.MulShiftRight:
		if t.Bits() > 32 {
			return Lower(call)
		}
		x, y, q := a(0), a(1), a(2)
		wt := widen(x).ExprType()
		return saturatingNarrow(ir.NewShr(ir.NewMul(widen(x), widen(y)), matchWidth(wt, q))), nil
	case ir.SortedAvg:
		return lowerSortedAvg(a(0), a(1)), nil
	case ir.Absd:
		return lowerAbsd(a(0), a(1)), nil
	default:
		return nil, errors.Errorf("intrin: LowerSemantic: %q is not a recognised intrinsic", call.Name)
	}
}
