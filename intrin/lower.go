package intrin

import (
	"github.com/kforge/kforge/ir"
	"github.com/pkg/errors"
)

func widen(a ir.Expr) ir.Expr { return ir.NewCast(a.ExprType().Widen(), a) }

func narrow(a ir.Expr) ir.Expr { return ir.NewCast(a.ExprType().Narrow(), a) }

func saturatingNarrow(a ir.Expr) ir.Expr {
	return ir.SaturatingCastTo(a.ExprType().Narrow(), a)
}

// matchWidth casts e to t when its type isn't already t. Shift amounts
// in this package's IR must share the shifted value's type (see
// ir.Validate); the original source relies on its Expr builder doing
// this promotion implicitly, so lowerings that widen the shifted value
// must widen the shift amount to match.
func matchWidth(t ir.Type, e ir.Expr) ir.Expr {
	if e.ExprType().Equal(t) {
		return e
	}
	return ir.NewCast(t, e)
}

// clamp builds min(max(a, lo), hi).
func clamp(a, lo, hi ir.Expr) ir.Expr {
	return ir.NewMin(ir.NewMax(a, lo), hi)
}

// Lower rewrites a single intrinsic Call into the target-efficient
// arithmetic that implements it (spec.md §4.2's "efficient path").
// Args must already satisfy the intrinsic's arity/type contract (see
// ir's Widening/WidenRight/... constructors). It returns an error only
// when call.Name is not a recognised intrinsic.
func Lower(call *ir.Call) (ir.Expr, error) {
	a := func(i int) ir.Expr { return call.Args[i] }
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
	case ir.WideningShiftL:
		return ir.NewShl(widen(a(0)), a(1)), nil
	case ir.WideningShiftR:
		return ir.NewShr(widen(a(0)), a(1)), nil
	case ir.RoundingShiftL:
		return lowerRoundingShiftLeft(a(0), a(1)), nil
	case ir.RoundingShiftR:
		return lowerRoundingShiftRight(a(0), a(1)), nil
	case ir.SaturatingAdd:
		return lowerSaturatingAdd(a(0), a(1)), nil
	case ir.SaturatingSub:
		return lowerSaturatingSub(a(0), a(1)), nil
	case ir.SaturatingCast:
		return lowerSaturatingCast(call.Typ, a(0)), nil
	case ir.HalvingAdd:
		return lowerHalvingAdd(a(0), a(1)), nil
	case ir.HalvingSub:
		return lowerHalvingSub(a(0), a(1)), nil
	case ir.RoundingHalvAdd:
		return lowerRoundingHalvingAdd(a(0), a(1)), nil
	case ir.MulShiftRight:
		return lowerMulShiftRight(a(0), a(1), a(2)), nil
	case ir.RoundingMulShift:
		return lowerRoundingMulShiftRight(a(0), a(1), a(2)), nil
	case ir.SortedAvg:
		return lowerSortedAvg(a(0), a(1)), nil
	case ir.Absd:
		return lowerAbsd(a(0), a(1)), nil
	default:
		return nil, errors.Errorf("intrin: Lower: %q is not a recognised intrinsic", call.Name)
	}
}

func lowerWideningSub(a, b ir.Expr) ir.Expr {
	wide := a.ExprType().Widen()
	if wide.IsUint() {
		wide = wide.WithCode(ir.Int)
	}
	return ir.NewSub(ir.NewCast(wide, a), ir.NewCast(wide, b))
}

func lowerRoundingShiftLeft(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	bNeg := ir.NewSelect(ir.NewLT(b, zeroOf(t)), oneOf(t), zeroOf(t))
	return ir.NewAdd(ir.NewShl(a, b), ir.NewAnd(bNeg, ir.NewShl(a, ir.NewAdd(b, oneOf(b.ExprType())))))
}

func lowerRoundingShiftRight(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	if isPositiveConst(b) {
		shiftVal, _ := isConstInt(b)
		if t.IsUint() {
			shift := ir.Int64(t, shiftVal-1)
			round := ir.Int64(t, (int64(1)<<uint(shiftVal-1))-1)
			return ir.NewShr(lowerRoundingHalvingAdd(a, round), shift)
		} else if isSafeForAdd(a) {
			round := ir.Int64(t, int64(1)<<uint(shiftVal-1))
			return ir.NewShr(ir.NewAdd(a, round), b)
		}
	}
	bPos := ir.NewSelect(ir.NewGT(b, zeroOf(t)), oneOf(t), zeroOf(t))
	return ir.NewAdd(ir.NewShr(a, b), ir.NewAnd(bPos, ir.NewShr(a, ir.NewSub(b, oneOf(b.ExprType())))))
}

func lowerSaturatingAdd(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	lo := ir.NewSub(floatOrIntBound(t, t.Min()), ir.NewMin(b, zeroOf(t)))
	hi := ir.NewSub(floatOrIntBound(t, t.Max()), ir.NewMax(b, zeroOf(t)))
	return ir.NewAdd(clamp(a, lo, hi), b)
}

func lowerSaturatingSub(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	lo := ir.NewAdd(floatOrIntBound(t, t.Min()), ir.NewMax(b, zeroOf(t)))
	hi := ir.NewAdd(floatOrIntBound(t, t.Max()), ir.NewMin(b, zeroOf(t)))
	return ir.NewSub(clamp(a, lo, hi), b)
}

func floatOrIntBound(t ir.Type, v float64) ir.Expr {
	if t.IsFloat() {
		return ir.Float64(t, v)
	}
	if t.IsUint() {
		return ir.Uint64(t, uint64(v))
	}
	return ir.Int64(t, int64(v))
}

// lowerSaturatingCast follows the original's case split exactly: the
// float/float path pins infinities; the to-wider-float-from-narrower
// path clamps post-cast; otherwise bounds are clamped pre-cast in the
// source type.
func lowerSaturatingCast(t ir.Type, a ir.Expr) ir.Expr {
	srcT := a.ExprType()
	if t.IsFloat() && srcT.IsFloat() {
		if t.Bits() < srcT.Bits() {
			return ir.NewCast(t, clamp(a, floatOrIntBound(srcT, t.Min()), floatOrIntBound(srcT, t.Max())))
		}
		return clamp(ir.NewCast(t, a), floatOrIntBound(t, t.Min()), floatOrIntBound(t, t.Max()))
	}
	if srcT.Equal(t) {
		return a
	}
	if srcT.IsFloat() && !t.IsFloat() && t.Bits() >= srcT.Bits() {
		e := ir.NewMax(a, floatOrIntBound(srcT, t.Min()))
		maxAsSrc := floatOrIntBound(srcT, t.Max())
		return ir.NewSelect(ir.NewGE(e, maxAsSrc), floatOrIntBound(t, t.Max()), ir.NewCast(t, e))
	}
	var e ir.Expr = a
	if !srcT.IsUint() {
		e = ir.NewMax(e, floatOrIntBound(srcT, t.Min()))
	}
	e = ir.NewMin(e, floatOrIntBound(srcT, t.Max()))
	return ir.NewCast(t, e)
}

func lowerHalvingAdd(a, b ir.Expr) ir.Expr {
	return ir.NewAdd(ir.NewAnd(a, b), ir.NewShr(ir.NewXor(a, b), oneOf(a.ExprType())))
}

func lowerHalvingSub(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	e := lowerRoundingHalvingAdd(a, ir.NewNot(b))
	if t.IsUint() {
		bias := ir.Uint64(t, uint64(1)<<uint(t.Bits()-1))
		return ir.NewAdd(e, bias)
	}
	return e
}

func lowerRoundingHalvingAdd(a, b ir.Expr) ir.Expr {
	return ir.NewAdd(lowerHalvingAdd(a, b), ir.NewAnd(ir.NewXor(a, b), oneOf(a.ExprType())))
}

func lowerSortedAvg(a, b ir.Expr) ir.Expr {
	t := a.ExprType()
	return ir.NewAdd(a, ir.NewShr(ir.NewSub(b, a), oneOf(t)))
}

func lowerAbsd(a, b ir.Expr) ir.Expr {
	av := ir.NewVar("absd.a", a.ExprType())
	bv := ir.NewVar("absd.b", b.ExprType())
	return ir.NewLet("absd.a", a, ir.NewLet("absd.b", b,
		ir.NewSelect(ir.NewLT(av, bv), ir.NewSub(bv, av), ir.NewSub(av, bv))))
}
