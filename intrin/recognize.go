package intrin

import "github.com/kforge/kforge/ir"

// Recognize runs a bottom-up, single-pass pattern rewrite over e that
// lifts ordinary arithmetic matching a widening/rounding/saturating/
// halving/multiply-shift-right/absolute-difference idiom into the
// corresponding ir intrinsic (spec.md §4.1). Honors HL_DISABLE_INTRINISICS
// by returning e unchanged. Rule ordering is significant: the first
// matching rule wins, mirroring the original matcher's behavior (spec.md
// §9 "Pattern matcher").
func Recognize(e ir.Expr) ir.Expr {
	if disableIntrinsics() {
		return e
	}
	return ir.TransformExpr(e, recognizeOne)
}

func recognizeOne(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Binary:
		switch n.Op {
		case ir.OpAdd:
			return recognizeAdd(n)
		case ir.OpSub:
			return recognizeSub(n)
		case ir.OpMul:
			return recognizeMul(n)
		case ir.OpShr:
			return recognizeShiftRight(n)
		}
	case *ir.Cast:
		return recognizeCast(n)
	case *ir.Reinterpret:
		return recognizeReinterpret(n)
	case *ir.Call:
		return recognizeCall(n)
	}
	return e
}

// losslessNarrow returns e narrowed to half width if e is exactly
// representable there (here: if e is itself the result of widening a
// narrower value via Cast — the common case reaching this
// pass from front-end-emitted casts), else nil.
func losslessNarrow(e ir.Expr) ir.Expr {
	if c, ok := e.(*ir.Cast); ok {
		if c.X.ExprType().Bits()*2 == c.Typ.Bits() && c.X.ExprType().Code() != ir.Bool {
			return c.X
		}
	}
	return nil
}

// recognizeAdd implements spec.md §4.1's widening-add family:
// cast(wide, a) + cast(wide, b), with a, b narrow, becomes
// widening_add(a, b); if only one side narrows, widen_right_add.
func recognizeAdd(n *ir.Binary) ir.Expr {
	x, y := n.X, n.Y
	if nx, ny := losslessNarrow(x), losslessNarrow(y); nx != nil && ny != nil && nx.ExprType().Equal(ny.ExprType()) {
		return ir.Widening(ir.WideningAdd, nx, ny)
	}
	if nx := losslessNarrow(x); nx != nil {
		return ir.WidenRight(ir.WidenRightAdd, y, nx)
	}
	if ny := losslessNarrow(y); ny != nil {
		return ir.WidenRight(ir.WidenRightAdd, x, ny)
	}
	// widen_right_add(widen_right_add(x,y),z) -> x + widening_add(y,z)
	if call, ok := x.(*ir.Call); ok && call.Name == ir.WidenRightAdd {
		return ir.NewAdd(call.Args[0], ir.Widening(ir.WideningAdd, call.Args[1], y))
	}
	return n
}

func recognizeSub(n *ir.Binary) ir.Expr {
	x, y := n.X, n.Y
	if nx, ny := losslessNarrow(x), losslessNarrow(y); nx != nil && ny != nil && nx.ExprType().Equal(ny.ExprType()) {
		return ir.Widening(ir.WideningSub, nx, ny)
	}
	if nx := losslessNarrow(x); nx != nil {
		return ir.WidenRight(ir.WidenRightSub, y, nx)
	}
	if ny := losslessNarrow(y); ny != nil {
		return ir.WidenRight(ir.WidenRightSub, x, ny)
	}
	if call, ok := x.(*ir.Call); ok && call.Name == ir.WidenRightSub {
		return ir.NewSub(call.Args[0], ir.Widening(ir.WideningSub, call.Args[1], y))
	}
	return n
}

func recognizeMul(n *ir.Binary) ir.Expr {
	x, y := n.X, n.Y
	if nx, ny := losslessNarrow(x), losslessNarrow(y); nx != nil && ny != nil && nx.ExprType().Equal(ny.ExprType()) {
		return ir.Widening(ir.WideningMul, nx, ny)
	}
	if nx := losslessNarrow(x); nx != nil {
		return ir.WidenRight(ir.WidenRightMul, y, nx)
	}
	if ny := losslessNarrow(y); ny != nil {
		return ir.WidenRight(ir.WidenRightMul, x, ny)
	}
	if call, ok := x.(*ir.Call); ok && call.Name == ir.WidenRightMul {
		return ir.NewMul(call.Args[0], ir.Widening(ir.WideningMul, call.Args[1], y))
	}
	return n
}

// recognizeShiftRight implements spec.md §4.1's averaging and
// multiply-shift families:
//
//	shift_right(widening_add(x,y), 1)       -> halving_add(x, y)
//	shift_right(widening_add(x,y)+1, 1)     -> rounding_halving_add(x, y)
//	shift_right(x+y, 1)                     -> halving_add(x, y), when
//	                                            overflow in x+y is undefined
//	shift_right(widening_mul(x,y), q)       -> mul_shift_right(x, y, q)
func recognizeShiftRight(n *ir.Binary) ir.Expr {
	x, shiftAmt := n.X, n.Y

	if call, ok := x.(*ir.Call); ok {
		switch call.Name {
		case ir.WideningAdd:
			if one, ok := isConstInt(shiftAmt); ok && one == 1 {
				return ir.Halving(ir.HalvingAdd, call.Args[0], call.Args[1])
			}
		case ir.WideningMul:
			return ir.MulShift(ir.MulShiftRight, call.Args[0], call.Args[1], shiftAmt)
		}
	}

	if add, ok := x.(*ir.Binary); ok && add.Op == ir.OpAdd {
		if inner, ok := add.X.(*ir.Call); ok && inner.Name == ir.WideningAdd {
			if rv, ok := isConstInt(add.Y); ok && rv == 1 {
				if one, ok := isConstInt(shiftAmt); ok && one == 1 {
					return ir.Halving(ir.RoundingHalvAdd, inner.Args[0], inner.Args[1])
				}
			}
		}
		if one, ok := isConstInt(shiftAmt); ok && one == 1 && noOverflow(add.Typ) {
			return ir.Halving(ir.HalvingAdd, add.X, add.Y)
		}
	}

	// General "remove the round constant" rule (spec.md §4.1): covers
	// rounding_shift_right and, when the residual is a widening_mul,
	// rounding_mul_shift_right. Tried last since it's the broadest match.
	if result, ok := toRoundingShift(x, shiftAmt); ok {
		return result
	}
	return n
}

// noOverflow reports whether t's arithmetic is undefined on overflow
// (float, or signed integer 32 bits and wider), per the original's
// no_overflow predicate.
func noOverflow(t ir.Type) bool {
	return t.IsFloat() || (t.IsInt() && t.Bits() >= 32)
}

// recognizeCast implements spec.md §4.1's cast-rooted patterns, tried in
// the original's priority order: normalisation/redundant-cast-collapse
// first, then `cast(t, absd_wide) -> absd(x, y)` (an absolute-difference
// written as abs(widening_sub(x, y)) then narrowed back down), then the
// saturating-clamp family.
func recognizeCast(n *ir.Cast) ir.Expr {
	if result, ok := recognizeCastNormalize(n); ok {
		return result
	}
	if call, ok := n.X.(*ir.Call); ok && call.Name == "abs" {
		if sub, ok := call.Args[0].(*ir.Call); ok && sub.Name == ir.WideningSub {
			return ir.AbsDiff(sub.Args[0], sub.Args[1])
		}
	}
	if result, ok := recognizeSaturatingClamp(n); ok {
		return result
	}
	return n
}
