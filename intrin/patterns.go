package intrin

import "github.com/kforge/kforge/ir"

// This file holds the recognizer's harder pattern families: the
// saturating/rounding shapes intrin/recognize.go's simpler widening and
// shift rules don't cover (spec.md §4.1). Each is grounded on the
// corresponding rewrite rule in the original source's Cast/Call visitor
// (FindIntrinsics.cpp).

// canRepresent reports whether every value of type other is exactly
// representable in t, mirroring the original's Type::can_represent. It
// is used to decide whether an intermediate cast in a cast(cast(x))
// chain discards no information the outer cast didn't already discard.
func canRepresent(t, other ir.Type) bool {
	if t.Equal(other) {
		return true
	}
	switch {
	case t.IsInt() && other.IsInt():
		return t.Bits() >= other.Bits()
	case t.IsInt() && other.IsUint():
		return t.Bits() > other.Bits()
	case t.IsUint() && other.IsUint():
		return t.Bits() >= other.Bits()
	case t.IsFloat() && other.IsFloat():
		return t.Bits() >= other.Bits()
	default:
		return false
	}
}

// recognizeCastNormalize implements spec.md §4.1's "Normalisation" and
// "Redundant cast collapse" rules, in the original's priority order: a
// cast that doesn't change bit width between two int/uint types is a
// bit-pattern reinterpretation, not a value conversion, so it is
// rewritten to Reinterpret first; only once that doesn't apply do we
// look for a redundant intermediate cast to drop.
func recognizeCastNormalize(n *ir.Cast) (ir.Expr, bool) {
	srcT := n.X.ExprType()
	if n.Typ.IsIntOrUint() && srcT.IsIntOrUint() && n.Typ.Bits() == srcT.Bits() {
		if n.Typ.Equal(srcT) {
			return n.X, true
		}
		return &ir.Reinterpret{Typ: n.Typ, X: n.X}, true
	}
	if inner, ok := n.X.(*ir.Cast); ok {
		if canRepresent(inner.Typ, inner.X.ExprType()) || canRepresent(inner.Typ, n.Typ) {
			if n.Typ.Equal(inner.X.ExprType()) {
				return inner.X, true
			}
			return ir.NewCast(n.Typ, inner.X), true
		}
	}
	return nil, false
}

// recognizeReinterpret collapses reinterpret(reinterpret(x)) to a
// single reinterpret, and drops a reinterpret that doesn't change type
// (both can appear once recognizeCastNormalize starts emitting
// Reinterpret nodes of its own).
func recognizeReinterpret(n *ir.Reinterpret) ir.Expr {
	if n.Typ.Equal(n.X.ExprType()) {
		return n.X
	}
	if inner, ok := n.X.(*ir.Reinterpret); ok {
		if n.Typ.Equal(inner.X.ExprType()) {
			return inner.X
		}
		return &ir.Reinterpret{Typ: n.Typ, X: inner.X}
	}
	return n
}

// isTypeBound reports whether e is an immediate of type wideT holding
// exactly t's minimum (or maximum) value, i.e. it is lo/hi as built by
// this package's own floatOrIntBound/clamp helpers (or an equivalent
// front-end-constructed literal) when saturating a value of type t.
func isTypeBound(e ir.Expr, wideT, t ir.Type, max bool) bool {
	if !e.ExprType().Equal(wideT) {
		return false
	}
	v, ok := isConstInt(e)
	if !ok {
		return false
	}
	bound := t.Min()
	if max {
		bound = t.Max()
	}
	if wideT.IsUint() {
		return uint64(v) == uint64(bound)
	}
	return v == int64(bound)
}

// matchClamp reports whether e is a two-sided clamp of some inner
// expression into [lo, hi], accepting either nesting order: this
// package's own clamp() helper (intrin/lower.go) nests min(max(x,lo),hi),
// while the pattern spec.md §4.1 describes for naturally-written
// saturating code nests max(min(x,hi),lo) — both express the same clamp.
func matchClamp(e ir.Expr) (inner, lo, hi ir.Expr, ok bool) {
	outer, isBin := e.(*ir.Binary)
	if !isBin {
		return nil, nil, nil, false
	}
	switch outer.Op {
	case ir.OpMin:
		if in, ok := outer.X.(*ir.Binary); ok && in.Op == ir.OpMax {
			return in.X, in.Y, outer.Y, true
		}
	case ir.OpMax:
		if in, ok := outer.X.(*ir.Binary); ok && in.Op == ir.OpMin {
			return in.X, outer.Y, in.Y, true
		}
	}
	return nil, nil, nil, false
}

// recognizeSaturatingClamp implements spec.md §4.1's "Saturating" family:
// a widening add/sub clamped back into its narrow operand type's range,
// then cast down, is saturating_add/saturating_sub; a clamp with no
// widening op underneath is a plain saturating narrowing cast (this is
// also the shape intrin.LowerSemantic's saturating_cast lowering itself
// produces for an int/int-narrowing cast, via lowerSaturatingCast/clamp).
// Grounded on FindIntrinsics.cpp's visit(Cast*) rewrite list ("Saturating
// patterns" / "Saturating narrow patterns"). Only the two-sided clamp
// shape and unsigned's one-sided shapes are implemented; the original's
// further one-sided-for-signed and narrow-shift variants of the multiply
// family are not attempted here (see DESIGN.md).
func recognizeSaturatingClamp(n *ir.Cast) (ir.Expr, bool) {
	t := n.Typ
	if !t.IsIntOrUint() {
		return nil, false
	}

	if inner, lo, hi, ok := matchClamp(n.X); ok {
		wideT := inner.ExprType()
		if isTypeBound(hi, wideT, t, true) && isTypeBound(lo, wideT, t, false) {
			if call, ok := saturatingOperandsOf(inner, t); ok {
				return call, true
			}
			return ir.SaturatingCastTo(t, inner), true
		}
		return nil, false
	}

	// min(widening_add(x, y), upper) -> saturating_add(x, y), or, with no
	// widening op underneath, a plain saturating narrowing cast: valid
	// with no lower clamp only when the clamped value is itself unsigned.
	if minB, ok := n.X.(*ir.Binary); ok && minB.Op == ir.OpMin {
		wideT := minB.X.ExprType()
		if wideT.IsUint() && isTypeBound(minB.Y, wideT, t, true) {
			if call, ok := saturatingOperandsOf(minB.X, t); ok {
				return call, true
			}
			return ir.SaturatingCastTo(t, minB.X), true
		}
	}
	// max(widening_sub(x, y), lower) -> saturating_sub(x, y), uint target
	// only: unsigned subtraction cannot overflow the upper bound, so there
	// is no enclosing min.
	if t.IsUint() {
		if maxB, ok := n.X.(*ir.Binary); ok && maxB.Op == ir.OpMax {
			wideT := maxB.X.ExprType()
			if isTypeBound(maxB.Y, wideT, t, false) {
				if call, ok := maxB.X.(*ir.Call); ok && call.Name == ir.WideningSub && call.Args[0].ExprType().Equal(t) {
					return ir.Saturating(ir.SaturatingSub, call.Args[0], call.Args[1]), true
				}
			}
		}
	}
	return nil, false
}

// saturatingOperandsOf recognizes inner as widening_add(x, y) or
// widening_sub(x, y) with x (and so y) already at the clamp's target
// width, and builds the corresponding saturating_add/saturating_sub.
func saturatingOperandsOf(inner ir.Expr, t ir.Type) (ir.Expr, bool) {
	call, ok := inner.(*ir.Call)
	if !ok || !call.Args[0].ExprType().Equal(t) {
		return nil, false
	}
	switch call.Name {
	case ir.WideningAdd:
		return ir.Saturating(ir.SaturatingAdd, call.Args[0], call.Args[1]), true
	case ir.WideningSub:
		return ir.Saturating(ir.SaturatingSub, call.Args[0], call.Args[1]), true
	}
	return nil, false
}

// recognizeCall implements the reference/semantic-path shape of the
// saturating family: intrin.LowerSemantic wraps saturating_add,
// saturating_sub, mul_shift_right, and rounding_mul_shift_right results
// in saturating_cast(t, ...) (its saturatingNarrow helper) rather than a
// plain Cast, since narrowing them can itself overflow. By the time this
// node is visited, Recognize's bottom-up pass has already turned any
// nested widen-cast add/sub into a widening_add/widening_sub Call, and
// any nested shift_right(widening_mul(...)) into an (unsaturated)
// mul_shift_right Call (recognizeShiftRight) — so what's left here is
// either one of those Calls to unwrap, or a redundant saturating_cast
// whose operand is already exactly t (spec.md §8 Testable Property 1).
func recognizeCall(n *ir.Call) ir.Expr {
	if n.Name != ir.SaturatingCast {
		return n
	}
	t, x := n.Typ, n.Args[0]
	if x.ExprType().Equal(t) {
		return x
	}
	if call, ok := saturatingOperandsOf(x, t); ok {
		return call
	}
	return n
}

// toRoundingShift implements spec.md §4.1's general rounding_shift_right
// rule: shift_right(a, b), where b is a positive constant, recognizes as
// rounding_shift_right(residual, b) whenever the exact round constant
// 2^(b-1) can be found and removed from a's Add/Sub tree (findAndSubtract)
// without changing a's value modulo overflow, and doing so is safe
// (noOverflow(a's type) or isSafeForAdd(residual) proves there's headroom
// for the removed term). When the residual left behind is itself a
// widening_mul, the result is folded directly into
// rounding_mul_shift_right instead of wrapping a generic
// rounding_shift_right around a multiply. Grounded on FindIntrinsics.cpp's
// to_rounding_shift; the reinterpret-wrapped widen_right_add special case
// it also handles is not implemented here (see DESIGN.md).
func toRoundingShift(a, shiftAmt ir.Expr) (ir.Expr, bool) {
	shiftVal, ok := isConstInt(shiftAmt)
	if !ok || shiftVal <= 0 {
		return nil, false
	}
	t := a.ExprType()
	if t.IsFloat() {
		return nil, false
	}
	var round ir.Expr
	if t.IsUint() {
		round = ir.Uint64(t, uint64(1)<<uint(shiftVal-1))
	} else {
		round = ir.Int64(t, int64(1)<<uint(shiftVal-1))
	}
	residual, found := findAndSubtract(a, round)
	if !found {
		return nil, false
	}
	residual = stripZeroAdd(residual)
	if !noOverflow(t) && !isSafeForAdd(residual) {
		return nil, false
	}
	if mul, ok := residual.(*ir.Call); ok && mul.Name == ir.WideningMul {
		return ir.MulShift(ir.RoundingMulShift, mul.Args[0], mul.Args[1], shiftAmt), true
	}
	return ir.RoundingShift(ir.RoundingShiftR, residual, shiftAmt), true
}

// stripZeroAdd drops a literal +0 left over when findAndSubtract removes
// the round constant from one whole side of an Add (the original's
// find_and_subtract has the same artifact; it relies on a general
// simplifier pass this package doesn't have to clean it up).
func stripZeroAdd(e ir.Expr) ir.Expr {
	if b, ok := e.(*ir.Binary); ok && b.Op == ir.OpAdd {
		zero := zeroOf(b.ExprType())
		if exprEqualConst(b.X, zero) {
			return b.Y
		}
		if exprEqualConst(b.Y, zero) {
			return b.X
		}
	}
	return e
}
