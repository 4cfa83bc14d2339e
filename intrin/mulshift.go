package intrin

import "github.com/kforge/kforge/ir"

// lowerMulShiftRight implements mul_shift_right(a, b, q) as
// saturating_narrow(widening_mul(a, b) >> q), falling back to an exact
// narrow (no saturation needed) once q is provably >= a's bit width.
//
// The original also rewrites this to a "full precision" multiply when q
// is a constant strictly less than the narrow type's usable bit count,
// by shifting one operand left by the missing amount instead — an
// optimization that avoids ever forming the wide intermediate on targets
// where the wide type is expensive. This implementation always forms
// the wide intermediate; SPIR-V has no width at which that rewrite
// would be necessary for correctness, only for register pressure, so it
// is omitted here.
func lowerMulShiftRight(a, b, q ir.Expr) ir.Expr {
	wt := widen(a).ExprType()
	shiftedQ := matchWidth(wt, q)
	result := ir.NewShr(ir.NewMul(widen(a), widen(b)), shiftedQ)
	if qv, ok := isConstInt(q); ok && qv >= int64(a.ExprType().Bits()) {
		return narrow(result)
	}
	return saturatingNarrow(result)
}

// lowerRoundingMulShiftRight implements rounding_mul_shift_right(a, b, q),
// special-casing 32-bit signed with shift 31 via the 16x16 split scheme
// (see emulateSignedRoundingMulShiftRight31) to avoid 64-bit arithmetic.
// The special case applies unconditionally, as in the original;
// HL_ENABLE_RAKE_RULES does not gate it.
func lowerRoundingMulShiftRight(a, b, q ir.Expr) ir.Expr {
	t := a.ExprType()
	if qv, ok := isConstInt(q); ok && qv == 31 && t.Code() == ir.Int && t.Bits() == 32 {
		return emulateSignedRoundingMulShiftRight31(a, b)
	}
	result := lowerRoundingShiftRight(ir.NewMul(widen(a), widen(b)), matchWidth(widen(a).ExprType(), q))
	if qv, ok := isConstInt(q); ok && qv >= int64(t.Bits()) {
		return narrow(result)
	}
	return saturatingNarrow(result)
}

// emulateSignedMulShiftRight31 computes (a*b) >> 31 for 32-bit signed
// operands using four 16x16->32 widening multiplies instead of a
// 64-bit multiply, by splitting each operand into high/low 16-bit
// halves: a = (a_hi << 16) + a_lo, same for b.
func emulateSignedMulShiftRight31(a, b ir.Expr) ir.Expr {
	i16, u16 := ir.I16.WithLanes(a.ExprType().Lanes()), ir.U16.WithLanes(a.ExprType().Lanes())
	shift16 := ir.Int64(a.ExprType(), 16)

	aHi := ir.NewCast(i16, ir.NewShr(a, shift16))
	bHi := ir.NewCast(i16, ir.NewShr(b, shift16))
	aLo := ir.NewCast(u16, a)
	bLo := ir.NewCast(u16, b)

	abHi := ir.Widening(ir.WideningMul, aHi, bHi)
	abMid0 := ir.Widening(ir.WideningMul, aHi, bLo)
	abMid1 := ir.Widening(ir.WideningMul, bHi, aLo)
	abLo := ir.Widening(ir.WideningMul, aLo, bLo)

	shiftU32 := ir.Uint64(abLo.ExprType(), 16)
	abLoHi := ir.NewCast(abMid1.ExprType(), ir.NewShr(abLo, shiftU32))
	shift14 := ir.Int64(abMid0.ExprType(), 14)
	lo := ir.NewShr(
		lowerHalvingAdd(abMid0, ir.NewAdd(abMid1, abLoHi)),
		shift14,
	)
	return lowerSaturatingAdd(abHi, ir.NewAdd(abHi, lo))
}

// emulateSignedRoundingMulShiftRight31 is the rounding counterpart of
// emulateSignedMulShiftRight31: (a*b + (1<<30)) >> 31.
func emulateSignedRoundingMulShiftRight31(a, b ir.Expr) ir.Expr {
	i16, u16 := ir.I16.WithLanes(a.ExprType().Lanes()), ir.U16.WithLanes(a.ExprType().Lanes())
	shift16 := ir.Int64(a.ExprType(), 16)

	aHi := ir.NewCast(i16, ir.NewShr(a, shift16))
	bHi := ir.NewCast(i16, ir.NewShr(b, shift16))
	aLo := ir.NewCast(u16, a)
	bLo := ir.NewCast(u16, b)

	abHi := ir.Widening(ir.WideningMul, aHi, bHi)
	abMid0 := ir.Widening(ir.WideningMul, aHi, bLo)
	abMid1 := ir.Widening(ir.WideningMul, bHi, aLo)
	abLoShifted := lowerMulShiftRight(aLo, bLo, ir.Uint64(u16, 16))
	abLoShiftedWide := ir.NewCast(abMid1.ExprType(), abLoShifted)

	c14 := ir.Int64(abMid0.ExprType(), 1<<14)
	shift14 := ir.Int64(abMid0.ExprType(), 14)
	lo := ir.NewShr(
		lowerHalvingAdd(ir.NewAdd(abMid0, c14), ir.NewAdd(abMid1, abLoShiftedWide)),
		shift14,
	)
	return lowerSaturatingAdd(abHi, ir.NewAdd(abHi, lo))
}
