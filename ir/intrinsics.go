package ir

// Intrinsic names recognised by intrin.Recognize/intrin.Lower and by the
// emitter's lowering fallback (spec.md §3's intrinsic family and §4.4's
// "All listed higher-order intrinsics ... are resolved by calling the
// lowerer"). Every intrinsic is represented in the tree as a *Call with
// one of these names; these constructors exist so callers never need to
// spell the name string or get the result type's arithmetic wrong.
const (
	WideningAdd      = "widening_add"
	WideningSub      = "widening_sub"
	WideningMul      = "widening_mul"
	WidenRightAdd    = "widen_right_add"
	WidenRightSub    = "widen_right_sub"
	WidenRightMul    = "widen_right_mul"
	WideningShiftL   = "widening_shift_left"
	WideningShiftR   = "widening_shift_right"
	RoundingShiftL   = "rounding_shift_left"
	RoundingShiftR   = "rounding_shift_right"
	SaturatingAdd    = "saturating_add"
	SaturatingSub    = "saturating_sub"
	SaturatingCast   = "saturating_cast"
	HalvingAdd       = "halving_add"
	HalvingSub       = "halving_sub"
	RoundingHalvAdd  = "rounding_halving_add"
	MulShiftRight    = "mul_shift_right"
	RoundingMulShift = "rounding_mul_shift_right"
	Absd             = "absd"
	SortedAvg        = "sorted_avg"
)

// intrinsicNames lists every name above, in declaration order, for
// callers (e.g. the emitter's dispatch table) that need to enumerate
// them rather than switch on a literal.
var intrinsicNames = []string{
	WideningAdd, WideningSub, WideningMul,
	WidenRightAdd, WidenRightSub, WidenRightMul,
	WideningShiftL, WideningShiftR,
	RoundingShiftL, RoundingShiftR,
	SaturatingAdd, SaturatingSub, SaturatingCast,
	HalvingAdd, HalvingSub, RoundingHalvAdd,
	MulShiftRight, RoundingMulShift,
	Absd, SortedAvg,
}

// IsIntrinsic reports whether name is one of the intrinsics above.
func IsIntrinsic(name string) bool {
	for _, n := range intrinsicNames {
		if n == name {
			return true
		}
	}
	return false
}

// Widening builds widening_{add,sub,mul}(x, y): x and y must share a
// type narrower than the result, per spec.md §3 ("result type is
// x.type.widen(); both operands same narrow type").
func Widening(op string, x, y Expr) *Call {
	return &Call{Typ: x.ExprType().Widen(), Name: op, Args: []Expr{x, y}}
}

// WidenRight builds widen_right_{add,sub,mul}(wide, narrow): the first
// operand is already widened, the second is narrow and implicitly
// widened before the operation.
func WidenRight(op string, wide, narrow Expr) *Call {
	return &Call{Typ: wide.ExprType(), Name: op, Args: []Expr{wide, narrow}}
}

// WideningShift builds widening_shift_{left,right}(x, y): x is widened,
// then shifted by y.
func WideningShift(op string, x, y Expr) *Call {
	return &Call{Typ: x.ExprType().Widen(), Name: op, Args: []Expr{x, y}}
}

// RoundingShift builds rounding_shift_{left,right}(x, y), same type as x.
func RoundingShift(op string, x, y Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: op, Args: []Expr{x, y}}
}

// Saturating builds saturating_{add,sub}(x, y), same type as x.
func Saturating(op string, x, y Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: op, Args: []Expr{x, y}}
}

// SaturatingCastTo builds saturating_cast(t, x).
func SaturatingCastTo(t Type, x Expr) *Call {
	return &Call{Typ: t, Name: SaturatingCast, Args: []Expr{x}}
}

// Halving builds halving_{add,sub}(x, y) / rounding_halving_add(x, y),
// same type as x.
func Halving(op string, x, y Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: op, Args: []Expr{x, y}}
}

// MulShift builds mul_shift_right(x, y, q), same type as x; q is the
// shift amount, always an i32 scalar immediate or expression.
func MulShift(op string, x, y, q Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: op, Args: []Expr{x, y, q}}
}

// AbsDiff builds absd(x, y): result type is the unsigned type of the
// same width as x (spec.md §3: "in the unsigned type of the same width").
func AbsDiff(x, y Expr) *Call {
	return &Call{Typ: x.ExprType().WithCode(Uint), Name: Absd, Args: []Expr{x, y}}
}

// SortedAverage builds sorted_avg(x, y), same type as x.
func SortedAverage(x, y Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: SortedAvg, Args: []Expr{x, y}}
}

// Abs builds abs(x): the ordinary (non-widening) absolute value builtin,
// same type as x. It is not itself one of the intrinsics above — nothing
// lowers an "abs" Call directly — but intrin.Recognize matches
// cast(t, abs(widening_sub(x, y))) and folds it to absd(x, y), so front
// ends constructing an absolute-difference expression the naive way
// build it out of Abs and WideningSub rather than calling AbsDiff
// themselves.
func Abs(x Expr) *Call {
	return &Call{Typ: x.ExprType(), Name: "abs", Args: []Expr{x}}
}
