package ir

// Expr is an expression node: it evaluates to a typed value. Every
// concrete expression type owns its children directly (no arena, no
// handles); sharing across the tree is expressed with Let bindings,
// never with back-references.
type Expr interface {
	// ExprType returns the static type the node evaluates to.
	ExprType() Type
	exprNode()
}

// ImmKind distinguishes the literal kinds Imm can carry, per spec.md's
// Imm(int|uint|float|str) variant.
type ImmKind uint8

const (
	ImmInt ImmKind = iota
	ImmUint
	ImmFloat
	ImmStr
)

// Imm is a constant literal.
type Imm struct {
	Typ  Type
	Kind ImmKind
	I    int64
	U    uint64
	F    float64
	S    string
}

func (e *Imm) ExprType() Type { return e.Typ }
func (*Imm) exprNode()        {}

// Int64 builds a signed-integer immediate.
func Int64(t Type, v int64) *Imm { return &Imm{Typ: t, Kind: ImmInt, I: v} }

// Uint64 builds an unsigned-integer immediate.
func Uint64(t Type, v uint64) *Imm { return &Imm{Typ: t, Kind: ImmUint, U: v} }

// Float64 builds a floating-point immediate.
func Float64(t Type, v float64) *Imm { return &Imm{Typ: t, Kind: ImmFloat, F: v} }

// Str builds a string-literal immediate (used for named-buffer/handle
// references lowered later to a Var).
func Str(v string) *Imm { return &Imm{Typ: Handle, Kind: ImmStr, S: v} }

// Var is a reference to a named value bound by Let, LetStmt, a For loop
// variable, or a function/kernel parameter.
type Var struct {
	Typ  Type
	Name string
}

func (e *Var) ExprType() Type { return e.Typ }
func (*Var) exprNode()        {}

// NewVar builds a Var reference.
func NewVar(name string, t Type) *Var { return &Var{Typ: t, Name: name} }

// Cast converts X to Typ using the target language's normal numeric
// conversion rules (see emit.Emitter for the concrete SPIR-V opcode
// selection table).
type Cast struct {
	Typ Type
	X   Expr
}

func (e *Cast) ExprType() Type { return e.Typ }
func (*Cast) exprNode()        {}

// NewCast builds a Cast node.
func NewCast(t Type, x Expr) *Cast { return &Cast{Typ: t, X: x} }

// Reinterpret bit-casts X to Typ without numeric conversion (same total
// width required).
type Reinterpret struct {
	Typ Type
	X   Expr
}

func (e *Reinterpret) ExprType() Type { return e.Typ }
func (*Reinterpret) exprNode()        {}

// NewReinterpret builds a Reinterpret node.
func NewReinterpret(t Type, x Expr) *Reinterpret { return &Reinterpret{Typ: t, X: x} }

// BinOp is the opcode of a Binary node.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMin
	OpMax
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
)

func (op BinOp) String() string {
	names := [...]string{"Add", "Sub", "Mul", "Div", "Mod", "Min", "Max",
		"EQ", "NE", "LT", "LE", "GT", "GE", "And", "Or", "Xor", "Shl", "Shr"}
	if int(op) < len(names) {
		return names[op]
	}
	return "BinOp(?)"
}

// IsComparison reports whether op always produces a Bool result.
func (op BinOp) IsComparison() bool {
	switch op {
	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE:
		return true
	default:
		return false
	}
}

// Binary is a binary arithmetic, comparison, or logical operation.
// Comparisons carry their own Bool result type (with the operand's lane
// count); arithmetic, And/Or/Xor, shifts and Min/Max preserve the
// operand type, which is required to match between X and Y.
type Binary struct {
	Op   BinOp
	Typ  Type
	X, Y Expr
}

func (e *Binary) ExprType() Type { return e.Typ }
func (*Binary) exprNode()        {}

func resultTypeFor(op BinOp, x Type) Type {
	if op.IsComparison() {
		return x.WithCode(Bool).WithBits(1)
	}
	return x
}

func newBinary(op BinOp, x, y Expr) *Binary {
	xt := x.ExprType()
	return &Binary{Op: op, Typ: resultTypeFor(op, xt), X: x, Y: y}
}

func NewAdd(x, y Expr) *Binary { return newBinary(OpAdd, x, y) }
func NewSub(x, y Expr) *Binary { return newBinary(OpSub, x, y) }
func NewMul(x, y Expr) *Binary { return newBinary(OpMul, x, y) }
func NewDiv(x, y Expr) *Binary { return newBinary(OpDiv, x, y) }
func NewMod(x, y Expr) *Binary { return newBinary(OpMod, x, y) }
func NewMin(x, y Expr) *Binary { return newBinary(OpMin, x, y) }
func NewMax(x, y Expr) *Binary { return newBinary(OpMax, x, y) }
func NewEQ(x, y Expr) *Binary  { return newBinary(OpEQ, x, y) }
func NewNE(x, y Expr) *Binary  { return newBinary(OpNE, x, y) }
func NewLT(x, y Expr) *Binary  { return newBinary(OpLT, x, y) }
func NewLE(x, y Expr) *Binary  { return newBinary(OpLE, x, y) }
func NewGT(x, y Expr) *Binary  { return newBinary(OpGT, x, y) }
func NewGE(x, y Expr) *Binary  { return newBinary(OpGE, x, y) }
func NewAnd(x, y Expr) *Binary { return newBinary(OpAnd, x, y) }
func NewOr(x, y Expr) *Binary  { return newBinary(OpOr, x, y) }
func NewXor(x, y Expr) *Binary { return newBinary(OpXor, x, y) }
func NewShl(x, y Expr) *Binary { return newBinary(OpShl, x, y) }
func NewShr(x, y Expr) *Binary { return newBinary(OpShr, x, y) }

// Not is boolean/bitwise negation.
type Not struct {
	X Expr
}

func (e *Not) ExprType() Type { return e.X.ExprType() }
func (*Not) exprNode()        {}

// NewNot builds a Not node.
func NewNot(x Expr) *Not { return &Not{X: x} }

// Select is a ternary: Cond ? T : F, lane-wise when vector.
type Select struct {
	Typ        Type
	Cond, T, F Expr
}

func (e *Select) ExprType() Type { return e.Typ }
func (*Select) exprNode()        {}

// NewSelect builds a Select node; Typ is taken from T.
func NewSelect(cond, t, f Expr) *Select {
	return &Select{Typ: t.ExprType(), Cond: cond, T: t, F: f}
}

// Load reads Typ from Buffer at Index, optionally guarded by Pred
// (a predicated/masked vector load scalarised by emit.scalarizePredicated
// when it cannot be emitted directly).
type Load struct {
	Typ    Type
	Buffer string
	Index  Expr
	Pred   Expr // nil for an unconditional load
}

func (e *Load) ExprType() Type { return e.Typ }
func (*Load) exprNode()        {}

// NewLoad builds an unconditional Load node.
func NewLoad(t Type, buffer string, index Expr) *Load {
	return &Load{Typ: t, Buffer: buffer, Index: index}
}

// Ramp is an affine lane sequence Base, Base+Stride, ..., Base+(Lanes-1)*Stride,
// used to express vector loads/stores and vectorised loop indices.
type Ramp struct {
	Base, Stride Expr
	Lanes        uint16
}

func (e *Ramp) ExprType() Type { return e.Base.ExprType().WithLanes(e.Lanes) }
func (*Ramp) exprNode()        {}

// NewRamp builds a Ramp node.
func NewRamp(base, stride Expr, lanes uint16) *Ramp {
	return &Ramp{Base: base, Stride: stride, Lanes: lanes}
}

// Broadcast splays a scalar across Lanes lanes.
type Broadcast struct {
	X     Expr
	Lanes uint16
}

func (e *Broadcast) ExprType() Type { return e.X.ExprType().WithLanes(e.Lanes) }
func (*Broadcast) exprNode()        {}

// NewBroadcast builds a Broadcast node.
func NewBroadcast(x Expr, lanes uint16) *Broadcast {
	return &Broadcast{X: x, Lanes: lanes}
}

// Shuffle selects lanes from Vectors (concatenated) by Indices, the way
// OpVectorShuffle does.
type Shuffle struct {
	Typ     Type
	Vectors []Expr
	Indices []int32
}

func (e *Shuffle) ExprType() Type { return e.Typ }
func (*Shuffle) exprNode()        {}

// NewShuffle builds a Shuffle node.
func NewShuffle(t Type, vectors []Expr, indices []int32) *Shuffle {
	return &Shuffle{Typ: t, Vectors: vectors, Indices: indices}
}

// Call is a named-function invocation: an ordinary intrinsic (dispatched
// by the emitter's name table, e.g. "sin_f32"), a GPU built-in accessor,
// or one of the recognizer/lowerer's intrinsics (see intrinsics.go).
type Call struct {
	Typ  Type
	Name string
	Args []Expr
}

func (e *Call) ExprType() Type { return e.Typ }
func (*Call) exprNode()        {}

// NewCall builds a Call node.
func NewCall(t Type, name string, args ...Expr) *Call {
	return &Call{Typ: t, Name: name, Args: args}
}

// Let binds Name to Value within Body; it is the tree's only sharing
// mechanism. Let is an expression (unlike LetStmt, which binds within a
// statement sequence).
type Let struct {
	Name  string
	Value Expr
	Body  Expr
}

func (e *Let) ExprType() Type { return e.Body.ExprType() }
func (*Let) exprNode()        {}

// NewLet builds a Let node.
func NewLet(name string, value, body Expr) *Let {
	return &Let{Name: name, Value: value, Body: body}
}
