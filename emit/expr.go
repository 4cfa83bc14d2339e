package emit

import (
	"math"

	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// emitExpr lowers e to a sequence of SPIR-V instructions and returns the
// id of its result value. The caller must have already run
// recognizeAndLower over e so no recognizer/lowerer intrinsic names
// remain.
func (e *Emitter) emitExpr(expr ir.Expr) (uint32, error) {
	switch n := expr.(type) {
	case *ir.Imm:
		return e.emitImm(n)
	case *ir.Var:
		return e.emitVar(n)
	case *ir.Cast:
		return e.emitCast(n)
	case *ir.Reinterpret:
		x, err := e.emitExpr(n.X)
		if err != nil {
			return 0, err
		}
		return e.b.Unary(spirv.OpBitcast, e.types.spirvType(n.Typ), x), nil
	case *ir.Binary:
		return e.emitBinary(n)
	case *ir.Not:
		x, err := e.emitExpr(n.X)
		if err != nil {
			return 0, err
		}
		t := n.ExprType()
		op := spirv.OpNot
		if t.IsBool() {
			op = spirv.OpLogicalNot
		}
		return e.b.Unary(op, e.types.spirvType(t), x), nil
	case *ir.Select:
		cond, err := e.emitExpr(n.Cond)
		if err != nil {
			return 0, err
		}
		t, err := e.emitExpr(n.T)
		if err != nil {
			return 0, err
		}
		f, err := e.emitExpr(n.F)
		if err != nil {
			return 0, err
		}
		return e.b.Select(e.types.spirvType(n.Typ), cond, t, f), nil
	case *ir.Load:
		return e.emitLoad(n)
	case *ir.Broadcast:
		return e.emitBroadcast(n)
	case *ir.Shuffle:
		return e.emitShuffle(n)
	case *ir.Call:
		return e.emitCall(n)
	case *ir.Let:
		v, err := e.emitExpr(n.Value)
		if err != nil {
			return 0, err
		}
		saved, had := e.scope[n.Name]
		e.scope[n.Name] = symbol{typ: n.Value.ExprType(), value: v}
		result, err := e.emitExpr(n.Body)
		if had {
			e.scope[n.Name] = saved
		} else {
			delete(e.scope, n.Name)
		}
		return result, err
	default:
		return 0, unsupported(nodeKind(expr))
	}
}

func nodeKind(expr ir.Expr) string {
	switch expr.(type) {
	case *ir.Ramp:
		return "Ramp"
	default:
		return "unknown expression node"
	}
}

func (e *Emitter) emitImm(n *ir.Imm) (uint32, error) {
	t := e.types.spirvType(n.Typ)
	switch n.Kind {
	case ir.ImmInt:
		return e.b.ConstScalar(t, n.Typ.Bits(), uint64(n.I)&bitMask(n.Typ.Bits())), nil
	case ir.ImmUint:
		return e.b.ConstScalar(t, n.Typ.Bits(), n.U&bitMask(n.Typ.Bits())), nil
	case ir.ImmFloat:
		if n.Typ.Bits() == 64 {
			return e.b.ConstFloat64(t, n.F), nil
		}
		return e.b.ConstFloat32(t, float32(n.F)), nil
	default:
		return 0, unsupported("string immediate (unresolved buffer-name literal)")
	}
}

func bitMask(bits uint8) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << bits) - 1
}

func (e *Emitter) emitVar(n *ir.Var) (uint32, error) {
	s, err := e.lookup(n.Name)
	if err != nil {
		return 0, err
	}
	if s.pointer != 0 {
		return e.b.Load(e.types.spirvType(s.typ), s.pointer), nil
	}
	return s.value, nil
}

func (e *Emitter) emitBroadcast(n *ir.Broadcast) (uint32, error) {
	x, err := e.emitExpr(n.X)
	if err != nil {
		return 0, err
	}
	t := e.types.spirvType(n.ExprType())
	constituents := make([]uint32, n.Lanes)
	for i := range constituents {
		constituents[i] = x
	}
	return e.b.CompositeConstruct(t, constituents...), nil
}

func (e *Emitter) emitShuffle(n *ir.Shuffle) (uint32, error) {
	if len(n.Vectors) != 1 {
		return 0, unsupported("Shuffle over more than one source vector")
	}
	src, err := e.emitExpr(n.Vectors[0])
	if err != nil {
		return 0, err
	}
	if n.Typ.IsScalar() && len(n.Indices) == 1 {
		return e.b.Emit(spirv.OpCompositeExtract, e.types.spirvType(n.Typ), src, uint32(n.Indices[0])), nil
	}
	words := make([]uint32, len(n.Indices)+2)
	words[0] = src
	words[1] = src
	for i, idx := range n.Indices {
		words[i+2] = uint32(idx)
	}
	return e.b.Emit(spirv.OpVectorShuffle, e.types.spirvType(n.Typ), words...), nil
}
