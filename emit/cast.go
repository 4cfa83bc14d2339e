package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// emitCast selects the SPIR-V conversion opcode for n, following the
// target language's normal numeric conversion rules (ir.Cast's doc
// comment): same-code resizes use UConvert/SConvert/FConvert, int<->uint
// of the same width are a no-op reinterpretation (OpBitcast), and
// int<->float cross the OpConvert* family.
func (e *Emitter) emitCast(n *ir.Cast) (uint32, error) {
	x, err := e.emitExpr(n.X)
	if err != nil {
		return 0, err
	}
	src := n.X.ExprType()
	dst := n.Typ
	resultType := e.types.spirvType(dst)

	switch {
	case src.IsBool() || dst.IsBool():
		return 0, unsupported("Cast to/from bool (use Select on a comparison instead)")
	case src.IsFloat() && dst.IsFloat():
		if src.Bits() == dst.Bits() {
			return x, nil
		}
		return e.b.Unary(spirv.OpFConvert, resultType, x), nil
	case src.IsFloat() && dst.IsInt():
		return e.b.Unary(spirv.OpConvertFToS, resultType, x), nil
	case src.IsFloat() && dst.IsUint():
		return e.b.Unary(spirv.OpConvertFToU, resultType, x), nil
	case dst.IsFloat() && src.IsInt():
		return e.b.Unary(spirv.OpConvertSToF, resultType, x), nil
	case dst.IsFloat() && src.IsUint():
		return e.b.Unary(spirv.OpConvertUToF, resultType, x), nil
	case src.IsIntOrUint() && dst.IsIntOrUint():
		if src.Bits() == dst.Bits() {
			if src.Code() == dst.Code() {
				return x, nil
			}
			return e.b.Unary(spirv.OpBitcast, resultType, x), nil
		}
		if dst.IsUint() {
			return e.b.Unary(spirv.OpUConvert, resultType, x), nil
		}
		return e.b.Unary(spirv.OpSConvert, resultType, x), nil
	default:
		return 0, unsupported("Cast between unrecognized type codes")
	}
}
