package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// emitBinary selects the SPIR-V opcode for n.Op given the operand type
// (signed/unsigned/float selection matters for div/mod/shift/compare/
// min/max, none of which SPIR-V expresses with one opcode across codes).
func (e *Emitter) emitBinary(n *ir.Binary) (uint32, error) {
	x, err := e.emitExpr(n.X)
	if err != nil {
		return 0, err
	}
	y, err := e.emitExpr(n.Y)
	if err != nil {
		return 0, err
	}
	operandType := n.X.ExprType()
	resultType := e.types.spirvType(n.Typ)

	if n.Op == ir.OpMin || n.Op == ir.OpMax {
		return e.b.ExtInst(resultType, minMaxInst(n.Op, operandType), x, y), nil
	}

	op, err := binaryOpcode(n.Op, operandType)
	if err != nil {
		return 0, err
	}
	return e.b.Binary(op, resultType, x, y), nil
}

func minMaxInst(op ir.BinOp, t ir.Type) uint32 {
	switch {
	case t.IsFloat() && op == ir.OpMin:
		return glslFMin
	case t.IsFloat():
		return glslFMax
	case t.IsUint() && op == ir.OpMin:
		return glslUMin
	case t.IsUint():
		return glslUMax
	case op == ir.OpMin:
		return glslSMin
	default:
		return glslSMax
	}
}

func binaryOpcode(op ir.BinOp, t ir.Type) (spirv.OpCode, error) {
	isFloat := t.IsFloat()
	isUint := t.IsUint()
	switch op {
	case ir.OpAdd:
		if isFloat {
			return spirv.OpFAdd, nil
		}
		return spirv.OpIAdd, nil
	case ir.OpSub:
		if isFloat {
			return spirv.OpFSub, nil
		}
		return spirv.OpISub, nil
	case ir.OpMul:
		if isFloat {
			return spirv.OpFMul, nil
		}
		return spirv.OpIMul, nil
	case ir.OpDiv:
		switch {
		case isFloat:
			return spirv.OpFDiv, nil
		case isUint:
			return spirv.OpUDiv, nil
		default:
			return spirv.OpSDiv, nil
		}
	case ir.OpMod:
		switch {
		case isFloat:
			return spirv.OpFMod, nil
		case isUint:
			return spirv.OpUMod, nil
		default:
			return spirv.OpSMod, nil
		}
	case ir.OpEQ:
		if isFloat {
			return spirv.OpFOrdEqual, nil
		}
		return spirv.OpIEqual, nil
	case ir.OpNE:
		if isFloat {
			return spirv.OpFOrdNotEqual, nil
		}
		return spirv.OpINotEqual, nil
	case ir.OpLT:
		switch {
		case isFloat:
			return spirv.OpFOrdLessThan, nil
		case isUint:
			return spirv.OpULessThan, nil
		default:
			return spirv.OpSLessThan, nil
		}
	case ir.OpLE:
		switch {
		case isFloat:
			return spirv.OpFOrdLessThanEqual, nil
		case isUint:
			return spirv.OpULessThanEqual, nil
		default:
			return spirv.OpSLessThanEqual, nil
		}
	case ir.OpGT:
		switch {
		case isFloat:
			return spirv.OpFOrdGreaterThan, nil
		case isUint:
			return spirv.OpUGreaterThan, nil
		default:
			return spirv.OpSGreaterThan, nil
		}
	case ir.OpGE:
		switch {
		case isFloat:
			return spirv.OpFOrdGreaterThanEqual, nil
		case isUint:
			return spirv.OpUGreaterThanEqual, nil
		default:
			return spirv.OpSGreaterThanEqual, nil
		}
	case ir.OpAnd:
		if t.IsBool() {
			return spirv.OpLogicalAnd, nil
		}
		return spirv.OpBitwiseAnd, nil
	case ir.OpOr:
		if t.IsBool() {
			return spirv.OpLogicalOr, nil
		}
		return spirv.OpBitwiseOr, nil
	case ir.OpXor:
		return spirv.OpBitwiseXor, nil
	case ir.OpShl:
		return spirv.OpShiftLeftLogical, nil
	case ir.OpShr:
		if isUint {
			return spirv.OpShiftRightLogical, nil
		}
		return spirv.OpShiftRightArithmetic, nil
	default:
		return 0, unsupported("binary operator " + op.String())
	}
}
