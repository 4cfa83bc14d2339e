package intrin

import (
	"math"

	"github.com/kforge/kforge/ir"
	"github.com/pkg/errors"
)

// Eval bit-exactly evaluates e, which must contain only immediates,
// casts/reinterprets, arithmetic/comparison/Not/select nodes, Let
// bindings and the variables they bind, and intrinsic Calls (which are
// resolved by recursively lowering them via Lower before evaluating).
// It exists to check Lower/LowerSemantic's output against literal
// expected values (spec.md §8 scenarios S3, S4) without standing up a
// full interpreter for the rest of the IR (buffers, loops, free
// variables).
func Eval(e ir.Expr) (EvalValue, error) {
	return evalEnv(e, nil)
}

func evalEnv(e ir.Expr, env map[string]EvalValue) (EvalValue, error) {
	switch n := e.(type) {
	case *ir.Imm:
		return immToValue(n), nil
	case *ir.Var:
		if v, ok := env[n.Name]; ok {
			return v, nil
		}
		return EvalValue{}, errors.Errorf("intrin: Eval: free variable %q has no value", n.Name)
	case *ir.Cast:
		v, err := evalEnv(n.X, env)
		if err != nil {
			return EvalValue{}, err
		}
		return castValue(n.Typ, v), nil
	case *ir.Reinterpret:
		v, err := evalEnv(n.X, env)
		if err != nil {
			return EvalValue{}, err
		}
		return EvalValue{Typ: n.Typ, Raw: v.Raw}, nil
	case *ir.Binary:
		x, err := evalEnv(n.X, env)
		if err != nil {
			return EvalValue{}, err
		}
		y, err := evalEnv(n.Y, env)
		if err != nil {
			return EvalValue{}, err
		}
		return evalBinary(n.Op, n.Typ, x, y)
	case *ir.Not:
		v, err := evalEnv(n.X, env)
		if err != nil {
			return EvalValue{}, err
		}
		return notValue(v), nil
	case *ir.Select:
		cond, err := evalEnv(n.Cond, env)
		if err != nil {
			return EvalValue{}, err
		}
		if cond.Raw != 0 {
			return evalEnv(n.T, env)
		}
		return evalEnv(n.F, env)
	case *ir.Let:
		v, err := evalEnv(n.Value, env)
		if err != nil {
			return EvalValue{}, err
		}
		child := make(map[string]EvalValue, len(env)+1)
		for k, val := range env {
			child[k] = val
		}
		child[n.Name] = v
		return evalEnv(n.Body, child)
	case *ir.Call:
		if !ir.IsIntrinsic(n.Name) {
			return EvalValue{}, errors.Errorf("intrin: Eval: unsupported call %q", n.Name)
		}
		lowered, err := Lower(n)
		if err != nil {
			return EvalValue{}, err
		}
		return evalEnv(lowered, env)
	default:
		return EvalValue{}, errors.Errorf("intrin: Eval: unsupported node %T", e)
	}
}

// EvalValue is a bit-exact scalar result: Raw holds the two's-complement
// bit pattern (masked to Typ.Bits()) for int/uint/bool types, F the
// value for float types.
type EvalValue struct {
	Typ ir.Type
	Raw uint64
	F   float64
}

func maskOf(bits uint8) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << bits) - 1
}

func signExtend(raw uint64, bits uint8) int64 {
	if bits >= 64 {
		return int64(raw)
	}
	sign := uint64(1) << (bits - 1)
	if raw&sign != 0 {
		return int64(raw) - int64(uint64(1)<<bits)
	}
	return int64(raw)
}

func immToValue(imm *ir.Imm) EvalValue {
	t := imm.Typ
	if t.IsFloat() {
		switch imm.Kind {
		case ir.ImmFloat:
			return EvalValue{Typ: t, F: imm.F}
		case ir.ImmInt:
			return EvalValue{Typ: t, F: float64(imm.I)}
		default:
			return EvalValue{Typ: t, F: float64(imm.U)}
		}
	}
	var raw uint64
	switch imm.Kind {
	case ir.ImmUint:
		raw = imm.U
	default:
		raw = uint64(imm.I)
	}
	return EvalValue{Typ: t, Raw: raw & maskOf(t.Bits())}
}

func castValue(to ir.Type, v EvalValue) EvalValue {
	from := v.Typ
	switch {
	case from.IsFloat() && to.IsFloat():
		return EvalValue{Typ: to, F: v.F}
	case from.IsFloat() && to.IsInt():
		return EvalValue{Typ: to, Raw: uint64(int64(v.F)) & maskOf(to.Bits())}
	case from.IsFloat() && to.IsUint():
		return EvalValue{Typ: to, Raw: uint64(v.F) & maskOf(to.Bits())}
	case to.IsFloat() && from.IsInt():
		return EvalValue{Typ: to, F: float64(signExtend(v.Raw, from.Bits()))}
	case to.IsFloat() && from.IsUint():
		return EvalValue{Typ: to, F: float64(v.Raw)}
	default: // int/uint <-> int/uint
		var asInt64 int64
		if from.IsInt() {
			asInt64 = signExtend(v.Raw, from.Bits())
		} else {
			asInt64 = int64(v.Raw)
		}
		return EvalValue{Typ: to, Raw: uint64(asInt64) & maskOf(to.Bits())}
	}
}

func notValue(v EvalValue) EvalValue {
	if v.Typ.IsBool() {
		if v.Raw == 0 {
			return EvalValue{Typ: v.Typ, Raw: 1}
		}
		return EvalValue{Typ: v.Typ, Raw: 0}
	}
	return EvalValue{Typ: v.Typ, Raw: (^v.Raw) & maskOf(v.Typ.Bits())}
}

func boolValue(t ir.Type, b bool) EvalValue {
	bt := t.WithCode(ir.Bool).WithBits(1)
	if b {
		return EvalValue{Typ: bt, Raw: 1}
	}
	return EvalValue{Typ: bt, Raw: 0}
}

func evalBinary(op ir.BinOp, resultType ir.Type, x, y EvalValue) (EvalValue, error) {
	t := x.Typ
	bits := t.Bits()
	mask := maskOf(bits)

	if t.IsFloat() {
		switch op {
		case ir.OpAdd:
			return EvalValue{Typ: t, F: x.F + y.F}, nil
		case ir.OpSub:
			return EvalValue{Typ: t, F: x.F - y.F}, nil
		case ir.OpMul:
			return EvalValue{Typ: t, F: x.F * y.F}, nil
		case ir.OpDiv:
			return EvalValue{Typ: t, F: x.F / y.F}, nil
		case ir.OpMin:
			return EvalValue{Typ: t, F: math.Min(x.F, y.F)}, nil
		case ir.OpMax:
			return EvalValue{Typ: t, F: math.Max(x.F, y.F)}, nil
		case ir.OpEQ:
			return boolValue(t, x.F == y.F), nil
		case ir.OpNE:
			return boolValue(t, x.F != y.F), nil
		case ir.OpLT:
			return boolValue(t, x.F < y.F), nil
		case ir.OpLE:
			return boolValue(t, x.F <= y.F), nil
		case ir.OpGT:
			return boolValue(t, x.F > y.F), nil
		case ir.OpGE:
			return boolValue(t, x.F >= y.F), nil
		}
		return EvalValue{}, errors.Errorf("intrin: Eval: unsupported float op %v", op)
	}

	if t.IsUint() {
		xu, yu := x.Raw, y.Raw
		switch op {
		case ir.OpAdd:
			return EvalValue{Typ: t, Raw: (xu + yu) & mask}, nil
		case ir.OpSub:
			return EvalValue{Typ: t, Raw: (xu - yu) & mask}, nil
		case ir.OpMul:
			return EvalValue{Typ: t, Raw: (xu * yu) & mask}, nil
		case ir.OpDiv:
			return EvalValue{Typ: t, Raw: (xu / yu) & mask}, nil
		case ir.OpMod:
			return EvalValue{Typ: t, Raw: (xu % yu) & mask}, nil
		case ir.OpMin:
			if xu < yu {
				return EvalValue{Typ: t, Raw: xu}, nil
			}
			return EvalValue{Typ: t, Raw: yu}, nil
		case ir.OpMax:
			if xu > yu {
				return EvalValue{Typ: t, Raw: xu}, nil
			}
			return EvalValue{Typ: t, Raw: yu}, nil
		case ir.OpAnd:
			return EvalValue{Typ: t, Raw: xu & yu}, nil
		case ir.OpOr:
			return EvalValue{Typ: t, Raw: xu | yu}, nil
		case ir.OpXor:
			return EvalValue{Typ: t, Raw: xu ^ yu}, nil
		case ir.OpShl:
			return EvalValue{Typ: t, Raw: (xu << yu) & mask}, nil
		case ir.OpShr:
			return EvalValue{Typ: t, Raw: (xu >> yu) & mask}, nil
		case ir.OpEQ:
			return boolValue(t, xu == yu), nil
		case ir.OpNE:
			return boolValue(t, xu != yu), nil
		case ir.OpLT:
			return boolValue(t, xu < yu), nil
		case ir.OpLE:
			return boolValue(t, xu <= yu), nil
		case ir.OpGT:
			return boolValue(t, xu > yu), nil
		case ir.OpGE:
			return boolValue(t, xu >= yu), nil
		}
		return EvalValue{}, errors.Errorf("intrin: Eval: unsupported uint op %v", op)
	}

	// signed int (or bool, treated as 1-bit int for And/Or/Xor)
	xs, ys := signExtend(x.Raw, bits), signExtend(y.Raw, bits)
	switch op {
	case ir.OpAdd:
		return EvalValue{Typ: t, Raw: uint64(xs+ys) & mask}, nil
	case ir.OpSub:
		return EvalValue{Typ: t, Raw: uint64(xs-ys) & mask}, nil
	case ir.OpMul:
		return EvalValue{Typ: t, Raw: uint64(xs*ys) & mask}, nil
	case ir.OpDiv:
		return EvalValue{Typ: t, Raw: uint64(xs/ys) & mask}, nil
	case ir.OpMod:
		return EvalValue{Typ: t, Raw: uint64(xs%ys) & mask}, nil
	case ir.OpMin:
		if xs < ys {
			return EvalValue{Typ: t, Raw: x.Raw}, nil
		}
		return EvalValue{Typ: t, Raw: y.Raw}, nil
	case ir.OpMax:
		if xs > ys {
			return EvalValue{Typ: t, Raw: x.Raw}, nil
		}
		return EvalValue{Typ: t, Raw: y.Raw}, nil
	case ir.OpAnd:
		return EvalValue{Typ: t, Raw: x.Raw & y.Raw}, nil
	case ir.OpOr:
		return EvalValue{Typ: t, Raw: x.Raw | y.Raw}, nil
	case ir.OpXor:
		return EvalValue{Typ: t, Raw: x.Raw ^ y.Raw}, nil
	case ir.OpShl:
		return EvalValue{Typ: t, Raw: uint64(xs<<uint(ys)) & mask}, nil
	case ir.OpShr:
		return EvalValue{Typ: t, Raw: uint64(xs>>uint(ys)) & mask}, nil
	case ir.OpEQ:
		return boolValue(t, xs == ys), nil
	case ir.OpNE:
		return boolValue(t, xs != ys), nil
	case ir.OpLT:
		return boolValue(t, xs < ys), nil
	case ir.OpLE:
		return boolValue(t, xs <= ys), nil
	case ir.OpGT:
		return boolValue(t, xs > ys), nil
	case ir.OpGE:
		return boolValue(t, xs >= ys), nil
	}
	return EvalValue{}, errors.Errorf("intrin: Eval: unsupported int op %v", op)
}
