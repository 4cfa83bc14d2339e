package ir

import "fmt"

// Validate checks e and every expression reachable from it against the
// IR's static-typing invariants (spec.md §8 invariant 2: "every rewrite
// ... yields an expression with the same static type as the input" — a
// property only meaningful if the tree is well-typed to begin with).
// It returns the first violation found, wrapped as an InvariantError.
func Validate(e Expr) error {
	var err error
	var check func(Expr)
	check = func(n Expr) {
		if err != nil || n == nil {
			return
		}
		switch v := n.(type) {
		case *Binary:
			xt, yt := v.X.ExprType(), v.Y.ExprType()
			if xt.Lanes() != yt.Lanes() {
				err = NewInvariantErrorf("Validate", "%s: lane mismatch %v vs %v", v.Op, xt, yt)
				return
			}
			if !v.Op.IsComparison() && !xt.Equal(yt) {
				err = NewInvariantErrorf("Validate", "%s: operand type mismatch %v vs %v", v.Op, xt, yt)
				return
			}
			check(v.X)
			check(v.Y)
		case *Select:
			if !v.Cond.ExprType().IsBool() {
				err = NewInvariantErrorf("Validate", "Select: condition is %v, want bool", v.Cond.ExprType())
				return
			}
			if !v.T.ExprType().Equal(v.F.ExprType()) {
				err = NewInvariantErrorf("Validate", "Select: branch type mismatch %v vs %v", v.T.ExprType(), v.F.ExprType())
				return
			}
			check(v.Cond)
			check(v.T)
			check(v.F)
		case *Not:
			check(v.X)
		case *Cast:
			check(v.X)
		case *Reinterpret:
			if v.Typ.Bytes() != v.X.ExprType().Bytes() {
				err = NewInvariantErrorf("Validate", "Reinterpret: byte-width mismatch %v vs %v", v.Typ, v.X.ExprType())
				return
			}
			check(v.X)
		case *Load:
			check(v.Index)
			check(v.Pred)
		case *Ramp:
			check(v.Base)
			check(v.Stride)
		case *Broadcast:
			check(v.X)
		case *Shuffle:
			for _, c := range v.Vectors {
				check(c)
			}
		case *Call:
			for _, a := range v.Args {
				check(a)
			}
		case *Let:
			check(v.Value)
			check(v.Body)
		case *Imm, *Var:
			// leaves
		default:
			err = NewInvariantErrorf("Validate", "unhandled expression node %T", n)
		}
	}
	check(e)
	return err
}

// ValidateKernel checks k's body against spec.md §8 invariant 8: across
// all GPU-thread For loops inside one kernel that share a dimension, the
// extent must be constant. GPU-block loops are not compared.
func ValidateKernel(k *Kernel) error {
	seen := map[int]Expr{}
	var walkStmt func(Stmt) error
	walkStmt = func(s Stmt) error {
		if s == nil {
			return nil
		}
		switch n := s.(type) {
		case *For:
			if n.Kind == ForGPUThread {
				if prior, ok := seen[n.Dim]; ok {
					if !sameConstExtent(prior, n.Extent) {
						return NewInvariantErrorf("ValidateKernel",
							"kernel %q: dimension %d has conflicting workgroup extents", k.Name, n.Dim)
					}
				} else {
					seen[n.Dim] = n.Extent
				}
			}
			return walkStmt(n.Body)
		case *LetStmt:
			return walkStmt(n.Body)
		case *IfThenElse:
			if err := walkStmt(n.Then); err != nil {
				return err
			}
			return walkStmt(n.Else)
		case *Allocate:
			return walkStmt(n.Body)
		case *Block:
			for _, st := range n.Stmts {
				if err := walkStmt(st); err != nil {
					return err
				}
			}
			return nil
		default:
			return nil
		}
	}
	return walkStmt(k.Body)
}

// sameConstExtent reports whether a and b are recognizably the same
// extent. Only immediate extents can be compared without an evaluator;
// a non-Imm extent is conservatively treated as matching. emit.Emitter
// runs ValidateKernel before emitting a kernel, so only differing
// immediate extents fail compilation; non-Imm extents are not compared.
func sameConstExtent(a, b Expr) bool {
	ai, aok := a.(*Imm)
	bi, bok := b.(*Imm)
	if !aok || !bok {
		return true
	}
	return ai.Kind == bi.Kind && ai.I == bi.I && ai.U == bi.U && ai.F == bi.F
}

// locationOf is a debug helper producing a short textual form of a type
// error location; not used on any success path.
func locationOf(e Expr) string {
	return fmt.Sprintf("%T", e)
}
