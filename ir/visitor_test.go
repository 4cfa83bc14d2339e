package ir

import "testing"

func TestTransformExprRewritesBottomUp(t *testing.T) {
	// a + b, rewrite every Var named "a" to an immediate 7.
	a := NewVar("a", I32)
	b := NewVar("b", I32)
	sum := NewAdd(a, b)

	out := TransformExpr(sum, func(e Expr) Expr {
		if v, ok := e.(*Var); ok && v.Name == "a" {
			return Int64(I32, 7)
		}
		return e
	})

	bin, ok := out.(*Binary)
	if !ok {
		t.Fatalf("out = %T, want *Binary", out)
	}
	imm, ok := bin.X.(*Imm)
	if !ok || imm.I != 7 {
		t.Fatalf("bin.X = %#v, want Imm{I: 7}", bin.X)
	}
	if _, ok := bin.Y.(*Var); !ok {
		t.Fatalf("bin.Y = %T, want *Var (unchanged)", bin.Y)
	}
}

func TestWalkExprVisitsEveryNode(t *testing.T) {
	x := NewVar("x", I32)
	y := NewVar("y", I32)
	e := NewLet("z", NewAdd(x, y), NewMul(NewVar("z", I32), Int64(I32, 2)))

	count := 0
	WalkExpr(e, func(Expr) { count++ })

	// Let, Add, x, y, Mul, Var(z), Imm(2) = 7 nodes.
	if count != 7 {
		t.Fatalf("visited %d nodes, want 7", count)
	}
}

func TestTransformStmtRewritesNestedExpressions(t *testing.T) {
	store := NewStore("buf", NewVar("i", I32), NewAdd(NewVar("a", I32), Int64(I32, 1)))
	out := TransformStmt(store, func(e Expr) Expr {
		if imm, ok := e.(*Imm); ok && imm.Kind == ImmInt && imm.I == 1 {
			return Int64(I32, 99)
		}
		return e
	}, func(s Stmt) Stmt { return s })

	st, ok := out.(*Store)
	if !ok {
		t.Fatalf("out = %T, want *Store", out)
	}
	bin := st.Value.(*Binary)
	imm := bin.Y.(*Imm)
	if imm.I != 99 {
		t.Fatalf("rewritten immediate = %d, want 99", imm.I)
	}
}
