package ir

// ExprRewriter rewrites a single expression node. Returning the input
// node unchanged is a legal no-op; TransformExpr recurses into children
// before calling rewrite, so rewrite only ever sees already-rewritten
// children (bottom-up), matching the recognizer's pattern-matching order
// (spec.md §4.1: "bottom-up").
type ExprRewriter func(Expr) Expr

// StmtRewriter rewrites a single statement node, after its children
// (nested statements and the expressions they carry) have already been
// rewritten.
type StmtRewriter func(Stmt) Stmt

// TransformExpr recursively rewrites e bottom-up: children are
// transformed first, then fn is applied to the (possibly unchanged)
// rebuilt node.
func TransformExpr(e Expr, fn ExprRewriter) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Imm, *Var:
		return fn(e)
	case *Cast:
		return fn(&Cast{Typ: n.Typ, X: TransformExpr(n.X, fn)})
	case *Reinterpret:
		return fn(&Reinterpret{Typ: n.Typ, X: TransformExpr(n.X, fn)})
	case *Binary:
		return fn(&Binary{Op: n.Op, Typ: n.Typ, X: TransformExpr(n.X, fn), Y: TransformExpr(n.Y, fn)})
	case *Not:
		return fn(&Not{X: TransformExpr(n.X, fn)})
	case *Select:
		return fn(&Select{
			Typ:  n.Typ,
			Cond: TransformExpr(n.Cond, fn),
			T:    TransformExpr(n.T, fn),
			F:    TransformExpr(n.F, fn),
		})
	case *Load:
		var pred Expr
		if n.Pred != nil {
			pred = TransformExpr(n.Pred, fn)
		}
		return fn(&Load{Typ: n.Typ, Buffer: n.Buffer, Index: TransformExpr(n.Index, fn), Pred: pred})
	case *Ramp:
		return fn(&Ramp{Base: TransformExpr(n.Base, fn), Stride: TransformExpr(n.Stride, fn), Lanes: n.Lanes})
	case *Broadcast:
		return fn(&Broadcast{X: TransformExpr(n.X, fn), Lanes: n.Lanes})
	case *Shuffle:
		vecs := make([]Expr, len(n.Vectors))
		for i, v := range n.Vectors {
			vecs[i] = TransformExpr(v, fn)
		}
		return fn(&Shuffle{Typ: n.Typ, Vectors: vecs, Indices: n.Indices})
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = TransformExpr(a, fn)
		}
		return fn(&Call{Typ: n.Typ, Name: n.Name, Args: args})
	case *Let:
		return fn(&Let{Name: n.Name, Value: TransformExpr(n.Value, fn), Body: TransformExpr(n.Body, fn)})
	default:
		panic(NewInvariantErrorf("TransformExpr", "unhandled expression node %T", e))
	}
}

// TransformStmt recursively rewrites s bottom-up, rewriting every
// expression reachable from s with exprFn and every nested statement
// with stmtFn.
func TransformStmt(s Stmt, exprFn ExprRewriter, stmtFn StmtRewriter) Stmt {
	if s == nil {
		return nil
	}
	rwE := func(e Expr) Expr {
		if e == nil {
			return nil
		}
		return TransformExpr(e, exprFn)
	}
	switch n := s.(type) {
	case *Store:
		return stmtFn(&Store{Buffer: n.Buffer, Index: rwE(n.Index), Value: rwE(n.Value), Pred: rwE(n.Pred)})
	case *LetStmt:
		return stmtFn(&LetStmt{Name: n.Name, Value: rwE(n.Value), Body: TransformStmt(n.Body, exprFn, stmtFn)})
	case *For:
		return stmtFn(&For{
			Var: n.Var, Kind: n.Kind, Dim: n.Dim,
			Min: rwE(n.Min), Extent: rwE(n.Extent),
			Body: TransformStmt(n.Body, exprFn, stmtFn),
		})
	case *IfThenElse:
		return stmtFn(&IfThenElse{
			Cond: rwE(n.Cond),
			Then: TransformStmt(n.Then, exprFn, stmtFn),
			Else: TransformStmt(n.Else, exprFn, stmtFn),
		})
	case *Allocate:
		return stmtFn(&Allocate{
			Name: n.Name, Elem: n.Elem, Extent: rwE(n.Extent), Memory: n.Memory,
			Body: TransformStmt(n.Body, exprFn, stmtFn),
		})
	case *Free:
		return stmtFn(n)
	case *Evaluate:
		return stmtFn(&Evaluate{X: rwE(n.X)})
	case *AssertStmt:
		return stmtFn(&AssertStmt{Cond: rwE(n.Cond), Message: n.Message})
	case *Block:
		stmts := make([]Stmt, len(n.Stmts))
		for i, st := range n.Stmts {
			stmts[i] = TransformStmt(st, exprFn, stmtFn)
		}
		return stmtFn(&Block{Stmts: stmts})
	default:
		panic(NewInvariantErrorf("TransformStmt", "unhandled statement node %T", s))
	}
}

// WalkExpr calls visit on e and, recursively, every expression reachable
// from it, in no particular order. Unlike TransformExpr it does not
// rebuild the tree: use it for read-only queries (collecting free
// variables, checking for a forbidden op-code, the bounds cache).
func WalkExpr(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *Cast:
		WalkExpr(n.X, visit)
	case *Reinterpret:
		WalkExpr(n.X, visit)
	case *Binary:
		WalkExpr(n.X, visit)
		WalkExpr(n.Y, visit)
	case *Not:
		WalkExpr(n.X, visit)
	case *Select:
		WalkExpr(n.Cond, visit)
		WalkExpr(n.T, visit)
		WalkExpr(n.F, visit)
	case *Load:
		WalkExpr(n.Index, visit)
		WalkExpr(n.Pred, visit)
	case *Ramp:
		WalkExpr(n.Base, visit)
		WalkExpr(n.Stride, visit)
	case *Broadcast:
		WalkExpr(n.X, visit)
	case *Shuffle:
		for _, v := range n.Vectors {
			WalkExpr(v, visit)
		}
	case *Call:
		for _, a := range n.Args {
			WalkExpr(a, visit)
		}
	case *Let:
		WalkExpr(n.Value, visit)
		WalkExpr(n.Body, visit)
	}
}
