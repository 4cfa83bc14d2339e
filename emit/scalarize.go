package emit

import "github.com/kforge/kforge/ir"

// scalarizePredicated expands a predicated vector Load/Store into a
// lane-by-lane scalar sequence the emitter can lower directly, the way
// the original backend's scalarize_vector_load/scalarize_vector_store
// pre-pass does for masked vector memory ops SPIR-V's plain
// OpLoad/OpStore cannot express (spec.md §4.4: "a pre-pass scalarises").

// scalarizeLoad rewrites a LetStmt binding name to a predicated vector
// Load into an Allocate of a same-size scratch buffer: filled lane by
// lane (each lane conditionally loaded from source, left undefined when
// masked off — callers must not rely on masked-off lanes), then name is
// bound to an ordinary unconditional Load of the whole scratch buffer for
// rest (the already-scalarized continuation of the original Body).
func scalarizeLoad(l *ir.Load, name string, rest ir.Stmt) ir.Stmt {
	tempName := name + ".scalarized"
	elemType := l.Typ.ElementOf()
	lanes := l.Typ.Lanes()

	var stmts []ir.Stmt
	for i := uint16(0); i < lanes; i++ {
		laneIndex := ir.NewAdd(l.Index, ir.Int64(l.Index.ExprType(), int64(i)))
		laneLoad := ir.NewLoad(elemType, l.Buffer, laneIndex)
		lanePred := extractLane(l.Pred, i)
		store := ir.NewStore(tempName, ir.Int64(ir.I32, int64(i)), laneLoad)
		stmts = append(stmts, ir.NewIfThenElse(lanePred, store, nil))
	}

	result := ir.NewLoad(l.Typ, tempName, ir.Int64(ir.I32, 0))
	body := ir.NewBlock(append(stmts, ir.NewLetStmt(name, result, rest))...)
	return ir.NewAllocate(tempName, elemType, ir.Uint64(ir.U32, uint64(lanes)), ir.MemoryFunction, body)
}

// scalarizeStore rewrites a predicated vector Store into one conditional
// scalar store per lane.
func scalarizeStore(s *ir.Store) ir.Stmt {
	vecType := s.Value.ExprType()
	lanes := vecType.Lanes()
	if lanes <= 1 {
		return ir.NewIfThenElse(s.Pred, ir.NewStore(s.Buffer, s.Index, s.Value), nil)
	}

	var stmts []ir.Stmt
	for i := uint16(0); i < lanes; i++ {
		laneIndex := ir.NewAdd(s.Index, ir.Int64(s.Index.ExprType(), int64(i)))
		laneValue := extractLane(s.Value, i)
		lanePred := extractLane(s.Pred, i)
		stmts = append(stmts, ir.NewIfThenElse(lanePred, ir.NewStore(s.Buffer, laneIndex, laneValue), nil))
	}
	return ir.NewBlock(stmts...)
}

// extractLane pulls lane i out of a (possibly scalar, which is
// broadcast-compatible) vector expression via a single-element Shuffle.
func extractLane(e ir.Expr, i uint16) ir.Expr {
	t := e.ExprType()
	if t.IsScalar() {
		return e
	}
	return ir.NewShuffle(t.ElementOf(), []ir.Expr{e}, []int32{int32(i)})
}

// scalarizePredicated walks s, rewriting every predicated Store in place
// and every LetStmt that binds a predicated Load via scalarizeLoad — the
// two shapes the original front end's masked vector memory ops take.
// Predicated Loads nested anywhere other than directly as a LetStmt's
// Value are not produced by this compiler's front end and are left
// alone (the emitter's Load lowering rejects a surviving Pred).
func scalarizePredicated(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case *ir.LetStmt:
		rest := scalarizePredicated(n.Body)
		if load, ok := n.Value.(*ir.Load); ok && load.Pred != nil {
			return scalarizeLoad(load, n.Name, rest)
		}
		return ir.NewLetStmt(n.Name, n.Value, rest)
	case *ir.Store:
		if n.Pred != nil {
			return scalarizeStore(n)
		}
		return n
	case *ir.For:
		return ir.NewFor(n.Var, n.Kind, n.Dim, n.Min, n.Extent, scalarizePredicated(n.Body))
	case *ir.IfThenElse:
		var els ir.Stmt
		if n.Else != nil {
			els = scalarizePredicated(n.Else)
		}
		return ir.NewIfThenElse(n.Cond, scalarizePredicated(n.Then), els)
	case *ir.Allocate:
		return ir.NewAllocate(n.Name, n.Elem, n.Extent, n.Memory, scalarizePredicated(n.Body))
	case *ir.Block:
		stmts := make([]ir.Stmt, len(n.Stmts))
		for i, st := range n.Stmts {
			stmts[i] = scalarizePredicated(st)
		}
		return ir.NewBlock(stmts...)
	default:
		return s
	}
}
