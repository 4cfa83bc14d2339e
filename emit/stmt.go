package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// emitStmt lowers s, which must already have passed through
// scalarizePredicated, recursing into every nested statement and
// expression it carries. kernel.go is responsible for hoisting the
// Function-storage OpVariable for every Allocate/serial-For this body
// contains before emitStmt is first called (spirv.Builder.LocalVariable's
// doc comment: OpVariable must lead the entry block).
func (e *Emitter) emitStmt(s ir.Stmt) error {
	switch n := s.(type) {
	case *ir.Block:
		for _, st := range n.Stmts {
			if err := e.emitStmt(st); err != nil {
				return err
			}
		}
		return nil
	case *ir.Store:
		return e.emitStore(n)
	case *ir.LetStmt:
		return e.emitLetStmt(n)
	case *ir.For:
		return e.emitFor(n)
	case *ir.IfThenElse:
		return e.emitIf(n)
	case *ir.Allocate:
		return e.emitAllocate(n)
	case *ir.Free:
		delete(e.scope, n.Name)
		return nil
	case *ir.Evaluate:
		_, err := e.emitExpr(n.X)
		return err
	case *ir.AssertStmt:
		// Compute shaders have no trap/discard equivalent usable mid-kernel
		// without aborting every invocation in the subgroup; asserts are
		// compiled out (spec.md's scalar/CPU backends keep them, this one
		// does not).
		return nil
	default:
		return unsupportedf("statement node %T", s)
	}
}

func (e *Emitter) emitLetStmt(n *ir.LetStmt) error {
	v, err := e.emitExpr(n.Value)
	if err != nil {
		return err
	}
	saved, had := e.scope[n.Name]
	e.scope[n.Name] = symbol{typ: n.Value.ExprType(), value: v}
	err = e.emitStmt(n.Body)
	if had {
		e.scope[n.Name] = saved
	} else {
		delete(e.scope, n.Name)
	}
	return err
}

// emitFor lowers a serial For into structured SPIR-V loop control flow,
// and a GPU-bound For into a single bind-and-run of its body: Vulkan
// compute-shader invocations already iterate thread/block space in
// parallel, so the loop variable is just the matching builtin component
// plus Min, read once rather than incremented.
func (e *Emitter) emitFor(n *ir.For) error {
	if b, ok := builtinForLoop(n.Kind); ok {
		raw := e.builtinComponent(b, n.Dim)
		min, err := e.emitExpr(n.Min)
		if err != nil {
			return err
		}
		u32 := e.types.spirvType(ir.U32)
		iv := e.b.Binary(spirv.OpIAdd, u32, raw, min)
		saved, had := e.scope[n.Var.Name]
		e.scope[n.Var.Name] = symbol{typ: ir.U32, value: iv}
		err = e.emitStmt(n.Body)
		if had {
			e.scope[n.Var.Name] = saved
		} else {
			delete(e.scope, n.Var.Name)
		}
		return err
	}
	return e.emitSerialFor(n)
}

// emitSerialFor emits the standard structured-loop pattern: a header
// block (OpLoopMerge), a check block testing the induction variable
// against Extent, a body block, and a continue block that increments and
// branches back to the header.
func (e *Emitter) emitSerialFor(n *ir.For) error {
	sym, err := e.lookup(n.Var.Name)
	if err != nil {
		return err
	}
	ptr := sym.pointer
	ptrTy := sym.pointerTy
	if ptr == 0 {
		return unsupportedf("serial For over %q: induction variable was not hoisted", n.Var.Name)
	}

	min, err := e.emitExpr(n.Min)
	if err != nil {
		return err
	}
	e.b.Store(ptr, min)

	u32 := e.types.spirvType(ir.U32)
	header := e.b.AllocID(spirv.IDKindLabel)
	check := e.b.AllocID(spirv.IDKindLabel)
	body := e.b.AllocID(spirv.IDKindLabel)
	cont := e.b.AllocID(spirv.IDKindLabel)
	merge := e.b.AllocID(spirv.IDKindLabel)

	e.b.NewBlock(header)
	e.b.LoopMerge(merge, cont, spirv.LoopControlNone)
	e.b.Branch(check)

	e.b.NewBlock(check)
	cur := e.b.Load(ptrTy, ptr)
	extent, err := e.emitExpr(n.Extent)
	if err != nil {
		return err
	}
	bound := e.b.Binary(spirv.OpIAdd, u32, min, extent)
	cond := e.b.Binary(spirv.OpULessThan, e.types.spirvType(ir.Bool1), cur, bound)
	e.b.BranchConditional(cond, body, merge)

	e.b.NewBlock(body)
	saved, had := e.scope[n.Var.Name]
	e.scope[n.Var.Name] = symbol{typ: n.Var.ExprType(), pointer: ptr, pointerTy: ptrTy}
	if err := e.emitStmt(n.Body); err != nil {
		return err
	}
	if had {
		e.scope[n.Var.Name] = saved
	} else {
		delete(e.scope, n.Var.Name)
	}
	e.b.Branch(cont)

	e.b.NewBlock(cont)
	one := e.b.ConstScalar(u32, 32, 1)
	next := e.b.Binary(spirv.OpIAdd, u32, e.b.Load(ptrTy, ptr), one)
	e.b.Store(ptr, next)
	e.b.Branch(header)

	e.b.NewBlock(merge)
	return nil
}

func (e *Emitter) emitIf(n *ir.IfThenElse) error {
	cond, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	merge := e.b.AllocID(spirv.IDKindLabel)
	thenLabel := e.b.AllocID(spirv.IDKindLabel)
	elseLabel := merge
	if n.Else != nil {
		elseLabel = e.b.AllocID(spirv.IDKindLabel)
	}

	e.b.SelectionMerge(merge, spirv.SelectionControlNone)
	e.b.BranchConditional(cond, thenLabel, elseLabel)

	e.b.NewBlock(thenLabel)
	if err := e.emitStmt(n.Then); err != nil {
		return err
	}
	e.b.Branch(merge)

	if n.Else != nil {
		e.b.NewBlock(elseLabel)
		if err := e.emitStmt(n.Else); err != nil {
			return err
		}
		e.b.Branch(merge)
	}

	e.b.NewBlock(merge)
	return nil
}

func (e *Emitter) emitAllocate(n *ir.Allocate) error {
	bind, ok := e.buffers[n.Name]
	if !ok || bind.globalVar == 0 {
		return unsupportedf("Allocate %q: scratch variable was not hoisted", n.Name)
	}
	return e.emitStmt(n.Body)
}
