package main

import (
	"encoding/json"

	"github.com/kforge/kforge/ir"
	"github.com/pkg/errors"
)

// jsonModule, jsonKernel, and jsonBuffer mirror ir.Module/ir.Kernel/
// ir.Buffer field for field; only the statement/expression trees need
// custom decoding, since Stmt/Expr are interfaces.
type jsonModule struct {
	Name    string       `json:"name"`
	Kernels []jsonKernel `json:"kernels"`
}

type jsonKernel struct {
	Name    string         `json:"name"`
	Args    []jsonBuffer   `json:"args"`
	Blocks  jsonDim3       `json:"blocks"`
	Threads jsonDim3       `json:"threads"`
	Body    json.RawMessage `json:"body"`
}

type jsonBuffer struct {
	Name   string   `json:"name"`
	Elem   jsonType `json:"elem"`
	Device bool     `json:"device"`
}

type jsonDim3 struct {
	X, Y, Z uint32
}

type jsonType struct {
	Code  string `json:"code"`
	Bits  uint8  `json:"bits"`
	Lanes uint16 `json:"lanes"`
}

func (t jsonType) decode() (ir.Type, error) {
	lanes := t.Lanes
	if lanes == 0 {
		lanes = 1
	}
	var code ir.Code
	switch t.Code {
	case "int":
		code = ir.Int
	case "uint":
		code = ir.Uint
	case "float":
		code = ir.Float
	case "bool":
		code = ir.Bool
	case "handle":
		return ir.Handle, nil
	default:
		return ir.Type{}, errors.Errorf("decode: unknown type code %q", t.Code)
	}
	bits := t.Bits
	if code == ir.Bool {
		bits = 1
	}
	return ir.New(code, bits, lanes), nil
}

// decodeModule parses raw into an *ir.Module, the input format for
// `kforgec compile` (spec.md §6's external interface, JSON replacing the
// front end this compiler does not implement).
func decodeModule(raw []byte) (*ir.Module, error) {
	var jm jsonModule
	if err := json.Unmarshal(raw, &jm); err != nil {
		return nil, errors.Wrap(err, "decode: invalid module JSON")
	}
	m := ir.NewModule(jm.Name)
	for _, jk := range jm.Kernels {
		args := make([]ir.Buffer, len(jk.Args))
		for i, ja := range jk.Args {
			elem, err := ja.Elem.decode()
			if err != nil {
				return nil, errors.Wrapf(err, "kernel %q arg %q", jk.Name, ja.Name)
			}
			args[i] = ir.Buffer{Name: ja.Name, Elem: elem, Device: ja.Device}
		}
		k := ir.NewKernel(jk.Name,
			args,
			ir.Dim3{X: jk.Blocks.X, Y: jk.Blocks.Y, Z: jk.Blocks.Z},
			ir.Dim3{X: jk.Threads.X, Y: jk.Threads.Y, Z: jk.Threads.Z})
		body, err := decodeStmt(jk.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "kernel %q body", jk.Name)
		}
		k.Body = body
		m.AddKernel(k)
	}
	return m, nil
}

type taggedNode struct {
	Kind string `json:"kind"`
}

func decodeStmt(raw json.RawMessage) (ir.Stmt, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var tag taggedNode
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, errors.Wrap(err, "decode: invalid statement node")
	}
	switch tag.Kind {
	case "store":
		var n struct {
			Buffer string          `json:"buffer"`
			Index  json.RawMessage `json:"index"`
			Value  json.RawMessage `json:"value"`
			Pred   json.RawMessage `json:"pred"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		index, err := decodeExpr(n.Index)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		pred, err := decodeExpr(n.Pred)
		if err != nil {
			return nil, err
		}
		return &ir.Store{Buffer: n.Buffer, Index: index, Value: value, Pred: pred}, nil
	case "let":
		var n struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
			Body  json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(n.Body)
		if err != nil {
			return nil, err
		}
		return ir.NewLetStmt(n.Name, value, body), nil
	case "for":
		var n struct {
			Var    jsonVar         `json:"var"`
			ForKind string         `json:"for_kind"`
			Dim    int             `json:"dim"`
			Min    json.RawMessage `json:"min"`
			Extent json.RawMessage `json:"extent"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Var.Type.decode()
		if err != nil {
			return nil, err
		}
		min, err := decodeExpr(n.Min)
		if err != nil {
			return nil, err
		}
		extent, err := decodeExpr(n.Extent)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(n.Body)
		if err != nil {
			return nil, err
		}
		kind, err := decodeForKind(n.ForKind)
		if err != nil {
			return nil, err
		}
		return ir.NewFor(ir.NewVar(n.Var.Name, typ), kind, n.Dim, min, extent, body), nil
	case "if":
		var n struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmt(n.Else)
		if err != nil {
			return nil, err
		}
		return ir.NewIfThenElse(cond, then, els), nil
	case "allocate":
		var n struct {
			Name   string          `json:"name"`
			Elem   jsonType        `json:"elem"`
			Extent json.RawMessage `json:"extent"`
			Memory string          `json:"memory"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		elem, err := n.Elem.decode()
		if err != nil {
			return nil, err
		}
		extent, err := decodeExpr(n.Extent)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(n.Body)
		if err != nil {
			return nil, err
		}
		mem := ir.MemoryFunction
		if n.Memory == "workgroup" {
			mem = ir.MemoryWorkgroup
		}
		return ir.NewAllocate(n.Name, elem, extent, mem, body), nil
	case "free":
		var n struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return ir.NewFree(n.Name), nil
	case "evaluate":
		var n struct {
			X json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return ir.NewEvaluate(x), nil
	case "assert":
		var n struct {
			Cond    json.RawMessage `json:"cond"`
			Message string          `json:"message"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		return ir.NewAssertStmt(cond, n.Message), nil
	case "block":
		var n struct {
			Stmts []json.RawMessage `json:"stmts"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		stmts := make([]ir.Stmt, len(n.Stmts))
		for i, s := range n.Stmts {
			st, err := decodeStmt(s)
			if err != nil {
				return nil, err
			}
			stmts[i] = st
		}
		return ir.NewBlock(stmts...), nil
	default:
		return nil, errors.Errorf("decode: unknown statement kind %q", tag.Kind)
	}
}

func decodeForKind(s string) (ir.ForKind, error) {
	switch s {
	case "", "serial":
		return ir.ForSerial, nil
	case "gpu_thread":
		return ir.ForGPUThread, nil
	case "gpu_block":
		return ir.ForGPUBlock, nil
	default:
		return 0, errors.Errorf("decode: unknown for_kind %q", s)
	}
}

type jsonVar struct {
	Name string   `json:"name"`
	Type jsonType `json:"type"`
}

func decodeExpr(raw json.RawMessage) (ir.Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var tag taggedNode
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, errors.Wrap(err, "decode: invalid expression node")
	}
	switch tag.Kind {
	case "imm":
		var n struct {
			Type jsonType `json:"type"`
			I    *int64   `json:"i"`
			U    *uint64  `json:"u"`
			F    *float64 `json:"f"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		switch {
		case n.F != nil:
			return ir.Float64(typ, *n.F), nil
		case n.U != nil:
			return ir.Uint64(typ, *n.U), nil
		case n.I != nil:
			return ir.Int64(typ, *n.I), nil
		default:
			return nil, errors.New("decode: imm node has no i/u/f value")
		}
	case "var":
		var n jsonVar
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		return ir.NewVar(n.Name, typ), nil
	case "cast", "reinterpret":
		var n struct {
			Type jsonType        `json:"type"`
			X    json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		if tag.Kind == "cast" {
			return &ir.Cast{Typ: typ, X: x}, nil
		}
		return &ir.Reinterpret{Typ: typ, X: x}, nil
	case "binary":
		var n struct {
			Op   string          `json:"op"`
			Type jsonType        `json:"type"`
			X    json.RawMessage `json:"x"`
			Y    json.RawMessage `json:"y"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		y, err := decodeExpr(n.Y)
		if err != nil {
			return nil, err
		}
		op, err := decodeBinOp(n.Op)
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Op: op, Typ: typ, X: x, Y: y}, nil
	case "not":
		var n struct {
			X json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ir.Not{X: x}, nil
	case "select":
		var n struct {
			Type jsonType        `json:"type"`
			Cond json.RawMessage `json:"cond"`
			T    json.RawMessage `json:"t"`
			F    json.RawMessage `json:"f"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		tVal, err := decodeExpr(n.T)
		if err != nil {
			return nil, err
		}
		fVal, err := decodeExpr(n.F)
		if err != nil {
			return nil, err
		}
		return &ir.Select{Typ: typ, Cond: cond, T: tVal, F: fVal}, nil
	case "load":
		var n struct {
			Type   jsonType        `json:"type"`
			Buffer string          `json:"buffer"`
			Index  json.RawMessage `json:"index"`
			Pred   json.RawMessage `json:"pred"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		index, err := decodeExpr(n.Index)
		if err != nil {
			return nil, err
		}
		pred, err := decodeExpr(n.Pred)
		if err != nil {
			return nil, err
		}
		return &ir.Load{Typ: typ, Buffer: n.Buffer, Index: index, Pred: pred}, nil
	case "broadcast":
		var n struct {
			X     json.RawMessage `json:"x"`
			Lanes uint16          `json:"lanes"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ir.Broadcast{X: x, Lanes: n.Lanes}, nil
	case "call":
		var n struct {
			Type jsonType          `json:"type"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i], err = decodeExpr(a)
			if err != nil {
				return nil, err
			}
		}
		return ir.NewCall(typ, n.Name, args...), nil
	case "let_expr":
		var n struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
			Body  json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpr(n.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Let{Name: n.Name, Value: value, Body: body}, nil
	case "shuffle":
		var n struct {
			Type    jsonType          `json:"type"`
			Vectors []json.RawMessage `json:"vectors"`
			Indices []int32           `json:"indices"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		typ, err := n.Type.decode()
		if err != nil {
			return nil, err
		}
		vectors := make([]ir.Expr, len(n.Vectors))
		for i, v := range n.Vectors {
			vectors[i], err = decodeExpr(v)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Shuffle{Typ: typ, Vectors: vectors, Indices: n.Indices}, nil
	default:
		return nil, errors.Errorf("decode: unknown expression kind %q", tag.Kind)
	}
}

func decodeBinOp(s string) (ir.BinOp, error) {
	ops := map[string]ir.BinOp{
		"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul, "div": ir.OpDiv,
		"mod": ir.OpMod, "min": ir.OpMin, "max": ir.OpMax,
		"eq": ir.OpEQ, "ne": ir.OpNE, "lt": ir.OpLT, "le": ir.OpLE,
		"gt": ir.OpGT, "ge": ir.OpGE, "and": ir.OpAnd, "or": ir.OpOr,
		"xor": ir.OpXor, "shl": ir.OpShl, "shr": ir.OpShr,
	}
	op, ok := ops[s]
	if !ok {
		return 0, errors.Errorf("decode: unknown binary op %q", s)
	}
	return op, nil
}
