package spirv

import (
	"encoding/binary"
	"testing"
)

func newTestBuilder() *Builder {
	b := NewBuilder(DefaultOptions())
	b.AddCapability(CapabilityShader)
	b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	return b
}

func TestBuilder_MinimalModuleHeader(t *testing.T) {
	b := newTestBuilder()
	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out) < 20 {
		t.Fatalf("Build produced %d bytes, want at least a 20-byte header", len(out))
	}
	magic := binary.LittleEndian.Uint32(out[0:4])
	if magic != MagicNumber {
		t.Fatalf("magic = %#x, want %#x", magic, MagicNumber)
	}
	version := binary.LittleEndian.Uint32(out[4:8])
	if want := versionWord(Version1_3); version != want {
		t.Fatalf("version word = %#x, want %#x", version, want)
	}
}

func TestBuilder_BuildWithoutMemoryModelFails(t *testing.T) {
	b := NewBuilder(DefaultOptions())
	if _, err := b.Build(); err == nil {
		t.Fatalf("Build with no memory model set: want error, got nil")
	}
}

func TestDeclareScalarType_Dedup(t *testing.T) {
	b := newTestBuilder()
	a := b.DeclareScalarType(ScalarInt, 32)
	c := b.DeclareScalarType(ScalarInt, 32)
	if a != c {
		t.Fatalf("DeclareScalarType(Int,32) twice = %d, %d, want same id", a, c)
	}
	d := b.DeclareScalarType(ScalarUint, 32)
	if d == a {
		t.Fatalf("DeclareScalarType(Uint,32) = %d, want different id from Int,32 (%d)", d, a)
	}
}

func TestDeclareScalarType_RequiresCapability(t *testing.T) {
	b := newTestBuilder()
	b.DeclareScalarType(ScalarInt, 8)
	if !b.capabilities[CapabilityInt8] {
		t.Fatalf("DeclareScalarType(Int,8) did not request CapabilityInt8")
	}
	b.DeclareScalarType(ScalarFloat, 16)
	if !b.capabilities[CapabilityFloat16] {
		t.Fatalf("DeclareScalarType(Float,16) did not request CapabilityFloat16")
	}
}

func TestFinalize_AddsStorageExtensionsForNarrowInts(t *testing.T) {
	b := newTestBuilder()
	b.DeclareScalarType(ScalarInt, 8)
	b.DeclareScalarType(ScalarUint, 16)
	b.Finalize()
	if !b.extensions[ExtKHR8BitStorage] {
		t.Fatalf("Finalize did not add %s after an 8-bit int type", ExtKHR8BitStorage)
	}
	if !b.extensions[ExtKHR16BitStorage] {
		t.Fatalf("Finalize did not add %s after a 16-bit int type", ExtKHR16BitStorage)
	}
}

func TestDeclareVectorType_Dedup(t *testing.T) {
	b := newTestBuilder()
	f32 := b.DeclareScalarType(ScalarFloat, 32)
	v1 := b.DeclareVectorType(f32, 4)
	v2 := b.DeclareVectorType(f32, 4)
	if v1 != v2 {
		t.Fatalf("DeclareVectorType(f32,4) twice = %d, %d, want same id", v1, v2)
	}
	v3 := b.DeclareVectorType(f32, 3)
	if v3 == v1 {
		t.Fatalf("DeclareVectorType(f32,3) collided with (f32,4)")
	}
}

func TestDeclarePointerType_Dedup(t *testing.T) {
	b := newTestBuilder()
	i32 := b.DeclareScalarType(ScalarInt, 32)
	p1 := b.DeclarePointerType(StorageClassFunction, i32)
	p2 := b.DeclarePointerType(StorageClassFunction, i32)
	if p1 != p2 {
		t.Fatalf("DeclarePointerType(Function,i32) twice = %d, %d, want same id", p1, p2)
	}
	p3 := b.DeclarePointerType(StorageClassStorageBuffer, i32)
	if p3 == p1 {
		t.Fatalf("DeclarePointerType collided across storage classes")
	}
}

func TestDeclareStructType_SameMembersDifferentNameAreDistinct(t *testing.T) {
	b := newTestBuilder()
	f32 := b.DeclareScalarType(ScalarFloat, 32)
	s1 := b.DeclareStructType("Params", []uint32{f32, f32})
	s2 := b.DeclareStructType("Params", []uint32{f32, f32})
	if s1 != s2 {
		t.Fatalf("DeclareStructType same name+members twice = %d, %d, want same id", s1, s2)
	}
	s3 := b.DeclareStructType("Other", []uint32{f32, f32})
	if s3 == s1 {
		t.Fatalf("DeclareStructType with a different name collided with %d", s1)
	}
}

func TestConstScalar_DedupByRawBits(t *testing.T) {
	b := newTestBuilder()
	i32 := b.DeclareScalarType(ScalarInt, 32)
	c1 := b.ConstScalar(i32, 32, 7)
	c2 := b.ConstScalar(i32, 32, 7)
	if c1 != c2 {
		t.Fatalf("ConstScalar(7) twice = %d, %d, want same id", c1, c2)
	}
	c3 := b.ConstScalar(i32, 32, 8)
	if c3 == c1 {
		t.Fatalf("ConstScalar(8) collided with ConstScalar(7)")
	}
}

func TestConstBool_Dedup(t *testing.T) {
	b := newTestBuilder()
	boolT := b.DeclareScalarType(ScalarBool, 1)
	t1 := b.ConstBool(boolT, true)
	t2 := b.ConstBool(boolT, true)
	if t1 != t2 {
		t.Fatalf("ConstBool(true) twice = %d, %d, want same id", t1, t2)
	}
	f1 := b.ConstBool(boolT, false)
	if f1 == t1 {
		t.Fatalf("ConstBool(false) collided with ConstBool(true)")
	}
}

func TestMemberDecorate_RejectsUnknownStruct(t *testing.T) {
	b := newTestBuilder()
	if err := b.MemberDecorate(999, 0, DecorationOffset, 0); err == nil {
		t.Fatalf("MemberDecorate on an undeclared struct id: want error, got nil")
	}
}

func TestMemberDecorate_RejectsOutOfRangeMember(t *testing.T) {
	b := newTestBuilder()
	f32 := b.DeclareScalarType(ScalarFloat, 32)
	s := b.DeclareStructType("Pair", []uint32{f32, f32})
	if err := b.MemberDecorate(s, 5, DecorationOffset, 0); err == nil {
		t.Fatalf("MemberDecorate with out-of-range member: want error, got nil")
	}
	if err := b.MemberDecorate(s, 1, DecorationOffset, 4); err != nil {
		t.Fatalf("MemberDecorate with valid member: unexpected error %v", err)
	}
}

func TestNewBlock_BranchesFromUnterminatedTail(t *testing.T) {
	b := newTestBuilder()
	voidType := uint32(0)
	fnType := b.DeclareFunctionType(voidType, nil)
	b.DeclareFunction(voidType, fnType, FunctionControlNone)

	before := len(b.functions)
	second := b.AllocID(IDKindLabel)
	b.NewBlock(second)
	after := b.functions[before : before+2]

	if after[0].Opcode != OpBranch {
		t.Fatalf("NewBlock on unterminated tail: first inst = opcode %d, want OpBranch (%d)", after[0].Opcode, OpBranch)
	}
	if after[1].Opcode != OpLabel {
		t.Fatalf("NewBlock: second inst = opcode %d, want OpLabel (%d)", after[1].Opcode, OpLabel)
	}
	b.EndFunction()
}

func TestEntryPointFunc_Lookup(t *testing.T) {
	b := newTestBuilder()
	voidType := uint32(0)
	fnType := b.DeclareFunctionType(voidType, nil)
	fn := b.DeclareFunction(voidType, fnType, FunctionControlNone)
	b.Return()
	b.EndFunction()
	b.AddEntryPoint(ExecutionModelGLCompute, fn, "main", nil)

	got, ok := b.EntryPointFunc("main")
	if !ok || got != fn {
		t.Fatalf("EntryPointFunc(main) = %d, %v, want %d, true", got, ok, fn)
	}
	if _, ok := b.EntryPointFunc("missing"); ok {
		t.Fatalf("EntryPointFunc(missing) = ok, want not found")
	}
}
