package ir

// Dim3 is a three-dimensional extent: workgroup or block count along
// x, y, z. emit.Emitter declares a zero component of Kernel.Threads as
// 1 in the kernel's LocalSize execution mode.
type Dim3 struct {
	X, Y, Z uint32
}

// Buffer is a device-resident array argument to a Kernel: a uniform
// scalar argument has Elem set and Device == false; a device buffer has
// Device == true and is emitted as a runtime array wrapped in a
// Block-decorated struct in the StorageBuffer storage class; it is not
// emitted as a Uniform-class BufferBlock.
type Buffer struct {
	Name   string
	Elem   Type
	Device bool
}

// Kernel is one compute entry point: a named function over a fixed grid
// of blocks/threads, with a buffer/scalar argument list and a body
// statement. It corresponds to spec.md §6's "entry point".
type Kernel struct {
	Name    string
	Args    []Buffer
	Blocks  Dim3
	Threads Dim3
	Body    Stmt
}

// NewKernel builds a Kernel with a nil Body; callers attach Body before
// passing the Kernel to intrin.Recognize/emit.Emitter.
func NewKernel(name string, args []Buffer, blocks, threads Dim3) *Kernel {
	return &Kernel{Name: name, Args: args, Blocks: blocks, Threads: threads}
}

// Module is the top-level unit the compiler pipeline operates on: the
// recognizer rewrites each Kernel's Body, the emitter compiles the
// Module into one SPIR-V binary with one entry point per Kernel.
type Module struct {
	Name    string
	Kernels []*Kernel
}

// NewModule builds an empty Module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddKernel appends k to m and returns m for chaining.
func (m *Module) AddKernel(k *Kernel) *Module {
	m.Kernels = append(m.Kernels, k)
	return m
}

// Kernel looks up a kernel by name, returning nil if absent.
func (m *Module) Kernel(name string) *Kernel {
	for _, k := range m.Kernels {
		if k.Name == name {
			return k
		}
	}
	return nil
}
