package runtime

// Dim3 is a three-axis block/thread grid, mirroring ir.Dim3 without this
// package depending on the compiler's ir package.
type Dim3 struct {
	X, Y, Z uint32
}

// Opaque handle types returned by a Device implementation. Each is backed
// by a uint64 so a real backend can stash a native pointer/handle value
// without this package knowing its shape (spec.md §6 "native handle
// interop": wrap/detach/get_native).
type (
	ShaderModule         uint64
	DescriptorSetLayout  uint64
	PipelineLayout       uint64
	ComputePipeline      uint64
	DescriptorPool       uint64
	DescriptorSet        uint64
	CommandBuffer        uint64
	NativeBuffer         uint64
)

// Device is the driver-facing interface Context and Cache drive; a real
// backend (Vulkan, or any other command-buffer/descriptor-set GPU API)
// implements it. Every method returning an error follows spec.md §7's
// device-error convention: a non-nil error is always convertible to a
// *DeviceError by the caller.
type Device interface {
	CreateShaderModule(spirvBody []byte) (ShaderModule, error)
	DestroyShaderModule(ShaderModule)

	CreateDescriptorSetLayout(uniformBufferCount, storageBufferCount uint32) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(DescriptorSetLayout)

	CreatePipelineLayout(layouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(PipelineLayout)

	CreateComputePipeline(module ShaderModule, entryPoint string, layout PipelineLayout, threads Dim3) (ComputePipeline, error)
	DestroyComputePipeline(ComputePipeline)

	CreateDescriptorPool(uniformBufferCount, storageBufferCount uint32) (DescriptorPool, error)
	DestroyDescriptorPool(DescriptorPool)

	CreateDescriptorSet(layout DescriptorSetLayout, pool DescriptorPool) (DescriptorSet, error)
	// UpdateDescriptorSet rebinds set to point at args's scalar uniform
	// region (nil if the entry point takes no scalars) and device buffer
	// regions, in argument order.
	UpdateDescriptorSet(set DescriptorSet, uniform *Region, buffers []*Region) error

	// Allocator returns the memory allocator backing this device. The
	// same *Allocator is returned on every call.
	Allocator() *Allocator

	// AllocateBlock/FreeBlock/MapBlock/UnmapBlock back one coarse-grained
	// device allocation that *Allocator carves regions out of (spec.md
	// §4.5 "memory allocator service").
	AllocateBlock(size uint64, usage Usage, caching Caching, visibility Visibility) (NativeBuffer, error)
	FreeBlock(NativeBuffer)
	MapBlock(NativeBuffer) ([]byte, error)
	UnmapBlock(NativeBuffer) error

	CreateCommandBuffer() (CommandBuffer, error)
	RecordDispatch(cb CommandBuffer, pipeline ComputePipeline, layout PipelineLayout, set DescriptorSet, blocks Dim3) error
	Submit(cb CommandBuffer) error
	WaitIdle() error
	DestroyCommandBuffer(CommandBuffer)
	ResetCommandPool() error

	// Destroy tears down the device itself: instance, logical device,
	// queue, command pool (spec.md §6 "device_release").
	Destroy() error
}
