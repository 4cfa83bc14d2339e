package runtime

import (
	"fmt"
	"sync"
)

// fakeDevice is an in-memory Device used only by this package's tests: it
// tracks call counts and backs AllocateBlock with real Go byte slices
// rather than talking to any actual GPU.
type fakeDevice struct {
	mu sync.Mutex

	nextHandle uint64
	memory     map[NativeBuffer][]byte

	shaderModules   int
	pipelines       int
	descriptorSets  int
	submits         int
	commandBuffers  int
	destroyed       bool

	allocator *Allocator
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{memory: make(map[NativeBuffer][]byte)}
	d.allocator = NewAllocator(d)
	return d
}

func (d *fakeDevice) handle() NativeBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextHandle++
	return NativeBuffer(d.nextHandle)
}

func (d *fakeDevice) CreateShaderModule(spirvBody []byte) (ShaderModule, error) {
	d.mu.Lock()
	d.shaderModules++
	d.mu.Unlock()
	return ShaderModule(d.handle()), nil
}
func (d *fakeDevice) DestroyShaderModule(ShaderModule) {}

func (d *fakeDevice) CreateDescriptorSetLayout(uniformBufferCount, storageBufferCount uint32) (DescriptorSetLayout, error) {
	return DescriptorSetLayout(d.handle()), nil
}
func (d *fakeDevice) DestroyDescriptorSetLayout(DescriptorSetLayout) {}

func (d *fakeDevice) CreatePipelineLayout(layouts []DescriptorSetLayout) (PipelineLayout, error) {
	return PipelineLayout(d.handle()), nil
}
func (d *fakeDevice) DestroyPipelineLayout(PipelineLayout) {}

func (d *fakeDevice) CreateComputePipeline(module ShaderModule, entryPoint string, layout PipelineLayout, threads Dim3) (ComputePipeline, error) {
	d.mu.Lock()
	d.pipelines++
	d.mu.Unlock()
	return ComputePipeline(d.handle()), nil
}
func (d *fakeDevice) DestroyComputePipeline(ComputePipeline) {}

func (d *fakeDevice) CreateDescriptorPool(uniformBufferCount, storageBufferCount uint32) (DescriptorPool, error) {
	return DescriptorPool(d.handle()), nil
}
func (d *fakeDevice) DestroyDescriptorPool(DescriptorPool) {}

func (d *fakeDevice) CreateDescriptorSet(layout DescriptorSetLayout, pool DescriptorPool) (DescriptorSet, error) {
	d.mu.Lock()
	d.descriptorSets++
	d.mu.Unlock()
	return DescriptorSet(d.handle()), nil
}
func (d *fakeDevice) UpdateDescriptorSet(set DescriptorSet, uniform *Region, buffers []*Region) error {
	return nil
}

func (d *fakeDevice) Allocator() *Allocator { return d.allocator }

func (d *fakeDevice) AllocateBlock(size uint64, usage Usage, caching Caching, visibility Visibility) (NativeBuffer, error) {
	h := d.handle()
	d.mu.Lock()
	d.memory[h] = make([]byte, size)
	d.mu.Unlock()
	return h, nil
}
func (d *fakeDevice) FreeBlock(h NativeBuffer) {
	d.mu.Lock()
	delete(d.memory, h)
	d.mu.Unlock()
}
func (d *fakeDevice) MapBlock(h NativeBuffer) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.memory[h]
	if !ok {
		return nil, fmt.Errorf("fakeDevice: unknown block %d", h)
	}
	return buf, nil
}
func (d *fakeDevice) UnmapBlock(NativeBuffer) error { return nil }

func (d *fakeDevice) CreateCommandBuffer() (CommandBuffer, error) {
	d.mu.Lock()
	d.commandBuffers++
	d.mu.Unlock()
	return CommandBuffer(d.handle()), nil
}
func (d *fakeDevice) RecordDispatch(cb CommandBuffer, pipeline ComputePipeline, layout PipelineLayout, set DescriptorSet, blocks Dim3) error {
	return nil
}
func (d *fakeDevice) Submit(CommandBuffer) error {
	d.mu.Lock()
	d.submits++
	d.mu.Unlock()
	return nil
}
func (d *fakeDevice) WaitIdle() error                    { return nil }
func (d *fakeDevice) DestroyCommandBuffer(CommandBuffer) {}
func (d *fakeDevice) ResetCommandPool() error            { return nil }

func (d *fakeDevice) Destroy() error {
	d.mu.Lock()
	d.destroyed = true
	d.mu.Unlock()
	return nil
}
