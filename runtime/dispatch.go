package runtime

import (
	"k8s.io/klog/v2"
)

// Run compiles (or reuses) fingerprint's CacheEntry, locates entryName's
// shaderBinding, lazily creates the pipeline objects the first dispatch
// of that entry point needs, writes scalarArgs into its uniform buffer,
// rebinds its descriptor set to buffers, and records/submits/waits on one
// dispatch command buffer (spec.md §4.5, modeled step-for-step on the
// original runtime's halide_vulkan_run).
func Run(ctx *Context, cache *Cache, fingerprint string, kmod []byte, entryName string,
	blocks, threads Dim3, scalarArgs []byte, buffers []*Region) error {

	dev := ctx.Device
	entry, err := cache.GetOrCompile(dev, fingerprint, kmod)
	if err != nil {
		return err
	}

	idx, binding, err := entry.entryPoint(entryName)
	if err != nil {
		return err
	}

	if entry.pipelineLayout == 0 {
		layouts := make([]DescriptorSetLayout, len(entry.bindings))
		for i, b := range entry.bindings {
			layout, err := dev.CreateDescriptorSetLayout(b.desc.UniformBufferCount, b.desc.StorageBufferCount)
			if err != nil {
				return newDeviceError("CreateDescriptorSetLayout", b.desc.EntryPointName, ErrCodeInternalError)
			}
			b.layout = layout
			layouts[i] = layout
		}
		pipelineLayout, err := dev.CreatePipelineLayout(layouts)
		if err != nil {
			return newDeviceError("CreatePipelineLayout", "", ErrCodeInternalError)
		}
		entry.pipelineLayout = pipelineLayout
	}

	if binding.pipeline == 0 {
		pipeline, err := dev.CreateComputePipeline(entry.module, entryName, entry.pipelineLayout, threads)
		if err != nil {
			return newDeviceError("CreateComputePipeline", entryName, ErrCodeInternalError)
		}
		binding.pipeline = pipeline
	}

	if binding.set == 0 {
		pool, err := dev.CreateDescriptorPool(binding.desc.UniformBufferCount, binding.desc.StorageBufferCount)
		if err != nil {
			return newDeviceError("CreateDescriptorPool", entryName, ErrCodeInternalError)
		}
		binding.pool = pool

		set, err := dev.CreateDescriptorSet(binding.layout, pool)
		if err != nil {
			return newDeviceError("CreateDescriptorSet", entryName, ErrCodeInternalError)
		}
		binding.set = set
	}

	if binding.desc.UniformBufferCount > 0 && len(scalarArgs) > 0 {
		if binding.argsRegion == nil || binding.argsRegion.Size < uint64(len(scalarArgs)) {
			region, err := dev.Allocator().Reserve(MemoryRequest{
				Size:       uint64(len(scalarArgs)),
				Usage:      UsageTransferDst,
				Caching:    CachingCoherent,
				Visibility: VisibilityHostToDevice,
			})
			if err != nil {
				return err
			}
			binding.argsRegion = region
		}
		host, err := dev.Allocator().Map(binding.argsRegion)
		if err != nil {
			return newDeviceError("Allocator.Map", entryName, ErrCodeInternalError)
		}
		copy(host, scalarArgs)
		dev.Allocator().Unmap(binding.argsRegion)
	}

	if err := dev.UpdateDescriptorSet(binding.set, binding.argsRegion, buffers); err != nil {
		return newDeviceError("UpdateDescriptorSet", entryName, ErrCodeInternalError)
	}

	cb, err := dev.CreateCommandBuffer()
	if err != nil {
		return newDeviceError("CreateCommandBuffer", entryName, ErrCodeInternalError)
	}
	if err := dev.RecordDispatch(cb, binding.pipeline, entry.pipelineLayout, binding.set, blocks); err != nil {
		return newDeviceError("RecordDispatch", entryName, ErrCodeInternalError)
	}
	if err := dev.Submit(cb); err != nil {
		return newDeviceError("Submit", entryName, ErrCodeInternalError)
	}
	if err := dev.WaitIdle(); err != nil {
		return newDeviceError("WaitIdle", entryName, ErrCodeInternalError)
	}
	dev.DestroyCommandBuffer(cb)
	if err := dev.ResetCommandPool(); err != nil {
		return newDeviceError("ResetCommandPool", entryName, ErrCodeInternalError)
	}

	stats := dev.Allocator().Stats()
	klog.V(2).InfoS("runtime: dispatch complete",
		"entry_point", entryName, "entry_index", idx,
		"blocks", blocks, "threads", threads,
		"blocks_allocated", stats.BlocksAllocated, "regions_allocated", stats.RegionsAllocated)
	return nil
}
