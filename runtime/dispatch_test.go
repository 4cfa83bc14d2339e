package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kforge/kforge/emit"
)

func TestRun_CompilesAndDispatchesOnce(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	cache := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "fill", StorageBufferCount: 1}})

	out, err := ctx.DeviceMalloc(256)
	require.NoError(t, err)

	err = Run(ctx, cache, "fp-fill", kmod, "fill", Dim3{X: 4}, Dim3{X: 64}, nil, []*Region{out.Region})
	require.NoError(t, err)

	require.Equal(t, 1, dev.shaderModules)
	require.Equal(t, 1, dev.pipelines)
	require.Equal(t, 1, dev.descriptorSets)
	require.Equal(t, 1, dev.submits)
}

func TestRun_SecondDispatchReusesCachedPipelineObjects(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	cache := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "fill", StorageBufferCount: 1}})
	out, err := ctx.DeviceMalloc(256)
	require.NoError(t, err)

	require.NoError(t, Run(ctx, cache, "fp-fill", kmod, "fill", Dim3{X: 4}, Dim3{X: 64}, nil, []*Region{out.Region}))
	require.NoError(t, Run(ctx, cache, "fp-fill", kmod, "fill", Dim3{X: 4}, Dim3{X: 64}, nil, []*Region{out.Region}))

	require.Equal(t, 1, dev.shaderModules)
	require.Equal(t, 1, dev.pipelines)
	require.Equal(t, 1, dev.descriptorSets)
	require.Equal(t, 2, dev.submits)
}

func TestRun_UnknownEntryPointFails(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	cache := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "fill", StorageBufferCount: 1}})

	err := Run(ctx, cache, "fp-fill", kmod, "nope", Dim3{X: 1}, Dim3{X: 1}, nil, nil)
	require.ErrorIs(t, err, ErrKernelNotCompiled)
}

func TestRun_WritesScalarArgsIntoUniformRegion(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	cache := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "scale", UniformBufferCount: 1, StorageBufferCount: 1}})
	out, err := ctx.DeviceMalloc(64)
	require.NoError(t, err)

	scalar := []byte{1, 2, 3, 4}
	require.NoError(t, Run(ctx, cache, "fp-scale", kmod, "scale", Dim3{X: 1}, Dim3{X: 32}, scalar, []*Region{out.Region}))

	entry, err := cache.GetOrCompile(dev, "fp-scale", kmod)
	require.NoError(t, err)
	_, binding, err := entry.entryPoint("scale")
	require.NoError(t, err)
	require.NotNil(t, binding.argsRegion)

	host, err := dev.Allocator().Map(binding.argsRegion)
	require.NoError(t, err)
	require.Equal(t, scalar, host[:len(scalar)])
}
