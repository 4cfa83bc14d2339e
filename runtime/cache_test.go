package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kforge/kforge/emit"
)

func fakeKmod(t *testing.T, sets []emit.DescriptorSet) []byte {
	t.Helper()
	header := emit.EncodeHeader(sets)
	body := []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 0, 0} // fake SPIR-V magic + placeholder word
	return append(header, body...)
}

func TestCache_GetOrCompileCachesByFingerprint(t *testing.T) {
	dev := newFakeDevice()
	c := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "add", StorageBufferCount: 1}})

	e1, err := c.GetOrCompile(dev, "fp1", kmod)
	require.NoError(t, err)
	e2, err := c.GetOrCompile(dev, "fp1", kmod)
	require.NoError(t, err)

	require.Same(t, e1, e2)
	require.Equal(t, 1, dev.shaderModules)
}

func TestCache_GetOrCompileDedupesConcurrentFirstUse(t *testing.T) {
	dev := newFakeDevice()
	c := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "add", StorageBufferCount: 1}})

	var wg sync.WaitGroup
	entries := make([]*CacheEntry, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.GetOrCompile(dev, "fp-shared", kmod)
			require.NoError(t, err)
			entries[i] = e
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, dev.shaderModules)
	for _, e := range entries {
		require.Same(t, entries[0], e)
	}
}

func TestCache_FinalizeDestroysAndForgetsEntry(t *testing.T) {
	dev := newFakeDevice()
	c := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "f", StorageBufferCount: 1}})

	_, err := c.GetOrCompile(dev, "fp1", kmod)
	require.NoError(t, err)
	require.NoError(t, c.Finalize(dev, "fp1"))

	err = c.Finalize(dev, "fp1")
	require.ErrorIs(t, err, ErrKernelNotCompiled)
}

func TestCacheEntry_EntryPointMissingReturnsErrKernelNotCompiled(t *testing.T) {
	dev := newFakeDevice()
	c := NewCache()
	kmod := fakeKmod(t, []emit.DescriptorSet{{EntryPointName: "f", StorageBufferCount: 1}})

	entry, err := c.GetOrCompile(dev, "fp1", kmod)
	require.NoError(t, err)

	_, _, err = entry.entryPoint("missing")
	require.ErrorIs(t, err, ErrKernelNotCompiled)
}
