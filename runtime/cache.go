package runtime

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"

	"github.com/kforge/kforge/emit"
)

// shaderBinding is the per-entry-point state lazily built up across the
// first few Run calls against a CacheEntry: a descriptor set layout and
// pipeline are created once, then reused by every later dispatch of that
// entry point (spec.md §4.5 "Entries are created on first use and reused
// across dispatches with identical fingerprints.").
type shaderBinding struct {
	desc   emit.DescriptorSet
	layout DescriptorSetLayout
	pool   DescriptorPool
	set    DescriptorSet

	pipeline ComputePipeline

	argsRegion *Region
}

// CacheEntry is the compiled form of one .kmod file: the parsed SPIR-V
// module plus one shaderBinding per entry point.
type CacheEntry struct {
	module         ShaderModule
	bindings       []*shaderBinding
	pipelineLayout PipelineLayout
}

func (e *CacheEntry) entryPoint(name string) (int, *shaderBinding, error) {
	for i, b := range e.bindings {
		if b.desc.EntryPointName == name {
			return i, b, nil
		}
	}
	return 0, nil, errors.Wrapf(ErrKernelNotCompiled, "entry point %q", name)
}

type cacheKey struct {
	device      Device
	fingerprint string
}

// Cache is the content-addressed compilation cache keyed by (device,
// fingerprint): repeated dispatches of the same compiled module reuse
// one CacheEntry instead of re-parsing SPIR-V or recreating pipeline
// objects (spec.md §4.5).
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*CacheEntry
	group   singleflight.Group
}

// NewCache builds an empty compilation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*CacheEntry)}
}

// GetOrCompile returns the CacheEntry for fingerprint on dev, parsing
// kmod (a side-car header followed by a SPIR-V body, spec.md §6) and
// calling dev.CreateShaderModule only on first use. Concurrent callers
// requesting the same (dev, fingerprint) collapse onto one compile via
// singleflight.
func (c *Cache) GetOrCompile(dev Device, fingerprint string, kmod []byte) (*CacheEntry, error) {
	key := cacheKey{device: dev, fingerprint: fingerprint}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		klog.V(2).InfoS("runtime: cache hit", "fingerprint", fingerprint)
		return entry, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do(fingerprint, func() (any, error) {
		c.mu.Lock()
		if entry, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return entry, nil
		}
		c.mu.Unlock()

		klog.V(2).InfoS("runtime: cache miss, compiling", "fingerprint", fingerprint)
		entry, err := compile(dev, kmod)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*CacheEntry), nil
}

func compile(dev Device, kmod []byte) (*CacheEntry, error) {
	sets, consumed, err := emit.DecodeHeader(kmod)
	if err != nil {
		return nil, errors.Wrap(err, "runtime: decoding .kmod header")
	}
	body := kmod[consumed:]

	module, err := dev.CreateShaderModule(body)
	if err != nil {
		return nil, newDeviceError("CreateShaderModule", "", ErrCodeInternalError)
	}

	bindings := make([]*shaderBinding, len(sets))
	for i, ds := range sets {
		bindings[i] = &shaderBinding{desc: ds}
	}
	return &CacheEntry{module: module, bindings: bindings}, nil
}

// Finalize destroys every object associated with one CacheEntry and
// drops it from the cache (spec.md §6 "finalize_kernels"). Returns
// ErrKernelNotCompiled if fingerprint was never compiled on dev.
func (c *Cache) Finalize(dev Device, fingerprint string) error {
	key := cacheKey{device: dev, fingerprint: fingerprint}
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return errors.WithStack(ErrKernelNotCompiled)
	}
	delete(c.entries, key)
	c.mu.Unlock()

	for _, b := range entry.bindings {
		if b.set != 0 {
			dev.DestroyDescriptorSetLayout(b.layout)
			dev.DestroyDescriptorPool(b.pool)
		}
		if b.pipeline != 0 {
			dev.DestroyComputePipeline(b.pipeline)
		}
	}
	if entry.pipelineLayout != 0 {
		dev.DestroyPipelineLayout(entry.pipelineLayout)
	}
	dev.DestroyShaderModule(entry.module)
	return nil
}
