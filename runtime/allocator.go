package runtime

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Usage selects how a memory request will be used for transfer (spec.md
// §4.5 "memory allocator service").
type Usage int

const (
	UsageTransferSrc Usage = iota
	UsageTransferDst
	UsageStorage
)

// Caching selects the CPU-visible caching mode of a memory request.
type Caching int

const (
	CachingUncached Caching = iota
	CachingCached
	CachingCoherent
)

// Visibility selects which side(s) of the PCIe/SoC boundary a memory
// request must be visible from.
type Visibility int

const (
	VisibilityDeviceOnly Visibility = iota
	VisibilityHostToDevice
	VisibilityDeviceToHost
	VisibilityHostToHost
)

// MemoryRequest is the input to Allocator.Reserve.
type MemoryRequest struct {
	Size       uint64
	Usage      Usage
	Caching    Caching
	Visibility Visibility
}

// Region is a sub-allocation inside one block-granularity Device
// allocation. HeadOffset is the region's byte offset within its owning
// block (spec.md §4.5: "A region knows its head_offset within its owning
// allocation.").
type Region struct {
	HeadOffset uint64
	Size       uint64

	block   *block
	mapped  []byte
	reusable bool
}

type block struct {
	handle     NativeBuffer
	size       uint64
	used       uint64
	mapped     []byte
	regions    int
	req        MemoryRequest
}

// Allocator carves Regions out of coarse-grained Device blocks, growing
// the block pool on demand. It is only ever touched while a Context is
// held (spec.md §5: "The allocator is accessed only while the context is
// held and therefore needs no additional locking."); the mutex here
// guards against a caller violating that discipline rather than being
// load-bearing under correct use.
type Allocator struct {
	dev    Device
	mu     sync.Mutex
	blocks []*block

	blocksAllocated       uint64
	bytesAllocatedBlocks  uint64
	regionsAllocated      uint64
	bytesAllocatedRegions uint64
}

// NewAllocator builds an Allocator backed by dev's block primitives.
func NewAllocator(dev Device) *Allocator {
	return &Allocator{dev: dev}
}

// Reserve carves a Region of req.Size bytes, growing the block pool with
// a fresh Device allocation if no existing block has room. Returns
// ErrOutOfMemory if dev.AllocateBlock fails.
func (a *Allocator) Reserve(req MemoryRequest) (*Region, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range a.blocks {
		if b.req.Usage == req.Usage && b.req.Caching == req.Caching && b.req.Visibility == req.Visibility &&
			b.size-b.used >= req.Size {
			return a.carve(b, req.Size), nil
		}
	}

	blockSize := req.Size
	const minBlockSize = 4 << 20 // 4 MiB, amortizes small reserves
	if blockSize < minBlockSize {
		blockSize = minBlockSize
	}
	handle, err := a.dev.AllocateBlock(blockSize, req.Usage, req.Caching, req.Visibility)
	if err != nil {
		klog.ErrorS(err, "runtime: allocator block allocation failed", "size", humanize.Bytes(blockSize))
		return nil, errors.WithStack(ErrOutOfMemory)
	}
	b := &block{handle: handle, size: blockSize, req: req}
	a.blocks = append(a.blocks, b)
	a.blocksAllocated++
	a.bytesAllocatedBlocks += blockSize
	klog.V(2).InfoS("runtime: allocator grew block pool", "size", humanize.Bytes(blockSize), "blocks", a.blocksAllocated)

	return a.carve(b, req.Size), nil
}

// carve must be called with a.mu held.
func (a *Allocator) carve(b *block, size uint64) *Region {
	r := &Region{HeadOffset: b.used, Size: size, block: b}
	b.used += size
	b.regions++
	a.regionsAllocated++
	a.bytesAllocatedRegions += size
	return r
}

// Release marks r reusable and drops it from its owning block's count of
// live regions (spec.md's "reusable" release path). Reserve never hands
// r's bytes out again, since carve only takes bytes past the block's
// used mark; the block itself is freed by Collect once no live region
// remains in it.
func (a *Allocator) Release(r *Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r.reusable = true
	r.block.regions--
}

// Reclaim permanently frees r's owning block once every region carved
// from it has been released or reclaimed, for allocations the runtime
// flag marks non-reusable (spec.md §5 "reserve must be paired with
// release (reusable) or reclaim (non-reusable)").
func (a *Allocator) Reclaim(r *Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r.block.regions--
	if r.block.regions <= 0 {
		a.freeBlockLocked(r.block)
	}
}

func (a *Allocator) freeBlockLocked(b *block) {
	a.dev.FreeBlock(b.handle)
	for i, bb := range a.blocks {
		if bb == b {
			a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
			break
		}
	}
}

// Map returns the host-visible byte slice backing r, mapping r's owning
// block on first use.
func (a *Allocator) Map(r *Region) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.block.mapped == nil {
		mapped, err := a.dev.MapBlock(r.block.handle)
		if err != nil {
			return nil, errors.Wrap(err, "runtime: allocator map")
		}
		r.block.mapped = mapped
	}
	end := r.HeadOffset + r.Size
	if end > uint64(len(r.block.mapped)) {
		return nil, errors.Errorf("runtime: allocator map: region [%d,%d) exceeds mapped block of %d bytes", r.HeadOffset, end, len(r.block.mapped))
	}
	r.mapped = r.block.mapped[r.HeadOffset:end]
	return r.mapped, nil
}

// Unmap drops r's host-visible view; the owning block is not unmapped
// here and keeps its mapping until the block is freed.
func (a *Allocator) Unmap(r *Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r.mapped = nil
}

// OwnerOf returns r itself. A Region tracks its owning block directly
// and does not record the Region it was cropped from, so for a view made
// by Context.DeviceCrop or DeviceSlice the result is the view, not its
// parent. It is kept as a named operation because spec.md §4.5 lists it
// as part of the allocator's public surface.
func (a *Allocator) OwnerOf(r *Region) *Region { return r }

// DestroyCrop releases a region created by a device-crop/slice view
// without affecting the parent region's lifetime.
func (a *Allocator) DestroyCrop(r *Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r.block.regions--
}

// Collect frees every block whose regions have all been released.
// Reserve never does this on its own; idle blocks stay allocated until
// Collect (or Reclaim of their last region) is called.
func (a *Allocator) Collect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	var kept []*block
	for _, b := range a.blocks {
		if b.regions <= 0 {
			a.dev.FreeBlock(b.handle)
			continue
		}
		kept = append(kept, b)
	}
	a.blocks = kept
}

// Stats mirrors the counters the original logs after every dispatch
// (blocks_allocated, bytes_allocated_for_blocks, regions_allocated,
// bytes_allocated_for_regions).
type Stats struct {
	BlocksAllocated      uint64
	BytesAllocatedBlocks uint64
	RegionsAllocated     uint64
	BytesAllocatedRegion uint64
}

func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		BlocksAllocated:      a.blocksAllocated,
		BytesAllocatedBlocks: a.bytesAllocatedBlocks,
		RegionsAllocated:     a.regionsAllocated,
		BytesAllocatedRegion: a.bytesAllocatedRegions,
	}
}
