package runtime

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Buffer is the device-resident counterpart of one ir.Buffer argument:
// either a managed Region carved by the Allocator, or a caller-supplied
// native handle adopted via Wrap (spec.md §6 "native handle interop").
type Buffer struct {
	Region *Region
	Native NativeBuffer
	Size   uint64
	owned  bool // false for a Wrap()-ed or Detach()-ed buffer
}

// DeviceMalloc reserves a device-only Region of size bytes (spec.md §6
// "device_malloc").
func (ctx *Context) DeviceMalloc(size uint64) (*Buffer, error) {
	r, err := ctx.Device.Allocator().Reserve(MemoryRequest{Size: size, Usage: UsageStorage, Visibility: VisibilityDeviceOnly})
	if err != nil {
		return nil, err
	}
	return &Buffer{Region: r, Size: size, owned: true}, nil
}

// DeviceFree releases buf's Region back to the allocator (see Allocator.Release). A
// buffer adopted via Wrap is not owned and DeviceFree is a no-op on it,
// matching detach-before-free semantics.
func (ctx *Context) DeviceFree(buf *Buffer) error {
	if !buf.owned || buf.Region == nil {
		return nil
	}
	ctx.Device.Allocator().Release(buf.Region)
	return nil
}

// DeviceAndHostMalloc reserves a host-visible, coherent Region and
// returns both the Buffer and its mapped host-side bytes (spec.md §6
// "device_and_host_malloc").
func (ctx *Context) DeviceAndHostMalloc(size uint64) (*Buffer, []byte, error) {
	r, err := ctx.Device.Allocator().Reserve(MemoryRequest{
		Size: size, Usage: UsageTransferDst, Caching: CachingCoherent, Visibility: VisibilityHostToHost,
	})
	if err != nil {
		return nil, nil, err
	}
	host, err := ctx.Device.Allocator().Map(r)
	if err != nil {
		return nil, nil, newDeviceError("Allocator.Map", "", ErrCodeInternalError)
	}
	return &Buffer{Region: r, Size: size, owned: true}, host, nil
}

// DeviceAndHostFree unmaps and releases a DeviceAndHostMalloc buffer
// (spec.md §6 "device_and_host_free").
func (ctx *Context) DeviceAndHostFree(buf *Buffer) error {
	if buf.Region != nil {
		ctx.Device.Allocator().Unmap(buf.Region)
	}
	return ctx.DeviceFree(buf)
}

// CopyToDevice copies host into buf's device-visible Region (spec.md §6
// "copy_to_device") by mapping the Region directly, whatever its
// requested visibility. If the device refuses to map it, CopyToDevice
// returns ErrCodeIncompatibleDeviceInterface; this runtime has no
// staging path.
func (ctx *Context) CopyToDevice(buf *Buffer, host []byte) error {
	if buf.Region == nil {
		return newDeviceError("CopyToDevice", "", ErrCodeIncompatibleDeviceInterface)
	}
	mapped, err := ctx.Device.Allocator().Map(buf.Region)
	if err != nil {
		return newDeviceError("CopyToDevice", "", ErrCodeIncompatibleDeviceInterface)
	}
	copy(mapped, host)
	ctx.Device.Allocator().Unmap(buf.Region)
	return nil
}

// CopyToHost copies buf's device-visible Region into host (spec.md §6
// "copy_to_host").
func (ctx *Context) CopyToHost(buf *Buffer, host []byte) error {
	if buf.Region == nil {
		return newDeviceError("CopyToHost", "", ErrCodeIncompatibleDeviceInterface)
	}
	mapped, err := ctx.Device.Allocator().Map(buf.Region)
	if err != nil {
		return newDeviceError("CopyToHost", "", ErrCodeIncompatibleDeviceInterface)
	}
	copy(host, mapped)
	ctx.Device.Allocator().Unmap(buf.Region)
	return nil
}

// BufferCopy copies size bytes from src to dst, both device buffers
// (spec.md §6 "buffer_copy"). Ordering relative to other work on either
// buffer is the caller's responsibility via DeviceSync (spec.md §5).
func (ctx *Context) BufferCopy(dst, src *Buffer, size uint64) error {
	if dst.Region == nil || src.Region == nil {
		return newDeviceError("BufferCopy", "", ErrCodeDeviceBufferCopyFailed)
	}
	srcHost, err := ctx.Device.Allocator().Map(src.Region)
	if err != nil {
		return newDeviceError("BufferCopy", "", ErrCodeDeviceBufferCopyFailed)
	}
	defer ctx.Device.Allocator().Unmap(src.Region)
	dstHost, err := ctx.Device.Allocator().Map(dst.Region)
	if err != nil {
		return newDeviceError("BufferCopy", "", ErrCodeDeviceBufferCopyFailed)
	}
	defer ctx.Device.Allocator().Unmap(dst.Region)
	if uint64(len(srcHost)) < size || uint64(len(dstHost)) < size {
		return newDeviceError("BufferCopy", "size exceeds mapped region", ErrCodeDeviceBufferCopyFailed)
	}
	copy(dstHost, srcHost[:size])
	return nil
}

// DeviceCrop creates a view of parent restricted to [offset, offset+size)
// that shares parent's underlying block (spec.md §6 "device_crop").
func (ctx *Context) DeviceCrop(parent *Buffer, offset, size uint64) (*Buffer, error) {
	if parent.Region == nil || offset+size > parent.Region.Size {
		return nil, newDeviceError("DeviceCrop", "", ErrCodeInternalError)
	}
	cropped := &Region{
		HeadOffset: parent.Region.HeadOffset + offset,
		Size:       size,
	}
	cropped.block = parent.Region.block
	cropped.block.regions++
	return &Buffer{Region: cropped, Size: size, owned: true}, nil
}

// DeviceSlice is DeviceCrop restricted to one element-sized slice along a
// buffer's outermost dimension (spec.md §6 "device_slice"); at the
// region-of-bytes level this package operates at, it is DeviceCrop.
func (ctx *Context) DeviceSlice(parent *Buffer, elemOffset, elemSize uint64) (*Buffer, error) {
	return ctx.DeviceCrop(parent, elemOffset, elemSize)
}

// DeviceReleaseCrop releases a DeviceCrop/DeviceSlice view without
// affecting the parent buffer's lifetime (spec.md §6
// "device_release_crop").
func (ctx *Context) DeviceReleaseCrop(buf *Buffer) error {
	if buf.Region == nil {
		return nil
	}
	ctx.Device.Allocator().DestroyCrop(buf.Region)
	return nil
}

// DeviceSync waits for all outstanding device work to complete (spec.md
// §6 "device_sync"). Run already waits for queue-idle synchronously
// after every dispatch (spec.md §5), so DeviceSync is a belt-and-braces
// wait for callers issuing raw copies outside of Run.
func (ctx *Context) DeviceSync() error {
	if err := ctx.Device.WaitIdle(); err != nil {
		return newDeviceError("DeviceSync", "", ErrCodeInternalError)
	}
	return nil
}

// Wrap adopts a caller-provided native handle as a Buffer this package
// does not own (spec.md §6 "wrap").
func (ctx *Context) Wrap(native NativeBuffer, size uint64) *Buffer {
	return &Buffer{Native: native, Size: size, owned: false}
}

// Detach disowns buf, returning its native handle and preventing a later
// DeviceFree from releasing it (spec.md §6 "detach").
func (ctx *Context) Detach(buf *Buffer) NativeBuffer {
	buf.owned = false
	return buf.Native
}

// GetNative returns buf's native handle without disowning it (spec.md §6
// "get_native").
func (ctx *Context) GetNative(buf *Buffer) NativeBuffer {
	return buf.Native
}

// ReleaseUnusedDeviceAllocations frees every allocator block with no live
// regions (spec.md §6 "release_unused_device_allocations").
func (ctx *Context) ReleaseUnusedDeviceAllocations() {
	ctx.Device.Allocator().Collect()
}

// DeviceRelease tears down the device itself (spec.md §6
// "device_release"). Callers must not use ctx after this returns.
func (ctx *Context) DeviceRelease() error {
	if err := ctx.Device.Destroy(); err != nil {
		return errors.Wrap(err, "runtime: device release")
	}
	klog.V(2).InfoS("runtime: device released", "session", ctx.SessionID)
	return nil
}

// InitializeKernels compiles (or reuses) fingerprint's CacheEntry on
// ctx's device (spec.md §6 "initialize_kernels").
func (ctx *Context) InitializeKernels(cache *Cache, fingerprint string, kmod []byte) (*CacheEntry, error) {
	return cache.GetOrCompile(ctx.Device, fingerprint, kmod)
}

// FinalizeKernels destroys fingerprint's CacheEntry (spec.md §6
// "finalize_kernels").
func (ctx *Context) FinalizeKernels(cache *Cache, fingerprint string) error {
	return cache.Finalize(ctx.Device, fingerprint)
}
