package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyToDeviceThenCopyToHost_RoundTrips(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	buf, err := ctx.DeviceMalloc(16)
	require.NoError(t, err)

	want := []byte("0123456789abcdef")[:16]
	require.NoError(t, ctx.CopyToDevice(buf, want))

	got := make([]byte, 16)
	require.NoError(t, ctx.CopyToHost(buf, got))
	require.Equal(t, want, got)
}

func TestBufferCopy_CopiesBetweenTwoDeviceBuffers(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	src, err := ctx.DeviceMalloc(8)
	require.NoError(t, err)
	dst, err := ctx.DeviceMalloc(8)
	require.NoError(t, err)

	require.NoError(t, ctx.CopyToDevice(src, []byte("abcdefgh")))
	require.NoError(t, ctx.BufferCopy(dst, src, 8))

	got := make([]byte, 8)
	require.NoError(t, ctx.CopyToHost(dst, got))
	require.Equal(t, []byte("abcdefgh"), got)
}

func TestDeviceCrop_SharesParentBlock(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	parent, err := ctx.DeviceMalloc(64)
	require.NoError(t, err)

	crop, err := ctx.DeviceCrop(parent, 16, 8)
	require.NoError(t, err)
	require.Equal(t, parent.Region.HeadOffset+16, crop.Region.HeadOffset)

	require.NoError(t, ctx.DeviceReleaseCrop(crop))
}

func TestWrapDetach_DoesNotOwnNativeHandle(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	buf := ctx.Wrap(NativeBuffer(42), 128)
	require.Equal(t, NativeBuffer(42), ctx.GetNative(buf))
	require.NoError(t, ctx.DeviceFree(buf)) // no-op: not owned

	handle := ctx.Detach(buf)
	require.Equal(t, NativeBuffer(42), handle)
}

func TestReleaseUnusedDeviceAllocations_FreesIdleBlocks(t *testing.T) {
	dev := newFakeDevice()
	ctx := Acquire(dev)
	defer ctx.Release()

	buf, err := ctx.DeviceMalloc(32)
	require.NoError(t, err)
	require.NoError(t, ctx.DeviceFree(buf))

	ctx.ReleaseUnusedDeviceAllocations()
	require.Empty(t, ctx.Device.Allocator().blocks)
}
