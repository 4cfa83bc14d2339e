package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocator_ReserveCarvesFromOneBlock(t *testing.T) {
	dev := newFakeDevice()
	a := dev.Allocator()

	r1, err := a.Reserve(MemoryRequest{Size: 64, Usage: UsageStorage})
	require.NoError(t, err)
	r2, err := a.Reserve(MemoryRequest{Size: 64, Usage: UsageStorage})
	require.NoError(t, err)

	require.Equal(t, uint64(1), a.Stats().BlocksAllocated)
	require.Equal(t, uint64(2), a.Stats().RegionsAllocated)
	require.NotEqual(t, r1.HeadOffset, r2.HeadOffset)
}

func TestAllocator_ReserveGrowsPoolWhenBlockFull(t *testing.T) {
	dev := newFakeDevice()
	a := dev.Allocator()

	const big = 8 << 20 // bigger than the default 4 MiB minimum block
	_, err := a.Reserve(MemoryRequest{Size: big, Usage: UsageStorage})
	require.NoError(t, err)
	_, err = a.Reserve(MemoryRequest{Size: big, Usage: UsageStorage})
	require.NoError(t, err)

	require.Equal(t, uint64(2), a.Stats().BlocksAllocated)
}

func TestAllocator_ReclaimFreesBlockWhenEmpty(t *testing.T) {
	dev := newFakeDevice()
	a := dev.Allocator()

	r, err := a.Reserve(MemoryRequest{Size: 32})
	require.NoError(t, err)
	a.Reclaim(r)

	require.Empty(t, a.blocks)
	require.Empty(t, dev.memory)
}

func TestAllocator_MapUnmapRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	a := dev.Allocator()

	r, err := a.Reserve(MemoryRequest{Size: 16, Visibility: VisibilityHostToDevice})
	require.NoError(t, err)

	host, err := a.Map(r)
	require.NoError(t, err)
	copy(host, []byte("0123456789abcdef"))
	a.Unmap(r)

	host2, err := a.Map(r)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789abcdef"), host2)
}

func TestAllocator_CollectFreesOnlyEmptyBlocks(t *testing.T) {
	dev := newFakeDevice()
	a := dev.Allocator()

	r1, err := a.Reserve(MemoryRequest{Size: 16, Usage: UsageStorage})
	require.NoError(t, err)
	_, err = a.Reserve(MemoryRequest{Size: 16, Usage: UsageTransferSrc})
	require.NoError(t, err)

	a.Release(r1)
	a.Collect()

	require.Len(t, a.blocks, 1)
}
