package emit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHeader_RoundTrip(t *testing.T) {
	sets := []DescriptorSet{
		{EntryPointName: "add_kernel", UniformBufferCount: 1, StorageBufferCount: 2},
		{EntryPointName: "x", UniformBufferCount: 0, StorageBufferCount: 1},
	}
	buf := EncodeHeader(sets)

	decoded, consumed, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, sets, decoded)
}

func TestEncodeHeader_PadsNameToWordBoundary(t *testing.T) {
	sets := []DescriptorSet{{EntryPointName: "abc", UniformBufferCount: 1}}
	buf := EncodeHeader(sets)

	// header word count, set count, uniform count, storage count, name
	// length word, one padded-to-4 name word = 6 words = 24 bytes.
	require.Len(t, buf, 24)

	decoded, _, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, "abc", decoded[0].EntryPointName)
}

func TestDecodeHeader_RejectsTruncatedBuffer(t *testing.T) {
	_, _, err := DecodeHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeHeader_RejectsOverclaimedWordCount(t *testing.T) {
	buf := EncodeHeader([]DescriptorSet{{EntryPointName: "k", StorageBufferCount: 1}})
	buf = buf[:len(buf)-4] // drop the last word but keep the stale count
	_, _, err := DecodeHeader(buf)
	require.Error(t, err)
}

func TestBuiltinFromSuffix_RecognizesAllSixAxes(t *testing.T) {
	cases := []struct {
		name string
		dim  int
	}{
		{"x.__thread_id_x", 0},
		{"x.__thread_id_y", 1},
		{"x.__thread_id_z", 2},
		{"x.__block_id_x", 0},
		{"x.__block_id_y", 1},
		{"x.__block_id_z", 2},
	}
	for _, c := range cases {
		_, dim, ok := builtinFromSuffix(c.name)
		require.True(t, ok, c.name)
		require.Equal(t, c.dim, dim, c.name)
	}
}

func TestBuiltinFromSuffix_RejectsUnknownName(t *testing.T) {
	require.False(t, isGPUVar("x.thread_id"))
	_, _, ok := builtinFromSuffix("plain_var")
	require.False(t, ok)
}
