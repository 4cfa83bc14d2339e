package emit

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DescriptorSet describes one entry point's buffer bindings, recorded so
// the side-car header can tell the runtime how many uniform/storage
// buffers to bind before dispatching it (spec.md §6).
type DescriptorSet struct {
	EntryPointName     string
	UniformBufferCount uint32
	StorageBufferCount uint32
}

// descriptorAllocator hands out ascending binding indices within one
// entry point's descriptor set, uniform buffers first (spec.md §9
// "Descriptor set binding increment per buffer"): the packed
// scalar-argument struct always takes binding 0, then device buffers are
// assigned 1, 2, 3, ... in argument order.
type descriptorAllocator struct {
	next uint32
}

func newDescriptorAllocator() *descriptorAllocator { return &descriptorAllocator{} }

func (a *descriptorAllocator) next_() uint32 {
	b := a.next
	a.next++
	return b
}

// EncodeHeader serializes descriptorSets into the compiled-module
// side-car header (spec.md §6), a little-endian uint32 word stream:
//
//	[0] header word count, including this word
//	[1] number of descriptor sets
//	for each descriptor set:
//	  [0] uniform buffer count
//	  [1] storage buffer count
//	  [2] entry point name length, padded up to a word boundary
//	  [3..] entry point name bytes, NUL-padded to that length
//
// This mirrors the original Vulkan backend's encode_header exactly, since
// the runtime consuming this header must agree on its layout byte for
// byte.
func EncodeHeader(sets []DescriptorSet) []byte {
	words := []uint32{uint32(len(sets))}
	for _, ds := range sets {
		raw := []byte(ds.EntryPointName)
		paddedWords := (len(raw) + 3) / 4
		paddedLen := paddedWords * 4
		padded := make([]byte, paddedLen)
		copy(padded, raw)

		words = append(words, ds.UniformBufferCount, ds.StorageBufferCount, uint32(paddedLen))
		for i := 0; i < len(padded); i += 4 {
			words = append(words, binary.LittleEndian.Uint32(padded[i:i+4]))
		}
	}
	words = append([]uint32{uint32(len(words) + 1)}, words...)

	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// DecodeHeader parses the side-car header EncodeHeader produces, and
// returns the number of bytes it consumed from buf (the SPIR-V binary
// body follows immediately after).
func DecodeHeader(buf []byte) (sets []DescriptorSet, consumed int, err error) {
	if len(buf) < 8 {
		return nil, 0, errors.New("emit: DecodeHeader: buffer too short for a header")
	}
	totalWords := binary.LittleEndian.Uint32(buf[0:4])
	if int(totalWords)*4 > len(buf) {
		return nil, 0, errors.Errorf("emit: DecodeHeader: header claims %d words, buffer has only %d bytes", totalWords, len(buf))
	}
	numSets := binary.LittleEndian.Uint32(buf[4:8])
	off := 8
	sets = make([]DescriptorSet, 0, numSets)
	for i := uint32(0); i < numSets; i++ {
		if off+12 > len(buf) {
			return nil, 0, errors.Errorf("emit: DecodeHeader: truncated descriptor set %d", i)
		}
		uniformCount := binary.LittleEndian.Uint32(buf[off:])
		storageCount := binary.LittleEndian.Uint32(buf[off+4:])
		nameLen := binary.LittleEndian.Uint32(buf[off+8:])
		off += 12
		if off+int(nameLen) > len(buf) {
			return nil, 0, errors.Errorf("emit: DecodeHeader: truncated entry point name in descriptor set %d", i)
		}
		name := trimNulBytes(buf[off : off+int(nameLen)])
		off += int(nameLen)
		sets = append(sets, DescriptorSet{
			EntryPointName:     name,
			UniformBufferCount: uniformCount,
			StorageBufferCount: storageCount,
		})
	}
	return sets, int(totalWords) * 4, nil
}

func trimNulBytes(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
