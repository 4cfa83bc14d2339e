package spirv

import "encoding/binary"

// Instruction is a single encoded SPIR-V instruction: opcode plus every
// word after the leading (word_count<<16)|opcode word.
type Instruction struct {
	Opcode OpCode
	Words  []uint32
}

// Encode returns the instruction's words, including the leading
// word-count/opcode word (spec.md §4.3 "Encoding").
func (i Instruction) Encode() []uint32 {
	out := make([]uint32, 0, len(i.Words)+1)
	out = append(out, (uint32(len(i.Words)+1)<<16)|uint32(i.Opcode))
	return append(out, i.Words...)
}

// instBuilder accumulates operand words for one instruction before it is
// sealed with an opcode.
type instBuilder struct {
	words []uint32
}

func newInst() *instBuilder { return &instBuilder{words: make([]uint32, 0, 8)} }

func (b *instBuilder) word(w uint32) *instBuilder {
	b.words = append(b.words, w)
	return b
}

func (b *instBuilder) words_(ws ...uint32) *instBuilder {
	b.words = append(b.words, ws...)
	return b
}

// str appends s as a null-terminated, 4-byte-padded literal string (spec.md
// §4.3: "a literal string contributes ⌈(len+1)/4⌉ words").
func (b *instBuilder) str(s string) *instBuilder {
	raw := []byte(s)
	raw = append(raw, 0)
	for len(raw)%4 != 0 {
		raw = append(raw, 0)
	}
	for i := 0; i < len(raw); i += 4 {
		b.words = append(b.words, uint32(raw[i])|uint32(raw[i+1])<<8|uint32(raw[i+2])<<16|uint32(raw[i+3])<<24)
	}
	return b
}

func (b *instBuilder) build(op OpCode) Instruction {
	return Instruction{Opcode: op, Words: b.words}
}

func countWords(insts []Instruction) int {
	n := 0
	for _, i := range insts {
		n += len(i.Words) + 1
	}
	return n
}

func appendInstructions(buf []byte, offset int, insts []Instruction) int {
	for _, i := range insts {
		for _, w := range i.Encode() {
			binary.LittleEndian.PutUint32(buf[offset:], w)
			offset += 4
		}
	}
	return offset
}

func versionWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}
