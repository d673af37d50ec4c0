package util

import "encoding/binary"

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
// Only the first cloneSize elements of src are copied when src is longer.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// AppendWords appends each word to dst in little-endian order and returns the extended slice.
func AppendWords(dst []byte, words []uint16) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint16(dst, w)
	}
	return dst
}

// Words decodes n little-endian words from src.
//
// It returns false if src holds fewer than 2*n bytes.
func Words(src []byte, n int) ([]uint16, bool) {
	if n < 0 || len(src) < 2*n {
		return nil, false
	}
	words := make([]uint16, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(src[2*i:])
	}
	return words, true
}

// AppendUint24 appends the low 24 bits of v to dst in little-endian order.
func AppendUint24(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16))
}

// Uint24 decodes a little-endian 24-bit value from the first three bytes of b.
func Uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
