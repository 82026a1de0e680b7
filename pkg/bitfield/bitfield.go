// Package bitfield provides bit-range accessors for chip register values
package bitfield

// mask returns a mask of width hi-lo+1 and the normalized low bit.
// The bounds may be given in either order.
func mask(hi, lo uint) (int, uint) {
	if lo > hi {
		hi, lo = lo, hi
	}
	return (1 << (hi - lo + 1)) - 1, lo
}

// Get extracts bits hi..lo (inclusive) of v
func Get(v int, hi, lo uint) int {
	m, shift := mask(hi, lo)
	return (v >> shift) & m
}

// Bit extracts a single bit of v
func Bit(v int, n uint) int {
	return (v >> n) & 1
}

// Set returns v with bits hi..lo replaced by field.
// Bits of field outside the range are discarded.
func Set(v int, hi, lo uint, field int) int {
	m, shift := mask(hi, lo)
	v &^= m << shift
	v |= (field & m) << shift
	return v
}

// Pack builds a value from consecutive little-endian bytes
func Pack(b ...byte) int {
	n := 0
	for i, x := range b {
		n |= int(x) << (8 * uint(i))
	}
	return n
}
