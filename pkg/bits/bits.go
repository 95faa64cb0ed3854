// Package bits implements the fixed-width bit vectors that back every
// storage cell and bus in the computer: registers, RAM cells, the ALU's
// operands, and the CPU's instruction/address registers are all built on
// top of Vector.
package bits

import "fmt"

// Vector is a fixed-width sequence of bits, stored as an unsigned integer
// together with the width it was constructed with. Width is fixed for the
// lifetime of the value; every arithmetic and bitwise operation below
// preserves it and returns a new Vector rather than mutating in place.
type Vector struct {
	value uint32
	width uint
}

// DefaultWidth is the width used throughout the ISA for registers, RAM
// cells, and ALU operands.
const DefaultWidth uint = 8

// New constructs a Vector of the given width from an integer value. The
// value is masked to width bits; no error is raised on truncation, mirroring
// the two's-complement wraparound the ALU itself relies on.
func New(value int, width uint) Vector {
	mask := uint32(1)<<width - 1
	return Vector{value: uint32(value) & mask, width: width}
}

// NewDefault constructs an 8-bit Vector.
func NewDefault(value int) Vector {
	return New(value, DefaultWidth)
}

// FromBinaryString parses an ASCII string of '0'/'1' characters, most
// significant bit first, into a Vector whose width equals len(s).
func FromBinaryString(s string) (Vector, error) {
	var v uint32
	for i := 0; i < len(s); i++ {
		v <<= 1
		switch s[i] {
		case '0':
		case '1':
			v |= 1
		default:
			return Vector{}, fmt.Errorf("bits: %q is not a binary string", s)
		}
	}
	return Vector{value: v, width: uint(len(s))}, nil
}

// Width reports the number of bits in the vector.
func (v Vector) Width() uint { return v.width }

// Int returns the vector's value as a plain integer in [0, 2^width).
func (v Vector) Int() int { return int(v.value) }

// String renders the vector as its binary string, most significant bit
// first, zero-padded to its width.
func (v Vector) String() string {
	return fmt.Sprintf("%0*b", v.width, v.value)
}

// Bit returns the bit at index (0 = least significant).
func (v Vector) Bit(index uint) uint8 {
	return uint8((v.value >> index) & 1)
}

// Equal reports whether two vectors hold the same value. Width is not
// compared — a 4-bit 0b0011 and an 8-bit 0b00000011 are equal.
func (v Vector) Equal(o Vector) bool {
	return v.value == o.value
}

// IsZero reports whether every bit is clear.
func (v Vector) IsZero() bool {
	return v.value == 0
}

// add64 mirrors the source's carry capture: it returns the sum as a
// bit-width-preserving Vector, and the excess (carry) as a separate value.
func (v Vector) add64(other Vector) (Vector, uint32) {
	sum := uint64(v.value) + uint64(other.value)
	mask := uint64(1)<<v.width - 1
	return Vector{value: uint32(sum & mask), width: v.width}, uint32(sum >> v.width)
}

// Add returns v+other (mod 2^width) and the carry: bits that did not fit
// in width, i.e. 1 if the addition overflowed, 0 otherwise.
func (v Vector) Add(other Vector) (result Vector, carry uint32) {
	return v.add64(other)
}

// Sub returns v-other (mod 2^width) and a borrow flag: 1 if other > v,
// meaning the subtraction underflowed and wrapped around.
func (v Vector) Sub(other Vector) (result Vector, borrow uint32) {
	if v.value >= other.value {
		return Vector{value: v.value - other.value, width: v.width}, 0
	}
	mask := uint32(1)<<v.width - 1
	wrapped := (uint32(1)<<v.width - other.value + v.value) & mask
	return Vector{value: wrapped, width: v.width}, 1
}

// And, Or, Xor, Not are the bitwise operations. All preserve width.
func (v Vector) And(other Vector) Vector { return Vector{value: v.value & other.value, width: v.width} }
func (v Vector) Or(other Vector) Vector  { return Vector{value: v.value | other.value, width: v.width} }
func (v Vector) Xor(other Vector) Vector { return Vector{value: v.value ^ other.value, width: v.width} }

func (v Vector) Not() Vector {
	mask := uint32(1)<<v.width - 1
	return Vector{value: ^v.value & mask, width: v.width}
}

// Reversed returns a Vector with bit order reversed within its width. Used
// to reproduce the ALU's SUB underflow quirk.
func (v Vector) Reversed() Vector {
	var out uint32
	for i := uint(0); i < v.width; i++ {
		out = (out << 1) | uint32(v.Bit(i))
	}
	return Vector{value: out, width: v.width}
}

// Divide splits v into two halves of bitSize bits each: the upper half
// (most significant bits) and the lower half (least significant bits).
// v's width must be 2*bitSize.
func (v Vector) Divide(bitSize uint) (upper, lower Vector) {
	lowerMask := uint32(1)<<bitSize - 1
	lower = Vector{value: v.value & lowerMask, width: bitSize}
	upper = Vector{value: (v.value >> bitSize) & lowerMask, width: bitSize}
	return upper, lower
}

// Select indexes into a slice by the integer value of a selector Vector,
// the Go equivalent of the source's bit-vector-keyed demultiplexer used to
// pick a register or a dispatch-table entry.
func Select[T any](selector Vector, options []T) T {
	return options[selector.Int()]
}
