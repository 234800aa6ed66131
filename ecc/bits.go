package ecc

import (
	"strconv"
	"strings"
)

// Bits is a fixed-length bit vector; every element is 0 or 1.
type Bits []uint8

func NewBits(n int) Bits { return make(Bits, n) }

// Ones returns a vector of n set bits.
func Ones(n int) Bits {
	b := make(Bits, n)
	for i := range b {
		b[i] = 1
	}
	return b
}

// BitsOf builds a vector from ints, mapping any nonzero value to 1.
func BitsOf(v ...int) Bits {
	b := make(Bits, len(v))
	for i, x := range v {
		if x != 0 {
			b[i] = 1
		}
	}
	return b
}

func (b Bits) Clone() Bits { return append(Bits(nil), b...) }

func (b Bits) Equal(o Bits) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// Weight counts set bits.
func (b Bits) Weight() int {
	w := 0
	for _, x := range b {
		w += int(x)
	}
	return w
}

func (b Bits) String() string {
	var sb strings.Builder
	for i, x := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(x)))
	}
	return sb.String()
}

// HammingDistance counts positions where a and b differ. Both must have the
// same length.
func HammingDistance(a, b Bits) int {
	if len(a) != len(b) {
		panic("ecc: hamming distance of vectors with different lengths")
	}
	d := 0
	for i := range a {
		d += int(a[i] ^ b[i])
	}
	return d
}
