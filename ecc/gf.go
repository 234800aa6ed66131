package ecc

import (
	"errors"
	"fmt"
)

// GF(2^m) arithmetic through log/antilog tables built from a selectable
// primitive polynomial.

// MinFieldOrder and MaxFieldOrder span the primitive polynomial table.
// MaxTableOrder caps the fields NewField will materialize: its two lookup
// tables hold 2^m entries each.
const (
	MinFieldOrder = 3
	MaxFieldOrder = 32
	MaxTableOrder = 16
)

var ErrFieldOrder = errors.New("ecc: field order out of range")

// Field holds the tables of one GF(2^m). alphaTo maps an exponent to its
// element (polynomial form); indexOf maps an element back to its exponent,
// with indexOf[0] == -1.
type Field struct {
	m       int
	n       int
	polyIdx int
	poly    []int
	alphaTo []int
	indexOf []int
}

// NewField builds GF(2^m) using the primitive polynomial chosen by
// permutation modulo the number of polynomials known for m.
func NewField(m, permutation int) (*Field, error) {
	if m < MinFieldOrder || m > MaxFieldOrder {
		return nil, fmt.Errorf("%w: m=%d not in [%d,%d]", ErrFieldOrder, m, MinFieldOrder, MaxFieldOrder)
	}
	if m > MaxTableOrder {
		return nil, fmt.Errorf("%w: m=%d tables exceed 2^%d entries", ErrFieldOrder, m, MaxTableOrder)
	}
	choices := primitivePolys[m-MinFieldOrder]
	idx := permutation % len(choices)
	if idx < 0 {
		idx += len(choices)
	}
	poly := make([]int, m+1)
	for _, e := range choices[idx] {
		poly[e] = 1
	}
	f := &Field{m: m, n: 1<<m - 1, polyIdx: idx, poly: poly}
	f.generate()
	return f, nil
}

func (f *Field) generate() {
	m, n := f.m, f.n
	f.alphaTo = make([]int, n)
	f.indexOf = make([]int, n+1)
	mask := 1
	for i := 0; i < m; i++ {
		f.alphaTo[i] = mask
		f.indexOf[mask] = i
		if f.poly[i] != 0 {
			f.alphaTo[m] ^= mask
		}
		mask <<= 1
	}
	f.indexOf[f.alphaTo[m]] = m
	mask >>= 1
	for i := m + 1; i < n; i++ {
		if f.alphaTo[i-1] >= mask {
			f.alphaTo[i] = f.alphaTo[m] ^ ((f.alphaTo[i-1] ^ mask) << 1)
		} else {
			f.alphaTo[i] = f.alphaTo[i-1] << 1
		}
		f.indexOf[f.alphaTo[i]] = i
	}
	f.indexOf[0] = -1
}

func (f *Field) M() int { return f.m }

// N is the multiplicative group order 2^m - 1.
func (f *Field) N() int { return f.n }

// PolyIndex is the index of the selected polynomial after aliasing.
func (f *Field) PolyIndex() int { return f.polyIdx }

// Poly returns the coefficients of the primitive polynomial, lowest degree first.
func (f *Field) Poly() []int { return append([]int(nil), f.poly...) }

func (f *Field) AlphaTo(e int) int { return f.alphaTo[e] }

func (f *Field) IndexOf(x int) int { return f.indexOf[x] }

// Pow returns alpha^e with e reduced mod n.
func (f *Field) Pow(e int) int {
	e %= f.n
	if e < 0 {
		e += f.n
	}
	return f.alphaTo[e]
}

func (f *Field) Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.alphaTo[(f.indexOf[a]+f.indexOf[b])%f.n]
}

func (f *Field) Inv(a int) int {
	if a == 0 {
		return 0
	}
	return f.alphaTo[(f.n-f.indexOf[a])%f.n]
}
