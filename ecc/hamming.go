package ecc

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrInvariant = errors.New("ecc: code matrices violate construction invariants")

// Hamming is a single-error-correcting Hamming code in systematic form with
// a permutation-seeded choice of data-bit syndromes.
//
//	H = [A | I_p]   parity check, p x n
//	G = [I_k ; A]   generator, n x k
//	R = [I_k | 0]   degenerator, k x n
type Hamming struct {
	k, p int
	perm int
	g    *Matrix
	h    *Matrix
	r    *Matrix
	// syndrome value -> codeword position
	cols map[int]int
	uid  uint64
}

// parityBits returns the smallest p with 2^p >= p+k+1.
func parityBits(k int) int {
	p := 0
	for (1 << p) < p+k+1 {
		p++
	}
	return p
}

func NewHamming(k, permutation int) (*Hamming, error) {
	if k <= 0 {
		return nil, fmt.Errorf("hamming: invalid number of data bits %d: %w", k, ErrNoCode)
	}
	p := parityBits(k)
	n := k + p

	// non-power-of-two syndromes are free for data columns
	syn := make([]int, 0, 1<<p)
	for i := 0; i < 1<<p; i++ {
		if i&(i-1) != 0 {
			syn = append(syn, i)
		}
	}
	idx := make([]int, len(syn))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(int64(permutation)))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	h := NewMatrix(p, n)
	for col := 0; col < k; col++ {
		for row := 0; row < p; row++ {
			h.Set(row, col, uint8((syn[idx[col]]>>row)&1))
		}
	}
	for row := 0; row < p; row++ {
		h.Set(row, k+row, 1)
	}
	if rank := h.Clone().RowEchelon(); rank != p {
		return nil, fmt.Errorf("hamming: parity-check rank %d, want %d: %w", rank, p, ErrInvariant)
	}

	g := NewMatrix(n, k)
	for i := 0; i < k; i++ {
		g.Set(i, i, 1)
	}
	for row := 0; row < p; row++ {
		for col := 0; col < k; col++ {
			g.Set(k+row, col, h.At(row, col))
		}
	}
	r := NewMatrix(k, n)
	for i := 0; i < k; i++ {
		r.Set(i, i, 1)
	}
	return newHamming(k, p, permutation, g, h, r)
}

// NewHammingFromMatrices rebuilds a code from persisted matrices. The uid
// recomputed from (G, H, R) must equal the stored one.
func NewHammingFromMatrices(k, permutation int, g, h, r *Matrix, uid uint64) (*Hamming, error) {
	if k <= 0 || g == nil || h == nil || r == nil {
		return nil, fmt.Errorf("hamming: incomplete matrix set: %w", ErrInvariant)
	}
	p := h.Rows()
	n := k + p
	if h.Cols() != n || g.Rows() != n || g.Cols() != k || r.Rows() != k || r.Cols() != n {
		return nil, fmt.Errorf("hamming: matrix dimensions G=%dx%d H=%dx%d R=%dx%d inconsistent with k=%d: %w",
			g.Rows(), g.Cols(), h.Rows(), h.Cols(), r.Rows(), r.Cols(), k, ErrInvariant)
	}
	if got := matrixUID(g, h, r); got != uid {
		return nil, fmt.Errorf("hamming: stored uid %d, computed %d: %w", uid, got, ErrChecksum)
	}
	return newHamming(k, p, permutation, g.Clone(), h.Clone(), r.Clone())
}

func newHamming(k, p, permutation int, g, h, r *Matrix) (*Hamming, error) {
	c := &Hamming{k: k, p: p, perm: permutation, g: g, h: h, r: r, cols: make(map[int]int, k+p)}
	if err := c.check(); err != nil {
		return nil, err
	}
	c.uid = matrixUID(g, h, r)
	return c, nil
}

// check verifies H·G == 0 and that the columns of H are nonzero and distinct.
func (c *Hamming) check() error {
	if !c.h.Mul(c.g).IsZero() {
		return fmt.Errorf("hamming: H*G != 0: %w", ErrInvariant)
	}
	for col := 0; col < c.h.Cols(); col++ {
		v := syndromeValue(c.h.Column(col))
		if v == 0 {
			return fmt.Errorf("hamming: column %d of H is zero: %w", col, ErrInvariant)
		}
		if prev, dup := c.cols[v]; dup {
			return fmt.Errorf("hamming: columns %d and %d of H are equal: %w", prev, col, ErrInvariant)
		}
		c.cols[v] = col
	}
	return nil
}

func syndromeValue(s Bits) int {
	v := 0
	for i, b := range s {
		v |= int(b) << i
	}
	return v
}

func (c *Hamming) Kind() Kind                { return KindHamming }
func (c *Hamming) Name() string              { return "HSC" }
func (c *Hamming) CorrectionCapability() int { return 1 }
func (c *Hamming) DataBits() int             { return c.k }
func (c *Hamming) CodeBits() int             { return c.k + c.p }
func (c *Hamming) ParityBits() int           { return c.p }
func (c *Hamming) Permutation() int          { return c.perm }
func (c *Hamming) UID() uint64               { return c.uid }
func (c *Hamming) Ready() bool               { return c != nil && c.h != nil }

func (c *Hamming) Generator() *Matrix   { return c.g.Clone() }
func (c *Hamming) ParityCheck() *Matrix { return c.h.Clone() }
func (c *Hamming) Degenerator() *Matrix { return c.r.Clone() }

func (c *Hamming) Encode(data Bits) Bits {
	if len(data) != c.k {
		panic(fmt.Sprintf("hamming: encode got %d bits, want %d", len(data), c.k))
	}
	return c.g.MulVec(data)
}

func (c *Hamming) Decode(code Bits) Bits {
	if len(code) != c.k+c.p {
		panic(fmt.Sprintf("hamming: decode got %d bits, want %d", len(code), c.k+c.p))
	}
	s := syndromeValue(c.h.MulVec(code))
	if s != 0 {
		if pos, ok := c.cols[s]; ok {
			code = code.Clone()
			code[pos] ^= 1
		}
	}
	return c.r.MulVec(code)
}
