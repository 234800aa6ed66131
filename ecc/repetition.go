package ecc

import (
	"fmt"
	"math/rand"
)

// Repetition repeats every data bit reps times and scatters the copies over
// the codeword with a permutation-seeded shuffle. Decoding is a majority vote.
type Repetition struct {
	k    int
	reps int
	perm int
	// src[i] is the data bit carried by codeword position i.
	src []int
	g   *Matrix // (k*reps) x k
	r   *Matrix // k x (k*reps)
	uid uint64
}

func NewRepetition(k, reps, permutation int) (*Repetition, error) {
	if k <= 0 {
		return nil, fmt.Errorf("repetition: invalid number of data bits %d: %w", k, ErrNoCode)
	}
	if reps <= 0 || reps&1 == 0 {
		return nil, fmt.Errorf("repetition: invalid number of repetitions %d, majority vote needs an odd count: %w", reps, ErrNoCode)
	}
	n := k * reps
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(int64(permutation)))
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	c := &Repetition{k: k, reps: reps, perm: permutation, src: make([]int, n), g: NewMatrix(n, k)}
	for i, row := range order {
		// unshuffled row b*reps+j carries data bit b
		bit := row / reps
		c.src[i] = bit
		c.g.Set(i, bit, 1)
	}
	c.r = c.g.Transpose()
	c.uid = matrixUID(c.g, c.r)
	return c, nil
}

func (c *Repetition) Kind() Kind                { return KindRepetition }
func (c *Repetition) Name() string              { return fmt.Sprintf("REP_T%d", c.CorrectionCapability()) }
func (c *Repetition) CorrectionCapability() int { return (c.reps - 1) / 2 }
func (c *Repetition) DataBits() int             { return c.k }
func (c *Repetition) CodeBits() int             { return c.k * c.reps }
func (c *Repetition) Permutation() int          { return c.perm }
func (c *Repetition) UID() uint64               { return c.uid }
func (c *Repetition) Ready() bool               { return c != nil && c.g != nil }

// Generator returns a copy of the bit mapping matrix.
func (c *Repetition) Generator() *Matrix { return c.g.Clone() }

func (c *Repetition) Encode(data Bits) Bits {
	if len(data) != c.k {
		panic(fmt.Sprintf("repetition: encode got %d bits, want %d", len(data), c.k))
	}
	out := make(Bits, len(c.src))
	for i, b := range c.src {
		out[i] = data[b]
	}
	return out
}

func (c *Repetition) Decode(code Bits) Bits {
	if len(code) != len(c.src) {
		panic(fmt.Sprintf("repetition: decode got %d bits, want %d", len(code), len(c.src)))
	}
	sums := c.r.MulVecInt(code)
	out := make(Bits, c.k)
	for i, s := range sums {
		out[i] = uint8((2 * s) / (c.reps + 1))
	}
	return out
}
