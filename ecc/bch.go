package ecc

import (
	"fmt"
	"math/bits"
)

// MaxBCHFieldOrder bounds the search over GF(2^m) when looking for a code.
const MaxBCHFieldOrder = 13

// BCH is a binary, narrow-sense, primitive BCH code shortened to the
// requested number of data bits. Codewords are systematic:
// parity bits first, then the data bits.
type BCH struct {
	k     int // requested data bits
	t     int
	perm  int
	field *Field
	n     int // full code length 2^m - 1
	kCode int // full code dimension
	g     []int
	uid   uint64
}

// NewBCH searches increasing field orders, starting at ceil(log2 k), for the
// smallest code with at least k data bits that corrects t errors.
func NewBCH(k, t, permutation int) (*BCH, error) {
	if k <= 0 || t <= 0 {
		return nil, fmt.Errorf("bch: invalid parameters k=%d t=%d: %w", k, t, ErrNoCode)
	}
	m := bits.Len(uint(k - 1))
	if m < MinFieldOrder {
		m = MinFieldOrder
	}
	for ; m <= MaxBCHFieldOrder; m++ {
		if t >= 1<<(m-1) {
			continue
		}
		f, err := NewField(m, permutation)
		if err != nil {
			return nil, err
		}
		g, kCode := generatorPoly(f, t)
		if kCode <= 0 || kCode < k {
			continue
		}
		c := &BCH{k: k, t: t, perm: permutation, field: f, n: f.N(), kCode: kCode, g: g}
		c.uid = polyUID(g, f.Poly(), []int{k, t})
		return c, nil
	}
	return nil, fmt.Errorf("bch: no code with k>=%d t=%d for m<=%d: %w", k, t, MaxBCHFieldOrder, ErrNoCode)
}

// cyclotomicCosets partitions 1..n-1 into cosets {r, 2r, 4r, ...} mod n,
// ordered by smallest representative.
func cyclotomicCosets(n int) [][]int {
	seen := make([]bool, n)
	var out [][]int
	for r := 1; r < n; r++ {
		if seen[r] {
			continue
		}
		set := []int{r}
		seen[r] = true
		for x := (2 * r) % n; x != r; x = (2 * x) % n {
			set = append(set, x)
			seen[x] = true
		}
		out = append(out, set)
	}
	return out
}

// generatorPoly multiplies the minimal polynomials of alpha^1..alpha^2t.
// It returns the binary coefficients (lowest degree first) and the code
// dimension n - deg(g).
func generatorPoly(f *Field, t int) ([]int, int) {
	n := f.N()
	hd := 2*t + 1
	var zeros []int
	for _, set := range cyclotomicCosets(n) {
		for _, x := range set {
			if x >= 1 && x < hd {
				zeros = append(zeros, set...)
				break
			}
		}
	}
	rdncy := len(zeros)
	kCode := n - rdncy
	if kCode <= 0 || rdncy == 0 {
		return nil, kCode
	}

	size := rdncy + 1
	if size < 2 {
		size = 2
	}
	g := make([]int, size)
	g[0] = f.AlphaTo(zeros[0])
	g[1] = 1
	for ii := 1; ii < rdncy; ii++ {
		z := zeros[ii]
		g[ii+1] = 1
		for jj := ii; jj > 0; jj-- {
			if g[jj] != 0 {
				g[jj] = g[jj-1] ^ f.AlphaTo((f.IndexOf(g[jj])+z)%n)
			} else {
				g[jj] = g[jj-1]
			}
		}
		g[0] = f.AlphaTo((f.IndexOf(g[0]) + z) % n)
	}
	return g, kCode
}

func (c *BCH) Kind() Kind                { return KindBCH }
func (c *BCH) Name() string              { return fmt.Sprintf("BCH_T%d", c.t) }
func (c *BCH) CorrectionCapability() int { return c.t }
func (c *BCH) DataBits() int             { return c.k }
func (c *BCH) CodeBits() int             { return c.n - c.kCode + c.k }
func (c *BCH) Permutation() int          { return c.perm }
func (c *BCH) UID() uint64               { return c.uid }
func (c *BCH) Ready() bool               { return c != nil && c.g != nil }

func (c *BCH) M() int { return c.field.M() }

// N is the unshortened code length.
func (c *BCH) N() int { return c.n }

// K is the unshortened code dimension.
func (c *BCH) K() int { return c.kCode }

func (c *BCH) Field() *Field { return c.field }

// Generator returns the generator polynomial coefficients, lowest degree first.
func (c *BCH) Generator() []int { return append([]int(nil), c.g...) }

// Encode computes the remainder of x^(n-k)·d(x) by g(x) with an LFSR over
// the zero-padded data and prefixes it to the data bits.
func (c *BCH) Encode(data Bits) Bits {
	if len(data) != c.k {
		panic(fmt.Sprintf("bch: encode got %d bits, want %d", len(data), c.k))
	}
	L := c.n - c.kCode
	rpoly := make([]uint8, L)
	for i := c.kCode - 1; i >= 0; i-- {
		var d uint8
		if i < c.k {
			d = data[i]
		}
		fb := d ^ rpoly[L-1]
		if fb != 0 {
			for j := L - 1; j > 0; j-- {
				if c.g[j] != 0 {
					rpoly[j] = rpoly[j-1] ^ fb
				} else {
					rpoly[j] = rpoly[j-1]
				}
			}
			if c.g[0] != 0 {
				rpoly[0] = 1
			} else {
				rpoly[0] = 0
			}
		} else {
			for j := L - 1; j > 0; j-- {
				rpoly[j] = rpoly[j-1]
			}
			rpoly[0] = 0
		}
	}
	out := make(Bits, 0, L+c.k)
	out = append(out, rpoly...)
	return append(out, data...)
}

// Decode corrects up to t errors. When the locator's root count does not
// match its degree the errors are uncorrectable and the received data bits
// are returned unchanged.
func (c *BCH) Decode(code Bits) Bits {
	if len(code) != c.CodeBits() {
		panic(fmt.Sprintf("bch: decode got %d bits, want %d", len(code), c.CodeBits()))
	}
	recd := make(Bits, c.n)
	copy(recd, code)
	c.correct(recd)
	off := c.n - c.kCode
	return recd[off : off+c.k].Clone()
}

// correct runs syndrome computation, Berlekamp's algorithm and a Chien
// search on a full-length received word, flipping bits in place.
func (c *BCH) correct(recd Bits) {
	f := c.field
	n := c.n
	t := c.t
	t2 := 2 * t

	// syndromes in index form
	s := make([]int, t2+1)
	synErr := false
	for i := 1; i <= t2; i++ {
		acc := 0
		for j := 0; j < n; j++ {
			if recd[j] != 0 {
				acc ^= f.AlphaTo((i * j) % n)
			}
		}
		if acc != 0 {
			synErr = true
		}
		s[i] = f.IndexOf(acc)
	}
	if !synErr {
		return
	}

	width := 3*t + 2
	if width < t2+1 {
		width = t2 + 1
	}
	elp := make([][]int, t2+2)
	for i := range elp {
		elp[i] = make([]int, width)
	}
	d := make([]int, t2+2)
	l := make([]int, t2+2)
	ulu := make([]int, t2+2)

	d[0] = 0 // index form
	d[1] = s[1]
	elp[0][0] = 0 // index form
	elp[1][0] = 1 // polynomial form
	for i := 1; i < t2; i++ {
		elp[0][i] = -1
		elp[1][i] = 0
	}
	l[0], l[1] = 0, 0
	ulu[0], ulu[1] = -1, 0
	u := 0

	for {
		u++
		if d[u] == -1 {
			l[u+1] = l[u]
			for i := 0; i <= l[u]; i++ {
				elp[u+1][i] = elp[u][i]
				elp[u][i] = f.IndexOf(elp[u][i])
			}
		} else {
			// find q < u with d[q] != 0 and maximal u - l[q]
			q := u - 1
			for d[q] == -1 && q > 0 {
				q--
			}
			if q > 0 {
				for j := q - 1; j >= 0; j-- {
					if d[j] != -1 && ulu[q] < ulu[j] {
						q = j
					}
				}
			}
			if l[u] > l[q]+u-q {
				l[u+1] = l[u]
			} else {
				l[u+1] = l[q] + u - q
			}
			for i := range elp[u+1] {
				elp[u+1][i] = 0
			}
			for i := 0; i <= l[q]; i++ {
				if elp[q][i] != -1 {
					elp[u+1][i+u-q] = f.AlphaTo((d[u] + n - d[q] + elp[q][i]) % n)
				}
			}
			for i := 0; i <= l[u]; i++ {
				elp[u+1][i] ^= elp[u][i]
				elp[u][i] = f.IndexOf(elp[u][i])
			}
		}
		ulu[u+1] = u - l[u+1]

		if u < t2 {
			acc := 0
			if s[u+1] != -1 {
				acc = f.AlphaTo(s[u+1])
			}
			for i := 1; i <= l[u+1]; i++ {
				if s[u+1-i] != -1 && elp[u+1][i] != 0 {
					acc ^= f.AlphaTo((s[u+1-i] + f.IndexOf(elp[u+1][i])) % n)
				}
			}
			d[u+1] = f.IndexOf(acc)
		}
		if !(u < t2 && l[u+1] <= t) {
			break
		}
	}

	u++
	deg := l[u]
	if deg > t {
		return
	}
	reg := make([]int, deg+1)
	for i := 1; i <= deg; i++ {
		reg[i] = f.IndexOf(elp[u][i])
	}
	loc := make([]int, 0, deg)
	for i := 1; i <= n; i++ {
		q := 1
		for j := 1; j <= deg; j++ {
			if reg[j] != -1 {
				reg[j] = (reg[j] + j) % n
				q ^= f.AlphaTo(reg[j])
			}
		}
		if q == 0 {
			loc = append(loc, n-i)
		}
	}
	if len(loc) != deg {
		return
	}
	for _, p := range loc {
		recd[p] ^= 1
	}
}
