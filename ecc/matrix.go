package ecc

import (
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix over GF(2).
type Matrix struct {
	rows, cols int
	data       []uint8
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]uint8, rows*cols)}
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// MatrixFromRows copies rows of 0/1 ints; ok is false when the rows are
// ragged or contain values other than 0 and 1.
func MatrixFromRows(rows [][]int) (*Matrix, bool) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), true
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.cols {
			return nil, false
		}
		for c, v := range row {
			if v != 0 && v != 1 {
				return nil, false
			}
			m.Set(r, c, uint8(v))
		}
	}
	return m, true
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(r, c int) uint8     { return m.data[r*m.cols+c] }
func (m *Matrix) Set(r, c int, v uint8) { m.data[r*m.cols+c] = v & 1 }

func (m *Matrix) Clone() *Matrix {
	return &Matrix{rows: m.rows, cols: m.cols, data: append([]uint8(nil), m.data...)}
}

func (m *Matrix) Column(c int) Bits {
	out := make(Bits, m.rows)
	for r := 0; r < m.rows; r++ {
		out[r] = m.At(r, c)
	}
	return out
}

func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.cols, m.rows)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			t.Set(c, r, m.At(r, c))
		}
	}
	return t
}

// MulVec returns m·v mod 2.
func (m *Matrix) MulVec(v Bits) Bits {
	if len(v) != m.cols {
		panic("ecc: matrix-vector dimension mismatch")
	}
	out := make(Bits, m.rows)
	for r := 0; r < m.rows; r++ {
		row := m.data[r*m.cols : (r+1)*m.cols]
		var acc uint8
		for c, x := range row {
			acc ^= x & v[c]
		}
		out[r] = acc
	}
	return out
}

// MulVecInt returns the integer product m·v without reduction.
func (m *Matrix) MulVecInt(v Bits) []int {
	if len(v) != m.cols {
		panic("ecc: matrix-vector dimension mismatch")
	}
	out := make([]int, m.rows)
	for r := 0; r < m.rows; r++ {
		row := m.data[r*m.cols : (r+1)*m.cols]
		s := 0
		for c, x := range row {
			s += int(x & v[c])
		}
		out[r] = s
	}
	return out
}

// Mul returns m·o over the reals reduced mod 2, computed with gonum.
func (m *Matrix) Mul(o *Matrix) *Matrix {
	if m.cols != o.rows {
		panic("ecc: matrix dimension mismatch")
	}
	out := NewMatrix(m.rows, o.cols)
	if m.rows == 0 || o.cols == 0 || m.cols == 0 {
		return out
	}
	var p mat.Dense
	p.Mul(m.dense(), o.dense())
	for r := 0; r < out.rows; r++ {
		for c := 0; c < out.cols; c++ {
			out.Set(r, c, uint8(int(p.At(r, c))%2))
		}
	}
	return out
}

func (m *Matrix) dense() *mat.Dense {
	d := make([]float64, len(m.data))
	for i, x := range m.data {
		d[i] = float64(x)
	}
	return mat.NewDense(m.rows, m.cols, d)
}

func (m *Matrix) IsZero() bool {
	for _, x := range m.data {
		if x != 0 {
			return false
		}
	}
	return true
}

func (m *Matrix) Equal(o *Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// RowEchelon reduces m in place to row-echelon form over GF(2) and returns
// its rank.
func (m *Matrix) RowEchelon() int {
	row := 0
	for col := 0; col < m.cols && row < m.rows; col++ {
		pivot := -1
		for r := row; r < m.rows; r++ {
			if m.At(r, col) != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			continue
		}
		m.swapRows(row, pivot)
		for r := row + 1; r < m.rows; r++ {
			if m.At(r, col) != 0 {
				m.xorRow(r, row)
			}
		}
		row++
	}
	return row
}

func (m *Matrix) swapRows(a, b int) {
	if a == b {
		return
	}
	ra := m.data[a*m.cols : (a+1)*m.cols]
	rb := m.data[b*m.cols : (b+1)*m.cols]
	for i := range ra {
		ra[i], rb[i] = rb[i], ra[i]
	}
}

// xorRow sets row dst ^= row src.
func (m *Matrix) xorRow(dst, src int) {
	rd := m.data[dst*m.cols : (dst+1)*m.cols]
	rs := m.data[src*m.cols : (src+1)*m.cols]
	for i := range rd {
		rd[i] ^= rs[i]
	}
}

// IntRows returns the entries as nested int slices.
func (m *Matrix) IntRows() [][]int {
	out := make([][]int, m.rows)
	for r := range out {
		out[r] = make([]int, m.cols)
		for c := range out[r] {
			out[r][c] = int(m.At(r, c))
		}
	}
	return out
}

func (m *Matrix) appendDigits(sb *strings.Builder) {
	for _, x := range m.data {
		sb.WriteByte('0' + x)
	}
}
