package errmodel

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTokens reads a comma separated model list. Each model name starts
// the next bit; every parameter group that follows a name is one
// alternative for that bit, e.g.
//
//	UNIFORM_RANDOM,0.1,0.2,NORMAL
//
// gives bit 0 two alternatives and bit 1 one. The result is the cartesian
// product of all alternatives.
func ParseTokens(s string) ([]Vector, error) {
	tok := strings.Split(s, ",")
	for i := range tok {
		tok[i] = strings.TrimSpace(tok[i])
	}
	var perBit [][]Descriptor
	for i := 0; i < len(tok); {
		m, err := ParseModel(tok[i])
		if err != nil {
			return nil, err
		}
		np := m.NumParams()
		i++
		var alts []Descriptor
		for {
			if i+np > len(tok) {
				return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrParamCount, m, np, len(tok)-i)
			}
			d, err := New(m, tok[i:i+np])
			if err != nil {
				return nil, err
			}
			alts = append(alts, d)
			i += np
			if i == len(tok) {
				break
			}
			if _, err := ParseModel(tok[i]); err == nil {
				break
			}
			if np == 0 {
				return nil, fmt.Errorf("%w: %s takes none, got %q", ErrParamCount, m, tok[i])
			}
		}
		perBit = append(perBit, alts)
	}
	return CartesianProduct(perBit), nil
}

// CartesianProduct enumerates every choice of one alternative per bit.
// Bit 0 varies fastest.
func CartesianProduct(perBit [][]Descriptor) []Vector {
	if len(perBit) == 0 {
		return nil
	}
	total := 1
	for _, alts := range perBit {
		if len(alts) == 0 {
			return nil
		}
		total *= len(alts)
	}
	out := make([]Vector, 0, total)
	count := make([]int, len(perBit))
	for {
		v := make(Vector, len(perBit))
		for b, alts := range perBit {
			v[b] = alts[count[b]]
		}
		out = append(out, v)

		b := 0
		for ; b < len(count); b++ {
			count[b]++
			if count[b] < len(perBit[b]) {
				break
			}
			count[b] = 0
		}
		if b == len(count) {
			return out
		}
	}
}

func parseFloat(m Model, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("errmodel: %s parameter: %w", m, err)
	}
	return f, nil
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(s))
}
