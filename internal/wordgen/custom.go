package wordgen

import (
	"fmt"
	"strconv"

	"github.com/einsim-go/einsim/ecc"
)

// ParseCustom expands a "0b", "0o" or "0x" literal into bits. Every digit
// contributes 1, 3 or 4 bits, most significant first, and the first digit
// lands at index 0.
func ParseCustom(s string) (ecc.Bits, error) {
	if !IsCustom(s) {
		return nil, fmt.Errorf("%w: custom pattern %q must start with 0b, 0o or 0x", ErrUnknown, s)
	}
	var base, width int
	switch s[1] {
	case 'b', 'B':
		base, width = 2, 1
	case 'o', 'O':
		base, width = 8, 3
	default:
		base, width = 16, 4
	}
	digits := s[2:]
	if digits == "" {
		return nil, fmt.Errorf("wordgen: custom pattern %q has no digits", s)
	}
	out := make(ecc.Bits, 0, len(digits)*width)
	for i := 0; i < len(digits); i++ {
		v, err := strconv.ParseUint(digits[i:i+1], base, 8)
		if err != nil {
			return nil, fmt.Errorf("wordgen: custom pattern %q: %w", s, err)
		}
		for j := width - 1; j >= 0; j-- {
			out = append(out, uint8(v>>j)&1)
		}
	}
	return out, nil
}

const hexDigits = "0123456789abcdef"

// FormatCustom prints bits as lowercase hex without a prefix. The last bit
// is the least significant; a short leading group is left-padded.
func FormatCustom(b ecc.Bits) string {
	n := len(b)
	out := make([]byte, (n+3)/4)
	pos := len(out) - 1
	var v uint8
	for i := 0; i < n; i++ {
		v |= b[n-1-i] << (i % 4)
		if (i+1)%4 == 0 || i == n-1 {
			out[pos] = hexDigits[v]
			pos--
			v = 0
		}
	}
	return string(out)
}
