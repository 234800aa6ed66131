// Package wordgen writes data patterns into bursts and draws the
// true-/anti-cell layout a burst is stored in.
package wordgen

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/einsim-go/einsim/ecc"
)

var ErrUnknown = errors.New("wordgen: unknown value")

type DataPattern int

const (
	Random DataPattern = iota
	AllOnes
	Charged
	Custom
)

var dataPatternNames = [...]string{"RANDOM", "ALL_ONES", "CHARGED", "CUSTOM"}

func (d DataPattern) String() string {
	if d < 0 || int(d) >= len(dataPatternNames) {
		return "UNKNOWN"
	}
	return dataPatternNames[d]
}

// ParseDataPattern accepts the pattern names and any string with a 0b, 0o
// or 0x prefix, which denotes a custom pattern.
func ParseDataPattern(s string) (DataPattern, error) {
	u := strings.ToUpper(s)
	for i, n := range dataPatternNames {
		if u == n {
			return DataPattern(i), nil
		}
	}
	if IsCustom(s) {
		return Custom, nil
	}
	return 0, fmt.Errorf("%w: data pattern %q", ErrUnknown, s)
}

// IsCustom reports whether s carries a custom pattern prefix.
func IsCustom(s string) bool {
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'b', 'B', 'o', 'O', 'x', 'X':
		return true
	}
	return false
}

type CellDistribution int

const (
	AllTrueOrAllAnti CellDistribution = iota
	AllTrue
	AllAnti
	ColstripeT
	ColstripeA
)

var cellDistributionNames = [...]string{"ALL_TRUE_OR_ALL_ANTI", "ALL_TRUE", "ALL_ANTI", "COLSTRIPE_T", "COLSTRIPE_A"}

func (c CellDistribution) String() string {
	if c < 0 || int(c) >= len(cellDistributionNames) {
		return "UNKNOWN"
	}
	return cellDistributionNames[c]
}

func ParseCellDistribution(s string) (CellDistribution, error) {
	u := strings.ToUpper(s)
	for i, n := range cellDistributionNames {
		if u == n {
			return CellDistribution(i), nil
		}
	}
	return 0, fmt.Errorf("%w: true-/anti-cell distribution %q", ErrUnknown, s)
}

// CellState is the realized layout of one burst.
type CellState int

const (
	StateAllTrue CellState = iota
	StateAllAnti
	StateAltT
	StateAltA
)

var cellStateNames = [...]string{"ALL_TRUE", "ALL_ANTI", "ALT_T", "ALT_A"}

func (c CellState) String() string {
	if c < 0 || int(c) >= len(cellStateNames) {
		return "UNKNOWN"
	}
	return cellStateNames[c]
}

func ParseCellState(s string) (CellState, error) {
	u := strings.ToUpper(s)
	for i, n := range cellStateNames {
		if u == n {
			return CellState(i), nil
		}
	}
	return 0, fmt.Errorf("%w: true-/anti-cell state %q", ErrUnknown, s)
}

// IsTrueCell reports whether bit i of a burst in state s is a true cell.
func IsTrueCell(s CellState, i int) bool {
	switch s {
	case StateAllTrue:
		return true
	case StateAllAnti:
		return false
	case StateAltT:
		return i%2 == 0
	case StateAltA:
		return i%2 == 1
	}
	panic(fmt.Sprintf("wordgen: invalid cell state %d", int(s)))
}

// Mapping places data words into a burst. Only consecutive blocks exist.
type Mapping int

const Blocks Mapping = iota

func (m Mapping) String() string {
	if m == Blocks {
		return "BLOCKS"
	}
	return "UNKNOWN"
}

func ParseMapping(s string) (Mapping, error) {
	if strings.EqualFold(s, "BLOCKS") {
		return Blocks, nil
	}
	return 0, fmt.Errorf("%w: word-to-burst mapping %q", ErrUnknown, s)
}

// DrawState realizes a cell distribution for one burst.
func DrawState(cd CellDistribution, rng *rand.Rand) (CellState, error) {
	switch cd {
	case AllTrueOrAllAnti:
		if rng.Intn(2) == 0 {
			return StateAllTrue, nil
		}
		return StateAllAnti, nil
	case AllTrue:
		return StateAllTrue, nil
	case AllAnti:
		return StateAllAnti, nil
	case ColstripeT:
		return StateAltT, nil
	case ColstripeA:
		return StateAltA, nil
	}
	return 0, fmt.Errorf("%w: true-/anti-cell distribution %d", ErrUnknown, int(cd))
}

// Generate draws the cell state of the burst and overwrites word with the
// data pattern. custom is only read for the Custom pattern and must have
// the same length as word.
func Generate(word ecc.Bits, dp DataPattern, custom ecc.Bits, cd CellDistribution, rng *rand.Rand) (CellState, error) {
	st, err := DrawState(cd, rng)
	if err != nil {
		return 0, err
	}
	switch dp {
	case Random:
		for i := range word {
			word[i] = uint8(rng.Intn(2))
		}
	case AllOnes:
		for i := range word {
			word[i] = 1
		}
	case Charged:
		for i := range word {
			if IsTrueCell(st, i) {
				word[i] = 1
			} else {
				word[i] = 0
			}
		}
	case Custom:
		if len(custom) != len(word) {
			return 0, fmt.Errorf("wordgen: custom pattern has %d bits, burst has %d", len(custom), len(word))
		}
		copy(word, custom)
	default:
		return 0, fmt.Errorf("%w: data pattern %d", ErrUnknown, int(dp))
	}
	return st, nil
}
