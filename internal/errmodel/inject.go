package errmodel

import (
	"fmt"
	"math/rand"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/wordgen"
)

// Apply returns a copy of word after every cell has been evaluated against
// its descriptor under the given cell layout.
func Apply(word ecc.Bits, st wordgen.CellState, v Vector, rng *rand.Rand) ecc.Bits {
	out := make(ecc.Bits, len(word))
	for i, b := range word {
		out[i] = v.At(i).Evaluate(b, wordgen.IsTrueCell(st, i), rng)
	}
	return out
}

// InjectN flips exactly n uniformly chosen bits of word, which must hold
// the pattern dp written under distribution cd. Only layouts that leave
// the whole word charged or discharged can be honored; a discharged word
// cannot fail, so it is zeroed when n is 0 and rejected otherwise.
func InjectN(word ecc.Bits, cd wordgen.CellDistribution, dp wordgen.DataPattern, n int, rng *rand.Rand) error {
	if dp != wordgen.AllOnes && dp != wordgen.Charged {
		return fmt.Errorf("%w: data pattern %s", ErrUnsupported, dp)
	}
	var isCharged bool
	switch cd {
	case wordgen.AllTrueOrAllAnti:
		isCharged = dp == wordgen.Charged || rng.Intn(2) == 0
	case wordgen.AllTrue:
		isCharged = true
	case wordgen.AllAnti:
		isCharged = dp == wordgen.Charged
	default:
		return fmt.Errorf("%w: cell distribution %s", ErrUnsupported, cd)
	}

	if !isCharged {
		if n != 0 {
			return fmt.Errorf("%w: %d errors requested in a discharged word", ErrUnsupported, n)
		}
		for i := range word {
			word[i] = 0
		}
		return nil
	}
	if n < 0 || n > len(word) {
		return fmt.Errorf("%w: %d errors requested in %d bits", ErrUnsupported, n, len(word))
	}
	mask := make([]uint8, len(word))
	for i := 0; i < n; i++ {
		mask[i] = 1
	}
	rng.Shuffle(len(mask), func(i, j int) { mask[i], mask[j] = mask[j], mask[i] })
	for i := range word {
		word[i] ^= mask[i]
	}
	return nil
}
