// Package dropper decides independent per-cell fault events.
package dropper

import (
	"math/rand"
)

// Bernoulli is a u<p decision with a fixed probability p.
type Bernoulli float64

// Fires draws once from rng. Probabilities at or below 0 never fire and
// at or above 1 always fire, without consuming a draw.
func (p Bernoulli) Fires(rng *rand.Rand) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < float64(p)
}
