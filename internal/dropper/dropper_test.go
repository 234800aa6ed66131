package dropper

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBernoulliBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		require.False(t, Bernoulli(0).Fires(rng))
		require.False(t, Bernoulli(-0.5).Fires(rng))
		require.True(t, Bernoulli(1).Fires(rng))
	}
	// saturated probabilities leave the stream untouched
	require.Equal(t, rand.New(rand.NewSource(1)).Float64(), rng.Float64())
}

func TestBernoulliRate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const draws = 100000
	fired := 0
	for i := 0; i < draws; i++ {
		if Bernoulli(0.25).Fires(rng) {
			fired++
		}
	}
	require.InDelta(t, 0.25, float64(fired)/draws, 0.01)
}

func TestBernoulliSeeded(t *testing.T) {
	a, b := rand.New(rand.NewSource(3)), rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		require.Equal(t, Bernoulli(0.5).Fires(a), Bernoulli(0.5).Fires(b))
	}
}
