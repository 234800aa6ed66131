// Package errmodel describes how individual cells fail and injects those
// failures into stored codewords.
package errmodel

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/einsim-go/einsim/internal/dropper"
)

var (
	ErrUnknownModel = errors.New("errmodel: unknown error model")
	ErrParamCount   = errors.New("errmodel: wrong number of model parameters")
	ErrVectorLength = errors.New("errmodel: error model vector length must be 1 or the codeword length")
	ErrUnsupported  = errors.New("errmodel: unsupported injection request")
)

type Model int

const (
	Normal Model = iota
	UniformRandom
	DataRetention
	DataRetentionNoisy
	StuckAt
)

var modelNames = [...]string{"NORMAL", "UNIFORM_RANDOM", "DATA_RETENTION", "DATA_RETENTION_NOISY", "STUCK_AT"}
var modelParams = [...]int{0, 1, 1, 2, 1}

func (m Model) String() string {
	if m < 0 || int(m) >= len(modelNames) {
		return "UNKNOWN"
	}
	return modelNames[m]
}

// NumParams is the number of parameters the model takes.
func (m Model) NumParams() int { return modelParams[m] }

func ParseModel(s string) (Model, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range modelNames {
		if u == n {
			return Model(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Descriptor decides the stored value of one cell. Implementations are
// immutable; all randomness comes from rng.
type Descriptor interface {
	Model() Model
	Evaluate(bit uint8, trueCell bool, rng *rand.Rand) uint8
	String() string
}

type normal struct{}

func NewNormal() Descriptor { return normal{} }

func (normal) Model() Model                                   { return Normal }
func (normal) Evaluate(bit uint8, _ bool, _ *rand.Rand) uint8 { return bit }
func (normal) String() string                                 { return "NORMAL()" }

type uniformRandom struct{ p float64 }

// NewUniformRandom flips every cell independently with probability p.
func NewUniformRandom(p float64) Descriptor { return uniformRandom{p: p} }

func (uniformRandom) Model() Model { return UniformRandom }

func (d uniformRandom) Evaluate(bit uint8, _ bool, rng *rand.Rand) uint8 {
	if dropper.Bernoulli(d.p).Fires(rng) {
		return bit ^ 1
	}
	return bit
}

func (d uniformRandom) String() string { return fmt.Sprintf("UNIFORM_RANDOM(p:%f)", d.p) }

type dataRetention struct{ p float64 }

// NewDataRetention flips charged cells with probability p. A cell is
// charged when it stores 1 as a true cell or 0 as an anti cell.
func NewDataRetention(p float64) Descriptor { return dataRetention{p: p} }

func (dataRetention) Model() Model { return DataRetention }

func (d dataRetention) Evaluate(bit uint8, trueCell bool, rng *rand.Rand) uint8 {
	if charged(bit, trueCell) && dropper.Bernoulli(d.p).Fires(rng) {
		return bit ^ 1
	}
	return bit
}

func (d dataRetention) String() string { return fmt.Sprintf("DATA_RETENTION(p:%f)", d.p) }

type dataRetentionNoisy struct{ p, n float64 }

// NewDataRetentionNoisy applies data retention with probability p and then
// an independent flip with probability n to every cell.
func NewDataRetentionNoisy(p, n float64) Descriptor { return dataRetentionNoisy{p: p, n: n} }

func (dataRetentionNoisy) Model() Model { return DataRetentionNoisy }

func (d dataRetentionNoisy) Evaluate(bit uint8, trueCell bool, rng *rand.Rand) uint8 {
	if charged(bit, trueCell) && dropper.Bernoulli(d.p).Fires(rng) {
		bit ^= 1
	}
	if dropper.Bernoulli(d.n).Fires(rng) {
		bit ^= 1
	}
	return bit
}

func (d dataRetentionNoisy) String() string {
	return fmt.Sprintf("DATA_RETENTION_NOISY(p:%f n:%f)", d.p, d.n)
}

type stuckAt struct{ v uint8 }

func NewStuckAt(v bool) Descriptor {
	if v {
		return stuckAt{v: 1}
	}
	return stuckAt{}
}

func (stuckAt) Model() Model                                   { return StuckAt }
func (d stuckAt) Evaluate(_ uint8, _ bool, _ *rand.Rand) uint8 { return d.v }
func (d stuckAt) String() string                               { return fmt.Sprintf("STUCK_AT(v:%d)", d.v) }

func charged(bit uint8, trueCell bool) bool { return (bit == 1) == trueCell }

// New builds a descriptor from textual parameters.
func New(m Model, params []string) (Descriptor, error) {
	if m < 0 || int(m) >= len(modelNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, int(m))
	}
	if len(params) != m.NumParams() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrParamCount, m, m.NumParams(), len(params))
	}
	switch m {
	case Normal:
		return NewNormal(), nil
	case UniformRandom, DataRetention:
		p, err := parseFloat(m, params[0])
		if err != nil {
			return nil, err
		}
		if m == UniformRandom {
			return NewUniformRandom(p), nil
		}
		return NewDataRetention(p), nil
	case DataRetentionNoisy:
		p, err := parseFloat(m, params[0])
		if err != nil {
			return nil, err
		}
		n, err := parseFloat(m, params[1])
		if err != nil {
			return nil, err
		}
		return NewDataRetentionNoisy(p, n), nil
	}
	v, err := parseBool(params[0])
	if err != nil {
		return nil, fmt.Errorf("errmodel: %s value: %w", m, err)
	}
	return NewStuckAt(v), nil
}

// Vector assigns a descriptor to every bit of a codeword. A single entry
// applies to all bits; a longer vector repeats for each codeword of a
// burst.
type Vector []Descriptor

func (v Vector) Validate(codeBits int) error {
	if len(v) == 1 || len(v) == codeBits {
		return nil
	}
	return fmt.Errorf("%w: got %d entries for %d bits", ErrVectorLength, len(v), codeBits)
}

func (v Vector) At(i int) Descriptor {
	if len(v) == 1 {
		return v[0]
	}
	return v[i%len(v)]
}

// String joins the descriptors with ';'.
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, d := range v {
		parts[i] = d.String()
	}
	return strings.Join(parts, ";")
}
