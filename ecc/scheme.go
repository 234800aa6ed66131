package ecc

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies a code family.
type Kind int

const (
	KindRepetition Kind = iota
	KindHamming
	KindBCH
)

func (k Kind) String() string {
	switch k {
	case KindRepetition:
		return "REPETITION"
	case KindHamming:
		return "HSC"
	case KindBCH:
		return "BCH"
	}
	return "UNKNOWN"
}

var (
	ErrNoCode        = errors.New("ecc: no code exists for the requested parameters")
	ErrChecksum      = errors.New("ecc: uid checksum mismatch")
	ErrUnknownScheme = errors.New("ecc: unknown scheme")
	ErrUIDCollision  = errors.New("ecc: uid collision")
)

//go:generate mockgen -typed=false -destination eccmock/mock_scheme.go -package eccmock github.com/einsim-go/einsim/ecc Scheme

// Scheme is an immutable, ready-to-use code. Encode and Decode never modify
// their argument and are safe for concurrent use.
type Scheme interface {
	Kind() Kind
	// Name is the registry name, e.g. "BCH_T2".
	Name() string
	Encode(data Bits) Bits
	Decode(code Bits) Bits
	// CorrectionCapability is the number of bit flips per codeword that
	// are always corrected.
	CorrectionCapability() int
	DataBits() int
	CodeBits() int
	Permutation() int
	UID() uint64
	Ready() bool
}

// InvariantError reports a codec result that contradicts the code's
// guarantees. It always indicates a defect and is fatal for a run.
type InvariantError struct {
	Scheme   string
	Msg      string
	CodeSent Bits
	CodeRecv Bits
	DataSent Bits
	DataRecv Bits
}

func (e *InvariantError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", e.Msg, e.Scheme)
	if e.CodeSent != nil {
		fmt.Fprintf(&sb, "\n    > code_sent: %s", e.CodeSent)
	}
	if e.CodeRecv != nil {
		fmt.Fprintf(&sb, "\n    > code_rcvd: %s", e.CodeRecv)
	}
	if e.DataSent != nil {
		fmt.Fprintf(&sb, "\n    > data_sent: %s", e.DataSent)
	}
	if e.DataRecv != nil {
		fmt.Fprintf(&sb, "\n    > data_rcvd: %s", e.DataRecv)
	}
	return sb.String()
}

// Builder constructs a scheme of k data bits for a permutation.
type Builder func(k, permutation int) (Scheme, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Builder{}
)

func init() {
	for name, reps := range map[string]int{"REP_T1": 3, "REP_T2": 5, "REP_T3": 7} {
		reps := reps
		Register(name, func(k, p int) (Scheme, error) { return NewRepetition(k, reps, p) })
	}
	Register("HSC", func(k, p int) (Scheme, error) { return NewHamming(k, p) })
	for name, t := range map[string]int{"BCH_T1": 1, "BCH_T2": 2, "BCH_T3": 3} {
		t := t
		Register(name, func(k, p int) (Scheme, error) { return NewBCH(k, t, p) })
	}
}

// Register adds or replaces a named builder.
func Register(name string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToUpper(name)] = b
}

// Build constructs the named scheme. Names are case-insensitive.
func Build(name string, k, permutation int) (Scheme, error) {
	registryMu.RLock()
	b, ok := registry[strings.ToUpper(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return b(k, permutation)
}

// Names lists the registered scheme names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CheckUnique fails when two schemes share a uid.
func CheckUnique(schemes []Scheme) error {
	seen := make(map[uint64]Scheme, len(schemes))
	for _, s := range schemes {
		if prev, ok := seen[s.UID()]; ok {
			return fmt.Errorf("%w: %s(k=%d,p=%d) and %s(k=%d,p=%d) share uid %d", ErrUIDCollision,
				prev.Name(), prev.DataBits(), prev.Permutation(), s.Name(), s.DataBits(), s.Permutation(), s.UID())
		}
		seen[s.UID()] = s
	}
	return nil
}

// matrixUID hashes the concatenated entries of the given matrices.
func matrixUID(ms ...*Matrix) uint64 {
	var sb strings.Builder
	for _, m := range ms {
		m.appendDigits(&sb)
	}
	return xxhash.Sum64String(sb.String())
}

// polyUID hashes integer sequences, comma separated, one group per slice.
func polyUID(seqs ...[]int) uint64 {
	var sb strings.Builder
	for _, s := range seqs {
		for _, v := range s {
			sb.WriteString(strconv.Itoa(v))
			sb.WriteByte(',')
		}
		sb.WriteByte(';')
	}
	return xxhash.Sum64String(sb.String())
}
