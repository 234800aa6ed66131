package ecc

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/sim"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

func randomBits(rng *rand.Rand, n int) ecc.Bits {
	b := ecc.NewBits(n)
	for i := range b {
		b[i] = uint8(rng.Intn(2))
	}
	return b
}

// Every registered scheme survives a JSON round trip and, with up to t
// errors anywhere in the codeword, returns the original data.
func TestRegisteredSchemes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, name := range ecc.Names() {
		for _, k := range []int{1, 4, 11, 32} {
			for p := 0; p < 3; p++ {
				s, err := ecc.Build(name, k, p)
				require.NoError(t, err, "%s k=%d p=%d", name, k, p)

				js, err := ecc.MarshalScheme(s)
				require.NoError(t, err)
				back, err := ecc.UnmarshalScheme(js)
				require.NoError(t, err)
				require.Equal(t, s.UID(), back.UID())

				for trial := 0; trial < 20; trial++ {
					data := randomBits(rng, k)
					code := s.Encode(data)
					require.Equal(t, code, back.Encode(data))
					recv := code.Clone()
					for _, i := range rng.Perm(len(code))[:s.CorrectionCapability()] {
						recv[i] ^= 1
					}
					require.Equal(t, data, s.Decode(recv), "%s k=%d p=%d", name, k, p)
				}
			}
		}
	}
}

type run struct {
	schemes map[uint64]ecc.Scheme
	records []*simwire.DataRecord
}

func simulate(t *testing.T, sw sim.Sweep) *run {
	t.Helper()
	p, err := pool.New(pool.Options{Workers: 4, Log: log.Discard()})
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Shutdown()) }()

	var out bytes.Buffer
	require.NoError(t, sim.Run(context.Background(), env.New(&out, nil, log.Discard(), 0), p, sw))

	r := &run{schemes: map[uint64]ecc.Scheme{}}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		switch {
		case strings.HasPrefix(line, simwire.TagECC+" "):
			s, err := ecc.UnmarshalScheme([]byte(strings.TrimPrefix(line, simwire.TagECC+" ")))
			require.NoError(t, err)
			r.schemes[s.UID()] = s
		case strings.HasPrefix(line, simwire.TagData+" "):
			rec, err := simwire.ParseData(line)
			require.NoError(t, err)
			r.records = append(r.records, rec)
		}
	}
	return r
}

// merged sums the N_ERRORS_PER_BURST buckets of all records matching keep.
func (r *run) merged(keep func(*simwire.DataRecord) bool) map[int]simwire.Bucket {
	out := map[int]simwire.Bucket{}
	for _, rec := range r.records {
		if rec.Observable != simwire.ErrorsPerBurst || !keep(rec) {
			continue
		}
		for _, b := range rec.Buckets {
			acc := out[b.N]
			acc.N = b.N
			acc.Code += b.Code
			acc.Data += b.Data
			out[b.N] = acc
		}
	}
	return out
}

func TestErrorFreeSimulation(t *testing.T) {
	h, err := ecc.NewHamming(4, 0)
	require.NoError(t, err)
	r := simulate(t, sim.Sweep{
		Bursts:       100,
		BurstsPerJob: 7,
		BurstLengths: []int{4},
		Patterns:     []wordgen.DataPattern{wordgen.AllOnes},
		Models:       []errmodel.Vector{{errmodel.NewUniformRandom(0)}},
		Cells:        []wordgen.CellDistribution{wordgen.AllTrue},
		Schemes:      []ecc.Scheme{h},
		Seed:         1,
	})
	require.Contains(t, r.schemes, h.UID())
	got := r.merged(func(*simwire.DataRecord) bool { return true })
	require.Equal(t, map[int]simwire.Bucket{0: {N: 0, Code: 100, Data: 100}}, got)
}

// Retention only discharges charged cells: repetition-coded ones are
// charged in true cells and discharged in anti cells.
func TestRetentionFollowsCellPolarity(t *testing.T) {
	rep, err := ecc.Build("REP_T1", 4, 0)
	require.NoError(t, err)
	r := simulate(t, sim.Sweep{
		Bursts:       50,
		BurstLengths: []int{4},
		Patterns:     []wordgen.DataPattern{wordgen.AllOnes},
		Models:       []errmodel.Vector{{errmodel.NewDataRetention(1)}},
		Cells:        []wordgen.CellDistribution{wordgen.AllTrue, wordgen.AllAnti},
		Schemes:      []ecc.Scheme{rep},
		Seed:         2,
	})
	cells := func(cd wordgen.CellDistribution) func(*simwire.DataRecord) bool {
		return func(rec *simwire.DataRecord) bool { return rec.Cells == cd.String() }
	}
	require.Equal(t, map[int]simwire.Bucket{0: {N: 0, Code: 50, Data: 50}}, r.merged(cells(wordgen.AllAnti)))
	require.Equal(t, map[int]simwire.Bucket{
		4:  {N: 4, Code: 0, Data: 50},
		12: {N: 12, Code: 50, Data: 0},
	}, r.merged(cells(wordgen.AllTrue)))
}

// Every histogram accounts for every burst, and a burst that arrives clean
// decodes clean.
func TestNoisySweepAccounting(t *testing.T) {
	var schemes []ecc.Scheme
	for _, name := range []string{"HSC", "BCH_T2", "REP_T2"} {
		s, err := ecc.Build(name, 16, 1)
		require.NoError(t, err)
		schemes = append(schemes, s)
	}
	models, err := errmodel.ParseTokens("UNIFORM_RANDOM,0.01,0.05")
	require.NoError(t, err)
	const bursts = 400
	r := simulate(t, sim.Sweep{
		Bursts:       bursts,
		BurstsPerJob: 100,
		BurstLengths: []int{16, 32},
		Patterns:     []wordgen.DataPattern{wordgen.Random, wordgen.Charged},
		Models:       models,
		Cells:        []wordgen.CellDistribution{wordgen.AllTrueOrAllAnti},
		Observables:  []simwire.Observable{simwire.ErrorsPerBurst, simwire.PerBitErrorCount},
		Schemes:      schemes,
		Seed:         3,
	})
	require.Len(t, r.schemes, 3)

	type point struct {
		uid uint64
		bl  int
		em  string
		dp  string
	}
	seen := map[point]bool{}
	for _, rec := range r.records {
		seen[point{rec.UID, rec.BurstBits, rec.Model, rec.Pattern}] = true
	}
	require.Len(t, seen, 3*2*2*2)

	for pt := range seen {
		got := r.merged(func(rec *simwire.DataRecord) bool {
			return point{rec.UID, rec.BurstBits, rec.Model, rec.Pattern} == pt
		})
		var code, data uint64
		for _, b := range got {
			code += b.Code
			data += b.Data
		}
		require.Equal(t, uint64(bursts), code, "%+v", pt)
		require.Equal(t, uint64(bursts), data, "%+v", pt)
		if clean, ok := got[0]; ok {
			require.LessOrEqual(t, clean.Code, clean.Data, "decoding never adds errors to a clean burst: %+v", pt)
		}
	}
}
