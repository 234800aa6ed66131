package sim

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(pool.Options{Workers: 2, Log: log.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Shutdown()) })
	return p
}

func baseSweep(t *testing.T) Sweep {
	return Sweep{
		Bursts:       100,
		BurstsPerJob: 30,
		BurstLengths: []int{4},
		Patterns:     []wordgen.DataPattern{wordgen.AllOnes},
		Models:       []errmodel.Vector{{errmodel.NewUniformRandom(0)}},
		Cells:        []wordgen.CellDistribution{wordgen.AllTrue},
		Observables:  []simwire.Observable{simwire.PerBitErrorCount, simwire.ErrorsPerBurst},
		Schemes:      []ecc.Scheme{hsc4(t)},
		Seed:         7,
	}
}

func TestJobsOrderAndSplit(t *testing.T) {
	a, b := ecc.BitsOf(1, 0, 1, 0), ecc.BitsOf(0, 1, 1, 1)
	rep, err := ecc.NewRepetition(4, 3, 0)
	require.NoError(t, err)
	sw := baseSweep(t)
	sw.Bursts = 25
	sw.BurstsPerJob = 10
	sw.Patterns = []wordgen.DataPattern{wordgen.Custom, wordgen.AllOnes, wordgen.Custom}
	sw.Customs = []ecc.Bits{a, b}
	sw.Schemes = append(sw.Schemes, rep)
	sw = sw.normalized()
	require.NoError(t, sw.Validate())
	require.Equal(t, uint64(3*2*3), sw.NumJobs())

	var got []*Job
	for j := range sw.Jobs() {
		got = append(got, j)
	}
	require.Len(t, got, 18)
	sizes := []uint64{got[0].Bursts, got[1].Bursts, got[2].Bursts}
	require.Equal(t, []uint64{10, 10, 5}, sizes)
	require.Equal(t, "HSC", got[0].Scheme.Name())
	require.Equal(t, "REP_T1", got[3].Scheme.Name())
	require.Equal(t, a, got[0].Custom)
	require.Equal(t, wordgen.AllOnes, got[6].Pattern)
	require.Nil(t, got[6].Custom)
	require.Equal(t, b, got[12].Custom)
	require.Equal(t, []simwire.Observable{simwire.ErrorsPerBurst, simwire.PerBitErrorCount}, got[0].Observables)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Sweep){
		"no burst lengths": func(sw *Sweep) { sw.BurstLengths = nil },
		"no schemes":       func(sw *Sweep) { sw.Schemes = nil },
		"custom missing":   func(sw *Sweep) { sw.Patterns = []wordgen.DataPattern{wordgen.Custom} },
		"custom wrong size": func(sw *Sweep) {
			sw.Patterns = []wordgen.DataPattern{wordgen.Custom}
			sw.Customs = []ecc.Bits{ecc.Ones(5)}
		},
		"model length": func(sw *Sweep) {
			sw.Models = []errmodel.Vector{{errmodel.NewNormal(), errmodel.NewNormal()}}
		},
	} {
		t.Run(name, func(t *testing.T) {
			sw := baseSweep(t)
			mutate(&sw)
			sw = sw.normalized()
			require.ErrorIs(t, sw.Validate(), ErrConfig)
		})
	}

	sw := baseSweep(t)
	sw.Models = []errmodel.Vector{make(errmodel.Vector, 7)}
	for i := range sw.Models[0] {
		sw.Models[0][i] = errmodel.NewNormal()
	}
	require.NoError(t, sw.Validate())
}

func TestAliasedSchemesAreNotCollisions(t *testing.T) {
	b0, err := ecc.NewBCH(4, 1, 0)
	require.NoError(t, err)
	alias, err := ecc.NewBCH(4, 1, ecc.NumPrimitivePolys(b0.M()))
	require.NoError(t, err)
	require.Equal(t, b0.UID(), alias.UID())

	sw := baseSweep(t)
	sw.Schemes = []ecc.Scheme{b0, alias}
	require.NoError(t, sw.Validate())
}

func TestRun(t *testing.T) {
	var out, progress bytes.Buffer
	e := env.New(&out, &progress, log.Discard(), 1)
	p := newPool(t)
	sw := baseSweep(t)

	require.NoError(t, Run(context.Background(), e, p, sw))
	require.Zero(t, p.Outstanding())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	payload, ok := strings.CutPrefix(lines[0], simwire.TagECC+" ")
	require.True(t, ok, lines[0])
	require.NotContains(t, payload, " ", "scheme JSON stays on one token")
	back, err := ecc.UnmarshalScheme([]byte(payload))
	require.NoError(t, err)
	require.Equal(t, sw.Schemes[0].UID(), back.UID())
	require.Equal(t, "[INFO] Starting ECC simulations", lines[1])
	require.Contains(t, progress.String(), "[INFO] Starting ECC simulations")

	data := lines[2:]
	require.Len(t, data, 4*2)
	var bursts, code, dat uint64
	for _, l := range data {
		rec, err := simwire.ParseData(l)
		require.NoError(t, err)
		require.Equal(t, sw.Schemes[0].UID(), rec.UID)
		require.Equal(t, 7, rec.BurstCodeBits)
		if rec.Observable != simwire.ErrorsPerBurst {
			continue
		}
		bursts += rec.Words
		for _, b := range rec.Buckets {
			require.Zero(t, b.N)
			code += b.Code
			dat += b.Data
		}
	}
	require.Equal(t, uint64(100), bursts)
	require.Equal(t, uint64(100), code)
	require.Equal(t, uint64(100), dat)
}

// countingWriter records the highest pool backlog seen while a job writes.
type countingWriter struct {
	p    *pool.Pool
	mu   sync.Mutex
	buf  bytes.Buffer
	peak uint64
}

func (w *countingWriter) Write(b []byte) (int, error) {
	out := w.p.Stats().Outstanding
	w.mu.Lock()
	defer w.mu.Unlock()
	w.peak = max(w.peak, out)
	return w.buf.Write(b)
}

func TestRunBoundsOutstandingJobs(t *testing.T) {
	p, err := pool.New(pool.Options{Workers: 8, Log: log.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Shutdown()) })

	sw := baseSweep(t)
	sw.Bursts = 200
	sw.BurstsPerJob = 1
	sw.MaxOutstanding = 3
	sw.Observables = []simwire.Observable{simwire.ErrorsPerBurst}
	nsw := sw.normalized()
	require.Equal(t, uint64(200), nsw.NumJobs())

	stop := make(chan struct{})
	var sampled atomic.Uint64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if o := p.Stats().Outstanding; o > sampled.Load() {
				sampled.Store(o)
			}
		}
	}()

	w := &countingWriter{p: p}
	err = Run(context.Background(), env.New(w, nil, log.Discard(), 0), p, sw)
	close(stop)
	<-done
	require.NoError(t, err)
	require.LessOrEqual(t, sampled.Load(), uint64(3))
	require.LessOrEqual(t, w.peak, uint64(3))

	var data int
	for _, l := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		if strings.HasPrefix(l, simwire.TagData+" ") {
			data++
		}
	}
	require.Equal(t, 200, data)
}

func TestRunDeterministicForSeed(t *testing.T) {
	run := func() map[string]bool {
		var out bytes.Buffer
		sw := baseSweep(t)
		sw.Models = []errmodel.Vector{{errmodel.NewUniformRandom(0.2)}}
		sw.Patterns = []wordgen.DataPattern{wordgen.Random}
		require.NoError(t, Run(context.Background(), env.New(&out, nil, log.Discard(), 0), newPool(t), sw))
		set := map[string]bool{}
		for _, l := range strings.Split(out.String(), "\n") {
			set[l] = true
		}
		return set
	}
	// job completion order varies, the set of lines does not
	require.Equal(t, run(), run())
}

func TestRunRejectsBadSweep(t *testing.T) {
	var out bytes.Buffer
	sw := baseSweep(t)
	sw.Cells = nil
	err := Run(context.Background(), env.New(&out, nil, log.Discard(), 0), newPool(t), sw)
	require.ErrorIs(t, err, ErrConfig)
	require.Zero(t, out.Len(), "nothing is printed for an invalid sweep")
}

func TestRunCancelled(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sw := baseSweep(t)
	sw.BurstsPerJob = 1
	err := Run(ctx, env.New(&out, nil, log.Discard(), 0), newPool(t), sw)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFormatETA(t *testing.T) {
	require.Equal(t, "0:00:00", formatETA(0))
	require.Equal(t, "1:02:03", formatETA(time.Hour+2*time.Minute+3*time.Second+400*time.Millisecond))
	require.Equal(t, "27:00:59", formatETA(27*time.Hour+59*time.Second))
}

func TestDebug(t *testing.T) {
	var out bytes.Buffer
	e := env.New(&out, nil, log.Discard(), 0)
	opts := DebugOptions{Words: 2, Repeats: 1, DataBits: []int{4, 8}}
	require.NoError(t, Debug(context.Background(), e, newPool(t), opts))

	var hist int
	for _, l := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.Contains(l, " dp:") {
			hist++
		}
	}
	// 3 patterns x 2 widths x 6 codes
	require.Equal(t, 36, hist)
	require.True(t, strings.HasPrefix(out.String(), "Preparing ECC codes...\nStarting ECC simulations\n"))
}

func TestRunSelfTestFast(t *testing.T) {
	if testing.Short() {
		t.Skip("full FAST plan")
	}
	var progress bytes.Buffer
	e := env.New(&bytes.Buffer{}, &progress, log.Discard(), 0)
	require.NoError(t, RunSelfTest(context.Background(), e, newPool(t), TestFast, 1))
	require.Contains(t, progress.String(), "Testing HSC\n")
	require.Contains(t, progress.String(), "Testing BCH\n")
	require.Contains(t, progress.String(), "Testing REPETITION\n")
	require.True(t, strings.HasSuffix(progress.String(), "\nTest complete\n"))
}
