package sim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"slices"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

var ErrConfig = errors.New("sim: invalid configuration")

const (
	DefaultBurstsPerJob   = 10000
	DefaultMaxOutstanding = 1000000

	progressFast = 64 * time.Millisecond
	progressSlow = 2 * time.Second
)

// Sweep is the cartesian parameter space of a simulation run. Bursts
// bursts are simulated for every point, split into jobs of at most
// BurstsPerJob bursts.
type Sweep struct {
	Bursts         uint64
	BurstsPerJob   uint64
	MaxOutstanding int64

	BurstLengths []int
	Mappings     []wordgen.Mapping
	Patterns     []wordgen.DataPattern
	// Customs holds one pattern per Custom entry of Patterns, in order.
	Customs     []ecc.Bits
	Models      []errmodel.Vector
	Cells       []wordgen.CellDistribution
	Observables []simwire.Observable
	Schemes     []ecc.Scheme

	// Seed and the job index determine each job's random stream.
	Seed int64
	// Trace hands the run logger to every job for per-burst dumps.
	Trace bool
}

// normalized returns a copy with defaults applied. Burst lengths, mappings,
// cell distributions and observables are sets: sorted and deduplicated.
func (sw Sweep) normalized() Sweep {
	if sw.BurstsPerJob == 0 {
		sw.BurstsPerJob = DefaultBurstsPerJob
	}
	if sw.MaxOutstanding <= 0 {
		sw.MaxOutstanding = DefaultMaxOutstanding
	}
	if len(sw.Mappings) == 0 {
		sw.Mappings = []wordgen.Mapping{wordgen.Blocks}
	}
	if len(sw.Observables) == 0 {
		sw.Observables = []simwire.Observable{simwire.ErrorsPerBurst}
	}
	sw.BurstLengths = sortedSet(sw.BurstLengths)
	sw.Mappings = sortedSet(sw.Mappings)
	sw.Cells = sortedSet(sw.Cells)
	sw.Observables = sortedSet(sw.Observables)
	return sw
}

func sortedSet[T cmp.Ordered](in []T) []T {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Validate reports configuration errors before anything is submitted.
func (sw *Sweep) Validate() error {
	switch {
	case len(sw.BurstLengths) == 0:
		return fmt.Errorf("%w: no burst lengths", ErrConfig)
	case len(sw.Patterns) == 0:
		return fmt.Errorf("%w: no data patterns", ErrConfig)
	case len(sw.Models) == 0:
		return fmt.Errorf("%w: no error models", ErrConfig)
	case len(sw.Cells) == 0:
		return fmt.Errorf("%w: no true-/anti-cell distributions", ErrConfig)
	case len(sw.Schemes) == 0:
		return fmt.Errorf("%w: no ECC schemes", ErrConfig)
	}
	for _, bl := range sw.BurstLengths {
		if bl <= 0 {
			return fmt.Errorf("%w: burst length %d", ErrConfig, bl)
		}
	}

	ncustom := 0
	for _, dp := range sw.Patterns {
		if dp == wordgen.Custom {
			ncustom++
		}
	}
	if ncustom != len(sw.Customs) {
		return fmt.Errorf("%w: %d custom data patterns requested, %d given", ErrConfig, ncustom, len(sw.Customs))
	}
	for _, c := range sw.Customs {
		for _, bl := range sw.BurstLengths {
			if len(c) != bl {
				return fmt.Errorf("%w: custom data pattern must match the burst length: bl %d, pattern length %d",
					ErrConfig, bl, len(c))
			}
		}
	}

	for _, s := range sw.Schemes {
		if s == nil || !s.Ready() {
			return fmt.Errorf("%w: ECC scheme not ready", ErrConfig)
		}
		for _, m := range sw.Models {
			if err := m.Validate(s.CodeBits()); err != nil {
				return fmt.Errorf("%w: %s(k=%d): %w", ErrConfig, s.Name(), s.DataBits(), err)
			}
		}
	}
	return ecc.CheckUnique(distinct(sw.Schemes))
}

// distinct drops repeated codes, e.g. BCH permutations that alias the same
// primitive polynomial. Such repeats are simulated as independent samples
// of one experiment and only need to be distinct from everything else.
func distinct(schemes []ecc.Scheme) []ecc.Scheme {
	type key struct {
		uid  uint64
		name string
		k    int
	}
	seen := make(map[key]bool, len(schemes))
	out := make([]ecc.Scheme, 0, len(schemes))
	for _, s := range schemes {
		k := key{s.UID(), s.Name(), s.DataBits()}
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}

// NumJobs counts the jobs the sweep expands into.
func (sw *Sweep) NumJobs() uint64 {
	perPoint := sw.Bursts / sw.BurstsPerJob
	if sw.Bursts%sw.BurstsPerJob != 0 {
		perPoint++
	}
	points := len(sw.Patterns) * len(sw.BurstLengths) * len(sw.Mappings) *
		len(sw.Models) * len(sw.Cells) * len(sw.Schemes)
	return perPoint * uint64(points)
}

// Jobs yields the jobs in sweep order: pattern, burst length, mapping,
// error model, cell distribution, scheme.
func (sw *Sweep) Jobs() iter.Seq[*Job] {
	return func(yield func(*Job) bool) {
		customIdx := 0
		for _, dp := range sw.Patterns {
			var custom ecc.Bits
			if dp == wordgen.Custom {
				custom = sw.Customs[customIdx]
				customIdx++
			}
			for _, bl := range sw.BurstLengths {
				for _, w2b := range sw.Mappings {
					for _, em := range sw.Models {
						for _, cd := range sw.Cells {
							for _, s := range sw.Schemes {
								for left := sw.Bursts; left > 0; {
									n := min(left, sw.BurstsPerJob)
									left -= n
									job := &Job{
										Scheme:      s,
										Bursts:      n,
										BurstBits:   bl,
										Mapping:     w2b,
										Model:       em,
										Cells:       cd,
										Pattern:     dp,
										Custom:      custom,
										Observables: sw.Observables,
									}
									if !yield(job) {
										return
									}
								}
							}
						}
					}
				}
			}
		}
	}
}

// Run prints the scheme records and simulates the whole sweep on p. It
// returns once every submitted job has finished, with the first job error
// or the context's cause.
func Run(ctx context.Context, e *env.Env, p *pool.Pool, sweep Sweep) error {
	sw := sweep.normalized()
	if err := sw.Validate(); err != nil {
		return err
	}
	lg := e.Module("sim")

	for _, s := range sw.Schemes {
		js, err := ecc.MarshalScheme(s)
		if err != nil {
			return fmt.Errorf("sim: encode %s: %w", s.Name(), err)
		}
		if err := e.Sink.WriteLine(simwire.FormatECC(js)); err != nil {
			return err
		}
		logAliasing(lg, s)
	}
	start := simwire.FormatInfo("Starting ECC simulations")
	if err := e.Sink.WriteLine(start); err != nil {
		return err
	}
	if e.Verbosity > 0 {
		e.Printf("%s\n", start)
	}
	lg.Info("starting simulations", "jobs", sw.NumJobs(), "bursts", sw.Bursts, "schemes", len(sw.Schemes))

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	sem := semaphore.NewWeighted(sw.MaxOutstanding)
	p.Start()

	var idx int64
	for job := range sw.Jobs() {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if sw.Trace {
			job.Log = lg
		}
		seed := sw.Seed + idx
		idx++
		p.SubmitNotify(0, func(int) (any, error) {
			if ctx.Err() != nil {
				return nil, context.Cause(ctx)
			}
			res, err := SimulateBurst(job, rand.New(rand.NewSource(seed)))
			if err != nil {
				cancel(err)
				return nil, err
			}
			for _, line := range Lines(job, res) {
				if err := e.Emit(line); err != nil {
					cancel(err)
					return nil, err
				}
			}
			return nil, nil
		}, func() { sem.Release(1) })
	}
	lg.Debug("submission done", "jobs", idx)

	reportProgress(ctx, e, p)
	p.Wait()
	p.ResetStats()
	if err := context.Cause(ctx); err != nil {
		lg.Error("simulation aborted", "err", err)
		return err
	}
	return nil
}

// reportProgress prints the remaining job count until the pool drains or
// ctx ends.
func reportProgress(ctx context.Context, e *env.Env, p *pool.Pool) {
	began := time.Now()
	every := func(st pool.Stats) time.Duration {
		if st.Outstanding <= 8 {
			return progressFast
		}
		return progressSlow
	}
	pollOutstanding(ctx, p, every, func(st pool.Stats) {
		var eta time.Duration
		if st.Completed > 0 {
			eta = time.Since(began) / time.Duration(st.Completed) * time.Duration(st.Outstanding)
		}
		e.Printf("Jobs remaining: %d/%d (ETA: %s)\n", st.Outstanding, st.Outstanding+st.Completed, formatETA(eta))
	})
}

// pollOutstanding calls report while p has outstanding jobs and ctx is
// live, waiting every(st) between calls.
func pollOutstanding(ctx context.Context, p *pool.Pool, every func(pool.Stats) time.Duration, report func(pool.Stats)) {
	st := p.Stats()
	tick := time.NewTicker(every(st))
	defer tick.Stop()
	for st.Outstanding > 0 {
		report(st)
		tick.Reset(every(st))
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		st = p.Stats()
	}
}

func fixed(d time.Duration) func(pool.Stats) time.Duration {
	return func(pool.Stats) time.Duration { return d }
}

// formatETA renders d as h:mm:ss.
func formatETA(d time.Duration) string {
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}

// logAliasing notes BCH permutations that wrap onto an already used
// primitive polynomial; such schemes are identical to a lower permutation.
func logAliasing(lg *log.Logger, s ecc.Scheme) {
	b, ok := s.(*ecc.BCH)
	if !ok {
		return
	}
	if idx := b.Field().PolyIndex(); idx != b.Permutation() {
		lg.Debug("permutation aliases primitive polynomial",
			"scheme", s.Name(), "k", s.DataBits(), "permutation", b.Permutation(),
			"polynomial", idx, "available", ecc.NumPrimitivePolys(b.M()))
	}
}
