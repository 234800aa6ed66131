package sim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/wordgen"
)

type TestMode int

const (
	TestFast TestMode = iota
	TestSlow
)

func (m TestMode) String() string {
	switch m {
	case TestFast:
		return "FAST"
	case TestSlow:
		return "SLOW"
	}
	return "UNKNOWN"
}

func ParseTestMode(s string) (TestMode, error) {
	switch strings.ToUpper(s) {
	case "FAST":
		return TestFast, nil
	case "SLOW":
		return TestSlow, nil
	}
	return 0, fmt.Errorf("%w: test mode %q", ErrConfig, s)
}

// PlanEntry is one code configuration to self-test. Param is the number of
// repetitions for REPETITION and t for BCH; Hamming ignores it.
type PlanEntry struct {
	Kind       ecc.Kind
	K          int
	Perm       int
	Param      int
	Iterations int
}

func (e PlanEntry) Build() (ecc.Scheme, error) {
	switch e.Kind {
	case ecc.KindRepetition:
		return ecc.NewRepetition(e.K, e.Param, e.Perm)
	case ecc.KindHamming:
		return ecc.NewHamming(e.K, e.Perm)
	case ecc.KindBCH:
		return ecc.NewBCH(e.K, e.Param, e.Perm)
	}
	return nil, fmt.Errorf("%w: kind %d", ecc.ErrUnknownScheme, int(e.Kind))
}

var (
	hammingFastK = []int{1, 2, 3, 4, 7, 8, 15, 16, 31, 32, 63, 64, 65, 127, 128, 129, 255, 256}
	repFastK     = []int{1, 2, 3, 4, 7, 8, 15, 16, 31, 32, 64, 128, 256}
	repSlowK     = []int{1, 2, 3, 4, 7, 8, 15, 16, 31, 32, 63, 64, 127, 128, 255, 256, 511, 512}
	bchSlowK     = []int{1, 2, 3, 4, 7, 8, 15, 16, 31, 32, 64, 128, 256}
)

// TestPlan lists the configurations of each family for a mode, Hamming
// first, then BCH, then repetition.
func TestPlan(mode TestMode) [][]PlanEntry {
	var ham, bch, rep []PlanEntry
	switch mode {
	case TestFast:
		for p := 0; p < 10; p++ {
			for _, k := range hammingFastK {
				ham = append(ham, PlanEntry{Kind: ecc.KindHamming, K: k, Perm: p, Iterations: 1})
			}
		}
		for t := 1; t <= 7; t++ {
			bch = append(bch, PlanEntry{Kind: ecc.KindBCH, K: 128, Param: t, Iterations: 100})
		}
		for p := 0; p < 2; p++ {
			for _, k := range repFastK {
				for reps := 3; reps <= 9; reps += 2 {
					rep = append(rep, PlanEntry{Kind: ecc.KindRepetition, K: k, Perm: p, Param: reps, Iterations: 1})
				}
			}
		}
	case TestSlow:
		for p := 0; p < 10; p++ {
			for k := 1; k < 1000; k <<= 1 {
				if k > 1 {
					ham = append(ham, PlanEntry{Kind: ecc.KindHamming, K: k - 1, Perm: p, Iterations: 100})
				}
				ham = append(ham,
					PlanEntry{Kind: ecc.KindHamming, K: k, Perm: p, Iterations: 100},
					PlanEntry{Kind: ecc.KindHamming, K: k + 1, Perm: p, Iterations: 100})
			}
			for _, k := range bchSlowK {
				for t := 3; t <= 9; t += 2 {
					bch = append(bch, PlanEntry{Kind: ecc.KindBCH, K: k, Perm: p, Param: t, Iterations: 100})
				}
			}
			for _, k := range repSlowK {
				for reps := 3; reps <= 11; reps += 2 {
					rep = append(rep, PlanEntry{Kind: ecc.KindRepetition, K: k, Perm: p, Param: reps, Iterations: 100})
				}
			}
		}
	}
	return [][]PlanEntry{ham, bch, rep}
}

// describe is the short human-readable identity of a code.
func describe(s ecc.Scheme) string {
	name := s.Kind().String()
	if s.Kind() == ecc.KindRepetition {
		name = "REP"
	}
	return fmt.Sprintf("%s: p:%d t:%d k:%d n:%d", name, s.Permutation(), s.CorrectionCapability(), s.DataBits(), s.CodeBits())
}

// SelfTest encodes an all-ones word and, for every error count from 0 to
// the code length, flips exactly that many random bits and decodes. Up to
// t flips the data must come back intact.
func SelfTest(s ecc.Scheme, rng *rand.Rand) error {
	data := ecc.Ones(s.DataBits())
	code := s.Encode(data)
	t := s.CorrectionCapability()
	for nerrs := 0; nerrs <= s.CodeBits(); nerrs++ {
		recv := code.Clone()
		if err := errmodel.InjectN(recv, wordgen.AllTrue, wordgen.AllOnes, nerrs, rng); err != nil {
			return err
		}
		if induced := ecc.HammingDistance(code, recv); induced != nerrs {
			return &ecc.InvariantError{
				Scheme:   describe(s),
				Msg:      fmt.Sprintf("%d errors induced, %d transmitted", induced, nerrs),
				CodeSent: code, CodeRecv: recv, DataSent: data,
			}
		}
		got := s.Decode(recv)
		if after := ecc.HammingDistance(data, got); nerrs <= t && after != 0 {
			return &ecc.InvariantError{
				Scheme:   describe(s),
				Msg:      fmt.Sprintf("observed %d errors when %d induced and %d correctable", after, nerrs, t),
				CodeSent: code, CodeRecv: recv, DataSent: data, DataRecv: got,
			}
		}
	}
	return nil
}

// RunSelfTest runs the plan of mode family by family on p and returns the
// first failure.
func RunSelfTest(ctx context.Context, e *env.Env, p *pool.Pool, mode TestMode, seed int64) error {
	lg := e.Module("selftest")
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	p.Start()

	var next atomic.Int64
	for _, family := range TestPlan(mode) {
		if len(family) == 0 {
			continue
		}
		name := family[0].Kind.String()
		e.Printf("Testing %s\n", name)
		lg.Info("testing", "family", name, "mode", mode, "configs", len(family))

		for _, entry := range family {
			p.Submit(1, func(int) (any, error) {
				s, err := entry.Build()
				if err != nil {
					err = fmt.Errorf("selftest: build %+v: %w", entry, err)
					cancel(err)
					return nil, err
				}
				for i := 0; i < entry.Iterations; i++ {
					rseed := seed + next.Add(1)
					p.Submit(0, func(int) (any, error) {
						if ctx.Err() != nil {
							return nil, context.Cause(ctx)
						}
						if err := SelfTest(s, rand.New(rand.NewSource(rseed))); err != nil {
							cancel(err)
							return nil, err
						}
						return nil, nil
					})
				}
				return s, nil
			})
		}
		pollOutstanding(ctx, p, fixed(500*time.Millisecond), func(st pool.Stats) {
			e.Printf("Testing: [%d/%d] jobs remaining\n", st.Outstanding, st.Outstanding+st.Completed)
		})
		p.Wait()
		p.ResetStats()
		if err := context.Cause(ctx); err != nil {
			lg.Error("self-test failed", "family", name, "err", err)
			return err
		}
	}
	e.Printf("\nTest complete\n")
	return nil
}
