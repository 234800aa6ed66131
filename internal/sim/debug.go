package sim

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/wordgen"
)

// DebugOptions bounds the debug sweep.
type DebugOptions struct {
	Words        int // data words per worker
	Permutations int // default 1
	Repeats      int // workers per (pattern, code), default 10
	// DataBits defaults to 4, 8, ..., 1024 and their neighbours.
	DataBits []int
	Seed     int64
}

func (o *DebugOptions) setDefaults() {
	if o.Words <= 0 {
		o.Words = 1
	}
	if o.Permutations <= 0 {
		o.Permutations = 1
	}
	if o.Repeats <= 0 {
		o.Repeats = 10
	}
	if len(o.DataBits) == 0 {
		for base := 4; base <= 1024; base <<= 1 {
			o.DataBits = append(o.DataBits, base-1, base, base+1)
		}
	}
	o.DataBits = sortedSet(o.DataBits)
}

// debugCodes is the code set exercised for each data width.
func debugCodes(k, perm int) ([]ecc.Scheme, error) {
	var out []ecc.Scheme
	rep, err := ecc.NewRepetition(k, 3, perm)
	if err != nil {
		return nil, err
	}
	ham, err := ecc.NewHamming(k, perm)
	if err != nil {
		return nil, err
	}
	out = append(out, rep, ham)
	for _, t := range []int{3, 5, 7, 9} {
		b, err := ecc.NewBCH(k, t, perm)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// DebugWorker sends words of pattern dp through s with every exact error
// count and returns the "transmitted:observed:count" histogram line.
func DebugWorker(s ecc.Scheme, words int, dp wordgen.DataPattern, rng *rand.Rand) (string, error) {
	type key struct{ tx, obs int }
	acc := make(map[key]uint64)
	t := s.CorrectionCapability()
	for w := 0; w < words; w++ {
		data := ecc.NewBits(s.DataBits())
		if _, err := wordgen.Generate(data, dp, nil, wordgen.AllTrue, rng); err != nil {
			return "", err
		}
		code := s.Encode(data)
		for tx := 0; tx <= s.CodeBits(); tx++ {
			recv := code.Clone()
			if err := errmodel.InjectN(recv, wordgen.AllTrue, wordgen.Charged, tx, rng); err != nil {
				return "", err
			}
			if induced := ecc.HammingDistance(code, recv); induced > tx {
				return "", &ecc.InvariantError{
					Scheme:   describe(s),
					Msg:      fmt.Sprintf("more errors induced (%d) than transmitted (%d)", induced, tx),
					CodeSent: code, CodeRecv: recv, DataSent: data,
				}
			}
			got := s.Decode(recv)
			obs := ecc.HammingDistance(data, got)
			if tx <= t && obs != 0 {
				return "", &ecc.InvariantError{
					Scheme:   describe(s),
					Msg:      fmt.Sprintf("observed %d errors when %d induced and %d correctable", obs, tx, t),
					CodeSent: code, CodeRecv: recv, DataSent: data, DataRecv: got,
				}
			}
			acc[key{tx, obs}]++
		}
	}

	keys := make([]key, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b key) int {
		if a.tx != b.tx {
			return a.tx - b.tx
		}
		return a.obs - b.obs
	})
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s dp:%s [ ", describe(s), dp)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%d:%d:%d ", k.tx, k.obs, acc[k])
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

// Debug runs the codec debug sweep: for every permutation, every data
// width and every data pattern, Repeats workers push words through each
// debug code and emit their error-count histograms.
func Debug(ctx context.Context, e *env.Env, p *pool.Pool, opts DebugOptions) error {
	opts.setDefaults()
	lg := e.Module("debug")
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	p.Start()

	status := func(msg string) error {
		if e.Verbosity > 0 {
			e.Printf("%s\n", msg)
		}
		return e.Sink.WriteLine(msg)
	}

	var seq int64
	for perm := 0; perm < opts.Permutations; perm++ {
		if err := status("Preparing ECC codes..."); err != nil {
			return err
		}
		codes := make(map[int][]ecc.Scheme, len(opts.DataBits))
		for _, k := range opts.DataBits {
			cs, err := debugCodes(k, perm)
			if err != nil {
				return fmt.Errorf("debug: k=%d p=%d: %w", k, perm, err)
			}
			codes[k] = cs
		}
		lg.Debug("codes ready", "permutation", perm, "widths", len(opts.DataBits))

		if err := status("Starting ECC simulations"); err != nil {
			return err
		}
		for _, dp := range []wordgen.DataPattern{wordgen.Random, wordgen.Charged, wordgen.AllOnes} {
			for _, k := range opts.DataBits {
				for _, s := range codes[k] {
					for r := 0; r < opts.Repeats; r++ {
						seed := opts.Seed + seq
						seq++
						p.Submit(0, func(int) (any, error) {
							if ctx.Err() != nil {
								return nil, context.Cause(ctx)
							}
							line, err := DebugWorker(s, opts.Words, dp, rand.New(rand.NewSource(seed)))
							if err == nil {
								err = e.Emit(line)
							}
							if err != nil {
								cancel(err)
								return nil, err
							}
							return nil, nil
						})
					}
				}
			}
		}

		pollOutstanding(ctx, p, fixed(500*time.Millisecond), func(st pool.Stats) {
			e.Printf("Jobs remaining: %d/%d\n", st.Outstanding, st.Outstanding+st.Completed)
		})
		p.Wait()
		p.ResetStats()
		if err := context.Cause(ctx); err != nil {
			lg.Error("debug sweep failed", "permutation", perm, "err", err)
			return err
		}
	}
	return nil
}
