// Package sim drives the Monte-Carlo ECC simulation: every job writes a
// batch of bursts, encodes them word by word, injects errors into the
// stored codewords, decodes, and reports error histograms as [DATA] lines.
package sim

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

// Layout is how a burst of data bits splits into codewords. The last data
// word is zero-padded by Pad bits; the pad is still encoded and stored.
type Layout struct {
	Words         int
	Pad           int
	BurstCodeBits int
}

func NewLayout(k, n, burstBits int) Layout {
	pad := (k - burstBits%k) % k
	words := burstBits / k
	if pad != 0 {
		words++
	}
	return Layout{Words: words, Pad: pad, BurstCodeBits: n * words}
}

// Job is one batch of identically configured bursts.
type Job struct {
	Scheme      ecc.Scheme
	Bursts      uint64
	BurstBits   int
	Mapping     wordgen.Mapping
	Model       errmodel.Vector
	Cells       wordgen.CellDistribution
	Pattern     wordgen.DataPattern
	Custom      ecc.Bits // only for wordgen.Custom, BurstBits long
	Observables []simwire.Observable

	// Log, when set and enabled at trace level, receives a dump of every
	// burst.
	Log *log.Logger
}

// Result accumulates the outcome of a job's bursts.
type Result struct {
	Layout Layout
	Bursts uint64
	// counts maps an error count to the number of bursts whose stored
	// codeword (Code) or decoded data (Data) showed that many errors.
	counts     map[int]*simwire.Bucket
	PerBitData []uint64
	PerBitCode []uint64
}

func newResult(lay Layout, burstBits int) *Result {
	return &Result{
		Layout:     lay,
		counts:     make(map[int]*simwire.Bucket),
		PerBitData: make([]uint64, burstBits),
		PerBitCode: make([]uint64, lay.BurstCodeBits),
	}
}

func (r *Result) bucket(n int) *simwire.Bucket {
	b, ok := r.counts[n]
	if !ok {
		b = &simwire.Bucket{N: n}
		r.counts[n] = b
	}
	return b
}

// Buckets returns the accumulator in ascending error-count order.
func (r *Result) Buckets() []simwire.Bucket {
	out := make([]simwire.Bucket, 0, len(r.counts))
	for _, b := range r.counts {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b simwire.Bucket) int { return a.N - b.N })
	return out
}

// SimulateBurst runs job.Bursts trials. A decoded word that differs from
// its data although no more than t bits of its codeword flipped yields an
// *ecc.InvariantError.
func SimulateBurst(job *Job, rng *rand.Rand) (*Result, error) {
	s := job.Scheme
	if s == nil || !s.Ready() {
		return nil, fmt.Errorf("sim: scheme not ready")
	}
	if job.BurstBits <= 0 {
		return nil, fmt.Errorf("sim: burst length %d", job.BurstBits)
	}
	k, n, t := s.DataBits(), s.CodeBits(), s.CorrectionCapability()
	lay := NewLayout(k, n, job.BurstBits)
	if err := job.Model.Validate(n); err != nil {
		return nil, err
	}
	trace := job.Log != nil && job.Log.Enabled(log.LevelTrace)

	res := newResult(lay, job.BurstBits)
	res.Bursts = job.Bursts
	burst := ecc.NewBits(job.BurstBits)
	burstOut := ecc.NewBits(job.BurstBits)
	burstCode := ecc.NewBits(lay.BurstCodeBits)
	data := make([]ecc.Bits, lay.Words)
	code := make([]ecc.Bits, lay.Words)
	got := make([]ecc.Bits, lay.Words)

	for trial := uint64(0); trial < job.Bursts; trial++ {
		st, err := wordgen.Generate(burst, job.Pattern, job.Custom, job.Cells, rng)
		if err != nil {
			return nil, err
		}
		for i := range data {
			w := ecc.NewBits(k)
			copy(w, burst[i*k:])
			data[i] = w
			code[i] = s.Encode(w)
			copy(burstCode[i*n:], code[i])
		}

		recv := errmodel.Apply(burstCode, st, job.Model, rng)

		for i := range data {
			cw := recv[i*n : (i+1)*n]
			got[i] = s.Decode(cw)
			induced := ecc.HammingDistance(code[i], cw)
			observed := ecc.HammingDistance(data[i], got[i])
			if t >= induced && observed != 0 {
				return nil, &ecc.InvariantError{
					Scheme:   s.Name(),
					Msg:      fmt.Sprintf("observed %d errors when %d errors induced and %d correctable", observed, induced, t),
					CodeSent: code[i].Clone(),
					CodeRecv: cw.Clone(),
					DataSent: data[i].Clone(),
					DataRecv: got[i].Clone(),
				}
			}
			copy(burstOut[i*k:], got[i])
		}

		if trace {
			job.Log.Trace("burst",
				"state", st,
				"burst", burst.String(),
				"burst_cw", burstCode.String(),
				"burst_cw_p", recv.String(),
				"burst_p", burstOut.String())
		}

		res.bucket(ecc.HammingDistance(burstCode, recv)).Code++
		res.bucket(ecc.HammingDistance(burst, burstOut)).Data++
		for i := range burst {
			if burst[i] != burstOut[i] {
				res.PerBitData[i]++
			}
		}
		for i := range burstCode {
			if burstCode[i] != recv[i] {
				res.PerBitCode[i]++
			}
		}
	}
	return res, nil
}

// Lines renders res as one [DATA] line per observable of job.
func Lines(job *Job, res *Result) []string {
	rec := simwire.DataRecord{
		UID:           job.Scheme.UID(),
		Words:         res.Bursts,
		BurstBits:     job.BurstBits,
		BurstCodeBits: res.Layout.BurstCodeBits,
		Pad:           res.Layout.Pad,
		Model:         job.Model.String(),
		Cells:         job.Cells.String(),
		Pattern:       job.Pattern.String(),
	}
	if job.Pattern == wordgen.Custom {
		rec.Custom = wordgen.FormatCustom(job.Custom)
	}
	out := make([]string, 0, len(job.Observables))
	for _, obs := range job.Observables {
		r := rec
		r.Observable = obs
		switch obs {
		case simwire.ErrorsPerBurst:
			r.Buckets = res.Buckets()
		case simwire.PerBitErrorCount:
			r.PerBitData = res.PerBitData
			r.PerBitCode = res.PerBitCode
		}
		out = append(out, simwire.FormatData(&r))
	}
	return out
}
