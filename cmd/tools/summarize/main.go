// Command summarize reads einsim output and writes a markdown report of
// raw and post-correction error rates per simulated configuration.
package main

import (
	"bufio"
	"cmp"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/simwire"
)

type schemeInfo struct {
	Name string
	K, N int
	Perm int
}

// configKey identifies one point of a sweep. Records of the same point from
// different jobs are merged.
type configKey struct {
	UID     uint64
	Burst   int
	Model   string
	Cells   string
	Pattern string
	Custom  string
}

type config struct {
	key        configKey
	bcl        int
	bursts     uint64
	rawErrs    uint64 // bit errors before decoding
	postErrs   uint64 // bit errors after decoding
	failBursts uint64 // bursts with at least one uncorrected bit
	jobPost    stats.Float64Data
}

type report struct {
	schemes map[uint64]schemeInfo
	configs map[configKey]*config
	skipped int
}

func newReport() *report {
	return &report{schemes: map[uint64]schemeInfo{}, configs: map[configKey]*config{}}
}

// read consumes one einsim output stream. Lines other than [ECC] and
// N_ERRORS_PER_BURST [DATA] records are ignored.
func (r *report) read(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<28) // [ECC] lines carry whole matrices
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, simwire.TagECC+" "):
			s, err := ecc.UnmarshalScheme([]byte(strings.TrimPrefix(line, simwire.TagECC+" ")))
			if err != nil {
				return err
			}
			r.schemes[s.UID()] = schemeInfo{Name: s.Name(), K: s.DataBits(), N: s.CodeBits(), Perm: s.Permutation()}
		case strings.HasPrefix(line, simwire.TagData+" "):
			rec, err := simwire.ParseData(line)
			if err != nil {
				return err
			}
			if rec.Observable != simwire.ErrorsPerBurst {
				r.skipped++
				continue
			}
			r.add(rec)
		}
	}
	return sc.Err()
}

func (r *report) add(rec *simwire.DataRecord) {
	k := configKey{rec.UID, rec.BurstBits, rec.Model, rec.Cells, rec.Pattern, rec.Custom}
	c, ok := r.configs[k]
	if !ok {
		c = &config{key: k, bcl: rec.BurstCodeBits}
		r.configs[k] = c
	}
	var raw, post uint64
	for _, b := range rec.Buckets {
		raw += uint64(b.N) * b.Code
		post += uint64(b.N) * b.Data
		if b.N > 0 {
			c.failBursts += b.Data
		}
	}
	c.bursts += rec.Words
	c.rawErrs += raw
	c.postErrs += post
	if rec.Words > 0 {
		c.jobPost = append(c.jobPost, float64(post)/float64(rec.Words*uint64(rec.BurstBits)))
	}
}

func (c *config) rawBER() float64 {
	if c.bursts == 0 {
		return 0
	}
	return float64(c.rawErrs) / float64(c.bursts*uint64(c.bcl))
}

func (c *config) postBER() float64 {
	if c.bursts == 0 {
		return 0
	}
	return float64(c.postErrs) / float64(c.bursts*uint64(c.key.Burst))
}

// spread is the mean, standard deviation and 95th percentile of per-job
// error rates.
func spread(d stats.Float64Data) (mean, sd, p95 float64) {
	if d.Len() == 0 {
		return 0, 0, 0
	}
	mean, _ = d.Mean()
	sd, _ = d.StandardDeviation()
	p95, _ = d.Percentile(95)
	return mean, sd, p95
}

func (r *report) write(w io.Writer) {
	byUID := map[uint64][]*config{}
	for _, c := range r.configs {
		byUID[c.key.UID] = append(byUID[c.key.UID], c)
	}
	uids := make([]uint64, 0, len(byUID))
	for u := range byUID {
		uids = append(uids, u)
	}
	slices.SortFunc(uids, func(a, b uint64) int {
		sa, sb := r.schemes[a], r.schemes[b]
		return cmp.Or(cmp.Compare(sa.Name, sb.Name), cmp.Compare(sa.K, sb.K), cmp.Compare(sa.Perm, sb.Perm), cmp.Compare(a, b))
	})

	fmt.Fprintln(w, "# EINSim summary")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%d schemes, %d configurations. Job columns are over per-job post-correction bit error rates.\n", len(uids), len(r.configs))
	fmt.Fprintln(w, "")
	for _, u := range uids {
		if s, ok := r.schemes[u]; ok {
			fmt.Fprintf(w, "## %s k=%d n=%d p=%d (uid %d)\n\n", s.Name, s.K, s.N, s.Perm, u)
		} else {
			fmt.Fprintf(w, "## uid %d\n\n", u)
		}
		fmt.Fprintln(w, "| bl | em | cd | dp | bursts | raw BER | post BER | failed bursts | job mean | job sd | job p95 |")
		fmt.Fprintln(w, "|---:|---|---|---|---:|---:|---:|---:|---:|---:|---:|")
		items := byUID[u]
		slices.SortFunc(items, func(a, b *config) int {
			return cmp.Or(cmp.Compare(a.key.Burst, b.key.Burst), cmp.Compare(a.key.Model, b.key.Model),
				cmp.Compare(a.key.Cells, b.key.Cells), cmp.Compare(a.key.Pattern, b.key.Pattern), cmp.Compare(a.key.Custom, b.key.Custom))
		})
		for _, c := range items {
			dp := c.key.Pattern
			if c.key.Custom != "" {
				dp += " 0x" + c.key.Custom
			}
			mean, sd, p95 := spread(c.jobPost)
			fmt.Fprintf(w, "| %d | %s | %s | %s | %d | %.3e | %.3e | %d | %.3e | %.3e | %.3e |\n",
				c.key.Burst, c.key.Model, c.key.Cells, dp, c.bursts, c.rawBER(), c.postBER(), c.failBursts, mean, sd, p95)
		}
		fmt.Fprintln(w, "")
	}
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "summary.md", "output markdown path (- for stdout)")
	flag.Parse()
	if flag.NArg() == 0 {
		fatalf("usage: summarize [-out path] einsim-output...")
	}

	r := newReport()
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fatalf("open %s: %v", path, err)
		}
		err = r.read(f)
		_ = f.Close()
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
	}

	if outPath == "-" {
		r.write(os.Stdout)
		return
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fatalf("mkdir %s: %v", filepath.Dir(outPath), err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		fatalf("create %s: %v", outPath, err)
	}
	w := bufio.NewWriter(f)
	r.write(w)
	if err := w.Flush(); err != nil {
		fatalf("write %s: %v", outPath, err)
	}
	_ = f.Close()
	fmt.Printf("wrote %s (%d configurations, %d per-bit records skipped)\n", outPath, len(r.configs), r.skipped)
}

func fatalf(f string, a ...any) { fmt.Fprintf(os.Stderr, f+"\n", a...); os.Exit(1) }
