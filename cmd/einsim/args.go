package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/errmodel"
	"github.com/einsim-go/einsim/internal/sim"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

// parsePermutations expands "3" and "0-9" entries into a sorted set.
func parsePermutations(entries []string) ([]int, error) {
	var out []int
	for _, e := range entries {
		lo, hi, isRange := strings.Cut(e, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a < 0 {
			return nil, fmt.Errorf("%w: permutation %q", sim.ErrConfig, e)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a {
				return nil, fmt.Errorf("%w: permutation range %q", sim.ErrConfig, e)
			}
		}
		for p := a; p <= b; p++ {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// parsePatterns keeps the order of the data pattern arguments and collects
// the custom patterns in the same order.
func parsePatterns(args []string) ([]wordgen.DataPattern, []ecc.Bits, error) {
	var (
		dps     []wordgen.DataPattern
		customs []ecc.Bits
	)
	for _, a := range args {
		dp, err := wordgen.ParseDataPattern(a)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", sim.ErrConfig, err)
		}
		if dp == wordgen.Custom {
			if !wordgen.IsCustom(a) {
				return nil, nil, fmt.Errorf("%w: CUSTOM needs a 0b/0o/0x value", sim.ErrConfig)
			}
			b, err := wordgen.ParseCustom(a)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %w", sim.ErrConfig, err)
			}
			customs = append(customs, b)
		}
		dps = append(dps, dp)
	}
	return dps, customs, nil
}

func parseEach[T any](args []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(args))
	for _, a := range args {
		v, err := parse(a)
		if err != nil && !errors.Is(err, sim.ErrConfig) {
			err = fmt.Errorf("%w: %w", sim.ErrConfig, err)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// parseModels reads each argument as an error model file when one exists
// at that path, otherwise as a token list.
func parseModels(args []string) ([]errmodel.Vector, error) {
	var out []errmodel.Vector
	for _, a := range args {
		var (
			vs  []errmodel.Vector
			err error
		)
		if isFile(a) {
			vs, err = errmodel.LoadFile(a)
		} else {
			vs, err = errmodel.ParseTokens(a)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error model %q: %w", sim.ErrConfig, a, err)
		}
		out = append(out, vs...)
	}
	return out, nil
}

// schemeSet records where the schemes of a run came from, for the
// configuration summary.
type schemeSet struct {
	Schemes []ecc.Scheme
	Named   []string
	Files   []string
}

// buildSchemes loads scheme files and builds every named scheme for each
// (permutation, k) pair, permutation outermost. Named schemes need at
// least one of each.
func buildSchemes(args []string, ks, perms []int) (*schemeSet, error) {
	set := &schemeSet{}
	for _, a := range args {
		if isFile(a) {
			set.Files = append(set.Files, a)
			continue
		}
		if !slices.Contains(ecc.Names(), strings.ToUpper(a)) {
			return nil, fmt.Errorf("%w: %w: %q", sim.ErrConfig, ecc.ErrUnknownScheme, a)
		}
		set.Named = append(set.Named, strings.ToUpper(a))
	}
	for _, f := range set.Files {
		s, err := ecc.LoadScheme(f)
		if err != nil {
			return nil, fmt.Errorf("unable to build ECC code for configuration file %s: %w", f, err)
		}
		set.Schemes = append(set.Schemes, s)
	}
	if len(set.Named) == 0 {
		return set, nil
	}
	switch {
	case len(perms) == 0:
		return nil, fmt.Errorf("%w: at least one permutation is needed for named ECC schemes", sim.ErrConfig)
	case len(ks) == 0:
		return nil, fmt.Errorf("%w: at least one data bit size is needed for named ECC schemes", sim.ErrConfig)
	}
	for _, p := range perms {
		for _, k := range ks {
			for _, name := range set.Named {
				s, err := ecc.Build(name, k, p)
				if err != nil {
					return nil, fmt.Errorf("unable to build ECC code for configuration p: %d k: %d s: %s: %w", p, k, name, err)
				}
				set.Schemes = append(set.Schemes, s)
			}
		}
	}
	return set, nil
}

// summary renders the configuration of a sweep as [INFO] lines.
func summary(pl *plan) []string {
	sw, set := pl.sweep, pl.schemes
	info := func(format string, args ...any) string { return simwire.FormatInfo(fmt.Sprintf(format, args...)) }
	configs := len(sw.BurstLengths) * len(sw.Mappings) * len(sw.Patterns) * len(sw.Models) *
		len(sw.Cells) * len(sw.Observables) * len(sw.Schemes)
	out := []string{
		info("testing %d configurations subdivided into groups of %d bursts per job:", configs, sw.BurstsPerJob),
		info("   %d burst_length_bits: %s", len(sw.BurstLengths), bracket(sw.BurstLengths)),
		info("   %d word-to-burst mappings: %s", len(sw.Mappings), bracket(sw.Mappings)),
		info("   %d data_patterns: %s", len(sw.Patterns), bracket(sw.Patterns)),
		info("   %d custom_patterns:", len(sw.Customs)),
	}
	for _, c := range sw.Customs {
		out = append(out, info("       [%s]", c))
	}
	out = append(out, info("   %d error_models:", len(sw.Models)))
	for _, m := range sw.Models {
		out = append(out, info("       [%s]", m))
	}
	return append(out,
		info("   %d true_anti_cell_distributions: %s", len(sw.Cells), bracket(sw.Cells)),
		info("   %d observables: %s", len(sw.Observables), bracket(sw.Observables)),
		info("   %d ECC schemes:", len(sw.Schemes)),
		info("       generated from code parameters: %s k %s p %s", bracket(set.Named), bracket(pl.ks), formatRanges(pl.perms)),
		info("       read from cfg files: %d", len(set.Files)),
	)
}

func bracket[T any](vs []T) string {
	var sb strings.Builder
	sb.WriteString("[ ")
	for _, v := range vs {
		fmt.Fprintf(&sb, "%v ", v)
	}
	sb.WriteByte(']')
	return sb.String()
}

// formatRanges prints a sorted set with consecutive runs collapsed, e.g.
// "0-3 7 9-10".
func formatRanges(vs []int) string {
	var parts []string
	for i := 0; i < len(vs); {
		j := i
		for j+1 < len(vs) && vs[j+1] == vs[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, fmt.Sprintf("%d-%d", vs[i], vs[j]))
		} else {
			parts = append(parts, strconv.Itoa(vs[i]))
		}
		i = j + 1
	}
	return "[ " + strings.Join(append(parts, "]"), " ")
}
