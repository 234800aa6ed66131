// Command einsim simulates how ECC codes reshape the distribution of raw bit
// errors in DRAM bursts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/einsim-go/einsim/ecc"
	"github.com/einsim-go/einsim/internal/config"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/sim"
	"github.com/einsim-go/einsim/internal/simwire"
	"github.com/einsim-go/einsim/internal/wordgen"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fatalf("%v", err)
	}

	var rootCmd = &cobra.Command{
		Use:   "einsim",
		Short: "Probabilistic ECC simulator",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		common commonFlags
		nwords uint64
	)
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&common.outFile, "file", "f", "", "Output file name (default stdout)")
	pf.BoolVar(&common.force, "force", false, "Overwrite an existing output file")
	pf.IntVarP(&common.threads, "nthreads", "t", cfg.Threads, "# worker threads")
	pf.CountVarP(&common.verbose, "verbose", "v", "Print non-essential messages (repeat for data lines)")
	pf.StringVar(&common.logLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	pf.Int64Var(&common.seed, "seed", cfg.Seed, "Random seed (0 picks one)")
	pf.StringVar(&common.metricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	pf.Uint64VarP(&nwords, "nwords", "n", 100, "# words to simulate")

	var (
		burstsPerJob uint64
		burstLengths []int
		mappings     []string
		cells        []string
		patterns     []string
		models       []string
		observables  []string
		schemes      []string
		dataBits     []int
		permutations []string
		dryRun       bool
	)
	var simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Simulate bursts over every combination of the given parameters",
		Run: func(cmd *cobra.Command, args []string) {
			pl, err := planFromFlags(sweepFlags{
				bursts: nwords, burstsPerJob: burstsPerJob, maxOutstanding: int64(cfg.MaxOutstanding),
				burstLengths: burstLengths, mappings: mappings, cells: cells, patterns: patterns,
				models: models, observables: observables, schemes: schemes,
				dataBits: dataBits, permutations: permutations,
			})
			if err != nil {
				fatalf("%v", err)
			}

			s, err := openSession(&common, os.Args)
			if err != nil {
				fatalf("%v", err)
			}
			defer s.Close()
			if err := s.announce("Simulation"); err != nil {
				fatalf("%v", err)
			}
			pl.sweep.Seed = s.seed
			pl.sweep.Trace = s.env.Log.Enabled(log.LevelTrace)
			s.info(summary(pl)...)
			if dryRun {
				s.info(simwire.FormatInfo("dry run complete"))
				return
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := sim.Run(ctx, s.env, s.pool, *pl.sweep); err != nil {
				s.Close()
				fatalf("%v", err)
			}
		},
	}
	f := simulateCmd.Flags()
	f.Uint64VarP(&burstsPerJob, "max-words", "x", uint64(cfg.BurstsPerJob), "maximum # words to simulate per job")
	f.IntSliceVarP(&burstLengths, "burst-length-bits", "b", nil, "Burst lengths to simulate (#data bits)")
	f.StringSliceVarP(&mappings, "word-to-burst-mapping", "w", nil, "Mapping from ECC words to a burst {BLOCKS}")
	f.StringSliceVarP(&cells, "true-anti-cell-distributions", "c", nil,
		"True- and anti-cell distribution {ALL_TRUE_OR_ALL_ANTI, ALL_TRUE, ALL_ANTI, COLSTRIPE_T, COLSTRIPE_A}")
	f.StringArrayVarP(&patterns, "data-patterns", "d", nil, "Data pattern {RANDOM, ALL_ONES, CHARGED} or custom (0b, 0o, 0x)")
	f.StringArrayVarP(&models, "error-models", "e", nil,
		"Error model name0,p0,..,pn,name1,... per bit (or one for all bits) or an error model JSON file")
	f.StringSliceVarP(&observables, "observables", "o", nil, "Observables {N_ERRORS_PER_BURST, PER_BIT_ERROR_COUNT}")
	f.StringArrayVarP(&schemes, "ecc-scheme", "s", nil, "ECC scheme name or ECC scheme JSON file")
	f.IntSliceVarP(&dataBits, "data-bits", "k", nil, "ECC data bits (k >= 1)")
	f.StringSliceVarP(&permutations, "permutations", "p", nil, "Permutations (p >= 0) [int || int-int]")
	f.BoolVarP(&dryRun, "dry-run", "y", false, "Exit after printing the configuration")

	var testModes []string
	var testCmd = &cobra.Command{
		Use:   "test",
		Short: "Self-test the ECC implementations",
		Run: func(cmd *cobra.Command, args []string) {
			modes, err := parseEach(testModes, sim.ParseTestMode)
			if err != nil {
				fatalf("%v", err)
			}
			if len(modes) == 0 {
				fatalf("must provide test modes to run")
			}
			slices.Sort(modes)
			modes = slices.Compact(modes)

			s, err := openSession(&common, os.Args)
			if err != nil {
				fatalf("%v", err)
			}
			defer s.Close()
			if err := s.announce("Test"); err != nil {
				fatalf("%v", err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			for _, m := range modes {
				if err := sim.RunSelfTest(ctx, s.env, s.pool, m, s.seed); err != nil {
					s.Close()
					fatalf("%v", err)
				}
			}
		},
	}
	testCmd.Flags().StringSliceVarP(&testModes, "test-mode", "T", nil, "Test mode(s) to run {FAST, SLOW}")

	var debugOpts sim.DebugOptions
	var debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Push words with every exact error count through the debug code set",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openSession(&common, os.Args)
			if err != nil {
				fatalf("%v", err)
			}
			defer s.Close()
			if err := s.announce("Debug"); err != nil {
				fatalf("%v", err)
			}
			debugOpts.Words = int(nwords)
			debugOpts.Seed = s.seed
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := sim.Debug(ctx, s.env, s.pool, debugOpts); err != nil {
				s.Close()
				fatalf("%v", err)
			}
		},
	}
	debugCmd.Flags().IntVar(&debugOpts.Permutations, "permutations", 1, "# permutations to sweep")
	debugCmd.Flags().IntVar(&debugOpts.Repeats, "repeats", 10, "Workers per data pattern and code")
	debugCmd.Flags().IntSliceVarP(&debugOpts.DataBits, "data-bits", "k", nil, "Data widths (default 3..1025 around powers of two)")

	var schemesCmd = &cobra.Command{
		Use:   "schemes",
		Short: "List the ECC scheme names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range ecc.Names() {
				fmt.Println(n)
			}
		},
	}

	rootCmd.AddCommand(simulateCmd, testCmd, debugCmd, schemesCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type sweepFlags struct {
	bursts, burstsPerJob uint64
	maxOutstanding       int64

	burstLengths []int
	mappings     []string
	cells        []string
	patterns     []string
	models       []string
	observables  []string
	schemes      []string
	dataBits     []int
	permutations []string
}

// plan is a validated simulate invocation.
type plan struct {
	sweep   *sim.Sweep
	schemes *schemeSet
	ks      []int
	perms   []int
}

// planFromFlags validates the simulate arguments and builds the sweep.
// Mappings and cell distributions have defaults, everything else is
// required.
func planFromFlags(fl sweepFlags) (*plan, error) {
	required := []struct {
		n    int
		what string
	}{
		{len(fl.burstLengths), "burst length"},
		{len(fl.patterns), "data pattern"},
		{len(fl.observables), "observable"},
		{len(fl.schemes), "ECC scheme"},
		{len(fl.models), "error model"},
	}
	for _, r := range required {
		if r.n == 0 {
			return nil, fmt.Errorf("%w: must provide at least one %s to simulate", sim.ErrConfig, r.what)
		}
	}
	if len(fl.mappings) == 0 {
		fl.mappings = []string{wordgen.Blocks.String()}
	}
	if len(fl.cells) == 0 {
		fl.cells = []string{wordgen.AllTrueOrAllAnti.String()}
	}

	sw := &sim.Sweep{
		Bursts:         fl.bursts,
		BurstsPerJob:   fl.burstsPerJob,
		MaxOutstanding: fl.maxOutstanding,
		BurstLengths:   fl.burstLengths,
	}
	var err error
	if sw.Mappings, err = parseEach(fl.mappings, wordgen.ParseMapping); err != nil {
		return nil, err
	}
	if sw.Cells, err = parseEach(fl.cells, wordgen.ParseCellDistribution); err != nil {
		return nil, err
	}
	if sw.Observables, err = parseEach(fl.observables, simwire.ParseObservable); err != nil {
		return nil, err
	}
	if sw.Patterns, sw.Customs, err = parsePatterns(fl.patterns); err != nil {
		return nil, err
	}
	if sw.Models, err = parseModels(fl.models); err != nil {
		return nil, err
	}
	pl := &plan{sweep: sw, ks: slices.Compact(slices.Sorted(slices.Values(fl.dataBits)))}
	if pl.perms, err = parsePermutations(fl.permutations); err != nil {
		return nil, err
	}
	if pl.schemes, err = buildSchemes(fl.schemes, pl.ks, pl.perms); err != nil {
		return nil, err
	}
	sw.Schemes = pl.schemes.Schemes
	if err := sw.Validate(); err != nil {
		return nil, err
	}
	return pl, nil
}
