package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/einsim-go/einsim/internal/env"
	"github.com/einsim-go/einsim/internal/log"
	"github.com/einsim-go/einsim/internal/pool"
	"github.com/einsim-go/einsim/internal/simwire"
)

// commonFlags are shared by every mode.
type commonFlags struct {
	outFile     string
	force       bool
	threads     int
	verbose     int
	logLevel    string
	seed        int64
	metricsAddr string
}

// session owns the resources of one run: output file, worker pool and the
// optional metrics endpoint.
type session struct {
	env  *env.Env
	pool *pool.Pool
	seed int64

	file *os.File
	buf  *bufio.Writer
	srv  *http.Server
}

func openSession(c *commonFlags, cmdline []string) (*session, error) {
	lvl, err := log.ParseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}
	lg := log.New(lvl, os.Stderr)
	log.SetDefault(lg)

	s := &session{seed: c.seed}
	var out, progress io.Writer
	if c.outFile != "" {
		flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if c.force {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(c.outFile, flags, 0o644)
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("output file %q already exists, pass --force to overwrite", c.outFile)
		} else if err != nil {
			return nil, fmt.Errorf("output file %q could not be opened for writing: %w", c.outFile, err)
		}
		fmt.Printf("Redirecting output to file: %q\n", c.outFile)
		s.file = f
		s.buf = bufio.NewWriterSize(f, 1<<16)
		out, progress = s.buf, os.Stdout
	} else {
		// keep stdout clean for the records
		fmt.Fprintln(os.Stderr, "[WARNING] No output file specified - using only stdout")
		out, progress = os.Stdout, os.Stderr
	}
	s.env = env.New(out, progress, lg, c.verbose)

	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.env.Log.Info("session opened", "seed", s.seed, "threads", c.threads, "output", c.outFile)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.pool, err = pool.New(pool.Options{Workers: c.threads, Registerer: reg, Log: s.env.Log})
	if err != nil {
		s.Close()
		return nil, err
	}
	if c.metricsAddr != "" {
		s.serveMetrics(c.metricsAddr, reg)
	}

	if err := s.both("[INFO] executable command: " + strings.Join(cmdline, " ")); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.both(fmt.Sprintf("[INFO] using %d threads", s.pool.Workers())); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	s.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	lg := s.env.Module("metrics")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	lg.Info("serving metrics", "addr", addr)
}

// both writes a line to the output and to the console.
func (s *session) both(line string) error {
	s.env.Printf("%s\n", line)
	return s.env.Sink.WriteLine(line)
}

// announce prints a mode banner, echoed to the console when verbose.
func (s *session) announce(mode string) error {
	line := simwire.FormatInfo("Configuring for " + mode + " Mode")
	if s.env.Verbosity > 0 {
		return s.both(line)
	}
	return s.env.Sink.WriteLine(line)
}

// info prints status to the console only.
func (s *session) info(lines ...string) {
	for _, l := range lines {
		s.env.Printf("%s\n", l)
	}
}

func (s *session) Close() error {
	var errs []error
	if s.pool != nil {
		errs = append(errs, s.pool.Shutdown())
	}
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, s.srv.Shutdown(ctx))
		cancel()
	}
	if s.buf != nil {
		errs = append(errs, s.buf.Flush())
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
	}
	return errors.Join(errs...)
}
