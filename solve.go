package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jmccarv/substsolve/internal/cipher"
	"github.com/jmccarv/substsolve/internal/logging"
	"github.com/jmccarv/substsolve/internal/search"
)

func runSolve(cmd *cobra.Command, args []string, f *flagValues) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)
	out := cmd.OutOrStdout()

	if f.cpuprofile != "" {
		pf, err := os.Create(f.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	ct, err := cipher.ReadCiphertext(in)
	in.Close()
	if err != nil {
		return err
	}

	scorer, err := loadScorer(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := search.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	reporter := search.NewTextReporter(out)
	eng, err := search.NewEngine(scorer, ct,
		search.WithSeed(seed),
		search.WithPatience(cfg.Patience),
		search.WithReportEvery(cfg.ReportEvery),
		search.WithReporter(search.Throttle(reporter, cfg.ProgressInterval)),
		search.WithLogger(logger),
		search.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.MaxRuntime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxRuntime)
		defer cancel()
	}

	runID := uuid.NewString()
	logger.Info("search started", "run", runID, "seed", seed, "letters", len(ct),
		"n", scorer.N(), "workers", cfg.Workers)

	fmt.Fprintf(out, "\n%s\n\n", ct)

	st := search.NewState(cfg.TopN)
	budget := search.Budget{MaxRestarts: cfg.MaxRestarts, MaxAttempts: cfg.MaxAttempts}
	err = eng.RunParallel(ctx, st, cfg.Workers, budget)
	reporter.Finish()
	if err != nil {
		return err
	}

	logger.Info("search finished", "run", runID, "attempts", st.Attempts,
		"restarts", st.Restarts, "best", st.BestScore)
	fmt.Fprintln(out, "Evaluated", st.Attempts, "keys over", st.Restarts, "restarts in", st.Elapsed())
	st.Solutions.Dump(out, true)

	if f.memprofile != "" {
		mf, err := os.Create(f.memprofile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer mf.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(mf); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}
	return nil
}
