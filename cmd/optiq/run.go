// Command optiq - the run subcommand.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/cache"
	"github.com/katalvlaran/optiq/ga"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/problem"
	"github.com/katalvlaran/optiq/restart"
	"github.com/katalvlaran/optiq/runtime"
)

// runFlags hold the CLI surface of `optiq run`.
type runFlags struct {
	input        string
	restartRead  string
	restartWrite string
	stopAfter    int
	output       string
	metricsAddr  string
	verbose      bool
}

func newRunCmd() *cobra.Command {
	var fl runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the method of a problem description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			os.Exit(runOnce(fl))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fl.input, "input", "i", "", "problem description file (required)")
	cmd.Flags().StringVarP(&fl.restartRead, "restart-read", "r", "", "restart log to replay before running")
	cmd.Flags().StringVarP(&fl.restartWrite, "restart-write", "w", "", "restart log to append to")
	cmd.Flags().IntVarP(&fl.stopAfter, "stop-after", "s", 0, "stop after N evaluations")
	cmd.Flags().StringVarP(&fl.output, "output", "o", "", "result block destination (default stdout)")
	cmd.Flags().StringVar(&fl.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().BoolVarP(&fl.verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// runOnce executes one engine run and returns the process exit code.
func runOnce(fl runFlags) int {
	logger := buildLogger(fl.verbose)
	defer func() { _ = logger.Sync() }()

	doc, err := problem.Load(fl.input)
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}

	space, err := doc.BuildSpace()
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}
	cmap, nCon, err := doc.BuildConstraints()
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}
	linCoeffs, linMap, err := doc.BuildLinear()
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}
	opts, err := doc.GAOptions()
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}

	// Environment overrides: RANDOM_SEED wins when nonzero.
	if envSeed := bindEnv().GetInt64("random_seed"); envSeed != 0 {
		opts.Seed = envSeed
		logger.Info("seed overridden from environment", zap.Int64("seed", envSeed))
	}
	if fl.stopAfter > 0 {
		opts.MaxEvaluations = fl.stopAfter
	}

	reg := prometheus.NewRegistry()
	rt := runtime.New(runtime.Options{Seed: opts.Seed, Logger: logger, Registerer: reg})
	if fl.metricsAddr != "" {
		serveMetrics(fl.metricsAddr, reg, logger)
	}

	// Simulator driver.
	nResp := doc.Responses.Objectives + nCon
	driver, err := builtinDriver(doc.Method.Interface, nResp)
	if err != nil {
		logger.Error("input rejected", zap.Error(err))
		return exitInput
	}

	// Cache, seeded from a prior run's restart log when given.
	evalCache := cache.New(cache.DefaultOptions(), rt.Metrics)
	if fl.restartRead != "" {
		n, rerr := restart.Replay(fl.restartRead, evalCache, rt.Metrics)
		if rerr != nil {
			logger.Error("restart log rejected", zap.Error(rerr))
			return exitInput
		}
		logger.Info("restart log replayed",
			zap.String("path", fl.restartRead), zap.Int("pairs", n))
	}

	// Restart persistence: I/O failure warns and the run continues.
	var rlog *restart.Writer
	if fl.restartWrite != "" {
		rlog, err = restart.Create(fl.restartWrite, restart.PerIteration, rt.RunID)
		if err != nil {
			logger.Warn("restart log unavailable; continuing without persistence", zap.Error(err))
			rlog = nil
		} else {
			defer func() { _ = rlog.Close() }()
		}
	}

	mdl, err := model.New(space, driver, evalCache, rlog, rt, model.DefaultOptions())
	if err != nil {
		logger.Error("model construction failed", zap.Error(err))
		return exitRuntime
	}

	drv, err := ga.NewDriver(opts, rt, mdl, cmap, nCon)
	if err != nil {
		logger.Error("driver construction failed", zap.Error(err))
		return exitInput
	}
	if linMap != nil {
		if err = drv.WithLinearConstraints(linCoeffs, linMap); err != nil {
			logger.Error("driver construction failed", zap.Error(err))
			return exitRuntime
		}
	}

	// SIGINT/SIGTERM abort cooperatively; the driver drains and reports.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		drv.Abort()
	}()

	rep, runErr := drv.Run(ctx)

	if err = writeReport(fl.output, rep); err != nil {
		logger.Warn("result output failed", zap.Error(err))
	}

	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, ga.ErrBudgetExhausted):
		logger.Warn("evaluation budget exceeded")
		return exitBudget
	case errors.Is(runErr, ga.ErrAborted):
		logger.Warn("aborted")
		return exitAborted
	default:
		logger.Error("run failed", zap.Error(runErr))
		return exitRuntime
	}
}

// buildLogger constructs the console logger.
func buildLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// serveMetrics exposes the registry on addr in the background.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics endpoint failed", zap.Error(err))
		}
	}()
}

// writeReport renders the result block.
func writeReport(path string, rep ga.Report) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	fmt.Fprintf(w, "run          %s\n", rep.RunID)
	fmt.Fprintf(w, "seed         %d\n", rep.Seed)
	fmt.Fprintf(w, "generations  %d\n", rep.Generations)
	fmt.Fprintf(w, "evaluations  %d\n", rep.Evaluations)
	fmt.Fprintf(w, "converged    %v\n", rep.Converged)
	fmt.Fprintf(w, "final metric %g\n", rep.FinalMetric)
	fmt.Fprintf(w, "wall         %s\n", rep.Wall)
	fmt.Fprintf(w, "best designs (%d):\n", len(rep.Best))
	for _, ind := range rep.Best {
		fmt.Fprintf(w, "  vars=%v objectives=%v violation=%g\n",
			ind.Genome, ind.Objectives, ind.Violation())
	}
	return nil
}
