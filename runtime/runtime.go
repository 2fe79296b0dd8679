// Package runtime - explicit engine context.
//
// A Runtime bundles the resources the original tool kept in process-wide
// globals: the logger, the resolved RNG seed and root stream, the metric
// collectors, and the run identity. The CLI builds exactly one Runtime and
// hands it by reference to each iterator; nested iterators derive fresh RNG
// streams from the root instead of sharing state.
package runtime

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime carries the shared, explicitly-threaded engine context.
//
// Invariants:
//   - Logger and Metrics are never nil after New.
//   - Seed is the resolved seed (never zero after New).
//   - The root RNG must only be used from the owning iterator's goroutine;
//     concurrent consumers derive their own streams via NewStream.
type Runtime struct {
	// Logger is the structured logger for the whole run.
	Logger *zap.Logger

	// Metrics aggregates the engine's prometheus collectors.
	Metrics *Metrics

	// Seed is the resolved root seed (post auto-seeding policy).
	Seed int64

	// RunID uniquely identifies this process run; stamped into the restart
	// header and the final report.
	RunID uuid.UUID

	root       *rand.Rand
	nextStream uint64
}

// Options configures Runtime construction.
// Zero value is usable; use DefaultOptions and override as needed.
type Options struct {
	// Seed is the configured seed; zero means auto-seed from wallclock.
	Seed int64

	// Logger, when nil, is replaced by zap.NewNop().
	Logger *zap.Logger

	// Registerer, when nil, defaults to a fresh prometheus registry so tests
	// and nested runtimes never collide on metric names.
	Registerer prometheus.Registerer
}

// DefaultOptions returns safe Runtime defaults: auto-seed, nop logger,
// private metric registry.
func DefaultOptions() Options { return Options{} }

// New builds a Runtime, resolving the seed and wiring metrics.
func New(opts Options) *Runtime {
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	seed := ResolveSeed(opts.Seed)
	rt := &Runtime{
		Logger:  lg,
		Metrics: NewMetrics(reg),
		Seed:    seed,
		RunID:   uuid.New(),
		root:    RNGFromSeed(seed),
	}
	lg.Info("runtime initialized",
		zap.Int64("seed", seed),
		zap.String("run_id", rt.RunID.String()),
	)
	return rt
}

// NewStream derives the next independent RNG stream from the root.
// Streams are handed out in a fixed order, so a run with the same seed and
// the same construction order reproduces exactly.
func (r *Runtime) NewStream() *rand.Rand {
	r.nextStream++
	return DeriveRNG(r.root, r.nextStream)
}
