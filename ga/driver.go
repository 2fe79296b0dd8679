// Package ga - the iterator driver.
package ga

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/matrix"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/runtime"
)

// State is the driver lifecycle.
type State uint8

const (
	// Uninitialized precedes Initialize.
	Uninitialized State = iota

	// Initialized follows a successful Initialize.
	Initialized

	// Iterating marks an in-progress Run.
	Iterating

	// Finalized follows Finalize; the driver is spent.
	Finalized
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Iterating:
		return "iterating"
	case Finalized:
		return "finalized"
	}
	return "unknown"
}

// Report is the finalized result block.
type Report struct {
	// Best is the archive of best-fitness designs.
	Best []*Individual

	// Generations is the number of completed generations.
	Generations int

	// Evaluations is the number of evaluation requests issued.
	Evaluations int

	// Converged distinguishes metric convergence from budget exhaustion.
	Converged bool

	// FinalMetric is the last composite convergence metric (NaN when the
	// converger does not track one).
	FinalMetric float64

	// Seed is the resolved RNG seed; reproduces the run when fed back.
	Seed int64

	// RunID is the runtime's run identity.
	RunID uuid.UUID

	// Wall is the total run duration.
	Wall time.Duration
}

// Driver owns the configuration, operator set, population, and RNG stream of
// one GA run. State machine: Uninitialized → Initialized → Iterating →
// Finalized.
type Driver struct {
	opts Options
	rt   *runtime.Runtime
	mdl  *model.Model
	cmap *model.ConstraintMap
	reg  *Registry

	ops   OperatorSet
	eval  *modelEvaluator
	pop   *Population
	fr    *FitnessRecord
	rng   *rand.Rand
	log   *zap.Logger
	state State
	gen   int

	aborted atomic.Bool
	started time.Time
}

// NewDriver validates options and assembles an uninitialized driver.
// nConstraints is the raw nonlinear constraint count of the response (before
// mapping); cmap may be nil for unconstrained problems.
func NewDriver(opts Options, rt *runtime.Runtime, mdl *model.Model, cmap *model.ConstraintMap, nConstraints int) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rt == nil {
		rt = runtime.New(runtime.Options{Seed: opts.Seed})
	}
	d := &Driver{
		opts: opts,
		rt:   rt,
		mdl:  mdl,
		cmap: cmap,
		reg:  NewRegistry(),
		eval: newModelEvaluator(mdl, cmap, opts.NumObjectives, nConstraints),
		log:  rt.Logger.Named("ga"),
	}
	return d, nil
}

// WithLinearConstraints installs the linear-constraint coefficient matrix
// and its mapping; must be called before Initialize.
func (d *Driver) WithLinearConstraints(coeffs *matrix.Dense, m *model.ConstraintMap) error {
	if d.state != Uninitialized {
		return ErrWrongState
	}
	d.eval.linCoeffs = coeffs
	d.eval.linMap = m
	return nil
}

// Registry exposes the driver's operator registry. It holds the built-in
// operators; it has no exported method for adding operators.
func (d *Driver) Registry() *Registry { return d.reg }

// State returns the lifecycle state.
func (d *Driver) State() State { return d.state }

// Generation returns the completed generation count.
func (d *Driver) Generation() int { return d.gen }

// Population returns the current population (shared; callers must not
// mutate during a run).
func (d *Driver) Population() *Population { return d.pop }

// Abort sets the abort flag and aborts the model's interface, so outstanding
// asynchronous evaluations drain as cancelled and later launches fail. Run
// stops with ErrAborted at the next generation boundary, or as soon as the
// interrupted generation returns an error.
func (d *Driver) Abort() {
	d.aborted.Store(true)
	d.mdl.Abort()
}

// gctx materializes the operator context for the current generation.
func (d *Driver) gctx() *Context {
	return &Context{RNG: d.rng, Space: d.mdl.Space(), Log: d.log, Opts: &d.opts, Gen: d.gen}
}

// Initialize resolves the operator set, seeds the RNG stream, and populates
// generation zero (evaluated and assessed).
func (d *Driver) Initialize(ctx context.Context) error {
	if d.state != Uninitialized {
		return ErrWrongState
	}
	ops, err := d.reg.resolve(d.opts, d.eval)
	if err != nil {
		return err
	}
	d.ops = ops

	// The runtime resolved the root seed (auto-seeding wallclock on zero);
	// the driver derives its own stream so nested iterators never share
	// state with this one.
	d.rng = d.rt.NewStream()
	d.started = time.Now()

	pop, err := d.ops.Initializer.Initialize(ctx, d.gctx())
	if err != nil {
		return err
	}
	if pop.Len() == 0 {
		return ErrEmptyPopulation
	}
	if err = d.ops.Evaluator.Evaluate(ctx, pop, d.gctx()); err != nil {
		return err
	}
	pop.SynchronizeOFAndDVContainers()
	fr, err := d.ops.Fitness.Assess(pop, d.gctx())
	if err != nil {
		return err
	}

	d.pop, d.fr = pop, fr
	d.state = Initialized
	d.log.Info("initialized",
		zap.Int("population", pop.Len()),
		zap.Int64("seed", d.rt.Seed),
		zap.String("run_id", d.rt.RunID.String()),
	)
	return nil
}

// Iterate runs exactly one generation. Returns whether the converger fired.
func (d *Driver) Iterate(ctx context.Context) (bool, error) {
	if d.state != Initialized && d.state != Iterating {
		return false, ErrWrongState
	}
	d.state = Iterating
	d.gen++
	d.rt.Metrics.Generation.Set(float64(d.gen))

	converged, err := d.ops.MainLoop.RunGeneration(ctx, d)
	if err != nil {
		return false, err
	}
	d.mdl.FlushRestart()
	d.statusLine()
	return converged, nil
}

// Run executes Initialize (when needed) and iterates until convergence,
// budget exhaustion, or abort. The returned Report is also retrievable via
// Finalize. Run finalizes whenever the generation loop ends; an error from
// Initialize or from a generation returns an empty Report without
// finalizing.
func (d *Driver) Run(ctx context.Context) (Report, error) {
	if d.state == Uninitialized {
		if err := d.Initialize(ctx); err != nil {
			return Report{}, err
		}
	}
	maxGen := d.opts.MaxGenerations
	if maxGen <= 0 {
		maxGen = DefaultMaxGenerations
	}

	var runErr error
	converged := false
	for d.gen < maxGen {
		if d.aborted.Load() || ctx.Err() != nil {
			runErr = ErrAborted
			break
		}
		if d.opts.MaxEvaluations > 0 && d.eval.Evaluations() >= d.opts.MaxEvaluations {
			runErr = ErrBudgetExhausted
			break
		}
		var err error
		converged, err = d.Iterate(ctx)
		if err != nil {
			// A mid-generation abort surfaces as a driver launch failure;
			// classify it by the abort flag rather than the error chain.
			if d.aborted.Load() || errors.Is(err, ErrAborted) {
				runErr = ErrAborted
				break
			}
			return Report{}, err
		}
		if converged {
			break
		}
	}
	rep := d.Finalize()
	rep.Converged = converged
	return rep, runErr
}

// Finalize emits the archive of best-fitness designs and retires the driver.
func (d *Driver) Finalize() Report {
	if d.state == Finalized {
		return d.report(false)
	}
	gctx := d.gctx()
	if d.fr != nil {
		if err := d.ops.PostProcessor.PostProcess(d.pop, d.fr, gctx); err != nil {
			d.log.Warn("post-processing failed", zap.Error(err))
		}
	}
	d.state = Finalized
	rep := d.report(false)
	d.log.Info("finalized",
		zap.Int("generations", rep.Generations),
		zap.Int("evaluations", rep.Evaluations),
		zap.Int("archive", len(rep.Best)),
	)
	return rep
}

// report assembles the result block.
func (d *Driver) report(converged bool) Report {
	rep := Report{
		Generations: d.gen,
		Evaluations: d.eval.Evaluations(),
		Converged:   converged,
		FinalMetric: math.NaN(),
		Seed:        d.rt.Seed,
		RunID:       d.rt.RunID,
		Wall:        time.Since(d.started),
	}
	if mt, ok := d.ops.Converger.(*metricTracker); ok {
		rep.FinalMetric = mt.LastMetric()
	}
	// An archiving post-processor owns the reported design set; without one
	// the report falls back to the raw best-fitness subset.
	if ar, ok := d.ops.PostProcessor.(Archiver); ok {
		if a := ar.Archive(); a != nil {
			rep.Best = append([]*Individual(nil), a...)
			return rep
		}
	}
	if d.fr != nil && d.pop != nil {
		best := d.fr.Best(d.pop)
		rep.Best = make([]*Individual, len(best))
		for i, ind := range best {
			rep.Best[i] = ind.Clone()
		}
	}
	return rep
}

// statusLine logs the per-iteration progress record.
func (d *Driver) statusLine() {
	best := math.Inf(1)
	feasible := 0
	for _, ind := range d.pop.Members() {
		if ind.Feasible() {
			feasible++
			if ind.Objectives[0] < best {
				best = ind.Objectives[0]
			}
		}
	}
	if !math.IsInf(best, 1) {
		d.rt.Metrics.BestObjective.Set(best)
	}
	d.log.Info("generation complete",
		zap.Int("generation", d.gen),
		zap.Float64("best_objective", best),
		zap.Int("feasible", feasible),
		zap.Duration("wall", time.Since(d.started)),
	)
}
