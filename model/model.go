// Package model - the evaluation dispatcher.
package model

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/cache"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/restart"
	"github.com/katalvlaran/optiq/runtime"
	"github.com/katalvlaran/optiq/sim"
	"github.com/katalvlaran/optiq/vars"
)

// Model couples a VariableSpace with an Interface and applies the engine's
// evaluation policy: cache-first dispatch, active-set decomposition, FD
// estimation for derivatives the driver cannot supply, and restart
// persistence of completed pairs.
//
// Ownership: the Model owns its Interface (possibly shared with sibling
// models); the cache owns all pairs.
type Model struct {
	space *vars.Space
	iface sim.Interface
	cache *cache.Cache
	rlog  *restart.Writer // nil: no persistence
	rt    *runtime.Runtime
	opts  Options
	est   estimator

	log            *zap.Logger
	persistBroken  bool
	syncEvalSerial int64
}

// New assembles a Model. rlog may be nil (no persistence); rt may be nil for
// library use (a nop runtime is substituted).
func New(space *vars.Space, iface sim.Interface, c *cache.Cache, rlog *restart.Writer, rt *runtime.Runtime, opts Options) (*Model, error) {
	if space == nil {
		return nil, ErrNilSpace
	}
	if iface == nil {
		return nil, ErrNilInterface
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rt == nil {
		rt = runtime.New(runtime.Options{Seed: 1})
	}
	if c == nil {
		c = cache.New(cache.DefaultOptions(), rt.Metrics)
	}
	return &Model{
		space: space,
		iface: iface,
		cache: c,
		rlog:  rlog,
		rt:    rt,
		opts:  opts,
		est:   estimator{opts: opts},
		log:   rt.Logger.Named("model"),
	}, nil
}

// Space returns the model's variable space.
func (m *Model) Space() *vars.Space { return m.space }

// Cache returns the shared evaluation cache.
func (m *Model) Cache() *cache.Cache { return m.cache }

// Interface returns the underlying driver.
func (m *Model) Interface() sim.Interface { return m.iface }

// Abort forwards cancellation to the driver.
func (m *Model) Abort() { m.iface.Abort() }

// Evaluate satisfies one (point, active-set) request.
//
// Pipeline:
//  1. Validate the point against the schema.
//  2. Cache lookup; a stored response whose set covers the request wins.
//  3. Split the request into what the driver supplies analytically and what
//     must be finite-differenced; Hessians the driver cannot produce are
//     ErrDerivativeUnavailable (no FD Hessian policy in this engine).
//  4. Probe sub-requests route back through the cache.
//  5. The completed pair is stored and appended to the restart log.
func (m *Model) Evaluate(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error) {
	if err := m.space.CheckPoint(p); err != nil {
		return nil, err
	}
	if got, ok := m.cache.Lookup(m.iface.ID(), p); ok && got.Set.Superset(as) {
		return got, nil
	}

	caps := m.iface.Capabilities()
	direct := caps.Clip(as)

	// Audit what remains after the driver's analytic ceiling.
	var fdComps []int
	for i, req := range as {
		missing := req &^ direct[i]
		if missing.HasHessian() {
			return nil, fmt.Errorf("%w: component %d hessian", ErrDerivativeUnavailable, i)
		}
		if missing.HasGradient() {
			fdComps = append(fdComps, i)
			direct[i] |= response.WantValue // FD needs the center value
		}
	}

	center, err := m.evaluateRaw(ctx, p, direct)
	if err != nil {
		return nil, err
	}

	if len(fdComps) == 0 {
		return center, nil
	}

	// Graft an empty gradient block onto the center response: the merge
	// keeps every value and derivative the driver supplied and upgrades the
	// active set, leaving the FD estimator to fill the missing rows.
	gradSet := make(response.ActiveSet, len(as))
	for _, ci := range fdComps {
		gradSet[ci] = response.WantGradient
	}
	grads, err := response.New(gradSet, m.space.Len())
	if err != nil {
		return nil, err
	}
	full := center.Clone()
	if err = full.Merge(grads); err != nil {
		return nil, err
	}

	if err = m.est.gradient(ctx, m.evaluateRaw, m.space, p, center, fdComps, full); err != nil {
		return nil, err
	}

	// Store the enriched pair so a later identical request is a pure hit.
	m.persist(p, full)
	return full, nil
}

// evaluateRaw performs one cache-aware driver call honoring as exactly.
func (m *Model) evaluateRaw(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error) {
	if got, ok := m.cache.Lookup(m.iface.ID(), p); ok && got.Set.Superset(as) {
		return got, nil
	}

	r, err := m.iface.Eval(ctx, p, as)
	switch {
	case err == nil:
	case errors.Is(err, sim.ErrDomain), errors.Is(err, sim.ErrEvaluation):
		// In-band failure: a fully-failed response the iterator can penalize.
		// Recorded in the cache so a retry is an explicit iterator decision,
		// but never appended to the restart log.
		m.rt.Metrics.Evaluations.WithLabelValues("failed").Inc()
		m.log.Warn("evaluation failed", zap.Error(err))
		r, err = response.New(response.ValuesOnly(len(as)), m.space.Len())
		if err != nil {
			return nil, err
		}
		for i := range r.Failed {
			r.Failed[i] = true
		}
		m.persist(p, r)
		return r, nil
	default:
		return nil, err
	}

	if aerr := r.Audit(as); aerr != nil {
		return nil, aerr
	}
	m.rt.Metrics.Evaluations.WithLabelValues("ok").Inc()
	m.persist(p, r)
	return r, nil
}

// persist stores the pair and appends it to the restart log. Restart I/O
// failures warn once and disable persistence; evaluation proceeds.
func (m *Model) persist(p vars.Point, r *response.Response) {
	m.syncEvalSerial++
	pair, err := cache.NewPair(m.iface.ID(), p, r, m.syncEvalSerial)
	if err != nil {
		m.log.Warn("pair construction failed", zap.Error(err))
		return
	}
	if err = m.cache.Store(pair); err != nil {
		m.log.Warn("cache store failed", zap.Error(err))
		return
	}
	if m.rlog == nil || m.persistBroken || r.AnyFailed() {
		return
	}
	if err = m.rlog.Append(pair); err != nil {
		m.persistBroken = true
		m.log.Warn("restart log write failed; continuing without persistence", zap.Error(err))
		return
	}
	m.rt.Metrics.RestartWritten.Inc()
}

// FlushRestart applies the per-iteration flush policy boundary.
func (m *Model) FlushRestart() {
	if m.rlog == nil || m.persistBroken {
		return
	}
	if err := m.rlog.FlushIteration(); err != nil {
		m.persistBroken = true
		m.log.Warn("restart log flush failed; continuing without persistence", zap.Error(err))
	}
}

// EvaluateBatch satisfies one values-style request per point, fanning out
// through the driver's async surface with in-flight coalescing: duplicate
// points inside the batch (or already in flight) cost one simulator call.
//
// Failed evaluations come back as failure-tagged responses; Timeout and
// Cancelled completions surface as failure-tagged responses too but are
// never cached.
func (m *Model) EvaluateBatch(ctx context.Context, points []vars.Point, as response.ActiveSet) ([]*response.Response, error) {
	out := make([]*response.Response, len(points))
	evalOf := make(map[int64][]int) // leader eval-id -> point positions awaiting it
	pending := 0

	for i, p := range points {
		if err := m.space.CheckPoint(p); err != nil {
			return nil, err
		}
		if got, ok := m.cache.Lookup(m.iface.ID(), p); ok && got.Set.Superset(as) {
			out[i] = got
			continue
		}
		// Attach to a live flight for the same key instead of launching a
		// duplicate; the leader's completion covers this position too.
		if lead, ok := m.cache.InflightLeader(m.iface.ID(), p); ok {
			evalOf[lead] = append(evalOf[lead], i)
			continue
		}
		id, err := m.iface.Launch(p, as)
		if err != nil {
			return nil, err
		}
		if _, err = m.cache.Register(id, m.iface.ID(), p); err != nil {
			return nil, err
		}
		evalOf[id] = append(evalOf[id], i)
		pending++
	}

	for pending > 0 {
		comps, err := m.iface.Collect(ctx)
		if err != nil {
			if errors.Is(err, sim.ErrNoPending) {
				break
			}
			return nil, err
		}
		for _, c := range comps {
			done, derr := m.completeOne(c, as)
			if derr != nil {
				return nil, derr
			}
			for id, resp := range done {
				positions, owed := evalOf[id]
				if !owed {
					continue
				}
				for _, pos := range positions {
					out[pos] = resp
				}
				delete(evalOf, id)
				pending--
			}
		}
	}

	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("%w: point %d never completed", ErrEvaluationFailed, i)
		}
	}
	return out, nil
}

// completeOne folds a single completion into the cache and returns the
// responses owed per retired eval-id.
func (m *Model) completeOne(c sim.Completion, as response.ActiveSet) (map[int64]*response.Response, error) {
	done := make(map[int64]*response.Response)

	if c.Err != nil {
		failed, err := response.New(response.ValuesOnly(len(as)), m.space.Len())
		if err != nil {
			return nil, err
		}
		for i := range failed.Failed {
			failed.Failed[i] = true
		}
		outcome := "failed"
		switch {
		case errors.Is(c.Err, sim.ErrTimeout):
			outcome = "timeout"
		case errors.Is(c.Err, sim.ErrCancelled):
			outcome = "cancelled"
		}
		m.rt.Metrics.Evaluations.WithLabelValues(outcome).Inc()
		m.log.Warn("async evaluation failed",
			zap.Int64("eval_id", c.EvalID), zap.Error(c.Err))

		// Domain and evaluation failures are recorded in the cache as the
		// synchronous path does (never in the restart log); timed-out,
		// cancelled and other failed jobs are not cached: discard the flight.
		var ids []int64
		var derr error
		if errors.Is(c.Err, sim.ErrDomain) || errors.Is(c.Err, sim.ErrEvaluation) {
			_, ids, derr = m.cache.Complete(c.EvalID, m.iface.ID(), c.Point, failed)
		} else {
			ids, derr = m.cache.Discard(c.EvalID)
		}
		if derr != nil {
			return nil, derr
		}
		for _, id := range ids {
			done[id] = failed
		}
		return done, nil
	}

	if aerr := c.Response.Audit(as); aerr != nil {
		return nil, aerr
	}
	pair, ids, err := m.cache.Complete(c.EvalID, m.iface.ID(), c.Point, c.Response)
	if err != nil {
		return nil, err
	}
	m.rt.Metrics.Evaluations.WithLabelValues("ok").Inc()
	if m.rlog != nil && !m.persistBroken {
		if werr := m.rlog.Append(pair); werr != nil {
			m.persistBroken = true
			m.log.Warn("restart log write failed; continuing without persistence", zap.Error(werr))
		} else {
			m.rt.Metrics.RestartWritten.Inc()
		}
	}
	shared := pair.Response()
	for _, id := range ids {
		done[id] = shared
	}
	return done, nil
}
