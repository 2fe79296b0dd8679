// Package ga - the model-backed evaluator operator.
package ga

import (
	"context"

	"github.com/katalvlaran/optiq/matrix"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// modelEvaluator routes population evaluation through a Model: values-only
// active sets, batch dispatch with duplicate coalescing, objective and
// constraint extraction via the constraint mapping.
type modelEvaluator struct {
	mdl  *model.Model
	cmap *model.ConstraintMap

	// Linear constraints evaluate from the coefficient matrix over the
	// continuous variables; they cost no simulator calls and their mapped
	// rows append after the nonlinear ones.
	linCoeffs *matrix.Dense
	linMap    *model.ConstraintMap

	// nResp is objectives + raw nonlinear constraints in simulator order.
	nResp int

	evalCount int
}

// newModelEvaluator wires the evaluator the driver installs into its set.
func newModelEvaluator(mdl *model.Model, cmap *model.ConstraintMap, nObjectives, nConstraints int) *modelEvaluator {
	return &modelEvaluator{mdl: mdl, cmap: cmap, nResp: nObjectives + nConstraints}
}

// Name implements Operator.
func (*modelEvaluator) Name() string { return "model_batch" }

// Evaluations reports how many simulator-bound requests this operator issued
// (cache hits included once dispatched; the budget counts requests).
func (e *modelEvaluator) Evaluations() int { return e.evalCount }

// Evaluate implements Evaluator.
func (e *modelEvaluator) Evaluate(ctx context.Context, pop *Population, gctx *Context) error {
	var stale []*Individual
	var points []vars.Point
	for _, ind := range pop.Members() {
		if ind.NeedsEval {
			stale = append(stale, ind)
			points = append(points, ind.Genome)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	rs, err := e.mdl.EvaluateBatch(ctx, points, response.ValuesOnly(e.nResp))
	if err != nil {
		return err
	}
	e.evalCount += len(stale)

	nobj := gctx.Opts.NumObjectives
	for i, ind := range stale {
		r := rs[i]
		ind.NeedsEval = false
		if r.AnyFailed() {
			ind.Failed = true
			ind.Objectives = nil
			ind.Constraints = nil
			continue
		}
		ind.Failed = false
		ind.Objectives = append([]float64(nil), r.Values[:nobj]...)
		ind.Constraints = nil
		if e.cmap != nil && e.cmap.Len() > 0 {
			rows, cerr := e.cmap.Apply(r.Values[nobj:])
			if cerr != nil {
				return cerr
			}
			ind.Constraints = rows
		}
		if e.linMap != nil {
			x := ind.Genome.Reals(gctx.Space.ContinuousIndices())
			rows, lerr := e.linMap.ApplyLinear(e.linCoeffs, x)
			if lerr != nil {
				return lerr
			}
			ind.Constraints = append(ind.Constraints, rows...)
		}
	}
	return nil
}
