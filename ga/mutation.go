// Package ga - mutation operators.
package ga

import (
	"math"

	"github.com/katalvlaran/optiq/vars"
)

// clampReal keeps x within a variable's bounds.
func clampReal(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// mutateGene rewrites gene i of g per the drawing function for its kind.
func mutateGene(g vars.Point, i int, gctx *Context, offset bool) {
	v, _ := gctx.Space.At(i)
	switch v.Kind {
	case vars.Real:
		if len(v.DiscreteReals) > 0 {
			g[i] = vars.RealValue(v.DiscreteReals[gctx.RNG.Intn(len(v.DiscreteReals))])
			return
		}
		lo, hi := v.Lower, v.Upper
		if math.IsInf(lo, -1) {
			lo = g[i].Real - 1
		}
		if math.IsInf(hi, 1) {
			hi = g[i].Real + 1
		}
		if offset {
			sigma := gctx.Opts.MutationScale * (hi - lo)
			g[i] = vars.RealValue(clampReal(g[i].Real+gctx.RNG.NormFloat64()*sigma, lo, hi))
			return
		}
		g[i] = vars.RealValue(lo + gctx.RNG.Float64()*(hi-lo))
	case vars.Integer:
		if len(v.DiscreteInts) > 0 {
			g[i] = vars.IntValue(v.DiscreteInts[gctx.RNG.Intn(len(v.DiscreteInts))])
			return
		}
		lo, hi := intBounds(v)
		g[i] = vars.IntValue(lo + gctx.RNG.Int63n(hi-lo+1))
	case vars.Categorical:
		g[i] = vars.CatValue(v.Categories[gctx.RNG.Intn(len(v.Categories))])
	}
}

// offsetNormalMutator perturbs one random gene per selected individual by a
// zero-mean normal offset with sigma = MutationScale · range, clamped into
// bounds. Discrete genes redraw from their set.
type offsetNormalMutator struct{}

// Name implements Operator.
func (offsetNormalMutator) Name() string { return "offset_normal" }

// Mutate implements Mutator.
func (offsetNormalMutator) Mutate(children *Population, gctx *Context) error {
	for _, ind := range children.Members() {
		if gctx.RNG.Float64() >= gctx.Opts.MutationRate {
			continue
		}
		i := gctx.RNG.Intn(len(ind.Genome))
		mutateGene(ind.Genome, i, gctx, true)
		ind.NeedsEval = true
	}
	return nil
}

// replaceUniformMutator rewrites one random gene per selected individual
// with a fresh uniform draw over its bounds or set.
type replaceUniformMutator struct{}

// Name implements Operator.
func (replaceUniformMutator) Name() string { return "replace_uniform" }

// Mutate implements Mutator.
func (replaceUniformMutator) Mutate(children *Population, gctx *Context) error {
	for _, ind := range children.Members() {
		if gctx.RNG.Float64() >= gctx.Opts.MutationRate {
			continue
		}
		i := gctx.RNG.Intn(len(ind.Genome))
		mutateGene(ind.Genome, i, gctx, false)
		ind.NeedsEval = true
	}
	return nil
}
