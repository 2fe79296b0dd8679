// Package ga - replacement policies (internal test).
package ga

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// selCtx builds a Context for selection tests.
func selCtx(popsize, keep int, mode ReplacementMode) *Context {
	opts := DefaultOptions()
	opts.PopulationSize = popsize
	opts.KeepNum = keep
	opts.Replacement = mode
	opts.NumObjectives = 1
	return &Context{
		RNG:  rand.New(rand.NewSource(7)),
		Log:  zap.NewNop(),
		Opts: &opts,
	}
}

// rankedPop builds n single-objective individuals with objective = base+rank
// and fitness = -(base+rank) (so index 0 is best).
func rankedPop(t *testing.T, fr *FitnessRecord, base float64, n int) *Population {
	t.Helper()
	p := NewPopulation(n)
	for i := 0; i < n; i++ {
		in := ind(t, []float64{base + float64(i)}, base+float64(i))
		p.Add(in)
		fr.Set(in, -(base + float64(i)))
	}
	return p
}

func objectives(p *Population) []float64 {
	out := make([]float64, p.Len())
	for i, m := range p.Members() {
		out[i] = m.Objectives[0]
	}
	return out
}

func TestElitistReplacement(t *testing.T) {
	fr := NewFitnessRecord()
	prev := rankedPop(t, fr, 10, 4)   // objectives 10..13
	trials := rankedPop(t, fr, 0, 2)  // objectives 0, 1 — both better
	gctx := selCtx(4, 2, ReplaceElitist)

	next, err := panmicticSelector{}.Select(prev, trials, fr, gctx)
	require.NoError(t, err)
	require.Equal(t, 4, next.Len())

	// The two worst previous designs (12, 13) were replaced by the trials.
	require.ElementsMatch(t, []float64{10, 11, 0, 1}, objectives(next))
}

func TestCHCReplacement(t *testing.T) {
	fr := NewFitnessRecord()
	prev := rankedPop(t, fr, 10, 4)
	trials := rankedPop(t, fr, 0, 4)
	gctx := selCtx(4, 2, ReplaceCHC)

	next, err := panmicticSelector{}.Select(prev, trials, fr, gctx)
	require.NoError(t, err)
	require.Equal(t, 4, next.Len())

	// The keep best of the union (0 and 1) are always retained.
	objs := objectives(next)
	require.Contains(t, objs, 0.0)
	require.Contains(t, objs, 1.0)
}

func TestRandomReplacement(t *testing.T) {
	fr := NewFitnessRecord()
	prev := rankedPop(t, fr, 10, 5)
	trials := rankedPop(t, fr, 0, 3)
	gctx := selCtx(5, 2, ReplaceRandom)

	next, err := panmicticSelector{}.Select(prev, trials, fr, gctx)
	require.NoError(t, err)
	require.Equal(t, 5, next.Len())

	// popsize-keep = 3 slots were replaced by the (three) best trials.
	objs := objectives(next)
	require.Contains(t, objs, 0.0)
	require.Contains(t, objs, 1.0)
	require.Contains(t, objs, 2.0)
}

func TestExponentialReplacement_FillsExactly(t *testing.T) {
	fr := NewFitnessRecord()
	prev := rankedPop(t, fr, 10, 6)
	trials := rankedPop(t, fr, 0, 6)
	gctx := selCtx(6, 0, ReplaceExponential)
	gctx.Opts.ExpFactor = 0.5

	next, err := panmicticSelector{}.Select(prev, trials, fr, gctx)
	require.NoError(t, err)
	require.Equal(t, 6, next.Len())

	// Rank 0 is kept with probability 1 under the geometric decay.
	require.Contains(t, objectives(next), 0.0)
}

func TestSelect_EmptyPrevRejected(t *testing.T) {
	fr := NewFitnessRecord()
	gctx := selCtx(4, 1, ReplaceElitist)
	_, err := panmicticSelector{}.Select(NewPopulation(0), NewPopulation(0), fr, gctx)
	require.ErrorIs(t, err, ErrEmptyPopulation)
}
