// Package ga - niche-pressure behavior (internal test).
package ga

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// nicheCtx builds a Context for niche tests.
func nicheCtx(nobj int, pcts []float64, cacheDesigns bool) *Context {
	opts := DefaultOptions()
	opts.NumObjectives = nobj
	opts.DistancePcts = pcts
	opts.CacheDesigns = cacheDesigns
	return &Context{
		RNG:  rand.New(rand.NewSource(1)),
		Log:  zap.NewNop(),
		Opts: &opts,
	}
}

// frontPop builds a population along the f2 = 1 - f1 front at the given f1
// values, plus a fitness record ranking them all best.
func frontPop(t *testing.T, f1 ...float64) (*Population, *FitnessRecord) {
	t.Helper()
	p := NewPopulation(len(f1))
	fr := NewFitnessRecord()
	for _, x := range f1 {
		i := ind(t, []float64{x, 1 - x}, x)
		p.Add(i)
		fr.Set(i, 0)
	}
	p.SynchronizeOFAndDVContainers()
	return p, fr
}

// Extreme preservation: under any distance threshold ≥ the objective range,
// neither extreme is removed and every non-extreme design is.
func TestDistanceNicher_ExtremePreservation(t *testing.T) {
	pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
	gctx := nicheCtx(2, []float64{1.0}, false) // threshold = full range

	n := &distanceNicher{}
	require.NoError(t, n.ApplyNichePressure(pop, fr, gctx))

	require.Equal(t, 2, pop.Len())
	survivors := map[float64]bool{}
	for _, m := range pop.Members() {
		survivors[m.Objectives[0]] = true
	}
	require.True(t, survivors[0], "min-f1 extreme must survive")
	require.True(t, survivors[1], "max-f1 extreme must survive")
}

// With a threshold below the grid spacing nothing is too close: no removal.
func TestDistanceNicher_ThresholdBelowSpacing(t *testing.T) {
	pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
	gctx := nicheCtx(2, []float64{0.1}, false) // 0.1·range < 0.25 spacing

	n := &distanceNicher{}
	require.NoError(t, n.ApplyNichePressure(pop, fr, gctx))
	require.Equal(t, 5, pop.Len())
}

func TestDistanceNicher_BufferReassimilation(t *testing.T) {
	pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
	gctx := nicheCtx(2, []float64{1.0}, true)

	n := &distanceNicher{}
	require.NoError(t, n.ApplyNichePressure(pop, fr, gctx))
	require.Equal(t, 2, pop.Len())

	// Pre-selection of the next generation returns the buffered designs.
	n.PreSelection(pop, gctx)
	require.Equal(t, 5, pop.Len())

	// The buffer drains on re-assimilation.
	n.PreSelection(pop, gctx)
	require.Equal(t, 5, pop.Len())
}

func TestRadialNicher_CullsWithinRadius(t *testing.T) {
	// Spacing 0.25 in normalized objective space; radius √(2·0.3²) ≈ 0.42
	// swallows adjacent designs but not the extremes.
	pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
	gctx := nicheCtx(2, []float64{0.3, 0.3}, false)

	n := &radialNicher{}
	require.NoError(t, n.ApplyNichePressure(pop, fr, gctx))

	require.Less(t, pop.Len(), 5)
	survivors := map[float64]bool{}
	for _, m := range pop.Members() {
		survivors[m.Objectives[0]] = true
	}
	require.True(t, survivors[0])
	require.True(t, survivors[1])
}

func TestRadialNicher_TinyRadiusKeepsAll(t *testing.T) {
	pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
	gctx := nicheCtx(2, []float64{0.01, 0.01}, false)

	n := &radialNicher{}
	require.NoError(t, n.ApplyNichePressure(pop, fr, gctx))
	require.Equal(t, 5, pop.Len())
}

func TestIsExtremeDesign(t *testing.T) {
	pop, _ := frontPop(t, 0, 0.5, 1)
	best := pop.Members()
	mins, maxs := objectiveExtremes(best, 2)

	require.True(t, isExtremeDesign(best[0], mins, maxs))  // min f1 / max f2
	require.False(t, isExtremeDesign(best[1], mins, maxs)) // interior
	require.True(t, isExtremeDesign(best[2], mins, maxs))  // max f1 / min f2
}
