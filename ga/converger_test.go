// Package ga - metric-tracker behavior (internal test).
package ga

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// On a stream of identical populations the expansion, density, and depth
// metrics are all zero from the second tracked generation onward, so the
// tracker converges after exactly StallGenerations further generations.
func TestMetricTracker_IdenticalPopulationsConverge(t *testing.T) {
	gctx := nicheCtx(2, []float64{0.01}, false)
	gctx.Opts.MetricTolerance = 1e-3
	gctx.Opts.StallGenerations = 5

	mt := &metricTracker{}

	for g := 1; g <= 6; g++ {
		pop, fr := frontPop(t, 0, 0.25, 0.5, 0.75, 1)
		gctx.Gen = g
		done, err := mt.Converged(pop, fr, gctx)
		require.NoError(t, err)
		switch {
		case g == 1:
			// Baseline generation: tracked, never converged.
			require.False(t, done)
		case g < 6:
			require.False(t, done, "generation %d", g)
			require.Zero(t, mt.LastMetric())
		default:
			// Fifth consecutive below-tolerance generation.
			require.True(t, done)
			require.Zero(t, mt.LastMetric())
		}
	}
}

// A front that keeps improving (advancing toward the origin) keeps the depth
// metric high and must not converge.
func TestMetricTracker_AdvancingFrontDoesNotConverge(t *testing.T) {
	gctx := nicheCtx(2, []float64{0.01}, false)
	gctx.Opts.MetricTolerance = 1e-3
	gctx.Opts.StallGenerations = 2

	mt := &metricTracker{}

	offset := 1.0
	for g := 1; g <= 6; g++ {
		p := NewPopulation(3)
		fr := NewFitnessRecord()
		for _, x := range []float64{0, 0.5, 1} {
			i := ind(t, []float64{x, offset - x}, x)
			p.Add(i)
			fr.Set(i, 0)
		}
		p.SynchronizeOFAndDVContainers()
		gctx.Gen = g
		done, err := mt.Converged(p, fr, gctx)
		require.NoError(t, err)
		require.False(t, done, "generation %d", g)
		offset *= 0.5 // every design strictly improves on f2
	}
}

// The expansion metric fires when the best-set range stretches.
func TestMetricTracker_ExpansionDetected(t *testing.T) {
	gctx := nicheCtx(2, []float64{0.01}, false)
	gctx.Opts.MetricTolerance = 1e-3
	gctx.Opts.StallGenerations = 5

	mt := &metricTracker{}

	pop, fr := frontPop(t, 0, 0.5, 1)
	gctx.Gen = 1
	_, err := mt.Converged(pop, fr, gctx)
	require.NoError(t, err)

	// Double the front's extent: range change 1.0 per objective.
	pop, fr = frontPop(t, -0.5, 0.5, 1.5)
	gctx.Gen = 2
	done, err := mt.Converged(pop, fr, gctx)
	require.NoError(t, err)
	require.False(t, done)
	require.Greater(t, mt.LastMetric(), 0.9)
}
