// Package ga - convergence tracking.
package ga

import (
	"math"

	"go.uber.org/zap"
)

// metricTracker implements the metric-tracking converger: each generation
// after the first it compares the current best-fitness subset against the
// previous one on three metrics and declares convergence when their sum
// stays below tolerance for the configured number of consecutive
// generations.
//
// Metrics:
//   - expansion: largest relative change of any objective's best-set range;
//   - density:   percent change of population count per objective-space
//     volume (volume = product of nonzero population ranges);
//   - depth:     fraction of the previous best set dominated by at least one
//     current best design.
//
// The first tracked generation records baseline state and reports zero
// without testing convergence.
type metricTracker struct {
	prevBest        [][]float64 // objective vectors of the previous best set
	prevBestRanges  []float64
	prevPopExtremes [][2]float64
	prevPopSize     int
	tracked         int
	consecutive     int
	lastMetric      float64
}

// Name implements Operator.
func (*metricTracker) Name() string { return "metric_tracker" }

// LastMetric exposes the most recent composite metric for reporting.
func (m *metricTracker) LastMetric() float64 { return m.lastMetric }

// Converged implements Converger.
func (m *metricTracker) Converged(pop *Population, fr *FitnessRecord, gctx *Context) (bool, error) {
	pop.SynchronizeOFAndDVContainers()

	best := fr.Best(pop)
	if len(best) == 0 {
		return false, ErrEmptyPopulation
	}
	nobj := gctx.Opts.NumObjectives

	bestMins, bestMaxs := objectiveExtremes(best, nobj)
	bestRanges := make([]float64, nobj)
	for j := 0; j < nobj; j++ {
		bestRanges[j] = bestMaxs[j] - bestMins[j]
	}
	popMins, popMaxs := objectiveExtremes(evaluated(pop), nobj)
	popExtremes := make([][2]float64, nobj)
	for j := 0; j < nobj; j++ {
		popExtremes[j] = [2]float64{popMins[j], popMaxs[j]}
	}

	m.tracked++
	if m.tracked == 1 {
		m.record(best, bestRanges, popExtremes, pop.Len())
		return false, nil
	}

	expansion := m.maxRangeChange(bestRanges)
	density := m.densityChange(pop.Len(), popExtremes)
	depth := m.fractionDominated(best)
	metric := math.Abs(expansion) + math.Abs(density) + math.Abs(depth)
	m.lastMetric = metric

	gctx.Log.Debug("convergence metrics",
		zap.Int("generation", gctx.Gen),
		zap.Float64("expansion", expansion),
		zap.Float64("density", density),
		zap.Float64("depth", depth),
		zap.Float64("metric", metric),
	)

	m.record(best, bestRanges, popExtremes, pop.Len())

	if metric < gctx.Opts.MetricTolerance {
		m.consecutive++
	} else {
		m.consecutive = 0
	}
	return m.consecutive >= gctx.Opts.StallGenerations, nil
}

// record snapshots the current generation as the next comparison baseline.
func (m *metricTracker) record(best []*Individual, bestRanges []float64, popExtremes [][2]float64, popSize int) {
	m.prevBest = make([][]float64, len(best))
	for i, ind := range best {
		m.prevBest[i] = append([]float64(nil), ind.Objectives...)
	}
	m.prevBestRanges = bestRanges
	m.prevPopExtremes = popExtremes
	m.prevPopSize = popSize
}

// maxRangeChange returns the signed relative range change with the largest
// magnitude across objectives; a zero previous range reports the raw new
// range.
func (m *metricTracker) maxRangeChange(newRanges []float64) float64 {
	var maxChng float64
	for j, nr := range newRanges {
		or := m.prevBestRanges[j]
		chng := nr
		if or != 0 {
			chng = (nr - or) / or
		}
		if math.Abs(chng) > math.Abs(maxChng) {
			maxChng = chng
		}
	}
	return maxChng
}

// densityChange returns the fractional change of population density, where
// density is count divided by the product of nonzero objective ranges.
func (m *metricTracker) densityChange(popSize int, popExtremes [][2]float64) float64 {
	oldVol := volume(m.prevPopExtremes)
	newVol := volume(popExtremes)
	oldDen := float64(m.prevPopSize) / oldVol
	newDen := float64(popSize) / newVol
	return (newDen - oldDen) / oldDen
}

// volume multiplies the nonzero ranges; an all-degenerate space has volume 1.
func volume(extremes [][2]float64) float64 {
	vol := 1.0
	for _, e := range extremes {
		if r := e[1] - e[0]; r != 0 {
			vol *= r
		}
	}
	return vol
}

// fractionDominated returns the share of the previous best set dominated by
// at least one design of the current best set.
func (m *metricTracker) fractionDominated(best []*Individual) float64 {
	if len(m.prevBest) == 0 {
		return 0
	}
	dominated := 0
	for _, prev := range m.prevBest {
		for _, cur := range best {
			if dominatesObjectives(cur.Objectives, prev) {
				dominated++
				break
			}
		}
	}
	return float64(dominated) / float64(len(m.prevBest))
}

// dominatesObjectives is Pareto domination over raw objective vectors.
func dominatesObjectives(a, b []float64) bool {
	better := false
	for i := range a {
		switch {
		case a[i] < b[i]:
			better = true
		case a[i] > b[i]:
			return false
		}
	}
	return better
}

// evaluated filters pop to members carrying meaningful objectives.
func evaluated(pop *Population) []*Individual {
	out := make([]*Individual, 0, pop.Len())
	for _, ind := range pop.Members() {
		if !ind.NeedsEval && !ind.Failed {
			out = append(out, ind)
		}
	}
	return out
}

// maxGenerationsConverger converges purely on the generation budget; the
// driver enforces the budget in either case, so this operator simply never
// fires early.
type maxGenerationsConverger struct{}

// Name implements Operator.
func (maxGenerationsConverger) Name() string { return "max_generations" }

// Converged implements Converger.
func (maxGenerationsConverger) Converged(pop *Population, _ *FitnessRecord, gctx *Context) (bool, error) {
	if pop.Len() == 0 {
		return false, ErrEmptyPopulation
	}
	return gctx.Gen >= gctx.Opts.MaxGenerations, nil
}
