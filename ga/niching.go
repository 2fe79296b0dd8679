// Package ga - niche-pressure applicators.
package ga

import (
	"math"
	"sort"
)

// objectiveExtremes computes per-objective (min, max) over inds.
func objectiveExtremes(inds []*Individual, nobj int) (mins, maxs []float64) {
	mins = make([]float64, nobj)
	maxs = make([]float64, nobj)
	for j := 0; j < nobj; j++ {
		mins[j] = math.Inf(1)
		maxs[j] = math.Inf(-1)
	}
	for _, ind := range inds {
		for j := 0; j < nobj; j++ {
			if ind.Objectives[j] < mins[j] {
				mins[j] = ind.Objectives[j]
			}
			if ind.Objectives[j] > maxs[j] {
				maxs[j] = ind.Objectives[j]
			}
		}
	}
	return mins, maxs
}

// isExtremeDesign reports a design attaining an extreme value on all but at
// most one objective. Extreme designs anchor the front and are never culled.
func isExtremeDesign(ind *Individual, mins, maxs []float64) bool {
	nobj := len(mins)
	hits := 0
	for j := 0; j < nobj; j++ {
		if ind.Objectives[j] == mins[j] || ind.Objectives[j] == maxs[j] {
			hits++
		}
	}
	return hits >= nobj-1
}

// distancePcts expands the configured per-objective fractions to nobj
// entries; a single entry fans out, missing entries fall back to the default.
func distancePcts(gctx *Context, nobj int) []float64 {
	pcts := make([]float64, nobj)
	src := gctx.Opts.DistancePcts
	for j := 0; j < nobj; j++ {
		switch {
		case len(src) == 1:
			pcts[j] = src[0]
		case j < len(src):
			pcts[j] = src[j]
		default:
			pcts[j] = DefaultDistancePct
		}
	}
	return pcts
}

// sortByObjective0 orders the best set ascending on the first objective;
// the scan below exploits this ordering to cut its inner loop short.
func sortByObjective0(inds []*Individual) {
	sort.SliceStable(inds, func(a, b int) bool {
		return inds[a].Objectives[0] < inds[b].Objectives[0]
	})
}

// nicheBuffer implements the cache-designs option shared by both policies:
// culled designs move to an operator-owned buffer and re-enter the
// population at the next pre-selection instead of being discarded.
type nicheBuffer struct {
	buf []*Individual
}

// bufferOrDrop stores ind when caching is on; reports whether it buffered.
func (nb *nicheBuffer) bufferOrDrop(ind *Individual, gctx *Context) bool {
	if !gctx.Opts.CacheDesigns {
		return false
	}
	nb.buf = append(nb.buf, ind)
	return true
}

// reassimilate returns buffered designs into pop.
func (nb *nicheBuffer) reassimilate(pop *Population, gctx *Context) {
	if len(nb.buf) == 0 {
		return
	}
	for _, ind := range nb.buf {
		pop.Add(ind)
	}
	gctx.Log.Debug("re-assimilated buffered designs")
	nb.buf = nil
}

// tooClose is the per-policy predicate over a design pair.
// obj0Done reports that the first-objective gap alone already clears the
// threshold, allowing the caller to stop scanning (the set is obj0-sorted).
type tooClose func(a, b *Individual) (close, obj0Done bool)

// applyNichePressure runs the shared cull loop: for each survivor, scan
// forward removing non-extreme designs that are too close, stopping the
// inner scan as soon as the first-objective distance clears the threshold.
func applyNichePressure(pop *Population, fr *FitnessRecord, gctx *Context, nb *nicheBuffer, pred tooClose) error {
	if pop.Len() == 0 {
		return nil
	}
	pop.SynchronizeOFAndDVContainers()

	best := fr.Best(pop)
	if len(best) < 2 {
		return nil
	}
	nobj := gctx.Opts.NumObjectives
	mins, maxs := objectiveExtremes(best, nobj)
	sortByObjective0(best)

	removed := 0
	for ci := 0; ci < len(best); ci++ {
		for ni := ci + 1; ni < len(best); {
			cl, done := pred(best[ci], best[ni])
			if done {
				break
			}
			if !cl || isExtremeDesign(best[ni], mins, maxs) {
				ni++
				continue
			}
			victim := best[ni]
			pop.Remove(victim)
			nb.bufferOrDrop(victim, gctx)
			best = append(best[:ni], best[ni+1:]...)
			removed++
		}
	}
	if removed > 0 {
		gctx.Log.Debug("niche pressure culled designs")
	}
	return nil
}

// distanceNicher removes best-fitness designs that sit within the
// per-objective percentage thresholds of a survivor on every objective.
type distanceNicher struct {
	nicheBuffer
}

// Name implements Operator.
func (*distanceNicher) Name() string { return "distance" }

// PreSelection implements NichePressureApplicator.
func (d *distanceNicher) PreSelection(pop *Population, gctx *Context) {
	d.reassimilate(pop, gctx)
}

// ApplyNichePressure implements NichePressureApplicator.
func (d *distanceNicher) ApplyNichePressure(pop *Population, fr *FitnessRecord, gctx *Context) error {
	best := fr.Best(pop)
	if len(best) < 2 {
		return nil
	}
	nobj := gctx.Opts.NumObjectives
	mins, maxs := objectiveExtremes(best, nobj)
	pcts := distancePcts(gctx, nobj)

	dists := make([]float64, nobj)
	for j := 0; j < nobj; j++ {
		dists[j] = pcts[j] * (maxs[j] - mins[j])
	}

	pred := func(a, b *Individual) (bool, bool) {
		d0 := math.Abs(a.Objectives[0] - b.Objectives[0])
		if d0 > dists[0] {
			return false, true
		}
		for j := 1; j < nobj; j++ {
			if math.Abs(a.Objectives[j]-b.Objectives[j]) > dists[j] {
				return false, false
			}
		}
		return true, false
	}
	return applyNichePressure(pop, fr, gctx, &d.nicheBuffer, pred)
}

// radialNicher removes best-fitness designs within a single normalized-L2
// radius √(Σ dⱼ²) of a survivor.
type radialNicher struct {
	nicheBuffer
}

// Name implements Operator.
func (*radialNicher) Name() string { return "radial" }

// PreSelection implements NichePressureApplicator.
func (r *radialNicher) PreSelection(pop *Population, gctx *Context) {
	r.reassimilate(pop, gctx)
}

// ApplyNichePressure implements NichePressureApplicator.
func (r *radialNicher) ApplyNichePressure(pop *Population, fr *FitnessRecord, gctx *Context) error {
	best := fr.Best(pop)
	if len(best) < 2 {
		return nil
	}
	nobj := gctx.Opts.NumObjectives
	mins, maxs := objectiveExtremes(best, nobj)
	pcts := distancePcts(gctx, nobj)

	var sum float64
	for j := 0; j < nobj; j++ {
		sum += pcts[j] * pcts[j]
	}
	threshold := math.Sqrt(sum)

	ranges := make([]float64, nobj)
	for j := 0; j < nobj; j++ {
		ranges[j] = maxs[j] - mins[j]
		if ranges[j] == 0 {
			ranges[j] = 1 // degenerate dimension contributes zero distance
		}
	}

	pred := func(a, b *Individual) (bool, bool) {
		// Normalized first-objective gap alone exceeding the radius ends the
		// scan: later designs are even farther along objective 0.
		d0 := math.Abs(a.Objectives[0]-b.Objectives[0]) / ranges[0]
		if d0 >= threshold {
			return false, true
		}
		sum := d0 * d0
		for j := 1; j < nobj; j++ {
			dj := (a.Objectives[j] - b.Objectives[j]) / ranges[j]
			sum += dj * dj
		}
		return math.Sqrt(sum) < threshold, false
	}
	return applyNichePressure(pop, fr, gctx, &r.nicheBuffer, pred)
}

// nullNicher applies no niche pressure.
type nullNicher struct{}

// Name implements Operator.
func (nullNicher) Name() string { return "null" }

// PreSelection implements NichePressureApplicator.
func (nullNicher) PreSelection(*Population, *Context) {}

// ApplyNichePressure implements NichePressureApplicator.
func (nullNicher) ApplyNichePressure(*Population, *FitnessRecord, *Context) error { return nil }
