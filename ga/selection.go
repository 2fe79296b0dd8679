// Package ga - panmictic replacement.
package ga

import "sort"

// panmicticSelector builds the next population from the previous one and the
// new trials under the configured replacement mode. All modes operate on an
// accessor-provided value per individual (the fitness record).
type panmicticSelector struct{}

// Name implements Operator.
func (panmicticSelector) Name() string { return "panmictic" }

// bestFirst returns inds sorted by descending fitness, stable over input
// order so ties reproduce deterministically.
func bestFirst(inds []*Individual, fr *FitnessRecord) []*Individual {
	out := append([]*Individual(nil), inds...)
	sort.SliceStable(out, func(a, b int) bool {
		return fr.Fitness(out[a]) > fr.Fitness(out[b])
	})
	return out
}

// Select implements Selector.
func (s panmicticSelector) Select(prev, trials *Population, fr *FitnessRecord, gctx *Context) (*Population, error) {
	if prev.Len() == 0 {
		return nil, ErrEmptyPopulation
	}
	popsize := gctx.Opts.PopulationSize
	keep := gctx.Opts.KeepNum

	switch gctx.Opts.Replacement {
	case ReplaceRandom:
		return s.replaceRandom(prev, trials, fr, popsize, keep, gctx)
	case ReplaceElitist:
		return s.replaceElitist(prev, trials, fr, popsize, keep)
	case ReplaceCHC:
		return s.replaceCHC(prev, trials, fr, popsize, keep, gctx)
	case ReplaceExponential:
		return s.replaceExponential(prev, trials, fr, popsize, gctx)
	}
	return nil, ErrBadOptions
}

// replaceRandom: popsize-keep slots of the previous population, chosen
// uniformly at random, are overwritten by the best new trials.
func (panmicticSelector) replaceRandom(prev, trials *Population, fr *FitnessRecord, popsize, keep int, gctx *Context) (*Population, error) {
	next := prev.Clone()
	nReplace := popsize - keep
	if nReplace > trials.Len() {
		nReplace = trials.Len()
	}
	if nReplace > next.Len() {
		nReplace = next.Len()
	}
	best := bestFirst(trials.Members(), fr)

	slots := gctx.RNG.Perm(next.Len())[:nReplace]
	for i, slot := range slots {
		next.Members()[slot] = best[i].Clone()
	}
	return trimTo(next, popsize), nil
}

// replaceElitist: the popsize-keep worst previous individuals are replaced
// by the best new trials.
func (panmicticSelector) replaceElitist(prev, trials *Population, fr *FitnessRecord, popsize, keep int) (*Population, error) {
	nReplace := popsize - keep
	if nReplace > trials.Len() {
		nReplace = trials.Len()
	}
	prevBest := bestFirst(prev.Members(), fr)
	trialBest := bestFirst(trials.Members(), fr)

	next := NewPopulation(popsize)
	// Survivors: everything above the replaced tail.
	for _, ind := range prevBest[:len(prevBest)-min(nReplace, len(prevBest))] {
		next.Add(ind.Clone())
	}
	for i := 0; i < nReplace && i < len(trialBest); i++ {
		next.Add(trialBest[i].Clone())
	}
	return trimTo(next, popsize), nil
}

// replaceCHC: the keep best of previous ∪ trials are elite-retained; the
// remaining slots fill by uniform sampling without replacement from the rest.
func (panmicticSelector) replaceCHC(prev, trials *Population, fr *FitnessRecord, popsize, keep int, gctx *Context) (*Population, error) {
	union := append(append([]*Individual(nil), prev.Members()...), trials.Members()...)
	ranked := bestFirst(union, fr)
	if keep > len(ranked) {
		keep = len(ranked)
	}

	next := NewPopulation(popsize)
	for _, ind := range ranked[:keep] {
		next.Add(ind.Clone())
	}
	rest := ranked[keep:]
	for _, i := range gctx.RNG.Perm(len(rest)) {
		if next.Len() == popsize {
			break
		}
		next.Add(rest[i].Clone())
	}
	return next, nil
}

// replaceExponential: walk previous ∪ trials best-first; keep each with
// probability decaying geometrically by ExpFactor per rank. Remaining slots
// fill best-first from the unkept.
func (panmicticSelector) replaceExponential(prev, trials *Population, fr *FitnessRecord, popsize int, gctx *Context) (*Population, error) {
	union := append(append([]*Individual(nil), prev.Members()...), trials.Members()...)
	ranked := bestFirst(union, fr)

	next := NewPopulation(popsize)
	kept := make(map[*Individual]struct{}, popsize)
	prob := 1.0
	for _, ind := range ranked {
		if next.Len() == popsize {
			break
		}
		if gctx.RNG.Float64() < prob {
			next.Add(ind.Clone())
			kept[ind] = struct{}{}
		}
		prob *= gctx.Opts.ExpFactor
	}
	for _, ind := range ranked {
		if next.Len() == popsize {
			break
		}
		if _, ok := kept[ind]; !ok {
			next.Add(ind.Clone())
		}
	}
	return next, nil
}

// trimTo drops the overflow past popsize, worst-last order preserved by the
// caller's construction.
func trimTo(p *Population, popsize int) *Population {
	for p.Len() > popsize {
		p.Remove(p.At(p.Len() - 1))
	}
	return p
}
