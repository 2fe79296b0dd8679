// Package ga - fitness records and the domination-count assessor.
package ga

import "math"

// FitnessRecord maps individuals to scalar fitness. Higher is better; a
// design the record does not know carries -Inf.
type FitnessRecord struct {
	fitness map[*Individual]float64
}

// NewFitnessRecord returns an empty record.
func NewFitnessRecord() *FitnessRecord {
	return &FitnessRecord{fitness: make(map[*Individual]float64)}
}

// Set stores the fitness of ind.
func (fr *FitnessRecord) Set(ind *Individual, f float64) { fr.fitness[ind] = f }

// Fitness returns ind's fitness, -Inf when unknown.
func (fr *FitnessRecord) Fitness(ind *Individual) float64 {
	if f, ok := fr.fitness[ind]; ok {
		return f
	}
	return math.Inf(-1)
}

// Best extracts the best-fitness subset of pop: every design attaining the
// maximum finite fitness, ties included. With the domination-count assessor
// this is the nondominated set.
func (fr *FitnessRecord) Best(pop *Population) []*Individual {
	var best []*Individual
	bestFit := math.Inf(-1)
	for _, ind := range pop.Members() {
		f := fr.Fitness(ind)
		if math.IsInf(f, -1) {
			continue
		}
		switch {
		case f > bestFit:
			best = best[:0]
			best = append(best, ind)
			bestFit = f
		case f == bestFit:
			best = append(best, ind)
		}
	}
	return best
}

// dominationCountAssessor assigns fitness = -(number of designs dominating
// the individual), so nondominated designs carry the maximum fitness zero.
// Failed and unevaluated designs carry -Inf and never enter the best set.
type dominationCountAssessor struct{}

// Name implements the operator naming contract.
func (dominationCountAssessor) Name() string { return "domination_count" }

// Assess implements FitnessAssessor.
func (dominationCountAssessor) Assess(pop *Population, _ *Context) (*FitnessRecord, error) {
	if pop.Len() == 0 {
		return nil, ErrEmptyPopulation
	}
	fr := NewFitnessRecord()
	members := pop.Members()
	for _, ind := range members {
		if ind.Failed || ind.NeedsEval {
			fr.Set(ind, math.Inf(-1))
			continue
		}
		count := 0
		for _, other := range members {
			if other != ind && dominates(other, ind) {
				count++
			}
		}
		fr.Set(ind, -float64(count))
	}
	return fr, nil
}
