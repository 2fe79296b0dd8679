// Package ga - individuals.
package ga

import "github.com/katalvlaran/optiq/vars"

// Individual is one design: a genome, its evaluated objective and mapped
// constraint values, lineage, and an evaluation flag.
//
// Invariants:
//   - When NeedsEval is false the objectives and constraints are meaningful.
//   - Tag is an opaque slot owned by surrounding infrastructure; the GA never
//     reads it.
type Individual struct {
	// Genome is the design point.
	Genome vars.Point

	// Objectives are minimized objective values.
	Objectives []float64

	// Constraints are the mapped 1-sided rows; positive entries violate.
	Constraints []float64

	// NeedsEval marks a genome whose responses are stale.
	NeedsEval bool

	// Failed marks a design whose evaluation failed; it never dominates.
	Failed bool

	// Gen is the generation the individual was created in.
	Gen int

	// Parents records the lineage (indices into the parent generation).
	Parents []int

	// Tag is an opaque slot for surrounding infrastructure.
	Tag any
}

// NewIndividual builds an unevaluated individual for gen.
func NewIndividual(genome vars.Point, gen int) *Individual {
	return &Individual{Genome: genome.Clone(), NeedsEval: true, Gen: gen}
}

// Clone deep-copies the individual (Tag is shared, per the ownership rule).
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Genome:      ind.Genome.Clone(),
		Objectives:  append([]float64(nil), ind.Objectives...),
		Constraints: append([]float64(nil), ind.Constraints...),
		NeedsEval:   ind.NeedsEval,
		Failed:      ind.Failed,
		Gen:         ind.Gen,
		Parents:     append([]int(nil), ind.Parents...),
		Tag:         ind.Tag,
	}
}

// Violation sums the positive parts of the mapped constraint rows.
func (ind *Individual) Violation() float64 {
	var v float64
	for _, c := range ind.Constraints {
		if c > 0 {
			v += c
		}
	}
	return v
}

// Feasible reports a zero-violation, successfully evaluated design.
func (ind *Individual) Feasible() bool {
	return !ind.Failed && !ind.NeedsEval && ind.Violation() == 0
}

// dominates reports constraint-domination of a over b:
// any evaluated design beats a failed one; a feasible design beats an
// infeasible one; between infeasibles the smaller violation wins; between
// feasibles, Pareto domination over the objectives (at least one strictly
// better, none worse).
func dominates(a, b *Individual) bool {
	if a.Failed || a.NeedsEval {
		return false
	}
	if b.Failed || b.NeedsEval {
		return true
	}
	av, bv := a.Violation(), b.Violation()
	switch {
	case av == 0 && bv > 0:
		return true
	case av > 0 && bv == 0:
		return false
	case av > 0 && bv > 0:
		return av < bv
	}
	better := false
	for i := range a.Objectives {
		switch {
		case a.Objectives[i] < b.Objectives[i]:
			better = true
		case a.Objectives[i] > b.Objectives[i]:
			return false
		}
	}
	return better
}
