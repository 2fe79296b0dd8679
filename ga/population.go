// Package ga - the population container.
package ga

import "sort"

// Population holds individuals plus two sorted index views: one ordered by
// genome (variable-lexicographic) and one by objectives (objective-
// lexicographic). The views are rebuilt on demand by an explicit
// SynchronizeOFAndDVContainers call; between mutations they may disagree and
// view accessors fail until the next synchronize.
type Population struct {
	members []*Individual
	byDV    []int
	byOF    []int
	synced  bool
}

// NewPopulation returns an empty population with capacity hint n.
func NewPopulation(n int) *Population {
	return &Population{members: make([]*Individual, 0, n)}
}

// Len returns the member count.
func (p *Population) Len() int { return len(p.members) }

// Add appends an individual, invalidating the sorted views.
func (p *Population) Add(ind *Individual) {
	p.members = append(p.members, ind)
	p.synced = false
}

// At returns member i in insertion order.
func (p *Population) At(i int) *Individual { return p.members[i] }

// Members returns the backing slice (shared, insertion order). Callers that
// mutate membership must go through Add/Remove so view invalidation holds.
func (p *Population) Members() []*Individual { return p.members }

// Remove deletes the first occurrence of ind, invalidating the views.
// Returns false when ind is not a member.
func (p *Population) Remove(ind *Individual) bool {
	for i, m := range p.members {
		if m == ind {
			p.members = append(p.members[:i], p.members[i+1:]...)
			p.synced = false
			return true
		}
	}
	return false
}

// Clear empties the population.
func (p *Population) Clear() {
	p.members = p.members[:0]
	p.synced = false
}

// Clone deep-copies members (views are rebuilt lazily on the copy).
func (p *Population) Clone() *Population {
	cp := NewPopulation(len(p.members))
	for _, m := range p.members {
		cp.members = append(cp.members, m.Clone())
	}
	return cp
}

// SynchronizeOFAndDVContainers rebuilds both sorted views. Returns false
// when unevaluated members prevent a meaningful objective ordering (the
// views are still rebuilt; unevaluated designs sort last).
func (p *Population) SynchronizeOFAndDVContainers() bool {
	n := len(p.members)
	p.byDV = make([]int, n)
	p.byOF = make([]int, n)
	for i := range p.byDV {
		p.byDV[i] = i
		p.byOF[i] = i
	}
	sort.SliceStable(p.byDV, func(a, b int) bool {
		return p.members[p.byDV[a]].Genome.CompareLex(p.members[p.byDV[b]].Genome) < 0
	})
	clean := true
	sort.SliceStable(p.byOF, func(a, b int) bool {
		ia, ib := p.members[p.byOF[a]], p.members[p.byOF[b]]
		if ia.NeedsEval || ib.NeedsEval {
			return !ia.NeedsEval && ib.NeedsEval
		}
		return lessObjectives(ia.Objectives, ib.Objectives)
	})
	for _, m := range p.members {
		if m.NeedsEval {
			clean = false
			break
		}
	}
	p.synced = true
	return clean
}

// Synced reports whether the views are current.
func (p *Population) Synced() bool { return p.synced }

// ByObjective returns members in objective-lexicographic order.
// Errors with ErrNotSynchronized when views are stale.
func (p *Population) ByObjective() ([]*Individual, error) {
	if !p.synced {
		return nil, ErrNotSynchronized
	}
	out := make([]*Individual, len(p.byOF))
	for i, idx := range p.byOF {
		out[i] = p.members[idx]
	}
	return out, nil
}

// ByGenome returns members in variable-lexicographic order.
// Errors with ErrNotSynchronized when views are stale.
func (p *Population) ByGenome() ([]*Individual, error) {
	if !p.synced {
		return nil, ErrNotSynchronized
	}
	out := make([]*Individual, len(p.byDV))
	for i, idx := range p.byDV {
		out[i] = p.members[idx]
	}
	return out, nil
}

// lessObjectives is objective-lexicographic ordering.
func lessObjectives(a, b []float64) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
