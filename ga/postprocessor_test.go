// Package ga - post-processor behavior (internal test).
package ga

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The best-archive post-processor collapses genome-identical duplicates of
// the best-fitness subset; the null post-processor builds no archive at all.
func TestBestArchivePostProcessor_DedupesGenomes(t *testing.T) {
	p := NewPopulation(4)
	fr := NewFitnessRecord()

	a := ind(t, []float64{1, 2}, 0.5)
	dup := ind(t, []float64{1, 2}, 0.5) // same genome, same objectives
	b := ind(t, []float64{2, 1}, 0.9)
	worse := ind(t, []float64{3, 3}, 0.1)
	for _, i := range []*Individual{a, dup, b, worse} {
		p.Add(i)
	}
	fr.Set(a, 0)
	fr.Set(dup, 0)
	fr.Set(b, 0)
	fr.Set(worse, -1)

	pp := &bestArchivePostProcessor{}
	require.Nil(t, pp.Archive(), "no archive before PostProcess")
	require.NoError(t, pp.PostProcess(p, fr, nil))

	// Three best-fitness designs, two distinct genomes.
	require.Len(t, fr.Best(p), 3)
	require.Len(t, pp.Archive(), 2)

	// Archived designs are clones: mutating them leaves the population alone.
	pp.Archive()[0].Objectives[0] = 99
	require.Equal(t, 1.0, a.Objectives[0])

	// The null post-processor never builds an archive, so the driver report
	// falls back to the raw best-fitness subset.
	var _ Archiver = pp
	_, isArchiver := interface{}(nullPostProcessor{}).(Archiver)
	require.False(t, isArchiver)
}
