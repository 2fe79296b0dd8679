// Package ga - population initializers.
package ga

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/vars"
)

// randomGenome draws one genome uniformly within bounds and discrete sets.
// Unbounded reals fall back to the distribution-free interval [-1, 1] around
// the initial value, keeping generation 0 finite.
func randomGenome(gctx *Context) vars.Point {
	sp := gctx.Space
	p := make(vars.Point, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		v, _ := sp.At(i)
		switch v.Kind {
		case vars.Real:
			if len(v.DiscreteReals) > 0 {
				p[i] = vars.RealValue(v.DiscreteReals[gctx.RNG.Intn(len(v.DiscreteReals))])
				continue
			}
			lo, hi := v.Lower, v.Upper
			if math.IsInf(lo, -1) {
				lo = v.Initial.Real - 1
			}
			if math.IsInf(hi, 1) {
				hi = v.Initial.Real + 1
			}
			p[i] = vars.RealValue(lo + gctx.RNG.Float64()*(hi-lo))
		case vars.Integer:
			if len(v.DiscreteInts) > 0 {
				p[i] = vars.IntValue(v.DiscreteInts[gctx.RNG.Intn(len(v.DiscreteInts))])
				continue
			}
			lo, hi := intBounds(v)
			p[i] = vars.IntValue(lo + gctx.RNG.Int63n(hi-lo+1))
		case vars.Categorical:
			p[i] = vars.CatValue(v.Categories[gctx.RNG.Intn(len(v.Categories))])
		}
	}
	return p
}

// intBounds returns finite integer bounds, windowing unbounded sides around
// the initial value so random draws stay finite.
func intBounds(v vars.Variable) (lo, hi int64) {
	lof, hif := v.Lower, v.Upper
	if math.IsInf(lof, -1) {
		lof = float64(v.Initial.Int) - 100
	}
	if math.IsInf(hif, 1) {
		hif = float64(v.Initial.Int) + 100
	}
	return int64(lof), int64(hif)
}

// uniqueRandomInitializer fills generation 0 with distinct random genomes,
// giving up on uniqueness after a bounded number of redraw attempts.
type uniqueRandomInitializer struct{}

// Name implements Operator.
func (*uniqueRandomInitializer) Name() string { return "unique_random" }

// maxUniqueDraws bounds redraw attempts per slot before accepting a
// duplicate (tiny discrete spaces cannot fill a large population uniquely).
const maxUniqueDraws = 100

// Initialize implements Initializer.
func (init *uniqueRandomInitializer) Initialize(_ context.Context, gctx *Context) (*Population, error) {
	pop := NewPopulation(gctx.Opts.PopulationSize)
	seen := make(map[string]struct{}, gctx.Opts.PopulationSize)
	for pop.Len() < gctx.Opts.PopulationSize {
		var g vars.Point
		for try := 0; ; try++ {
			g = randomGenome(gctx)
			if _, dup := seen[g.Key()]; !dup || try >= maxUniqueDraws {
				break
			}
		}
		seen[g.Key()] = struct{}{}
		pop.Add(NewIndividual(g, 0))
	}
	return pop, nil
}

// GrowDouble expands pop to exactly double its size with fresh unique random
// genomes. A target that is not exactly twice the current count is rejected
// with ErrNotExactDouble — incremental augmentation preserves the strict
// doubling the sampling pipeline was built around.
func GrowDouble(pop *Population, target int, gctx *Context) error {
	if target != 2*pop.Len() {
		return ErrNotExactDouble
	}
	seen := make(map[string]struct{}, target)
	for _, ind := range pop.Members() {
		seen[ind.Genome.Key()] = struct{}{}
	}
	for pop.Len() < target {
		var g vars.Point
		for try := 0; ; try++ {
			g = randomGenome(gctx)
			if _, dup := seen[g.Key()]; !dup || try >= maxUniqueDraws {
				break
			}
		}
		seen[g.Key()] = struct{}{}
		pop.Add(NewIndividual(g, gctx.Gen))
	}
	return nil
}

// flatFileInitializer seeds generation 0 from a delimited design file:
// one design per line, whitespace or comma separated. A line carrying
// exactly the variable count fills a genome; a line carrying variables plus
// the full objective width seeds the responses too and skips re-evaluation.
// Malformed lines are skipped and counted. Slots the file does not fill are
// topped up with unique random genomes.
type flatFileInitializer struct{}

// Name implements Operator.
func (*flatFileInitializer) Name() string { return "flat_file" }

// Initialize implements Initializer.
func (init *flatFileInitializer) Initialize(ctx context.Context, gctx *Context) (*Population, error) {
	f, err := os.Open(gctx.Opts.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedFile, err)
	}
	defer func() { _ = f.Close() }()

	nvars := gctx.Space.Len()
	nobj := gctx.Opts.NumObjectives
	pop := NewPopulation(gctx.Opts.PopulationSize)
	skipped := 0

	sc := bufio.NewScanner(f)
	for sc.Scan() && pop.Len() < gctx.Opts.PopulationSize {
		fields := splitDesignLine(sc.Text())
		if len(fields) == 0 {
			continue
		}
		ind, ok := parseDesignLine(fields, nvars, nobj, gctx)
		if !ok {
			skipped++
			continue
		}
		pop.Add(ind)
	}
	if err = sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedFile, err)
	}
	if skipped > 0 {
		gctx.Log.Warn("seed file lines skipped", zap.Int("count", skipped))
	}

	// Top up with random genomes when the file under-fills the population.
	if pop.Len() < gctx.Opts.PopulationSize {
		fill := &uniqueRandomInitializer{}
		rest, ferr := fill.Initialize(ctx, gctx)
		if ferr != nil {
			return nil, ferr
		}
		for _, ind := range rest.Members() {
			if pop.Len() == gctx.Opts.PopulationSize {
				break
			}
			pop.Add(ind)
		}
	}
	return pop, nil
}

// splitDesignLine tokenizes a seed line on whitespace and commas.
func splitDesignLine(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseDesignLine converts tokens into an individual; false on any
// malformation or width mismatch.
func parseDesignLine(fields []string, nvars, nobj int, gctx *Context) (*Individual, bool) {
	if len(fields) != nvars && len(fields) != nvars+nobj {
		return nil, false
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = x
	}

	g := make(vars.Point, nvars)
	for i := 0; i < nvars; i++ {
		v, _ := gctx.Space.At(i)
		switch v.Kind {
		case vars.Real:
			g[i] = vars.RealValue(vals[i])
		case vars.Integer:
			g[i] = vars.IntValue(int64(vals[i]))
		default:
			return nil, false // categorical designs cannot ride a numeric file
		}
	}
	if gctx.Space.CheckPoint(g) != nil {
		return nil, false
	}

	ind := NewIndividual(g, 0)
	if len(fields) == nvars+nobj {
		ind.Objectives = vals[nvars:]
		ind.Constraints = nil
		ind.NeedsEval = false
	}
	return ind, true
}
