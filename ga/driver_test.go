// Package ga_test drives the full iterator against analytic problems
// through the public API.
package ga_test

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/ga"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/runtime"
	"github.com/katalvlaran/optiq/sim"
	"github.com/katalvlaran/optiq/vars"
)

// designSpace builds n continuous design variables over [lo, hi].
func designSpace(t *testing.T, n int, lo, hi float64) *vars.Space {
	t.Helper()
	vv := make([]vars.Variable, n)
	for i := range vv {
		vv[i] = vars.Variable{
			Name: string(rune('x' + i)), Kind: vars.Real, Role: vars.Design,
			Lower: lo, Upper: hi, Initial: vars.RealValue((lo + hi) / 2),
		}
	}
	sp, err := vars.NewSpace(vv...)
	require.NoError(t, err)
	return sp
}

// sphereDriver wires a single-objective sphere model.
func sphereDriver(t *testing.T, opts ga.Options) (*ga.Driver, *sim.FuncDriver) {
	t.Helper()
	sp := designSpace(t, 2, -2, 2)
	fn := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		r, err := response.New(as, len(p))
		if err != nil {
			return nil, err
		}
		var s float64
		for _, v := range p {
			s += v.Real * v.Real
		}
		r.Values[0] = s
		return r, nil
	}
	d := sim.NewFuncDriver("sphere", sim.ValueOnlyCapabilities(1), fn)
	rt := runtime.New(runtime.Options{Seed: opts.Seed})
	mdl, err := model.New(sp, d, nil, nil, rt, model.DefaultOptions())
	require.NoError(t, err)

	drv, err := ga.NewDriver(opts, rt, mdl, nil, 0)
	require.NoError(t, err)
	return drv, d
}

type DriverSuite struct {
	suite.Suite
}

func (s *DriverSuite) TestStateMachine() {
	opts := ga.DefaultOptions()
	opts.Seed = 42
	opts.PopulationSize = 10
	opts.Converger = "max_generations"
	opts.MaxGenerations = 2

	drv, _ := sphereDriver(s.T(), opts)
	require.Equal(s.T(), ga.Uninitialized, drv.State())

	// Iterate before Initialize violates the state contract.
	_, err := drv.Iterate(context.Background())
	require.ErrorIs(s.T(), err, ga.ErrWrongState)

	require.NoError(s.T(), drv.Initialize(context.Background()))
	require.Equal(s.T(), ga.Initialized, drv.State())
	require.Equal(s.T(), 10, drv.Population().Len())

	rep, err := drv.Run(context.Background())
	require.NoError(s.T(), err)
	require.Equal(s.T(), ga.Finalized, drv.State())
	require.Equal(s.T(), 2, rep.Generations)
	require.NotEmpty(s.T(), rep.Best)
	require.EqualValues(s.T(), 42, rep.Seed)
}

func (s *DriverSuite) TestSphereImproves() {
	opts := ga.DefaultOptions()
	opts.Seed = 7
	opts.PopulationSize = 20
	opts.Converger = "max_generations"
	opts.MaxGenerations = 15
	opts.KeepNum = 2

	drv, _ := sphereDriver(s.T(), opts)
	rep, err := drv.Run(context.Background())
	require.NoError(s.T(), err)
	require.Positive(s.T(), rep.Evaluations)

	// Elitist replacement guarantees the archive beats a random draw's
	// expectation by a wide margin on the sphere.
	require.NotEmpty(s.T(), rep.Best)
	require.Less(s.T(), rep.Best[0].Objectives[0], 2.0)
}

func (s *DriverSuite) TestDeterministicRuns() {
	mk := func() ga.Report {
		opts := ga.DefaultOptions()
		opts.Seed = 99
		opts.PopulationSize = 12
		opts.Converger = "max_generations"
		opts.MaxGenerations = 5
		drv, _ := sphereDriver(s.T(), opts)
		rep, err := drv.Run(context.Background())
		require.NoError(s.T(), err)
		return rep
	}
	a, b := mk(), mk()
	require.Equal(s.T(), a.Generations, b.Generations)
	require.Equal(s.T(), a.Evaluations, b.Evaluations)
	require.Equal(s.T(), a.Best[0].Objectives, b.Best[0].Objectives)
}

func (s *DriverSuite) TestEvaluationBudgetStopsRun() {
	opts := ga.DefaultOptions()
	opts.Seed = 5
	opts.PopulationSize = 10
	opts.Converger = "max_generations"
	opts.MaxGenerations = 100
	opts.MaxEvaluations = 15

	drv, _ := sphereDriver(s.T(), opts)
	_, err := drv.Run(context.Background())
	require.ErrorIs(s.T(), err, ga.ErrBudgetExhausted)
}

// Two-objective metric-tracker run: the Schaffer problem has a known Pareto
// front; the run must terminate within the generation budget and emit a
// nondominated archive.
func (s *DriverSuite) TestBiObjectiveMetricTracker() {
	sp := designSpace(s.T(), 1, -1, 3)
	fn := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		r, err := response.New(as, 1)
		if err != nil {
			return nil, err
		}
		x := p[0].Real
		r.Values[0] = x * x
		r.Values[1] = (x - 2) * (x - 2)
		return r, nil
	}
	d := sim.NewFuncDriver("schaffer", sim.ValueOnlyCapabilities(2), fn)
	rt := runtime.New(runtime.Options{Seed: 3})
	mdl, err := model.New(sp, d, nil, nil, rt, model.DefaultOptions())
	require.NoError(s.T(), err)

	opts := ga.DefaultOptions()
	opts.Seed = 3
	opts.PopulationSize = 24
	opts.NumObjectives = 2
	opts.MaxGenerations = 200
	opts.MetricTolerance = 1e-3
	opts.StallGenerations = 5
	opts.Replacement = ga.ReplaceCHC
	opts.KeepNum = 8

	drv, err := ga.NewDriver(opts, rt, mdl, nil, 0)
	require.NoError(s.T(), err)

	rep, err := drv.Run(context.Background())
	require.NoError(s.T(), err)
	require.LessOrEqual(s.T(), rep.Generations, 200)
	require.NotEmpty(s.T(), rep.Best)

	// Every archived design sits near the true front: x ∈ [0, 2].
	for _, ind := range rep.Best {
		x := ind.Genome[0].Real
		require.GreaterOrEqual(s.T(), x, -0.2)
		require.LessOrEqual(s.T(), x, 2.2)
	}
}

func (s *DriverSuite) TestFlatFileSeeding() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "seeds.dat")
	// Two genome-only lines, one full-width line, one malformed line.
	content := "0.5 0.5\n-1.0, 1.0\n0.1 0.2 0.05\nnot a design\n"
	require.NoError(s.T(), os.WriteFile(path, []byte(content), 0o644))

	opts := ga.DefaultOptions()
	opts.Seed = 11
	opts.PopulationSize = 6
	opts.Initializer = "flat_file"
	opts.SeedFile = path
	opts.Converger = "max_generations"
	opts.MaxGenerations = 1

	drv, _ := sphereDriver(s.T(), opts)
	require.NoError(s.T(), drv.Initialize(context.Background()))
	require.Equal(s.T(), 6, drv.Population().Len())

	// The full-width line skipped re-evaluation: its stored objective stands.
	found := false
	for _, ind := range drv.Population().Members() {
		if ind.Genome[0].Real == 0.1 && ind.Genome[1].Real == 0.2 {
			require.Equal(s.T(), 0.05, ind.Objectives[0])
			found = true
		}
	}
	require.True(s.T(), found)
}

func TestGrowDouble(t *testing.T) {
	sp := designSpace(t, 1, 0, 1)
	opts := ga.DefaultOptions()
	opts.PopulationSize = 4
	gctx := &ga.Context{
		RNG:   rand.New(rand.NewSource(1)),
		Space: sp,
		Log:   zap.NewNop(),
		Opts:  &opts,
	}

	pop := ga.NewPopulation(4)
	for i := 0; i < 4; i++ {
		pop.Add(ga.NewIndividual(vars.Point{vars.RealValue(float64(i) / 4)}, 0))
	}

	require.ErrorIs(t, ga.GrowDouble(pop, 7, gctx), ga.ErrNotExactDouble)
	require.NoError(t, ga.GrowDouble(pop, 8, gctx))
	require.Equal(t, 8, pop.Len())
}

func TestDriverSuite(t *testing.T) {
	suite.Run(t, new(DriverSuite))
}
