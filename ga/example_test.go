package ga_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/optiq/ga"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/runtime"
	"github.com/katalvlaran/optiq/sim"
	"github.com/katalvlaran/optiq/vars"
)

// ExampleDriver wires a minimal single-objective run: one variable, the
// identity objective, two generations on the generation-budget converger.
func ExampleDriver() {
	space, _ := vars.NewSpace(vars.Variable{
		Name: "x", Kind: vars.Real, Role: vars.Design,
		Lower: 0, Upper: 1, Initial: vars.RealValue(0.5),
	})
	fn := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		r, err := response.New(as, 1)
		if err != nil {
			return nil, err
		}
		r.Values[0] = p[0].Real
		return r, nil
	}
	drv := sim.NewFuncDriver("ident", sim.ValueOnlyCapabilities(1), fn)

	rt := runtime.New(runtime.Options{Seed: 1})
	mdl, _ := model.New(space, drv, nil, nil, rt, model.DefaultOptions())

	opts := ga.DefaultOptions()
	opts.Seed = 1
	opts.PopulationSize = 8
	opts.Converger = "max_generations"
	opts.MaxGenerations = 2

	d, _ := ga.NewDriver(opts, rt, mdl, nil, 0)
	_ = d.Initialize(context.Background())
	fmt.Println(d.State(), d.Population().Len())

	rep, _ := d.Run(context.Background())
	fmt.Println(d.State(), rep.Generations)
	// Output:
	// initialized 8
	// finalized 2
}
