// Command optiq - built-in analytic simulators.
//
// Production runs drive external simulators; the built-ins exist so a
// problem document is runnable end-to-end out of the box and so restart /
// duplicate-detection behavior can be demonstrated without extra tooling.
package main

import (
	"fmt"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/sim"
	"github.com/katalvlaran/optiq/vars"
)

// builtinDriver resolves a named analytic function into a FuncDriver sized
// for nResp response components.
func builtinDriver(name string, nResp int) (*sim.FuncDriver, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin simulator %q", name)
	}
	wrapped := func(p vars.Point, as response.ActiveSet) (*response.Response, error) {
		r, err := response.New(as, len(p))
		if err != nil {
			return nil, err
		}
		fn(p, r.Values)
		return r, nil
	}
	return sim.NewFuncDriver(name, sim.ValueOnlyCapabilities(nResp), wrapped), nil
}

// reals extracts the Real entries of p in order.
func reals(p vars.Point) []float64 {
	out := make([]float64, 0, len(p))
	for _, v := range p {
		if v.Kind == vars.Real {
			out = append(out, v.Real)
		}
	}
	return out
}

// builtins fill the leading entries of out; extra components stay zero.
var builtins = map[string]func(p vars.Point, out []float64){
	// sphere: f = Σ xᵢ².
	"sphere": func(p vars.Point, out []float64) {
		var s float64
		for _, x := range reals(p) {
			s += x * x
		}
		out[0] = s
	},

	// schaffer: the classic single-variable bi-objective problem with
	// Pareto front x ∈ [0, 2].
	"schaffer": func(p vars.Point, out []float64) {
		x := reals(p)[0]
		out[0] = x * x
		out[1] = (x - 2) * (x - 2)
	},

	// binh_korn: bi-objective with two nonlinear constraint components
	// (declare them as inequalities in the problem document).
	"binh_korn": func(p vars.Point, out []float64) {
		xy := reals(p)
		x, y := xy[0], xy[1]
		out[0] = 4*x*x + 4*y*y
		out[1] = (x-5)*(x-5) + (y-5)*(y-5)
		if len(out) > 2 {
			out[2] = (x-5)*(x-5) + y*y
		}
		if len(out) > 3 {
			out[3] = (x-8)*(x-8) + (y+3)*(y+3)
		}
	},
}
