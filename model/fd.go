// Package model - finite-difference derivative estimation.
package model

import (
	"context"
	"math"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// probeFunc evaluates values-only sub-requests during estimation; the Model
// supplies its cache-aware raw evaluator here so probes deduplicate.
type probeFunc func(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error)

// estimator implements the bound-respecting FD schemes.
type estimator struct {
	opts Options
}

// stencil describes the probes chosen for one variable.
type stencil struct {
	forward  float64 // +h offset, 0 when unused
	backward float64 // -h offset (stored positive), 0 when unused
	denom    float64 // divisor of the difference
}

// plan chooses a stencil for variable value x in [lo, hi].
//
// Policy (per variable):
//   - h = max(Step*|x|, StepMin).
//   - Forward scheme: probe x+h; when x+h exceeds hi the step is reduced to
//     the remaining interval; when that interval is below StepMin the scheme
//     flips to backward (probe x-h).
//   - Central scheme: the user step is halved per side; each side is clamped
//     into bounds; if either side collapses below StepMin the scheme falls
//     back one-sided (forward if room above, else backward).
//
// Errors: ErrNoInterval when no probe fits the bounds.
func (e estimator) plan(x, lo, hi float64) (stencil, error) {
	h := math.Max(e.opts.Step*math.Abs(x), e.opts.StepMin)

	switch e.opts.Scheme {
	case Central:
		hc := h / 2
		up := math.Min(hc, hi-x)
		down := math.Min(hc, x-lo)
		if up >= e.opts.StepMin && down >= e.opts.StepMin {
			// Symmetric probes; asymmetric clamps keep the estimate first-order.
			return stencil{forward: up, backward: down, denom: up + down}, nil
		}
		fallthrough
	case Forward:
		if hi-x >= e.opts.StepMin {
			hf := math.Min(h, hi-x)
			return stencil{forward: hf, denom: hf}, nil
		}
		if x-lo >= e.opts.StepMin {
			hb := math.Min(h, x-lo)
			return stencil{backward: hb, denom: hb}, nil
		}
	}
	return stencil{}, ErrNoInterval
}

// gradient fills grad rows comps of resp for the continuous variables of
// space, probing via eval. center must hold values for every comp in comps.
//
// Each probe is a values-only request restricted to comps; probes route back
// through the cache so symmetric patterns deduplicate.
func (e estimator) gradient(
	ctx context.Context,
	eval probeFunc,
	space *vars.Space,
	p vars.Point,
	center *response.Response,
	comps []int,
	resp *response.Response,
) error {
	if err := e.opts.Validate(); err != nil {
		return err
	}
	probeSet := make(response.ActiveSet, center.Len())
	for _, ci := range comps {
		probeSet[ci] = response.WantValue
	}

	for _, vi := range space.ContinuousIndices() {
		lo, hi, err := space.Bounds(vi)
		if err != nil {
			return err
		}
		x := p[vi].Real
		st, err := e.plan(x, lo, hi)
		if err != nil {
			return err
		}

		var fPlus, fMinus *response.Response
		if st.forward > 0 {
			fPlus, err = e.probe(ctx, eval, p, vi, x+st.forward, probeSet)
			if err != nil {
				return err
			}
		}
		if st.backward > 0 {
			fMinus, err = e.probe(ctx, eval, p, vi, x-st.backward, probeSet)
			if err != nil {
				return err
			}
		}

		for _, ci := range comps {
			hiVal, loVal := center.Values[ci], center.Values[ci]
			failed := center.Failed[ci]
			if fPlus != nil {
				hiVal = fPlus.Values[ci]
				failed = failed || fPlus.Failed[ci]
			}
			if fMinus != nil {
				loVal = fMinus.Values[ci]
				failed = failed || fMinus.Failed[ci]
			}
			if failed {
				resp.Failed[ci] = true
				continue
			}
			if err = resp.Gradients.Set(ci, vi, (hiVal-loVal)/st.denom); err != nil {
				return err
			}
		}
	}
	return nil
}

// probe evaluates p with variable vi displaced to xNew.
func (e estimator) probe(
	ctx context.Context,
	eval probeFunc,
	p vars.Point,
	vi int,
	xNew float64,
	as response.ActiveSet,
) (*response.Response, error) {
	q := p.Clone()
	q[vi] = vars.RealValue(xNew)
	return eval(ctx, q, as)
}
