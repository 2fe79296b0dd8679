// Package response - the Response record.
package response

import "github.com/katalvlaran/optiq/matrix"

// Response carries an ordered sequence of scalar function values with
// optional derivative blocks, sized to honor an ActiveSet.
//
// Partitioning into objectives and nonlinear constraints is the problem
// description's concern; a Response is a flat component sequence. Linear
// constraints never appear here — the model computes them on demand from the
// coefficient matrix.
//
// Invariants:
//   - len(Values) == len(Set) == len(Failed).
//   - Gradients, when present, is (components × variables).
//   - Hessians, when present, has one (variables × variables) entry per
//     component; entries for components without the Hessian bit are nil.
type Response struct {
	// Set is the ActiveSet this response honors.
	Set ActiveSet

	// Values holds per-component function values (meaningful where the value
	// bit is set and Failed is false).
	Values []float64

	// Gradients is the dense gradient matrix, nil when no component
	// requested a gradient.
	Gradients *matrix.Dense

	// Hessians holds per-component Hessians; nil slice when none requested.
	Hessians []*matrix.Dense

	// Failed tags components whose evaluation failed (domain or simulator
	// error). Failed components have no meaningful data; the iterator
	// decides penalty vs. re-sample vs. abort.
	Failed []bool
}

// New allocates a Response shaped for as over nvars variables.
// The gradient block is allocated only when some component requests it.
func New(as ActiveSet, nvars int) (*Response, error) {
	n := len(as)
	if n == 0 || nvars <= 0 {
		return nil, ErrSizeMismatch
	}
	r := &Response{
		Set:    as.Clone(),
		Values: make([]float64, n),
		Failed: make([]bool, n),
	}
	if as.AnyGradient() {
		g, err := matrix.NewDense(n, nvars)
		if err != nil {
			return nil, err
		}
		r.Gradients = g
	}
	if as.AnyHessian() {
		r.Hessians = make([]*matrix.Dense, n)
		for i, req := range as {
			if !req.HasHessian() {
				continue
			}
			h, err := matrix.NewDense(nvars, nvars)
			if err != nil {
				return nil, err
			}
			r.Hessians[i] = h
		}
	}
	return r, nil
}

// Len returns the component count.
func (r *Response) Len() int { return len(r.Values) }

// Clone returns a deep copy of r.
func (r *Response) Clone() *Response {
	cp := &Response{
		Set:    r.Set.Clone(),
		Values: append([]float64(nil), r.Values...),
		Failed: append([]bool(nil), r.Failed...),
	}
	if r.Gradients != nil {
		cp.Gradients = r.Gradients.Clone()
	}
	if r.Hessians != nil {
		cp.Hessians = make([]*matrix.Dense, len(r.Hessians))
		for i, h := range r.Hessians {
			if h != nil {
				cp.Hessians[i] = h.Clone()
			}
		}
	}
	return cp
}

// AnyFailed reports whether any component is tagged failed.
func (r *Response) AnyFailed() bool {
	for _, f := range r.Failed {
		if f {
			return true
		}
	}
	return false
}

// Gradient returns a copy of component i's gradient row.
func (r *Response) Gradient(i int) ([]float64, error) {
	if r.Gradients == nil {
		return nil, ErrNoGradient
	}
	return r.Gradients.Row(i)
}

// Hessian returns component i's Hessian (shared, not copied).
func (r *Response) Hessian(i int) (*matrix.Dense, error) {
	if r.Hessians == nil || i < 0 || i >= len(r.Hessians) || r.Hessians[i] == nil {
		return nil, ErrNoHessian
	}
	return r.Hessians[i], nil
}

// Audit verifies that r honors as: every requested component is present and
// not failed-and-requested without data. Returns *PartialResponseError
// listing shortfalls, or nil.
//
// A failed component is not a shortfall — failure is an in-band outcome the
// iterator handles; absence of a promised block is a protocol violation.
func (r *Response) Audit(as ActiveSet) error {
	if len(r.Values) != len(as) {
		return ErrSizeMismatch
	}
	var missing []int
	for i, req := range as {
		if r.Failed[i] {
			continue
		}
		if req.HasGradient() && r.Gradients == nil {
			missing = append(missing, i)
			continue
		}
		if req.HasHessian() && (r.Hessians == nil || r.Hessians[i] == nil) {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return &PartialResponseError{Missing: missing}
	}
	return nil
}

// Merge copies requested components of src into r where r's set lacks them,
// upgrading r's Set to the union. Both responses must be same-shaped.
// Used when finite-difference estimation fills derivative blocks around a
// cached value-only response.
func (r *Response) Merge(src *Response) error {
	if src == nil || len(src.Values) != len(r.Values) {
		return ErrSizeMismatch
	}
	u, err := r.Set.Union(src.Set)
	if err != nil {
		return err
	}
	for i, req := range src.Set {
		if req.HasValue() && !r.Set[i].HasValue() {
			r.Values[i] = src.Values[i]
			r.Failed[i] = src.Failed[i]
		}
	}
	if src.Gradients != nil {
		if r.Gradients == nil {
			r.Gradients = src.Gradients.Clone()
		} else {
			for i, req := range src.Set {
				if !req.HasGradient() || r.Set[i].HasGradient() {
					continue
				}
				row, err := src.Gradients.Row(i)
				if err != nil {
					return err
				}
				if err = r.Gradients.SetRow(i, row); err != nil {
					return err
				}
			}
		}
	}
	if src.Hessians != nil {
		if r.Hessians == nil {
			r.Hessians = make([]*matrix.Dense, len(r.Values))
		}
		for i, h := range src.Hessians {
			if h != nil && r.Hessians[i] == nil {
				r.Hessians[i] = h.Clone()
			}
		}
	}
	r.Set = u
	return nil
}
