// Package model - constraint translation.
package model

import (
	"math"

	"github.com/katalvlaran/optiq/matrix"
)

// ConstraintSpec is one constraint as the problem description states it:
// either a two-sided interval l ≤ c(x) ≤ u (±Inf endpoints allowed) or an
// equality c(x) = t.
type ConstraintSpec struct {
	// Lower and Upper bound the interval form; ignored when Equality.
	Lower, Upper float64

	// Equality selects the target form.
	Equality bool

	// Target is the equality target t.
	Target float64
}

// Validate rejects NaN endpoints and inverted intervals.
func (s ConstraintSpec) Validate() error {
	if s.Equality {
		if math.IsNaN(s.Target) || math.IsInf(s.Target, 0) {
			return ErrBadConstraint
		}
		return nil
	}
	if math.IsNaN(s.Lower) || math.IsNaN(s.Upper) || s.Lower > s.Upper {
		return ErrBadConstraint
	}
	if math.IsInf(s.Lower, -1) && math.IsInf(s.Upper, 1) {
		// No usable side.
		return ErrBadConstraint
	}
	return nil
}

// Row is one produced 1-sided inequality g(x) ≤ 0 with its provenance:
// g = Multiplier·c[Source] + Offset.
type Row struct {
	// Source is the index of the originating constraint.
	Source int

	// Multiplier is ±1; gradients transform by it.
	Multiplier float64

	// Offset shifts the row; it drops out of gradients.
	Offset float64
}

// ConstraintMap translates a constraint vector into 1-sided rows.
//
// Mapping (recorded per row):
//   - lower-bounded:  l ≤ c(x)  →  l - c(x) ≤ 0   (multiplier -1, offset  l)
//   - upper-bounded:  c(x) ≤ u  →  c(x) - u ≤ 0   (multiplier +1, offset -u)
//   - equality c(x)=t → two rows: t - c(x) ≤ 0 and c(x) - t ≤ 0
//
// Linear constraints are handled identically with the coefficient matrix in
// place of simulator gradients, so they cost no simulator evaluations.
type ConstraintMap struct {
	rows    []Row
	nSource int
}

// NewConstraintMap builds the translation for specs.
func NewConstraintMap(specs []ConstraintSpec) (*ConstraintMap, error) {
	m := &ConstraintMap{nSource: len(specs)}
	for i, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if s.Equality {
			m.rows = append(m.rows,
				Row{Source: i, Multiplier: -1, Offset: s.Target},
				Row{Source: i, Multiplier: +1, Offset: -s.Target},
			)
			continue
		}
		if !math.IsInf(s.Lower, -1) {
			m.rows = append(m.rows, Row{Source: i, Multiplier: -1, Offset: s.Lower})
		}
		if !math.IsInf(s.Upper, 1) {
			m.rows = append(m.rows, Row{Source: i, Multiplier: +1, Offset: -s.Upper})
		}
	}
	return m, nil
}

// Rows returns the recorded (source, multiplier, offset) triples.
func (m *ConstraintMap) Rows() []Row {
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}

// Len returns the number of produced rows.
func (m *ConstraintMap) Len() int { return len(m.rows) }

// Apply maps raw constraint values onto the produced rows.
// Returns ErrBadConstraint when len(c) disagrees with the specs.
func (m *ConstraintMap) Apply(c []float64) ([]float64, error) {
	if len(c) != m.nSource {
		return nil, ErrBadConstraint
	}
	out := make([]float64, len(m.rows))
	for j, r := range m.rows {
		out[j] = r.Multiplier*c[r.Source] + r.Offset
	}
	return out, nil
}

// ApplyGradients maps constraint gradients: row j is Multiplier · ∇c[Source].
// Offsets drop out.
func (m *ConstraintMap) ApplyGradients(g *matrix.Dense) (*matrix.Dense, error) {
	if g == nil || g.Rows() != m.nSource {
		return nil, ErrBadConstraint
	}
	out, err := matrix.NewDense(len(m.rows), g.Cols())
	if err != nil {
		return nil, err
	}
	for j, r := range m.rows {
		src, err := g.Row(r.Source)
		if err != nil {
			return nil, err
		}
		for k := range src {
			src[k] *= r.Multiplier
		}
		if err = out.SetRow(j, src); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyLinear evaluates linear constraints coeffs·x and maps them, costing
// no simulator evaluations.
func (m *ConstraintMap) ApplyLinear(coeffs *matrix.Dense, x []float64) ([]float64, error) {
	if coeffs == nil || coeffs.Rows() != m.nSource {
		return nil, ErrBadConstraint
	}
	c, err := coeffs.MulVec(x)
	if err != nil {
		return nil, err
	}
	return m.Apply(c)
}

// Feasible reports whether every mapped row is ≤ tol.
func (m *ConstraintMap) Feasible(c []float64, tol float64) (bool, error) {
	rows, err := m.Apply(c)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r > tol {
			return false, nil
		}
	}
	return true, nil
}

// Violation sums positive parts of the mapped rows; zero means feasible.
func (m *ConstraintMap) Violation(c []float64) (float64, error) {
	rows, err := m.Apply(c)
	if err != nil {
		return 0, err
	}
	var v float64
	for _, r := range rows {
		if r > 0 {
			v += r
		}
	}
	return v, nil
}
