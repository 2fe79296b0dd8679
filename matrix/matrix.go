// Package matrix provides the dense linear-algebra primitives the evaluation
// engine stores derivatives and linear-constraint coefficients in.
//
// Dense is a concrete, row-major matrix storing elements in a flat slice for
// performance and cache friendliness. The package is deliberately small: the
// engine needs shaped storage, row access, scaling, and matrix-vector
// products — not a general linear-algebra suite.
package matrix

import (
	"errors"
	"math"
)

// Sentinel errors. Algorithms must return these sentinels and tests must
// check them via errors.Is. No public entry point panics on user input.
var (
	// ErrBadShape is returned when a requested shape is invalid (r<=0 or c<=0).
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates that a row or column index is outside bounds.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNaNInf is returned when a non-finite value is stored while the
	// finite-value policy is active.
	ErrNaNInf = errors.New("matrix: non-finite value")
)

// Dense is a concrete row-major matrix.
// r, c are dimensions; data holds r*c elements in row-major order.
type Dense struct {
	r, c int
	data []float64
}

// NewDense creates an r×c Dense initialized to zeros.
// Validates rows>0 && cols>0; returns ErrBadShape on failure.
//
// Complexity: O(r*c) due to zero-fill by make.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrBadShape
	}
	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows builds a Dense from a rectangular [][]float64.
// Returns ErrBadShape for empty input and ErrDimensionMismatch for ragged rows.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrBadShape
	}
	c := len(rows[0])
	m, err := NewDense(len(rows), c)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != c {
			return nil, ErrDimensionMismatch
		}
		copy(m.data[i*c:(i+1)*c], row)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns.
func (m *Dense) Cols() int { return m.c }

// At returns the element at (row, col); ErrOutOfRange on bad indices.
func (m *Dense) At(row, col int) (float64, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, ErrOutOfRange
	}
	return m.data[row*m.c+col], nil
}

// Set stores v at (row, col); ErrOutOfRange on bad indices, ErrNaNInf for
// non-finite v. Derivative storage must stay finite: a NaN gradient entry is
// a simulator failure, tagged at the Response level, never stored here.
func (m *Dense) Set(row, col int, v float64) error {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return ErrOutOfRange
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNaNInf
	}
	m.data[row*m.c+col] = v
	return nil
}

// Row returns a copy of row i; ErrOutOfRange on a bad index.
// The copy keeps callers from aliasing internal storage.
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, ErrOutOfRange
	}
	out := make([]float64, m.c)
	copy(out, m.data[i*m.c:(i+1)*m.c])
	return out, nil
}

// SetRow overwrites row i with vals; ErrDimensionMismatch when len(vals)!=Cols.
func (m *Dense) SetRow(i int, vals []float64) error {
	if i < 0 || i >= m.r {
		return ErrOutOfRange
	}
	if len(vals) != m.c {
		return ErrDimensionMismatch
	}
	copy(m.data[i*m.c:(i+1)*m.c], vals)
	return nil
}

// Clone returns a deep copy of m.
func (m *Dense) Clone() *Dense {
	cp := &Dense{r: m.r, c: m.c, data: make([]float64, len(m.data))}
	copy(cp.data, m.data)
	return cp
}

// Scale multiplies every element by f in place and returns m for chaining.
func (m *Dense) Scale(f float64) *Dense {
	for i := range m.data {
		m.data[i] *= f
	}
	return m
}

// ScaleRow multiplies row i by f in place; ErrOutOfRange on a bad index.
// Used by the constraint mapping to apply a row multiplier to a gradient.
func (m *Dense) ScaleRow(i int, f float64) error {
	if i < 0 || i >= m.r {
		return ErrOutOfRange
	}
	for j := i * m.c; j < (i+1)*m.c; j++ {
		m.data[j] *= f
	}
	return nil
}

// MulVec computes m·x and returns the result as a new slice.
// Returns ErrDimensionMismatch when len(x) != Cols.
//
// Complexity: O(r*c).
func (m *Dense) MulVec(x []float64) ([]float64, error) {
	if len(x) != m.c {
		return nil, ErrDimensionMismatch
	}
	out := make([]float64, m.r)
	for i := 0; i < m.r; i++ {
		var acc float64
		base := i * m.c
		for j := 0; j < m.c; j++ {
			acc += m.data[base+j] * x[j]
		}
		out[i] = acc
	}
	return out, nil
}

// Equal reports element-wise equality of shape and contents within eps.
func (m *Dense) Equal(o *Dense, eps float64) bool {
	if o == nil || m.r != o.r || m.c != o.c {
		return false
	}
	for i := range m.data {
		if math.Abs(m.data[i]-o.data[i]) > eps {
			return false
		}
	}
	return true
}
