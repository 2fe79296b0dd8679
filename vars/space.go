// Package vars - the VariableSpace container.
package vars

import "sort"

// Space is an insertion-ordered sequence of Variables partitioned into
// contiguous spans by (kind, role), with index maps so an algorithm may see a
// flattened continuous-only view.
//
// Invariants:
//   - The total count equals the sum of all (kind, role) span counts.
//   - Flattened views are computed once at construction and never change, so
//     view indices are stable across evaluations.
type Space struct {
	vars    []Variable
	byName  map[string]int
	contIdx []int // indices of Real-kind variables, insertion order
}

// spanKey partitions variables by category.
type spanKey struct {
	kind Kind
	role Role
}

// NewSpace validates the variables and assembles a Space.
//
// Ordering: variables are re-grouped into contiguous (kind, role) spans while
// preserving relative insertion order within each span, mirroring how the
// engine's wire format enumerates values.
//
// Errors: ErrEmptySpace, ErrDuplicateName, and per-variable Validate errors.
func NewSpace(vv ...Variable) (*Space, error) {
	if len(vv) == 0 {
		return nil, ErrEmptySpace
	}
	seen := make(map[string]struct{}, len(vv))
	for _, v := range vv {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[v.Name]; dup {
			return nil, ErrDuplicateName
		}
		seen[v.Name] = struct{}{}
	}

	// Stable re-grouping into (kind, role) spans.
	ordered := make([]Variable, len(vv))
	copy(ordered, vv)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		return a.Kind < b.Kind
	})

	s := &Space{
		vars:   ordered,
		byName: make(map[string]int, len(ordered)),
	}
	for i, v := range ordered {
		s.byName[v.Name] = i
		if v.Kind == Real {
			s.contIdx = append(s.contIdx, i)
		}
	}
	return s, nil
}

// Len returns the total variable count.
func (s *Space) Len() int { return len(s.vars) }

// At returns the variable at index i.
func (s *Space) At(i int) (Variable, error) {
	if i < 0 || i >= len(s.vars) {
		return Variable{}, ErrIndexOutOfRange
	}
	return s.vars[i], nil
}

// Index returns the position of the named variable, or -1.
func (s *Space) Index(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// Labels returns variable names in iteration order.
func (s *Space) Labels() []string {
	out := make([]string, len(s.vars))
	for i, v := range s.vars {
		out[i] = v.Name
	}
	return out
}

// Count returns how many variables fall in the (kind, role) category.
func (s *Space) Count(k Kind, r Role) int {
	n := 0
	for _, v := range s.vars {
		if v.Kind == k && v.Role == r {
			n++
		}
	}
	return n
}

// ContinuousIndices returns the stable flattened continuous-only view:
// positions of every Real-kind variable in iteration order. The returned
// slice is a copy; callers may keep it across evaluations.
func (s *Space) ContinuousIndices() []int {
	out := make([]int, len(s.contIdx))
	copy(out, s.contIdx)
	return out
}

// Bounds returns the bounds of variable i (Real/Integer kinds).
func (s *Space) Bounds(i int) (lower, upper float64, err error) {
	v, err := s.At(i)
	if err != nil {
		return 0, 0, err
	}
	return v.Lower, v.Upper, nil
}

// InitialPoint assembles the starting Point from variable initial values.
func (s *Space) InitialPoint() Point {
	p := make(Point, len(s.vars))
	for i, v := range s.vars {
		p[i] = v.Initial
	}
	return p
}

// CheckPoint validates a point against the schema: kind alignment, bounds,
// and discrete-set membership. Returns the first violation.
func (s *Space) CheckPoint(p Point) error {
	if len(p) != len(s.vars) {
		return ErrIndexOutOfRange
	}
	for i, v := range s.vars {
		val := p[i]
		if val.Kind != v.Kind {
			return ErrKindMismatch
		}
		switch v.Kind {
		case Real:
			if val.Real < v.Lower || val.Real > v.Upper {
				return ErrBadBounds
			}
			if len(v.DiscreteReals) > 0 && !containsFloat(v.DiscreteReals, val.Real) {
				return ErrValueNotInSet
			}
		case Integer:
			if float64(val.Int) < v.Lower || float64(val.Int) > v.Upper {
				return ErrBadBounds
			}
			if len(v.DiscreteInts) > 0 && !containsInt(v.DiscreteInts, val.Int) {
				return ErrValueNotInSet
			}
		case Categorical:
			if !containsString(v.Categories, val.Cat) {
				return ErrValueNotInSet
			}
		}
	}
	return nil
}
