// Package vars - evaluation points and their bit-exact identity.
package vars

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Value is a tagged scalar: exactly one of Real, Int, Cat is meaningful,
// selected by Kind.
type Value struct {
	Kind Kind
	Real float64
	Int  int64
	Cat  string
}

// RealValue constructs a Real-kind Value.
func RealValue(x float64) Value { return Value{Kind: Real, Real: x} }

// IntValue constructs an Integer-kind Value.
func IntValue(x int64) Value { return Value{Kind: Integer, Int: x} }

// CatValue constructs a Categorical-kind Value.
func CatValue(s string) Value { return Value{Kind: Categorical, Cat: s} }

// Equal reports bit-exact equality. Real values compare by IEEE-754 bits so
// that +0/-0 and NaN payloads are distinguished the way the duplicate
// detector requires: only a literally re-asked point is a duplicate.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Real:
		return math.Float64bits(v.Real) == math.Float64bits(o.Real)
	case Integer:
		return v.Int == o.Int
	case Categorical:
		return v.Cat == o.Cat
	}
	return false
}

// String renders the active member for logs and status lines.
func (v Value) String() string {
	switch v.Kind {
	case Real:
		return fmt.Sprintf("%g", v.Real)
	case Integer:
		return fmt.Sprintf("%d", v.Int)
	case Categorical:
		return v.Cat
	}
	return "?"
}

// Point is a snapshot of variable values in Space iteration order.
// Points are plain value slices; cloning is cheap and explicit.
type Point []Value

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	cp := make(Point, len(p))
	copy(cp, p)
	return cp
}

// Equal reports bit-exact equality of two points.
func (p Point) Equal(o Point) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Reals extracts the Real-kind entries at the given flattened indices.
func (p Point) Reals(idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = p[j].Real
	}
	return out
}

// Key renders a bit-exact identity string for duplicate detection.
// Continuous values contribute their raw IEEE-754 bits, integers their two's
// complement, categoricals their bytes; entries are separated so that
// ("ab","c") and ("a","bc") cannot collide.
//
// Complexity: O(n) over the point length.
func (p Point) Key() string {
	var b strings.Builder
	var buf [8]byte
	for _, v := range p {
		b.WriteByte(byte(v.Kind))
		switch v.Kind {
		case Real:
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.Real))
			b.Write(buf[:])
		case Integer:
			binary.BigEndian.PutUint64(buf[:], uint64(v.Int))
			b.Write(buf[:])
		case Categorical:
			binary.BigEndian.PutUint64(buf[:], uint64(len(v.Cat)))
			b.Write(buf[:])
			b.WriteString(v.Cat)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// CompareLex orders two points lexicographically by value, kind-aware.
// Returns -1, 0, or +1. Used by the GA's variable-sorted population view.
func (p Point) CompareLex(o Point) int {
	n := len(p)
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if c := compareValue(p[i], o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(o):
		return -1
	case len(p) > len(o):
		return 1
	}
	return 0
}

func compareValue(a, b Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case Real:
		switch {
		case a.Real < b.Real:
			return -1
		case a.Real > b.Real:
			return 1
		}
	case Integer:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
	case Categorical:
		return strings.Compare(a.Cat, b.Cat)
	}
	return 0
}
