// Package vars_test verifies schema validation, span grouping, and the
// stability of flattened views.
package vars_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optiq/vars"
)

func realVar(name string, lo, hi, init float64) vars.Variable {
	return vars.Variable{
		Name: name, Kind: vars.Real, Role: vars.Design,
		Lower: lo, Upper: hi, Initial: vars.RealValue(init),
	}
}

func TestNewSpace_RejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := vars.NewSpace()
	require.ErrorIs(t, err, vars.ErrEmptySpace)

	_, err = vars.NewSpace(realVar("x", 0, 1, 0), realVar("x", 0, 1, 0))
	require.ErrorIs(t, err, vars.ErrDuplicateName)
}

func TestVariable_Validate(t *testing.T) {
	v := realVar("x", 1, 0, 0.5) // inverted bounds
	require.ErrorIs(t, v.Validate(), vars.ErrBadBounds)

	v = vars.Variable{
		Name: "c", Kind: vars.Categorical, Role: vars.State,
		Categories: []string{"a", "b"}, Initial: vars.CatValue("z"),
	}
	require.ErrorIs(t, v.Validate(), vars.ErrValueNotInSet)

	v = vars.Variable{
		Name: "u", Kind: vars.Real, Role: vars.AleatoryUncertain,
		Lower: math.Inf(-1), Upper: math.Inf(1),
		Dist:    vars.Distribution{Kind: vars.Normal, Params: []float64{0, 1}},
		Initial: vars.RealValue(0),
	}
	require.NoError(t, v.Validate())

	v.Dist = vars.Distribution{Kind: vars.Normal, Params: []float64{0}}
	require.ErrorIs(t, v.Validate(), vars.ErrBadDistribution)
}

func TestSpace_SpansAndViews(t *testing.T) {
	iv := vars.Variable{
		Name: "n", Kind: vars.Integer, Role: vars.Design,
		Lower: 0, Upper: 10, Initial: vars.IntValue(3),
	}
	sp, err := vars.NewSpace(iv, realVar("x", 0, 1, 0.5), realVar("s", -1, 1, 0))
	require.NoError(t, err)
	require.Equal(t, 3, sp.Len())

	// Spans order by role then kind, so the Real(0) variables precede the
	// Integer(1) one within the Design role.
	require.Equal(t, []string{"x", "s", "n"}, sp.Labels())

	cont := sp.ContinuousIndices()
	require.Equal(t, []int{0, 1}, cont)

	// Counts sum to the total.
	total := 0
	for _, k := range []vars.Kind{vars.Real, vars.Integer, vars.Categorical} {
		for _, r := range []vars.Role{vars.Design, vars.AleatoryUncertain, vars.EpistemicUncertain, vars.State} {
			total += sp.Count(k, r)
		}
	}
	require.Equal(t, sp.Len(), total)
}

func TestSpace_CheckPoint(t *testing.T) {
	sp, err := vars.NewSpace(realVar("x", 0, 1, 0.5))
	require.NoError(t, err)

	require.NoError(t, sp.CheckPoint(vars.Point{vars.RealValue(0.25)}))
	require.ErrorIs(t, sp.CheckPoint(vars.Point{vars.RealValue(1.5)}), vars.ErrBadBounds)
	require.ErrorIs(t, sp.CheckPoint(vars.Point{vars.IntValue(0)}), vars.ErrKindMismatch)
}

func TestPoint_KeyBitExact(t *testing.T) {
	a := vars.Point{vars.RealValue(0.1), vars.CatValue("ab")}
	b := vars.Point{vars.RealValue(0.1), vars.CatValue("ab")}
	c := vars.Point{vars.RealValue(0.1 + 1e-17), vars.CatValue("ab")}

	require.Equal(t, a.Key(), b.Key())
	require.True(t, a.Equal(b))

	// 0.1+1e-17 rounds to the same float64; keys must agree with Equal either way.
	require.Equal(t, a.Equal(c), a.Key() == c.Key())

	// Separator prevents boundary collisions between adjacent categoricals.
	d := vars.Point{vars.CatValue("ab"), vars.CatValue("c")}
	e := vars.Point{vars.CatValue("a"), vars.CatValue("bc")}
	require.NotEqual(t, d.Key(), e.Key())
}
