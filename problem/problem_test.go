// Package problem_test covers document decoding, validation, and engine
// config assembly.
package problem_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/optiq/ga"
	"github.com/katalvlaran/optiq/problem"
	"github.com/katalvlaran/optiq/vars"
)

const sampleDoc = `
variables:
  - name: x
    type: real
    role: design
    lower: 0
    upper: 1
    initial: 0.5
  - name: n
    type: integer
    role: design
    lower: 1
    upper: 10
    initial: 3
  - name: u
    type: real
    role: aleatory-uncertain
    initial: 0
    distribution:
      kind: normal
      params: [0, 1]
responses:
  objectives: 2
  inequalities:
    - lower: 0
      upper: 10
  equalities:
    - target: 3
  linear:
    coefficients:
      - [1, 2]
    bounds:
      - upper: 4
method:
  name: moga
  interface: schaffer
  population: 30
  seed: 17
  max_generations: 80
  metric_tolerance: 0.001
  stall_generations: 4
  replacement: chc
  keep: 10
  nicher: radial
  distance_pcts: [0.05, 0.05]
  extra:
    custom_knob: "7"
`

func TestParse_FullDocument(t *testing.T) {
	d, err := problem.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	sp, err := d.BuildSpace()
	require.NoError(t, err)
	require.Equal(t, 3, sp.Len())
	// Design variables precede uncertain ones; reals precede integers
	// inside a role.
	require.Equal(t, []string{"x", "n", "u"}, sp.Labels())

	cmap, n, err := d.BuildConstraints()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	// Two-sided inequality → 2 rows, equality → 2 rows.
	require.Equal(t, 4, cmap.Len())

	coeffs, lmap, err := d.BuildLinear()
	require.NoError(t, err)
	require.NotNil(t, coeffs)
	require.Equal(t, 1, lmap.Len())

	opts, err := d.GAOptions()
	require.NoError(t, err)
	require.Equal(t, 30, opts.PopulationSize)
	require.EqualValues(t, 17, opts.Seed)
	require.Equal(t, 2, opts.NumObjectives)
	require.Equal(t, ga.ReplaceCHC, opts.Replacement)
	require.Equal(t, "radial", opts.Nicher)
	require.Equal(t, []float64{0.05, 0.05}, opts.DistancePcts)
	require.Equal(t, "7", opts.Extra["custom_knob"])
}

func TestParse_DistributionBinding(t *testing.T) {
	d, err := problem.Parse([]byte(sampleDoc))
	require.NoError(t, err)
	sp, err := d.BuildSpace()
	require.NoError(t, err)

	u, err := sp.At(sp.Index("u"))
	require.NoError(t, err)
	require.Equal(t, vars.AleatoryUncertain, u.Role)
	require.Equal(t, vars.Normal, u.Dist.Kind)
	require.Equal(t, []float64{0, 1}, u.Dist.Params)
	require.True(t, math.IsInf(u.Lower, -1))
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"no variables": `
responses: {objectives: 1}
method: {name: moga}
`,
		"no objectives": `
variables: [{name: x, type: real}]
responses: {objectives: 0}
method: {name: moga}
`,
		"bad type": `
variables: [{name: x, type: complex}]
responses: {objectives: 1}
method: {name: moga}
`,
		"no method": `
variables: [{name: x, type: real}]
responses: {objectives: 1}
`,
		"linear mismatch": `
variables: [{name: x, type: real}]
responses:
  objectives: 1
  linear:
    coefficients: [[1], [2]]
    bounds: [{upper: 1}]
method: {name: moga}
`,
	}
	for name, doc := range cases {
		_, err := problem.Parse([]byte(doc))
		require.ErrorIs(t, err, problem.ErrInput, name)
	}
}

func TestGAOptions_BadReplacementRejected(t *testing.T) {
	doc := `
variables: [{name: x, type: real, lower: 0, upper: 1}]
responses: {objectives: 1}
method: {name: moga, replacement: tournament}
`
	d, err := problem.Parse([]byte(doc))
	require.NoError(t, err)
	_, err = d.GAOptions()
	require.ErrorIs(t, err, problem.ErrInput)
}
