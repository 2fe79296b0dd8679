// Package problem decodes the declarative problem description — variables,
// responses, method — into the engine's typed configuration records.
//
// The document is YAML with three top-level sections. Field access after
// decoding is statically typed; only the method's `extra` map survives as a
// string passthrough for operator-defined custom knobs.
package problem

import "errors"

// Sentinel errors. Every validation failure wraps ErrInput so the CLI can
// map the whole class to its input-error exit code.
var (
	// ErrInput is the root of all problem-description violations.
	ErrInput = errors.New("problem: invalid problem description")
)

// Document is the decoded problem description.
type Document struct {
	Variables []VarDecl  `yaml:"variables"`
	Responses RespDecl   `yaml:"responses"`
	Method    MethodDecl `yaml:"method"`
}

// VarDecl declares one variable.
type VarDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // real | integer | categorical
	Role string `yaml:"role"` // design | aleatory-uncertain | epistemic-uncertain | state

	// Lower/Upper bound the variable; omitted means unbounded on that side.
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`

	// Initial is the starting value (number, or category string).
	Initial any `yaml:"initial"`

	// Set restricts real/integer variables to a discrete value set.
	Set []float64 `yaml:"set"`

	// Categories enumerates categorical values.
	Categories []string `yaml:"categories"`

	// Distribution optionally describes the variable's distribution.
	Distribution *DistDecl `yaml:"distribution"`
}

// DistDecl declares a distribution by kind tag plus parameters.
type DistDecl struct {
	Kind      string    `yaml:"kind"`
	Params    []float64 `yaml:"params"`
	Abscissas []float64 `yaml:"abscissas"`
	Counts    []float64 `yaml:"counts"`
}

// BoundDecl is a two-sided interval; omitted sides are unbounded.
type BoundDecl struct {
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
}

// EqDecl is an equality constraint target.
type EqDecl struct {
	Target float64 `yaml:"target"`
}

// LinearDecl declares linear constraints over the continuous variables:
// rows of coefficients with matching bounds. They are evaluated from the
// coefficient matrix and never cost a simulator call.
type LinearDecl struct {
	Coefficients [][]float64 `yaml:"coefficients"`
	Bounds       []BoundDecl `yaml:"bounds"`
}

// RespDecl declares the response layout: objectives first, then nonlinear
// inequalities, then nonlinear equalities, in simulator order.
type RespDecl struct {
	Objectives   int         `yaml:"objectives"`
	Inequalities []BoundDecl `yaml:"inequalities"`
	Equalities   []EqDecl    `yaml:"equalities"`
	Linear       *LinearDecl `yaml:"linear"`
}

// MethodDecl selects and parameterizes the algorithm.
type MethodDecl struct {
	Name      string `yaml:"name"`      // algorithm tag (moga)
	Interface string `yaml:"interface"` // simulator driver name

	Population       int     `yaml:"population"`
	Seed             int64   `yaml:"seed"`
	MaxGenerations   int     `yaml:"max_generations"`
	MaxEvaluations   int     `yaml:"max_evaluations"`
	MetricTolerance  float64 `yaml:"metric_tolerance"`
	StallGenerations int     `yaml:"stall_generations"`

	Replacement string  `yaml:"replacement"` // random | elitist | chc | exponential
	Keep        int     `yaml:"keep"`
	ExpFactor   float64 `yaml:"exp_factor"`

	Mutator       string  `yaml:"mutator"`
	MutationRate  float64 `yaml:"mutation_rate"`
	MutationScale float64 `yaml:"mutation_scale"`
	Crosser       string  `yaml:"crosser"`
	CrossoverRate float64 `yaml:"crossover_rate"`

	Initializer string `yaml:"initializer"`
	SeedFile    string `yaml:"seed_file"`

	Nicher       string    `yaml:"nicher"`
	DistancePcts []float64 `yaml:"distance_pcts"`
	CacheDesigns bool      `yaml:"cache_designs"`

	Converger     string `yaml:"converger"`
	PostProcessor string `yaml:"post_processor"`

	// Extra passes operator-defined custom parameters through untyped.
	Extra map[string]string `yaml:"extra"`
}
