// Package problem - decoding, validation, and engine-config assembly.
package problem

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/optiq/ga"
	"github.com/katalvlaran/optiq/matrix"
	"github.com/katalvlaran/optiq/model"
	"github.com/katalvlaran/optiq/vars"
)

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML document.
func Parse(raw []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks cross-field consistency before any engine object exists.
func (d *Document) Validate() error {
	if len(d.Variables) == 0 {
		return fmt.Errorf("%w: no variables", ErrInput)
	}
	if d.Responses.Objectives < 1 {
		return fmt.Errorf("%w: at least one objective required", ErrInput)
	}
	for i, v := range d.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable %d has no name", ErrInput, i)
		}
		if _, err := kindOf(v.Type); err != nil {
			return fmt.Errorf("%w: variable %q: %v", ErrInput, v.Name, err)
		}
		if _, err := roleOf(v.Role); err != nil {
			return fmt.Errorf("%w: variable %q: %v", ErrInput, v.Name, err)
		}
	}
	if lin := d.Responses.Linear; lin != nil {
		if len(lin.Coefficients) != len(lin.Bounds) {
			return fmt.Errorf("%w: linear coefficient/bound count mismatch", ErrInput)
		}
	}
	if d.Method.Name == "" {
		return fmt.Errorf("%w: method name required", ErrInput)
	}
	return nil
}

// kindOf maps a type tag.
func kindOf(s string) (vars.Kind, error) {
	switch s {
	case "real", "":
		return vars.Real, nil
	case "integer":
		return vars.Integer, nil
	case "categorical":
		return vars.Categorical, nil
	}
	return 0, fmt.Errorf("unknown type %q", s)
}

// initialFloat coerces a decoded YAML scalar to float64; nil coerces to
// zero. False on non-numeric input.
func initialFloat(x any) (float64, bool) {
	switch v := x.(type) {
	case nil:
		return 0, true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// roleOf maps a role tag.
func roleOf(s string) (vars.Role, error) {
	switch s {
	case "design", "":
		return vars.Design, nil
	case "aleatory-uncertain":
		return vars.AleatoryUncertain, nil
	case "epistemic-uncertain":
		return vars.EpistemicUncertain, nil
	case "state":
		return vars.State, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// distKinds maps distribution tags to the schema's tagged union.
var distKinds = map[string]vars.DistKind{
	"normal": vars.Normal, "lognormal": vars.Lognormal,
	"uniform": vars.Uniform, "loguniform": vars.Loguniform,
	"triangular": vars.Triangular, "exponential": vars.Exponential,
	"beta": vars.Beta, "gamma": vars.Gamma, "weibull": vars.Weibull,
	"gumbel": vars.Gumbel, "frechet": vars.Frechet,
	"histogram-bin": vars.HistogramBin, "histogram-point": vars.HistogramPoint,
	"poisson": vars.Poisson, "binomial": vars.Binomial,
	"negative-binomial": vars.NegBinomial, "geometric": vars.Geometric,
	"hypergeometric": vars.Hypergeometric,
}

// BuildSpace assembles the VariableSpace.
func (d *Document) BuildSpace() (*vars.Space, error) {
	vv := make([]vars.Variable, 0, len(d.Variables))
	for _, decl := range d.Variables {
		v, err := buildVariable(decl)
		if err != nil {
			return nil, err
		}
		vv = append(vv, v)
	}
	sp, err := vars.NewSpace(vv...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return sp, nil
}

func buildVariable(decl VarDecl) (vars.Variable, error) {
	kind, err := kindOf(decl.Type)
	if err != nil {
		return vars.Variable{}, fmt.Errorf("%w: %v", ErrInput, err)
	}
	role, err := roleOf(decl.Role)
	if err != nil {
		return vars.Variable{}, fmt.Errorf("%w: %v", ErrInput, err)
	}

	v := vars.Variable{
		Name: decl.Name, Kind: kind, Role: role,
		Lower: math.Inf(-1), Upper: math.Inf(1),
	}
	if decl.Lower != nil {
		v.Lower = *decl.Lower
	}
	if decl.Upper != nil {
		v.Upper = *decl.Upper
	}

	switch kind {
	case vars.Real:
		v.DiscreteReals = decl.Set
		x, ok := initialFloat(decl.Initial)
		if !ok {
			return v, fmt.Errorf("%w: variable %q: bad initial", ErrInput, decl.Name)
		}
		if decl.Initial == nil && !math.IsInf(v.Lower, -1) && !math.IsInf(v.Upper, 1) {
			x = (v.Lower + v.Upper) / 2
		}
		v.Initial = vars.RealValue(x)
	case vars.Integer:
		for _, s := range decl.Set {
			v.DiscreteInts = append(v.DiscreteInts, int64(s))
		}
		x, ok := initialFloat(decl.Initial)
		if !ok {
			return v, fmt.Errorf("%w: variable %q: bad initial", ErrInput, decl.Name)
		}
		n := int64(x)
		if decl.Initial == nil && !math.IsInf(v.Lower, -1) {
			n = int64(v.Lower)
		}
		v.Initial = vars.IntValue(n)
	case vars.Categorical:
		v.Categories = decl.Categories
		init, _ := decl.Initial.(string)
		if init == "" && len(decl.Categories) > 0 {
			init = decl.Categories[0]
		}
		v.Initial = vars.CatValue(init)
	}

	if decl.Distribution != nil {
		dk, ok := distKinds[decl.Distribution.Kind]
		if !ok {
			return v, fmt.Errorf("%w: variable %q: unknown distribution %q",
				ErrInput, decl.Name, decl.Distribution.Kind)
		}
		v.Dist = vars.Distribution{
			Kind:      dk,
			Params:    decl.Distribution.Params,
			Abscissas: decl.Distribution.Abscissas,
			Counts:    decl.Distribution.Counts,
		}
	}
	if err = v.Validate(); err != nil {
		return v, fmt.Errorf("%w: variable %q: %v", ErrInput, decl.Name, err)
	}
	return v, nil
}

// NonlinearSpecs assembles the nonlinear constraint specifications in
// simulator order: inequalities then equalities.
func (d *Document) NonlinearSpecs() []model.ConstraintSpec {
	specs := make([]model.ConstraintSpec, 0, len(d.Responses.Inequalities)+len(d.Responses.Equalities))
	for _, b := range d.Responses.Inequalities {
		s := model.ConstraintSpec{Lower: math.Inf(-1), Upper: math.Inf(1)}
		if b.Lower != nil {
			s.Lower = *b.Lower
		}
		if b.Upper != nil {
			s.Upper = *b.Upper
		}
		specs = append(specs, s)
	}
	for _, e := range d.Responses.Equalities {
		specs = append(specs, model.ConstraintSpec{Equality: true, Target: e.Target})
	}
	return specs
}

// BuildConstraints builds the nonlinear constraint map; nil when the problem
// is unconstrained.
func (d *Document) BuildConstraints() (*model.ConstraintMap, int, error) {
	specs := d.NonlinearSpecs()
	if len(specs) == 0 {
		return nil, 0, nil
	}
	m, err := model.NewConstraintMap(specs)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return m, len(specs), nil
}

// BuildLinear builds the linear-constraint coefficient matrix and its map;
// both nil when the document declares none.
func (d *Document) BuildLinear() (*matrix.Dense, *model.ConstraintMap, error) {
	lin := d.Responses.Linear
	if lin == nil || len(lin.Coefficients) == 0 {
		return nil, nil, nil
	}
	coeffs, err := matrix.FromRows(lin.Coefficients)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	specs := make([]model.ConstraintSpec, len(lin.Bounds))
	for i, b := range lin.Bounds {
		specs[i] = model.ConstraintSpec{Lower: math.Inf(-1), Upper: math.Inf(1)}
		if b.Lower != nil {
			specs[i].Lower = *b.Lower
		}
		if b.Upper != nil {
			specs[i].Upper = *b.Upper
		}
	}
	m, err := model.NewConstraintMap(specs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return coeffs, m, nil
}

// GAOptions assembles the driver configuration from the method section,
// falling back to engine defaults for omitted fields.
func (d *Document) GAOptions() (ga.Options, error) {
	m := d.Method
	opts := ga.DefaultOptions()
	opts.NumObjectives = d.Responses.Objectives
	opts.Seed = m.Seed

	if m.Population > 0 {
		opts.PopulationSize = m.Population
	}
	if m.MaxGenerations > 0 {
		opts.MaxGenerations = m.MaxGenerations
	}
	opts.MaxEvaluations = m.MaxEvaluations
	if m.MetricTolerance > 0 {
		opts.MetricTolerance = m.MetricTolerance
	}
	if m.StallGenerations > 0 {
		opts.StallGenerations = m.StallGenerations
	}
	if m.Replacement != "" {
		switch m.Replacement {
		case "random":
			opts.Replacement = ga.ReplaceRandom
		case "elitist":
			opts.Replacement = ga.ReplaceElitist
		case "chc":
			opts.Replacement = ga.ReplaceCHC
		case "exponential":
			opts.Replacement = ga.ReplaceExponential
		default:
			return opts, fmt.Errorf("%w: unknown replacement %q", ErrInput, m.Replacement)
		}
	}
	if m.Keep > 0 {
		opts.KeepNum = m.Keep
	}
	if m.ExpFactor > 0 {
		opts.ExpFactor = m.ExpFactor
	}
	if m.Mutator != "" {
		opts.Mutator = m.Mutator
	}
	if m.MutationRate > 0 {
		opts.MutationRate = m.MutationRate
	}
	if m.MutationScale > 0 {
		opts.MutationScale = m.MutationScale
	}
	if m.Crosser != "" {
		opts.Crosser = m.Crosser
	}
	if m.CrossoverRate > 0 {
		opts.CrossoverRate = m.CrossoverRate
	}
	if m.Initializer != "" {
		opts.Initializer = m.Initializer
	}
	opts.SeedFile = m.SeedFile
	if m.Nicher != "" {
		opts.Nicher = m.Nicher
	}
	if len(m.DistancePcts) > 0 {
		opts.DistancePcts = m.DistancePcts
	}
	opts.CacheDesigns = m.CacheDesigns
	if m.Converger != "" {
		opts.Converger = m.Converger
	}
	if m.PostProcessor != "" {
		opts.PostProcessor = m.PostProcessor
	}
	opts.Extra = m.Extra

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return opts, nil
}
