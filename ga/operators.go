// Package ga - operator contracts, registry, and group compatibility.
package ga

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/katalvlaran/optiq/vars"
)

// Context carries the shared resources operators draw on. The Driver builds
// each Context from its own RNG stream, logger and options; operators never
// construct their own RNG or logger.
type Context struct {
	// RNG is the driver-owned deterministic stream.
	RNG *rand.Rand

	// Space is the design schema.
	Space *vars.Space

	// Log is the driver's structured logger.
	Log *zap.Logger

	// Opts is the driver configuration (operator knobs included).
	Opts *Options

	// Gen is the current generation number.
	Gen int
}

// Operator is the naming contract every operator satisfies.
type Operator interface {
	// Name returns the registry name of the operator.
	Name() string
}

// Initializer populates generation zero.
type Initializer interface {
	Operator
	Initialize(ctx context.Context, gctx *Context) (*Population, error)
}

// Mutator perturbs children in place.
type Mutator interface {
	Operator
	Mutate(children *Population, gctx *Context) error
}

// Crosser produces children from parents.
type Crosser interface {
	Operator
	CrossOver(parents *Population, children *Population, gctx *Context) error
}

// Evaluator computes responses for every NeedsEval member.
type Evaluator interface {
	Operator
	Evaluate(ctx context.Context, pop *Population, gctx *Context) error
}

// FitnessAssessor scores a population.
type FitnessAssessor interface {
	Operator
	Assess(pop *Population, gctx *Context) (*FitnessRecord, error)
}

// Selector performs panmictic replacement of prev by trials.
type Selector interface {
	Operator
	Select(prev, trials *Population, fr *FitnessRecord, gctx *Context) (*Population, error)
}

// NichePressureApplicator thins over-dense best-fitness regions.
type NichePressureApplicator interface {
	Operator

	// PreSelection runs before selection each generation (buffer
	// re-assimilation happens here).
	PreSelection(pop *Population, gctx *Context)

	// ApplyNichePressure culls too-close best-fitness designs.
	ApplyNichePressure(pop *Population, fr *FitnessRecord, gctx *Context) error
}

// Converger decides whether the run is done.
type Converger interface {
	Operator
	Converged(pop *Population, fr *FitnessRecord, gctx *Context) (bool, error)
}

// MainLoop orchestrates one generation over the other operators.
type MainLoop interface {
	Operator
	RunGeneration(ctx context.Context, d *Driver) (bool, error)
}

// PostProcessor optionally reworks the final population.
type PostProcessor interface {
	Operator
	PostProcess(pop *Population, fr *FitnessRecord, gctx *Context) error
}

// OperatorSet is the driver's resolved operator composition. The set
// exclusively owns each operator instance.
type OperatorSet struct {
	Initializer   Initializer
	Mutator       Mutator
	Crosser       Crosser
	Evaluator     Evaluator
	Fitness       FitnessAssessor
	Selector      Selector
	Nicher        NichePressureApplicator
	Converger     Converger
	MainLoop      MainLoop
	PostProcessor PostProcessor
}

// group declares which concrete operators may be combined. An OperatorSet is
// valid when at least one group admits every slot's operator.
type group struct {
	name      string
	fitness   []string
	selectors []string
	nichers   []string
}

// groups is the compatibility table. The domination-count fitness pairs with
// panmictic replacement and any niche applicator; a fitness/selector pairing
// outside every group is rejected at Initialize.
var groups = []group{
	{
		name:      "moga",
		fitness:   []string{"domination_count"},
		selectors: []string{"panmictic"},
		nichers:   []string{"distance", "radial", "null"},
	},
}

// CheckCompatibility validates the composition against the group table.
func (s *OperatorSet) CheckCompatibility() error {
	for _, o := range []Operator{
		s.Initializer, s.Mutator, s.Crosser, s.Evaluator, s.Fitness,
		s.Selector, s.Nicher, s.Converger, s.MainLoop, s.PostProcessor,
	} {
		if o == nil {
			return ErrIncompatibleOperators
		}
	}
	for _, g := range groups {
		if contains(g.fitness, s.Fitness.Name()) &&
			contains(g.selectors, s.Selector.Name()) &&
			contains(g.nichers, s.Nicher.Name()) {
			return nil
		}
	}
	return ErrIncompatibleOperators
}

func contains(s []string, x string) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

// Registry resolves operator names to factories. NewRegistry preloads the
// built-ins and every Driver builds its own; the factory maps are unexported,
// so entries can be added only from inside this package.
type Registry struct {
	initializers map[string]func() Initializer
	mutators     map[string]func() Mutator
	crossers     map[string]func() Crosser
	fitness      map[string]func() FitnessAssessor
	selectors    map[string]func() Selector
	nichers      map[string]func() NichePressureApplicator
	convergers   map[string]func() Converger
	mainloops    map[string]func() MainLoop
	postprocs    map[string]func() PostProcessor
}

// NewRegistry returns a registry preloaded with every built-in operator.
func NewRegistry() *Registry {
	r := &Registry{
		initializers: map[string]func() Initializer{},
		mutators:     map[string]func() Mutator{},
		crossers:     map[string]func() Crosser{},
		fitness:      map[string]func() FitnessAssessor{},
		selectors:    map[string]func() Selector{},
		nichers:      map[string]func() NichePressureApplicator{},
		convergers:   map[string]func() Converger{},
		mainloops:    map[string]func() MainLoop{},
		postprocs:    map[string]func() PostProcessor{},
	}
	r.initializers["unique_random"] = func() Initializer { return &uniqueRandomInitializer{} }
	r.initializers["flat_file"] = func() Initializer { return &flatFileInitializer{} }
	r.mutators["offset_normal"] = func() Mutator { return offsetNormalMutator{} }
	r.mutators["replace_uniform"] = func() Mutator { return replaceUniformMutator{} }
	r.crossers["two_point"] = func() Crosser { return twoPointCrosser{} }
	r.crossers["shuffle_random"] = func() Crosser { return shuffleRandomCrosser{} }
	r.fitness["domination_count"] = func() FitnessAssessor { return dominationCountAssessor{} }
	r.selectors["panmictic"] = func() Selector { return panmicticSelector{} }
	r.nichers["distance"] = func() NichePressureApplicator { return &distanceNicher{} }
	r.nichers["radial"] = func() NichePressureApplicator { return &radialNicher{} }
	r.nichers["null"] = func() NichePressureApplicator { return nullNicher{} }
	r.convergers["metric_tracker"] = func() Converger { return &metricTracker{} }
	r.convergers["max_generations"] = func() Converger { return maxGenerationsConverger{} }
	r.mainloops["standard"] = func() MainLoop { return standardMainLoop{} }
	r.postprocs["null"] = func() PostProcessor { return nullPostProcessor{} }
	r.postprocs["best_archive"] = func() PostProcessor { return &bestArchivePostProcessor{} }
	return r
}

// resolve builds the OperatorSet named by opts. The evaluator is supplied by
// the driver (it wraps the model) and is not name-resolved.
func (r *Registry) resolve(opts Options, ev Evaluator) (OperatorSet, error) {
	var s OperatorSet
	s.Evaluator = ev

	if mk, ok := r.initializers[opts.Initializer]; ok {
		s.Initializer = mk()
	} else {
		return s, fmt.Errorf("%w: initializer %q", ErrUnknownOperator, opts.Initializer)
	}
	if mk, ok := r.mutators[opts.Mutator]; ok {
		s.Mutator = mk()
	} else {
		return s, fmt.Errorf("%w: mutator %q", ErrUnknownOperator, opts.Mutator)
	}
	if mk, ok := r.crossers[opts.Crosser]; ok {
		s.Crosser = mk()
	} else {
		return s, fmt.Errorf("%w: crosser %q", ErrUnknownOperator, opts.Crosser)
	}
	if mk, ok := r.fitness[opts.Fitness]; ok {
		s.Fitness = mk()
	} else {
		return s, fmt.Errorf("%w: fitness %q", ErrUnknownOperator, opts.Fitness)
	}
	if mk, ok := r.selectors[opts.Selector]; ok {
		s.Selector = mk()
	} else {
		return s, fmt.Errorf("%w: selector %q", ErrUnknownOperator, opts.Selector)
	}
	if mk, ok := r.nichers[opts.Nicher]; ok {
		s.Nicher = mk()
	} else {
		return s, fmt.Errorf("%w: nicher %q", ErrUnknownOperator, opts.Nicher)
	}
	if mk, ok := r.convergers[opts.Converger]; ok {
		s.Converger = mk()
	} else {
		return s, fmt.Errorf("%w: converger %q", ErrUnknownOperator, opts.Converger)
	}
	if mk, ok := r.mainloops[opts.MainLoop]; ok {
		s.MainLoop = mk()
	} else {
		return s, fmt.Errorf("%w: main loop %q", ErrUnknownOperator, opts.MainLoop)
	}
	if mk, ok := r.postprocs[opts.PostProcessor]; ok {
		s.PostProcessor = mk()
	} else {
		return s, fmt.Errorf("%w: post-processor %q", ErrUnknownOperator, opts.PostProcessor)
	}
	return s, s.CheckCompatibility()
}
