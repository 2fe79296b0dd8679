// Package ga - the standard generation orchestration.
package ga

import "context"

// standardMainLoop runs the canonical generation sequence: crossover and
// mutation produce trials, the evaluator resolves them, pre-selection
// re-assimilates any niche buffer, fitness is assessed over the merged group,
// replacement selects the next population, niche pressure thins it, and the
// converger votes.
type standardMainLoop struct{}

// Name implements Operator.
func (standardMainLoop) Name() string { return "standard" }

// RunGeneration implements MainLoop.
func (standardMainLoop) RunGeneration(ctx context.Context, d *Driver) (bool, error) {
	gctx := d.gctx()
	ops := d.ops

	// Variation: crossover then mutation over the children.
	children := NewPopulation(d.opts.PopulationSize)
	if err := ops.Crosser.CrossOver(d.pop, children, gctx); err != nil {
		return false, err
	}
	if err := ops.Mutator.Mutate(children, gctx); err != nil {
		return false, err
	}

	// Evaluation routes through the model (cache, restart, FD policy).
	if err := ops.Evaluator.Evaluate(ctx, children, gctx); err != nil {
		return false, err
	}

	// Buffered designs come home before fitness sees the population.
	ops.Nicher.PreSelection(d.pop, gctx)

	// Merged fitness over previous population plus trials.
	merged := NewPopulation(d.pop.Len() + children.Len())
	for _, ind := range d.pop.Members() {
		merged.Add(ind)
	}
	for _, ind := range children.Members() {
		merged.Add(ind)
	}
	fr, err := ops.Fitness.Assess(merged, gctx)
	if err != nil {
		return false, err
	}

	next, err := ops.Selector.Select(d.pop, children, fr, gctx)
	if err != nil {
		return false, err
	}
	next.SynchronizeOFAndDVContainers()

	// Fitness over the selected population for niching and convergence.
	fr, err = ops.Fitness.Assess(next, gctx)
	if err != nil {
		return false, err
	}
	if err = ops.Nicher.ApplyNichePressure(next, fr, gctx); err != nil {
		return false, err
	}

	d.pop = next
	d.fr = fr

	return ops.Converger.Converged(next, fr, gctx)
}
