// Package ga - post-processors.
package ga

// Archiver is the optional surface a post-processor exposes when it
// assembles the final design archive; the driver's report consumes it in
// place of the raw best-fitness subset.
type Archiver interface {
	// Archive returns the post-processed designs; nil means "no archive
	// built" and the report falls back to the best-fitness subset.
	Archive() []*Individual
}

// nullPostProcessor leaves the final population untouched; the report falls
// back to the raw best-fitness subset.
type nullPostProcessor struct{}

// Name implements Operator.
func (nullPostProcessor) Name() string { return "null" }

// PostProcess implements PostProcessor.
func (nullPostProcessor) PostProcess(*Population, *FitnessRecord, *Context) error { return nil }

// bestArchivePostProcessor reduces the final population to its best-fitness
// subset with genome-identical duplicates collapsed: the archive of designs
// the run reports.
type bestArchivePostProcessor struct {
	archive []*Individual
}

// Name implements Operator.
func (*bestArchivePostProcessor) Name() string { return "best_archive" }

// Archive implements Archiver.
func (pp *bestArchivePostProcessor) Archive() []*Individual { return pp.archive }

// PostProcess implements PostProcessor.
func (pp *bestArchivePostProcessor) PostProcess(pop *Population, fr *FitnessRecord, _ *Context) error {
	best := fr.Best(pop)
	pp.archive = make([]*Individual, 0, len(best))
	seen := make(map[string]struct{}, len(best))
	for _, ind := range best {
		k := ind.Genome.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		pp.archive = append(pp.archive, ind.Clone())
	}
	return nil
}
