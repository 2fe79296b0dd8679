// Package sim defines the black-box simulator driver abstraction: a uniform
// contract of synchronous evaluation, asynchronous launch, and asynchronous
// collection, plus the capability set a driver advertises.
//
// Contracts:
//   - Evaluation ids are monotonically assigned within one Interface.
//   - Collect may return completions in any order; responses carry their id.
//   - A driver may transform variables internally (e.g. scaling) but must
//     return responses in the untransformed space; scaling is the model's
//     responsibility.
//   - Abort drains outstanding jobs and reports them as Cancelled.
package sim

import (
	"context"
	"errors"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// Sentinel errors.
var (
	// ErrDomain indicates the simulator received an out-of-domain input.
	// Logged and recorded as a failed evaluation; never fatal.
	ErrDomain = errors.New("sim: input outside simulator domain")

	// ErrEvaluation indicates the simulator itself failed.
	ErrEvaluation = errors.New("sim: evaluation failed")

	// ErrCancelled indicates a job drained by Abort.
	ErrCancelled = errors.New("sim: evaluation cancelled")

	// ErrTimeout indicates a job exceeding the per-interface time budget.
	// Timed-out jobs are not cached.
	ErrTimeout = errors.New("sim: evaluation timed out")

	// ErrNoPending indicates Collect with no outstanding jobs.
	ErrNoPending = errors.New("sim: no pending evaluations")

	// ErrAborted indicates Launch after Abort.
	ErrAborted = errors.New("sim: interface aborted")
)

// Capabilities lists, per response component, the maximum request code the
// driver can honor analytically. Components the driver cannot differentiate
// are finite-differenced by the model.
type Capabilities struct {
	// Max is the per-component ceiling; Max[i] is a bitmask like a Request.
	Max response.ActiveSet
}

// ValueOnlyCapabilities advertises plain function evaluation for n components.
func ValueOnlyCapabilities(n int) Capabilities {
	return Capabilities{Max: response.ValuesOnly(n)}
}

// FullCapabilities advertises analytic values, gradients, and Hessians.
func FullCapabilities(n int) Capabilities {
	as, _ := response.NewActiveSet(n, response.WantValue|response.WantGradient|response.WantHessian)
	return Capabilities{Max: as}
}

// Covers reports whether every request in as is within the ceiling.
func (c Capabilities) Covers(as response.ActiveSet) bool {
	return c.Max.Superset(as)
}

// Clip returns the portion of as the driver can honor directly.
func (c Capabilities) Clip(as response.ActiveSet) response.ActiveSet {
	out := as.Clone()
	for i := range out {
		if i < len(c.Max) {
			out[i] &= c.Max[i]
		} else {
			out[i] = 0
		}
	}
	return out
}

// Completion is one finished asynchronous job.
type Completion struct {
	// EvalID identifies the job.
	EvalID int64

	// Point echoes the evaluated variables (untransformed space).
	Point vars.Point

	// Response is nil when Err is non-nil.
	Response *response.Response

	// Err is nil on success; otherwise one of the sim sentinels (possibly
	// wrapped).
	Err error
}

// Interface is the simulator driver abstraction.
type Interface interface {
	// ID returns the interface identity used for cache keying.
	ID() string

	// Capabilities reports which derivatives the driver supplies analytically.
	Capabilities() Capabilities

	// Eval performs one synchronous evaluation honoring as.
	Eval(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error)

	// Launch schedules an asynchronous evaluation and returns its id.
	Launch(p vars.Point, as response.ActiveSet) (int64, error)

	// Collect blocks for at least one completion and returns all that are
	// ready. ErrNoPending when nothing is outstanding.
	Collect(ctx context.Context) ([]Completion, error)

	// Abort drains outstanding jobs as Cancelled completions.
	Abort()
}
