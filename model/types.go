// Package model couples a VariableSpace with a simulator Interface: it
// applies the active-set protocol, routes every evaluation through the
// duplicate-detection cache, persists completed pairs to the restart log,
// estimates missing derivatives by finite differences, and translates
// two-sided constraint intervals into the one-sided rows algorithms expect.
//
// Design goals:
//   - One policy for all derivative sources: analytic, FD-by-us, and
//     FD-by-simulator flow through the same request decomposition.
//   - Cache-first: every sub-request (including FD probes) consults the
//     cache, so symmetric FD patterns opportunistically deduplicate.
//   - Strict sentinels below; structured failures ride inside Responses.
package model

import "errors"

// Sentinel errors.
var (
	// ErrDerivativeUnavailable indicates a requested derivative that neither
	// the Interface nor the finite-difference policy can produce. Fatal for
	// the calling iterator unless it downgrades its request.
	ErrDerivativeUnavailable = errors.New("model: requested derivative unavailable")

	// ErrNilInterface indicates construction without a simulator driver.
	ErrNilInterface = errors.New("model: nil interface")

	// ErrNilSpace indicates construction without a variable space.
	ErrNilSpace = errors.New("model: nil variable space")

	// ErrBadStep indicates a non-positive finite-difference step.
	ErrBadStep = errors.New("model: invalid finite-difference step")

	// ErrNoInterval indicates a variable whose bounds leave no room for any
	// finite-difference probe.
	ErrNoInterval = errors.New("model: bounds leave no finite-difference interval")

	// ErrBadConstraint indicates a constraint specification with no usable
	// side (NaN bounds, or lower > upper).
	ErrBadConstraint = errors.New("model: invalid constraint specification")

	// ErrEvaluationFailed indicates a batch request with a point that never
	// received a completion from the driver.
	ErrEvaluationFailed = errors.New("model: evaluation failed")
)

// FDScheme selects the finite-difference stencil.
type FDScheme uint8

const (
	// Forward uses (f(x+h) - f(x)) / h, falling back to backward at an
	// upper bound.
	Forward FDScheme = iota

	// Central uses (f(x+h) - f(x-h)) / 2h with the user step halved per
	// side; one-sided fallback applies at bounds.
	Central
)

// String implements fmt.Stringer.
func (s FDScheme) String() string {
	switch s {
	case Forward:
		return "forward"
	case Central:
		return "central"
	}
	return "unknown"
}

// Default finite-difference knobs.
const (
	// DefaultFDStep is the relative step fraction.
	DefaultFDStep = 1e-5

	// DefaultFDStepMin is the absolute step floor.
	DefaultFDStepMin = 1e-8
)

// Options configures a Model.
// Zero value is not meaningful; use DefaultOptions and override.
type Options struct {
	// Scheme selects the FD stencil for derivatives the Interface cannot
	// supply. Default: Forward.
	Scheme FDScheme

	// Step is the relative FD step: h_i = max(Step*|x_i|, StepMin).
	// Default: 1e-5.
	Step float64

	// StepMin is the absolute floor for h_i. Default: 1e-8.
	StepMin float64
}

// DefaultOptions returns production FD defaults.
func DefaultOptions() Options {
	return Options{Scheme: Forward, Step: DefaultFDStep, StepMin: DefaultFDStepMin}
}

// Validate checks the option combination.
func (o Options) Validate() error {
	if o.Step <= 0 || o.StepMin <= 0 || o.StepMin > o.Step {
		return ErrBadStep
	}
	if o.Scheme != Forward && o.Scheme != Central {
		return ErrBadStep
	}
	return nil
}
