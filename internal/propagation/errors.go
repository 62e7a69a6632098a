package propagation

import (
	"errors"
	"fmt"
)

// The propagator fails in a closed set of ways. Callers branch on these with
// errors.Is / errors.As; everything else surfaced by this package wraps one
// of them.
var (
	// ErrUnknownGravityModel is returned for an unrecognized constant set.
	ErrUnknownGravityModel = errors.New("propagation: unknown gravitational constant set")

	// ErrHyperbolic is returned when the perturbed eccentricity vector
	// reaches or exceeds unity (elsq >= 1), leaving the elliptic regime the
	// model is defined on.
	ErrHyperbolic = errors.New("propagation: perturbed elements are hyperbolic")

	// ErrNoElements is returned by FindPosition before SetElements succeeds.
	ErrNoElements = errors.New("propagation: no elements bound")
)

// InvalidTleError reports an element that is outside the model's domain,
// detected when the TLE is bound.
type InvalidTleError struct {
	Field string
	Value float64
}

func (e *InvalidTleError) Error() string {
	return fmt.Sprintf("propagation: invalid TLE: %s = %g out of range", e.Field, e.Value)
}

// DecayedError reports an orbit the model predicts has decayed (or been
// driven below the surface) at the requested time. The binding stays valid;
// propagating the same object at a different time is allowed.
type DecayedError struct {
	Tsince float64 // minutes since epoch at which decay was detected
	Reason string
}

func (e *DecayedError) Error() string {
	return fmt.Sprintf("propagation: satellite decayed at tsince %.2f min: %s", e.Tsince, e.Reason)
}
