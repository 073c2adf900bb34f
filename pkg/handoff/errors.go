package handoff

import "github.com/randomizedcoder/handoff/internal/errs"

// Errors returned by New and Clone. Returned errors are classified and
// unwrap to one of these sentinels.
var (
	// ErrInvalidCapacity: capacity is zero, negative or not a power of two.
	ErrInvalidCapacity = errs.ErrInvalidCapacity

	// ErrUnsupportedElementType: the element type has zero size.
	ErrUnsupportedElementType = errs.ErrUnsupportedElementType

	// ErrAllocationFailure: slot storage could not be obtained.
	ErrAllocationFailure = errs.ErrAllocationFailure

	// ErrNotCloneable: Clone was called on an SPSC handle.
	ErrNotCloneable = errs.ErrNotCloneable

	// ErrMetricsRegistration: Prometheus collectors could not be registered.
	ErrMetricsRegistration = errs.ErrMetricsRegistration

	// ErrInvalidConfig: unknown wait mode or topology.
	ErrInvalidConfig = errs.ErrInvalidConfig
)
