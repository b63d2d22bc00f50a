package qnode

import "github.com/pkg/errors"

// Failures surfaced by the gradient engine. Device failures propagate
// unchanged apart from call-site context; no retry policy is applied here.
var (
	// ErrAnalyticIneligible reports an explicit analytic-method request for
	// a parameter whose occurrences do not all support an analytic recipe.
	// This is never silently downgraded.
	ErrAnalyticIneligible = errors.New("analytic method ineligible for parameter")
	// ErrParamOutOfRange reports a parameter index outside [0, n).
	ErrParamOutOfRange = errors.New("parameter index out of range")
	// ErrUnknownMethod reports an unrecognized gradient method request.
	ErrUnknownMethod = errors.New("unknown gradient method")
	// ErrWireMismatch reports a device whose wire count differs from the
	// program's.
	ErrWireMismatch = errors.New("device wire count does not match program")
)
