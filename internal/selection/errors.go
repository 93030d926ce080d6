package selection

import (
	"context"
	"errors"
	"fmt"

	"adaptivequiz/internal/completion"
)

// Reasons a selection fell back to the diversity selector. The engine never
// returns them; they end up in SelectionResult.DiagnosticError.
var (
	ErrNotConfigured       = errors.New("completion service not configured")
	ErrUpstreamUnavailable = errors.New("completion service unavailable")
	ErrUpstreamTimeout     = errors.New("completion service timed out")
	ErrUpstreamErrorMarker = errors.New("completion service reported an error")
	ErrEmptyResponse       = errors.New("completion response was empty")
	ErrUnparseable         = errors.New("completion response had no indices")
	ErrNoValidIndices      = errors.New("completion indices were out of range or duplicates")
	ErrInternal            = errors.New("selection failed internally")
	ErrDeadline            = errors.New("selection deadline exceeded")
)

// classify maps a completion client error onto the diagnostic taxonomy
func classify(err error) error {
	switch {
	case errors.Is(err, completion.ErrNotConfigured):
		return ErrNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

// reason is a short stable label used for metrics and log throttling keys
func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamErrorMarker):
		return "error_marker"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrUnparseable):
		return "unparseable"
	case errors.Is(err, ErrNoValidIndices):
		return "invalid_indices"
	case errors.Is(err, ErrInternal):
		return "internal"
	case errors.Is(err, ErrDeadline):
		return "deadline"
	default:
		return "unavailable"
	}
}
