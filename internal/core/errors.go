package core

import "errors"

// Error taxonomy for the analysis pipeline. Stages wrap these with context via
// fmt.Errorf("...: %w", err) so callers can classify with errors.Is.
var (
	// ErrNotFound indicates an unknown job or result id.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates prerequisites were not met (e.g., empty post id).
	ErrValidation = errors.New("validation failed")

	// ErrExternalService indicates a model call failed or returned unusable output.
	ErrExternalService = errors.New("external service error")

	// ErrQualityBelowThreshold indicates a generated artifact failed the quality rubric.
	ErrQualityBelowThreshold = errors.New("quality below threshold")
)
