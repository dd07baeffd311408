package llm

import (
	"context"
	"fmt"

	"commentlens/internal/core"
)

// Unavailable is a TextGenerator used when no provider is configured. Every
// call errors, which routes the classifier and summarizer onto their
// deterministic fallbacks.
type Unavailable struct {
	Reason string
}

// GenerateText always fails with the configured reason.
func (u Unavailable) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	return "", fmt.Errorf("%w: %s", core.ErrExternalService, u.Reason)
}

// ModelName reports no model.
func (u Unavailable) ModelName() string {
	return ""
}
