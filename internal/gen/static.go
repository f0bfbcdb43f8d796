package gen

import (
	"context"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/logger"
)

// Compile-time interface check.
var _ domain.Generator = (*Static)(nil)

// Static is a generator that speaks the event description verbatim. Used
// when no chat endpoint is configured, so the pipeline stays exercisable
// end to end without credentials.
type Static struct {
	log *logger.Logger
}

// NewStatic creates a pass-through generator.
func NewStatic(log *logger.Logger) *Static {
	return &Static{log: log}
}

// Generate returns the description unchanged.
func (s *Static) Generate(ctx context.Context, description string) (string, error) {
	s.log.Debug("static gen: %s", description)
	return description, nil
}
