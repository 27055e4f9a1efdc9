package ports

import (
	"context"

	"github.com/asklegal/engine/internal/core/domain"
)

// QuestionAnswerer is the single inbound contract of the pipeline.
type QuestionAnswerer interface {
	Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}
