package interfaces

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
)

// AccessChecker decides whether a user may act on a workspace
type AccessChecker interface {
	HasAccess(ctx context.Context, userID auth.UserID, workspaceID string) (bool, error)
}

// Embedder turns text into a fixed-length vector. Implementations return
// model.ErrEmbeddingUnavailable on failure.
type Embedder interface {
	Embed(ctx context.Context, text string) (model.Embedding, error)

	// Model returns the model name and version recorded on embedded memories
	Model() string

	// Dimension returns the pinned vector length
	Dimension() int
}

// Provider completes an assembled context with a specific model
type Provider interface {
	Kind() types.ProviderKind
	Complete(ctx context.Context, modelID string, input *model.AssembledContext) (*model.Completion, error)
}

// Dispatcher routes a model ID to the provider serving it
type Dispatcher interface {
	Call(ctx context.Context, modelID string, input *model.AssembledContext) (*model.Completion, error)
}

// ActivityNotifier records workspace activity. Failures never fail the caller.
type ActivityNotifier interface {
	Notify(ctx context.Context, activity *model.Activity)
}

// TokenCounter estimates the token size of text for budget decisions
type TokenCounter interface {
	Count(text string) int
}
