package usecase

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/m-mizutani/goerr/v2"
)

// Warning is a non fatal condition reported with a successful result
type Warning string

const (
	// WarningEmbeddingUnavailable means the memory was stored without an
	// embedding and is not reachable by similarity search until re-embedded
	WarningEmbeddingUnavailable Warning = "embedding_unavailable"

	// WarningAutoExtractFailed means the reply was stored but automatic
	// memory extraction did not complete
	WarningAutoExtractFailed Warning = "auto_extract_failed"
)

// maxConflictRetries bounds internal retries of unconditional updates
const maxConflictRetries = 5

// accessGuard checks the caller in ctx against a workspace
type accessGuard struct {
	checker interfaces.AccessChecker
}

func (g *accessGuard) check(ctx context.Context, workspaceID string) error {
	if workspaceID == "" {
		return goerr.Wrap(model.ErrValidation, "workspace ID is required", goerr.V(model.FieldKey, "workspace_id"))
	}

	userID, ok := auth.UserFromContext(ctx)
	if !ok {
		return goerr.Wrap(model.ErrAccessDenied, "caller identity is missing", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	allowed, err := g.checker.HasAccess(ctx, userID, workspaceID)
	if err != nil {
		return goerr.Wrap(err, "failed to check workspace access",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.UserIDKey, userID))
	}
	if !allowed {
		return goerr.Wrap(model.ErrAccessDenied, "user is not a member of the workspace",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.UserIDKey, userID))
	}
	return nil
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, *model.Activity) {}
