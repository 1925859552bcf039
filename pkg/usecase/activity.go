package usecase

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type ActivityUseCase struct {
	repo  interfaces.Repository
	guard *accessGuard
}

func NewActivityUseCase(repo interfaces.Repository, guard *accessGuard) *ActivityUseCase {
	return &ActivityUseCase{repo: repo, guard: guard}
}

// ListActivities returns the newest activities of the workspace first
func (uc *ActivityUseCase) ListActivities(ctx context.Context, workspaceID string, limit int) ([]*model.Activity, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	activities, err := uc.repo.Activity().List(ctx, workspaceID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list activities", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	return activities, nil
}
