package interfaces

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// ActivityRepository stores the workspace activity feed
type ActivityRepository interface {
	Put(ctx context.Context, activity *model.Activity) error

	// List returns the newest activities first. limit <= 0 returns all.
	List(ctx context.Context, workspaceID string, limit int) ([]*model.Activity, error)
}
