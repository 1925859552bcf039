package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

type activityRepository struct {
	mu         sync.RWMutex
	activities map[string][]*model.Activity
}

func newActivityRepository() *activityRepository {
	return &activityRepository{
		activities: make(map[string][]*model.Activity),
	}
}

func (r *activityRepository) Put(ctx context.Context, activity *model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *activity
	r.activities[activity.WorkspaceID] = append(r.activities[activity.WorkspaceID], &copied)
	return nil
}

func (r *activityRepository) List(ctx context.Context, workspaceID string, limit int) ([]*model.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.activities[workspaceID]
	result := make([]*model.Activity, 0, len(src))
	for _, a := range src {
		copied := *a
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
