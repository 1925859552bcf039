package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type activityDoc struct {
	ID          string         `firestore:"ID"`
	WorkspaceID string         `firestore:"WorkspaceID"`
	Type        string         `firestore:"Type"`
	Description string         `firestore:"Description"`
	Metadata    map[string]any `firestore:"Metadata"`
	CreatedAt   time.Time      `firestore:"CreatedAt"`
}

type activityRepository struct {
	paths
}

func (r *activityRepository) Put(ctx context.Context, activity *model.Activity) error {
	docRef := r.activities(activity.WorkspaceID).Doc(string(activity.ID))
	if _, err := docRef.Set(ctx, &activityDoc{
		ID:          string(activity.ID),
		WorkspaceID: activity.WorkspaceID,
		Type:        activity.Type.String(),
		Description: activity.Description,
		Metadata:    activity.Metadata,
		CreatedAt:   activity.CreatedAt,
	}); err != nil {
		return goerr.Wrap(err, "failed to put activity", goerr.V("activity_id", activity.ID))
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, workspaceID string, limit int) ([]*model.Activity, error) {
	q := r.activities(workspaceID).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Activity, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate activities")
		}

		var d activityDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal activity")
		}
		metadata := d.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		result = append(result, &model.Activity{
			ID:          model.ActivityID(d.ID),
			WorkspaceID: d.WorkspaceID,
			Type:        types.ActivityType(d.Type),
			Description: d.Description,
			Metadata:    metadata,
			CreatedAt:   d.CreatedAt,
		})
	}
	return result, nil
}
