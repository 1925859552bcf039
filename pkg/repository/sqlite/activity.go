package sqlite

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

type activityRow struct {
	ID          string `db:"id"`
	WorkspaceID string `db:"workspace_id"`
	Type        string `db:"type"`
	Description string `db:"description"`
	Metadata    string `db:"metadata"`
	CreatedAt   int64  `db:"created_at"`
}

type activityRepository struct {
	db *sqlx.DB
}

func (r *activityRepository) Put(ctx context.Context, activity *model.Activity) error {
	metadata, err := encodeJSON(activity.Metadata)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO activities
			(id, workspace_id, type, description, metadata, created_at)
		VALUES (:id, :workspace_id, :type, :description, :metadata, :created_at)`,
		&activityRow{
			ID:          string(activity.ID),
			WorkspaceID: activity.WorkspaceID,
			Type:        activity.Type.String(),
			Description: activity.Description,
			Metadata:    metadata,
			CreatedAt:   toUnixNano(activity.CreatedAt),
		},
	); err != nil {
		return goerr.Wrap(err, "failed to put activity", goerr.V("activity_id", activity.ID))
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, workspaceID string, limit int) ([]*model.Activity, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, workspace_id, type, description, metadata, created_at
		FROM activities WHERE workspace_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		workspaceID, limit,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to list activities", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	result := make([]*model.Activity, 0, len(rows))
	for _, row := range rows {
		metadata, err := decodeMetadata(row.Metadata)
		if err != nil {
			return nil, err
		}
		result = append(result, &model.Activity{
			ID:          model.ActivityID(row.ID),
			WorkspaceID: row.WorkspaceID,
			Type:        types.ActivityType(row.Type),
			Description: row.Description,
			Metadata:    metadata,
			CreatedAt:   fromUnixNano(row.CreatedAt),
		})
	}
	return result, nil
}
