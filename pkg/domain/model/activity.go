package model

import (
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/google/uuid"
)

// ActivityID is a UUID-based identifier for Activity
type ActivityID string

// Activity is one entry of a workspace's activity feed
type Activity struct {
	ID          ActivityID
	WorkspaceID string
	Type        types.ActivityType
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewActivity creates an activity stamped with the current time
func NewActivity(workspaceID string, activityType types.ActivityType, description string, metadata map[string]any) *Activity {
	return &Activity{
		ID:          ActivityID(uuid.New().String()),
		WorkspaceID: workspaceID,
		Type:        activityType,
		Description: description,
		Metadata:    copyMetadata(metadata),
		CreatedAt:   time.Now().UTC(),
	}
}
