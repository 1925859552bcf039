package slack

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// Service mirrors workspace activity into Slack
type Service interface {
	// PostActivity posts a formatted activity entry
	PostActivity(ctx context.Context, activity *model.Activity) error
}
