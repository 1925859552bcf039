package slack

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// client posts to a channel with a bot token
type client struct {
	api       *slack.Client
	channelID string
}

// New creates a Service posting to channelID with the provided bot token
func New(token, channelID string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &client{
		api:       slack.New(token),
		channelID: channelID,
	}, nil
}

func (c *client) PostActivity(ctx context.Context, activity *model.Activity) error {
	_, _, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionBlocks(buildActivityBlocks(activity)...),
		slack.MsgOptionText(activityText(activity), false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post activity to Slack",
			goerr.V("channel_id", c.channelID),
			goerr.V("activity_id", activity.ID))
	}
	return nil
}

// webhook posts through an incoming webhook URL
type webhook struct {
	url string
}

// NewWebhook creates a Service posting through an incoming webhook
func NewWebhook(url string) (Service, error) {
	if url == "" {
		return nil, goerr.New("Slack webhook URL is required")
	}
	return &webhook{url: url}, nil
}

func (w *webhook) PostActivity(ctx context.Context, activity *model.Activity) error {
	msg := &slack.WebhookMessage{
		Text:   activityText(activity),
		Blocks: &slack.Blocks{BlockSet: buildActivityBlocks(activity)},
	}
	if err := slack.PostWebhookContext(ctx, w.url, msg); err != nil {
		// The URL is a credential and is not logged
		return goerr.Wrap(err, "failed to post activity to Slack webhook", goerr.V("activity_id", activity.ID))
	}
	return nil
}
