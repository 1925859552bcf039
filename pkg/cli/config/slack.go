package config

import (
	"log/slog"

	"github.com/ahammadshawki8/chimera/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for mirroring the activity feed to Slack. Either a
// bot token with a channel or an incoming webhook URL may be given.
type Slack struct {
	botToken   string
	channelID  string
	webhookURL string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("CHIMERA_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel receiving activity (with --slack-bot-token)",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("CHIMERA_SLACK_CHANNEL_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL receiving activity",
			Category:    "Slack",
			Destination: &x.webhookURL,
			Sources:     cli.EnvVars("CHIMERA_SLACK_WEBHOOK_URL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel_id", x.channelID),
		slog.Bool("webhook", x.webhookURL != ""),
	)
}

// IsConfigured checks if any Slack destination is configured
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" || x.webhookURL != ""
}

// Configure returns the Slack service, or nil when Slack is not configured.
// The bot token takes precedence over the webhook.
func (x *Slack) Configure() (slack.Service, error) {
	switch {
	case x.botToken != "":
		if x.channelID == "" {
			return nil, goerr.Wrap(ErrMissingFlag, "--slack-channel-id is required with --slack-bot-token",
				goerr.V(FlagKey, "slack-channel-id"))
		}
		return slack.New(x.botToken, x.channelID)
	case x.webhookURL != "":
		return slack.NewWebhook(x.webhookURL)
	default:
		return nil, nil
	}
}
