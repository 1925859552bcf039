package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// OpenAI holds configuration for the OpenAI LLM client
type OpenAI struct {
	apiKey string
}

func (o *OpenAI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "OpenAI",
			Sources:     cli.EnvVars("CHIMERA_OPENAI_API_KEY"),
			Destination: &o.apiKey,
		},
	}
}

func (o OpenAI) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("api-key.len", len(o.apiKey)))
}

func (o *OpenAI) IsConfigured() bool {
	return o.apiKey != ""
}

// Configure creates an OpenAI client. Returns nil if no API key is set.
func (o *OpenAI) Configure(ctx context.Context, opts ...openai.Option) (gollem.LLMClient, error) {
	if o.apiKey == "" {
		return nil, nil
	}

	client, err := openai.New(ctx, o.apiKey, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create OpenAI client")
	}
	return client, nil
}
