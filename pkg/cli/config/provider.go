package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/provider"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// Provider holds CLI flags for completion providers and model routing
type Provider struct {
	anthropicKey string
	maxTokens    int
	routesFile   string
	watchRoutes  bool
	timeout      time.Duration
	rate         float64
	burst        int
}

func (x *Provider) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Category:    "Provider",
			Sources:     cli.EnvVars("CHIMERA_ANTHROPIC_API_KEY"),
			Destination: &x.anthropicKey,
		},
		&cli.IntFlag{
			Name:        "anthropic-max-tokens",
			Usage:       "Maximum output tokens of an Anthropic reply",
			Category:    "Provider",
			Value:       2000,
			Sources:     cli.EnvVars("CHIMERA_ANTHROPIC_MAX_TOKENS"),
			Destination: &x.maxTokens,
		},
		&cli.StringFlag{
			Name:        "routes-file",
			Usage:       "TOML file overriding the model route table",
			Category:    "Provider",
			Sources:     cli.EnvVars("CHIMERA_ROUTES_FILE"),
			Destination: &x.routesFile,
		},
		&cli.BoolFlag{
			Name:        "watch-routes",
			Usage:       "Reload the routes file when it changes",
			Category:    "Provider",
			Sources:     cli.EnvVars("CHIMERA_WATCH_ROUTES"),
			Destination: &x.watchRoutes,
		},
		&cli.DurationFlag{
			Name:        "provider-timeout",
			Usage:       "Timeout of one completion call",
			Category:    "Provider",
			Value:       provider.DefaultTimeout,
			Sources:     cli.EnvVars("CHIMERA_PROVIDER_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.FloatFlag{
			Name:        "provider-rate",
			Usage:       "Maximum completion calls per second (0 means unlimited)",
			Category:    "Provider",
			Sources:     cli.EnvVars("CHIMERA_PROVIDER_RATE"),
			Destination: &x.rate,
		},
		&cli.IntFlag{
			Name:        "provider-burst",
			Usage:       "Burst size of the completion rate limit",
			Category:    "Provider",
			Value:       1,
			Sources:     cli.EnvVars("CHIMERA_PROVIDER_BURST"),
			Destination: &x.burst,
		},
	}
}

func (x Provider) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("anthropic-api-key.len", len(x.anthropicKey)),
		slog.String("routes_file", x.routesFile),
		slog.Bool("watch_routes", x.watchRoutes),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure builds the dispatcher with every provider whose credentials are
// present. The echo provider is always available.
func (x *Provider) Configure(ctx context.Context, gem *Gemini, oai *OpenAI) (*provider.Dispatcher, error) {
	routes := provider.DefaultRoutes()
	if x.routesFile != "" {
		loaded, err := provider.LoadRoutes(x.routesFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load routes file", goerr.V(ConfigPathKey, x.routesFile))
		}
		routes = loaded
	}

	opts := []provider.DispatcherOption{
		provider.WithRoutes(routes),
		provider.WithCallTimeout(x.timeout),
		provider.WithCallRateLimit(x.rate, x.burst),
	}

	if oai.IsConfigured() {
		opts = append(opts, provider.WithProvider(provider.NewGollemProvider(types.ProviderOpenAI,
			func(ctx context.Context, modelID string) (gollem.LLMClient, error) {
				return oai.Configure(ctx, openai.WithModel(modelID))
			})))
	}
	if gem.IsConfigured() {
		opts = append(opts, provider.WithProvider(provider.NewGollemProvider(types.ProviderGemini,
			func(ctx context.Context, modelID string) (gollem.LLMClient, error) {
				return gem.Configure(ctx, gemini.WithModel(modelID))
			})))
	}
	if x.anthropicKey != "" {
		opts = append(opts, provider.WithProvider(provider.NewAnthropicProvider(x.anthropicKey, int64(x.maxTokens))))
	}

	return provider.NewDispatcher(opts...), nil
}

// Watch keeps the dispatcher's routes in sync with the routes file until ctx
// is done. It does nothing unless both a file and watching are configured.
func (x *Provider) Watch(ctx context.Context, d *provider.Dispatcher) {
	if x.routesFile == "" || !x.watchRoutes {
		return
	}
	go func() {
		if err := provider.WatchRoutes(ctx, d, x.routesFile); err != nil {
			logging.From(ctx).Error("route watcher stopped", "error", err, "path", x.routesFile)
		}
	}()
}
