package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/embedding"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	EmbeddingHash   = "hash"
	EmbeddingGemini = "gemini"
	EmbeddingOpenAI = "openai"
)

// Embedding holds CLI flags for the embedding generator
type Embedding struct {
	backend   string
	modelName string
	version   string
	dimension int
	timeout   time.Duration
	rate      float64
	burst     int
	cacheSize int
}

func (x *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-backend",
			Usage:       "Embedding backend (hash, gemini, openai)",
			Category:    "Embedding",
			Value:       EmbeddingHash,
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name recorded on memories (defaults to the backend name)",
			Category:    "Embedding",
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_MODEL"),
			Destination: &x.modelName,
		},
		&cli.StringFlag{
			Name:        "embedding-model-version",
			Usage:       "Embedding model version recorded on memories",
			Category:    "Embedding",
			Value:       "1",
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_MODEL_VERSION"),
			Destination: &x.version,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Category:    "Embedding",
			Value:       model.DefaultEmbeddingDimension,
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_DIMENSION"),
			Destination: &x.dimension,
		},
		&cli.DurationFlag{
			Name:        "embedding-timeout",
			Usage:       "Timeout of one embedding call",
			Category:    "Embedding",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.FloatFlag{
			Name:        "embedding-rate",
			Usage:       "Maximum embedding calls per second (0 means unlimited)",
			Category:    "Embedding",
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_RATE"),
			Destination: &x.rate,
		},
		&cli.IntFlag{
			Name:        "embedding-burst",
			Usage:       "Burst size of the embedding rate limit",
			Category:    "Embedding",
			Value:       1,
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_BURST"),
			Destination: &x.burst,
		},
		&cli.IntFlag{
			Name:        "embedding-cache-size",
			Usage:       "Number of embedded texts kept in memory (0 disables the cache)",
			Category:    "Embedding",
			Value:       1024,
			Sources:     cli.EnvVars("CHIMERA_EMBEDDING_CACHE_SIZE"),
			Destination: &x.cacheSize,
		},
	}
}

func (x Embedding) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("model", x.modelName),
		slog.Int("dimension", x.dimension),
	)
}

// Configure builds the embedding generator for the selected backend. The
// gemini and openai backends need their client flags.
func (x *Embedding) Configure(ctx context.Context, gemini *Gemini, openai *OpenAI) (*embedding.Generator, error) {
	var client embedding.Client
	switch x.backend {
	case "", EmbeddingHash:
		client = embedding.NewHashClient()

	case EmbeddingGemini:
		c, err := gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, goerr.Wrap(ErrMissingFlag, "gemini-project is required for gemini embeddings", goerr.V(FlagKey, "gemini-project"))
		}
		client = c

	case EmbeddingOpenAI:
		c, err := openai.Configure(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, goerr.Wrap(ErrMissingFlag, "openai-api-key is required for openai embeddings", goerr.V(FlagKey, "openai-api-key"))
		}
		client = c

	default:
		return nil, goerr.Wrap(ErrInvalidFlag, "invalid embedding backend",
			goerr.V(FlagKey, "embedding-backend"),
			goerr.V("backend", x.backend))
	}

	name := x.modelName
	if name == "" {
		name = x.backend
		if name == "" {
			name = EmbeddingHash
		}
	}

	gen, err := embedding.New(client,
		embedding.WithModel(name, x.version),
		embedding.WithDimension(x.dimension),
		embedding.WithTimeout(x.timeout),
		embedding.WithRateLimit(x.rate, x.burst),
		embedding.WithCacheSize(x.cacheSize),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidFlag, "invalid embedding configuration", goerr.V("cause", err.Error()))
	}
	return gen, nil
}
