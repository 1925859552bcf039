package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Client produces raw embedding vectors. gollem.LLMClient satisfies it.
type Client interface {
	GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

// Generator turns text into model.Embedding with a bounded timeout, an
// outbound rate limit, duplicate call suppression and an LRU cache.
type Generator struct {
	cfg     Config
	client  Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, model.Embedding]
	group   singleflight.Group
}

var _ interfaces.Embedder = &Generator{}

// New creates a Generator over client
func New(client Client, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, goerr.New("embedding client is required")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid embedding config")
	}

	g := &Generator{cfg: cfg, client: client}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, model.Embedding](cfg.CacheSize)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create embedding cache")
		}
		g.cache = cache
	}

	return g, nil
}

// Config returns the generator's configuration
func (g *Generator) Config() Config {
	return g.cfg
}

func (g *Generator) Model() string {
	return g.cfg.ModelName()
}

func (g *Generator) Dimension() int {
	return g.cfg.Dimension
}

// Embed returns the embedding of text. Any failure, including a vector of
// the wrong dimension, is reported as model.ErrEmbeddingUnavailable.
// Concurrent calls for the same text share one provider call bounded by the
// configured timeout; a caller whose ctx ends stops waiting without
// failing the others.
func (g *Generator) Embed(ctx context.Context, text string) (model.Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrValidation, "cannot embed empty text")
	}

	key := cacheKey(text)
	if g.cache != nil {
		if vec, ok := g.cache.Get(key); ok {
			return vec.Copy(), nil
		}
	}

	// The shared call outlives any single caller; each caller waits on its own ctx
	ch := g.group.DoChan(key, func() (any, error) {
		return g.generate(context.WithoutCancel(ctx), text)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, unavailable(ctx.Err(), "embedding wait aborted", g.cfg)
	}
	if res.Err != nil {
		return nil, res.Err
	}

	vec := res.Val.(model.Embedding)
	if g.cache != nil {
		g.cache.Add(key, vec)
	}
	return vec.Copy(), nil
}

func (g *Generator) generate(ctx context.Context, text string) (model.Embedding, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, unavailable(err, "embedding rate limit wait aborted", g.cfg)
		}
	}

	vectors, err := g.client.GenerateEmbedding(ctx, g.cfg.Dimension, []string{text})
	if err != nil {
		return nil, unavailable(err, "embedding provider failed", g.cfg)
	}
	if len(vectors) != 1 {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "embedding provider returned unexpected vector count",
			goerr.V("count", len(vectors)),
			goerr.V("model", g.cfg.ModelName()))
	}
	if len(vectors[0]) != g.cfg.Dimension {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "embedding dimension mismatch",
			goerr.V("expected", g.cfg.Dimension),
			goerr.V("actual", len(vectors[0])),
			goerr.V("model", g.cfg.ModelName()))
	}

	vec := make(model.Embedding, len(vectors[0]))
	for i, f := range vectors[0] {
		vec[i] = float32(f)
	}

	logging.From(ctx).Debug("embedding generated",
		"model", g.cfg.ModelName(),
		"dimension", len(vec),
		"text_length", len(text))
	return vec, nil
}

func unavailable(cause error, msg string, cfg Config) error {
	return goerr.Wrap(model.ErrEmbeddingUnavailable, msg,
		goerr.V("cause", cause.Error()),
		goerr.V("model", cfg.ModelName()))
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
