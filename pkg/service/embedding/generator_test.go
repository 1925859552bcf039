package embedding_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/embedding"
	"github.com/m-mizutani/gt"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return m.generateEmbeddingFn(ctx, dimension, input)
}

func constantVector(dim int, v float64) [][]float64 {
	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = v
	}
	return [][]float64{vec}
}

func TestGenerator_Embed(t *testing.T) {
	t.Run("returns vector of configured dimension", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gt.Number(t, dimension).Equal(4)
				gt.Array(t, input).Length(1).Required()
				gt.Value(t, input[0]).Equal("hello world")
				return [][]float64{{0.1, 0.2, 0.3, 0.4}}, nil
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4))
		gt.NoError(t, err).Required()

		vec, err := gen.Embed(context.Background(), "hello world")
		gt.NoError(t, err).Required()
		gt.Number(t, vec.Dimension()).Equal(4)
		gt.Value(t, vec[3]).Equal(float32(0.4))
	})

	t.Run("dimension mismatch is reported as unavailable", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return constantVector(3, 1), nil
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4))
		gt.NoError(t, err).Required()

		_, err = gen.Embed(context.Background(), "text")
		gt.Error(t, err).Is(model.ErrEmbeddingUnavailable)
	})

	t.Run("provider failure is reported as unavailable", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4))
		gt.NoError(t, err).Required()

		_, err = gen.Embed(context.Background(), "text")
		gt.Error(t, err).Is(model.ErrEmbeddingUnavailable)
	})

	t.Run("timeout is reported as unavailable", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}

		gen, err := embedding.New(client,
			embedding.WithDimension(4),
			embedding.WithTimeout(10*time.Millisecond))
		gt.NoError(t, err).Required()

		_, err = gen.Embed(context.Background(), "slow")
		gt.Error(t, err).Is(model.ErrEmbeddingUnavailable)
	})

	t.Run("empty text is rejected without calling provider", func(t *testing.T) {
		var called atomic.Int32
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				called.Add(1)
				return constantVector(dimension, 1), nil
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4))
		gt.NoError(t, err).Required()

		_, err = gen.Embed(context.Background(), "   ")
		gt.Error(t, err).Is(model.ErrValidation)
		gt.Number(t, called.Load()).Equal(0)
	})

	t.Run("cache serves repeated text", func(t *testing.T) {
		var called atomic.Int32
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				called.Add(1)
				return constantVector(dimension, 0.5), nil
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4))
		gt.NoError(t, err).Required()

		first, err := gen.Embed(context.Background(), "same")
		gt.NoError(t, err).Required()
		first[0] = 99

		second, err := gen.Embed(context.Background(), "same")
		gt.NoError(t, err).Required()
		gt.Number(t, called.Load()).Equal(1)
		gt.Value(t, second[0]).Equal(float32(0.5))
	})

	t.Run("concurrent calls for same text are merged", func(t *testing.T) {
		var called atomic.Int32
		release := make(chan struct{})
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				called.Add(1)
				<-release
				return constantVector(dimension, 1), nil
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4), embedding.WithCacheSize(0))
		gt.NoError(t, err).Required()

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := gen.Embed(context.Background(), "shared")
				gt.NoError(t, err)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		gt.Number(t, called.Load()).Equal(1)
	})

	t.Run("cancelled caller does not fail merged callers", func(t *testing.T) {
		var called atomic.Int32
		release := make(chan struct{})
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				called.Add(1)
				select {
				case <-release:
					return constantVector(dimension, 1), nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		}

		gen, err := embedding.New(client, embedding.WithDimension(4), embedding.WithCacheSize(0))
		gt.NoError(t, err).Required()

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := gen.Embed(ctxA, "shared")
			errA <- err
		}()
		time.Sleep(20 * time.Millisecond)

		type result struct {
			vec model.Embedding
			err error
		}
		resB := make(chan result, 1)
		go func() {
			vec, err := gen.Embed(context.Background(), "shared")
			resB <- result{vec: vec, err: err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancelA()
		gt.Error(t, <-errA).Is(model.ErrEmbeddingUnavailable)

		close(release)
		b := <-resB
		gt.NoError(t, b.err).Required()
		gt.Array(t, b.vec).Length(4)
		gt.Number(t, called.Load()).Equal(1)
	})
}

func TestGenerator_Model(t *testing.T) {
	gen, err := embedding.New(embedding.NewHashClient(), embedding.WithModel("text-embedding-004", "2"))
	gt.NoError(t, err).Required()
	gt.Value(t, gen.Model()).Equal("text-embedding-004@2")
	gt.Number(t, gen.Dimension()).Equal(model.DefaultEmbeddingDimension)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := embedding.New(embedding.NewHashClient(), embedding.WithDimension(0))
	gt.Value(t, err).NotNil()

	_, err = embedding.New(nil)
	gt.Value(t, err).NotNil()
}

func TestHashClient(t *testing.T) {
	ctx := context.Background()
	gen, err := embedding.New(embedding.NewHashClient(), embedding.WithDimension(256))
	gt.NoError(t, err).Required()

	a1, err := gen.Embed(ctx, "Go channels and goroutines")
	gt.NoError(t, err).Required()
	a2, err := gen.Embed(ctx, "Go channels and goroutines")
	gt.NoError(t, err).Required()
	related, err := gen.Embed(ctx, "goroutines talk over channels")
	gt.NoError(t, err).Required()
	unrelated, err := gen.Embed(ctx, "baking sourdough bread")
	gt.NoError(t, err).Required()

	gt.Value(t, a1).Equal(a2)

	norm := a1.Norm()
	gt.Bool(t, norm > 0.999 && norm < 1.001).True()

	simRelated, ok := model.CosineSimilarity(a1, related)
	gt.Bool(t, ok).True()
	simUnrelated, ok := model.CosineSimilarity(a1, unrelated)
	gt.Bool(t, ok).True()
	gt.Bool(t, simRelated > simUnrelated).True()
}
