package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/provider"
	"github.com/m-mizutani/gt"
)

type mockProvider struct {
	kind       types.ProviderKind
	completeFn func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error)
}

func (m *mockProvider) Kind() types.ProviderKind {
	return m.kind
}

func (m *mockProvider) Complete(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	return m.completeFn(ctx, modelID, ac)
}

func newContext(msg string) *model.AssembledContext {
	return &model.AssembledContext{
		Preamble:    model.DefaultSystemPreamble,
		UserMessage: msg,
	}
}

func TestDispatcher_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("echo is available without configuration", func(t *testing.T) {
		d := provider.NewDispatcher()
		completion, err := d.Call(ctx, "echo", newContext("hello there"))
		gt.NoError(t, err).Required()
		gt.Value(t, completion.Text).Equal(provider.EchoReply("hello there"))
		gt.Value(t, completion.Provider).Equal(types.ProviderEcho)
		gt.Value(t, completion.Usage).NotNil()
		gt.Number(t, completion.Usage.InputTokens).Equal(2)
	})

	t.Run("unknown model falls back to echo", func(t *testing.T) {
		d := provider.NewDispatcher()
		completion, err := d.Call(ctx, "model-something-new", newContext("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, completion.Provider).Equal(types.ProviderEcho)
		gt.Value(t, completion.ModelID).Equal("something-new")
	})

	t.Run("routed provider receives API model name", func(t *testing.T) {
		var gotModel string
		d := provider.NewDispatcher(provider.WithProvider(&mockProvider{
			kind: types.ProviderAnthropic,
			completeFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				gotModel = modelID
				return &model.Completion{Text: "ok"}, nil
			},
		}))

		completion, err := d.Call(ctx, "claude-3.5-sonnet", newContext("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, gotModel).Equal("claude-3-5-sonnet-20241022")
		gt.Value(t, completion.Provider).Equal(types.ProviderAnthropic)
		gt.Value(t, completion.ModelID).Equal("claude-3-5-sonnet-20241022")
	})

	t.Run("unconfigured provider is unavailable", func(t *testing.T) {
		d := provider.NewDispatcher()
		_, err := d.Call(ctx, "gpt-4o", newContext("hi"))
		gt.Error(t, err).Is(model.ErrProviderUnavailable)
	})

	t.Run("provider failure is unavailable", func(t *testing.T) {
		d := provider.NewDispatcher(provider.WithProvider(&mockProvider{
			kind: types.ProviderOpenAI,
			completeFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				return nil, errors.New("503 service unavailable")
			},
		}))

		_, err := d.Call(ctx, "gpt-4o", newContext("hi"))
		gt.Error(t, err).Is(model.ErrProviderUnavailable)
	})

	t.Run("slow provider times out", func(t *testing.T) {
		d := provider.NewDispatcher(
			provider.WithCallTimeout(10*time.Millisecond),
			provider.WithProvider(&mockProvider{
				kind: types.ProviderOpenAI,
				completeFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			}),
		)

		_, err := d.Call(ctx, "gpt-4o", newContext("hi"))
		gt.Error(t, err).Is(model.ErrProviderUnavailable)
	})

	t.Run("reload swaps routes", func(t *testing.T) {
		d := provider.NewDispatcher(provider.WithProvider(&mockProvider{
			kind: types.ProviderOpenAI,
			completeFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				return &model.Completion{Text: "from openai"}, nil
			},
		}))

		completion, err := d.Call(ctx, "house-model", newContext("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, completion.Provider).Equal(types.ProviderEcho)

		routes, err := provider.NewRoutes([]provider.Route{
			{Model: "house-model", Provider: types.ProviderOpenAI},
		}, types.ProviderEcho)
		gt.NoError(t, err).Required()
		d.Reload(routes)

		completion, err = d.Call(ctx, "house-model", newContext("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, completion.Text).Equal("from openai")
	})
}
