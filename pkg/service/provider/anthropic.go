package provider

import (
	"context"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

const defaultAnthropicMaxTokens = 2000

// AnthropicProvider calls the Anthropic Messages API
type AnthropicProvider struct {
	client    anthropic.Client
	maxTokens int64
}

func NewAnthropicProvider(apiKey string, maxTokens int64) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens: maxTokens,
	}
}

func (p *AnthropicProvider) Kind() types.ProviderKind {
	return types.ProviderAnthropic
}

func (p *AnthropicProvider) Complete(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: p.maxTokens,
		Messages:  anthropicMessages(ac.Turns()),
	}
	if prompt := ac.SystemPrompt(); prompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: prompt},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "anthropic API error",
			goerr.V("model", modelID),
			goerr.V("cause", err.Error()))
	}

	var texts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "empty response from anthropic", goerr.V("model", modelID))
	}

	usedModel := string(resp.Model)
	if usedModel == "" {
		usedModel = modelID
	}

	return &model.Completion{
		Text:     strings.Join(texts, "\n"),
		ModelID:  usedModel,
		Provider: types.ProviderAnthropic,
		Usage: &model.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// anthropicMessages converts turns to API messages. System turns are not
// accepted in the message list and are dropped.
func anthropicMessages(turns []model.ContextTurn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.MessageRoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case types.MessageRoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	return messages
}
