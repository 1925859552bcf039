package provider

import (
	"context"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
)

// EchoProvider answers without calling any model. It is the fallback for
// unknown models and serves demos and tests.
type EchoProvider struct{}

func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

func (p *EchoProvider) Kind() types.ProviderKind {
	return types.ProviderEcho
}

func (p *EchoProvider) Complete(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	return &model.Completion{
		Text:     EchoReply(ac.UserMessage),
		ModelID:  modelID,
		Provider: types.ProviderEcho,
		Usage: &model.TokenUsage{
			InputTokens: len(strings.Fields(ac.UserMessage)),
		},
	}, nil
}

// EchoReply returns the fixed echo answer for message
func EchoReply(message string) string {
	return "[Echo Mode] Received: " + message +
		"\n\nThis is a demo response. Connect an LLM provider to get real AI responses."
}
