package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ClientFactory creates an LLM client bound to one model
type ClientFactory func(ctx context.Context, modelID string) (gollem.LLMClient, error)

// GollemProvider serves a provider family through gollem clients, one per
// model, created on first use.
type GollemProvider struct {
	kind      types.ProviderKind
	newClient ClientFactory

	mu      sync.Mutex
	clients map[string]gollem.LLMClient
}

func NewGollemProvider(kind types.ProviderKind, factory ClientFactory) *GollemProvider {
	return &GollemProvider{
		kind:      kind,
		newClient: factory,
		clients:   make(map[string]gollem.LLMClient),
	}
}

func (p *GollemProvider) Kind() types.ProviderKind {
	return p.kind
}

func (p *GollemProvider) client(ctx context.Context, modelID string) (gollem.LLMClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[modelID]; ok {
		return c, nil
	}
	c, err := p.newClient(ctx, modelID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM client", goerr.V("model", modelID))
	}
	p.clients[modelID] = c
	return c, nil
}

// Complete sends the system prompt as the session's system instruction and
// the history with the new message as the user input.
func (p *GollemProvider) Complete(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	client, err := p.client(ctx, modelID)
	if err != nil {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "LLM client unavailable",
			goerr.V("provider", p.kind),
			goerr.V("cause", err.Error()))
	}

	var sessionOpts []gollem.SessionOption
	if prompt := ac.SystemPrompt(); prompt != "" {
		sessionOpts = append(sessionOpts, gollem.WithSessionSystemPrompt(prompt))
	}
	session, err := client.NewSession(ctx, sessionOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session", goerr.V("provider", p.kind))
	}

	inputs := []gollem.Input{}
	if transcript := renderHistory(ac.History); transcript != "" {
		inputs = append(inputs, gollem.Text(transcript))
	}
	inputs = append(inputs, gollem.Text(ac.UserMessage))

	resp, err := session.GenerateContent(ctx, inputs...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("provider", p.kind))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "empty response from LLM",
			goerr.V("provider", p.kind),
			goerr.V("model", modelID))
	}

	return &model.Completion{
		Text:     strings.Join(resp.Texts, "\n"),
		ModelID:  modelID,
		Provider: p.kind,
	}, nil
}

func renderHistory(turns []model.ContextTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, turn := range turns {
		sb.WriteString(turn.Role.String())
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
