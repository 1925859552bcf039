package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/extract"
	"github.com/ahammadshawki8/chimera/pkg/utils/errutil"
	"github.com/ahammadshawki8/chimera/pkg/utils/keylock"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// ContextConfig holds the deployment defaults of context assembly
type ContextConfig struct {
	Preamble      string
	HistoryWindow int
	Budget        BudgetPolicy
	AutoExtract   bool
}

func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		Preamble:      model.DefaultSystemPreamble,
		HistoryWindow: model.DefaultHistoryWindow,
	}
}

// ContextOption overrides ContextConfig for one call
type ContextOption func(*ContextConfig)

// WithPreamble replaces the system preamble
func WithPreamble(preamble string) ContextOption {
	return func(c *ContextConfig) {
		c.Preamble = preamble
	}
}

// WithHistoryWindow sets how many prior turns are included. Zero keeps the
// default and a negative value includes no history.
func WithHistoryWindow(n int) ContextOption {
	return func(c *ContextConfig) {
		if n != 0 {
			c.HistoryWindow = n
		}
	}
}

func WithTokenBudget(maxTokens int) ContextOption {
	return func(c *ContextConfig) {
		c.Budget = BudgetPolicy{MaxTokens: maxTokens}
	}
}

// WithAutoExtract turns automatic memory extraction on or off for a send
func WithAutoExtract(enabled bool) ContextOption {
	return func(c *ContextConfig) {
		c.AutoExtract = enabled
	}
}

// SendResult is the outcome of SendMessage
type SendResult struct {
	UserMessage      *model.Message
	AssistantMessage *model.Message
	Completion       *model.Completion
	Context          *model.AssembledContext
	Budget           BudgetReport
	Extracted        []*model.Memory
	Warnings         []Warning
}

type ContextUseCase struct {
	repo       interfaces.Repository
	guard      *accessGuard
	dispatcher interfaces.Dispatcher
	notifier   interfaces.ActivityNotifier
	counter    interfaces.TokenCounter
	memory     *MemoryUseCase
	locker     *keylock.Locker
	cfg        ContextConfig
}

func NewContextUseCase(repo interfaces.Repository, guard *accessGuard, dispatcher interfaces.Dispatcher, notifier interfaces.ActivityNotifier, counter interfaces.TokenCounter, memory *MemoryUseCase, locker *keylock.Locker, cfg ContextConfig) *ContextUseCase {
	return &ContextUseCase{
		repo:       repo,
		guard:      guard,
		dispatcher: dispatcher,
		notifier:   notifier,
		counter:    counter,
		memory:     memory,
		locker:     locker,
		cfg:        cfg,
	}
}

func (uc *ContextUseCase) config(opts []ContextOption) ContextConfig {
	cfg := uc.cfg
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (uc *ContextUseCase) lock(ctx context.Context, conversationID model.ConversationID) (func(), error) {
	unlock, err := uc.locker.Lock(ctx, conversationID.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to lock conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	return unlock, nil
}

// BuildContext assembles the payload that would be sent for userMessage:
// preamble, active memories in injection order, the last turns of history
// in chronological order and the message itself.
func (uc *ContextUseCase) BuildContext(ctx context.Context, workspaceID string, conversationID model.ConversationID, userMessage string, opts ...ContextOption) (*model.AssembledContext, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	unlock, err := uc.lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}

	cfg := uc.config(opts)
	ac, _, err := uc.assemble(ctx, conv, userMessage, cfg)
	return ac, err
}

func (uc *ContextUseCase) assemble(ctx context.Context, conv *model.Conversation, userMessage string, cfg ContextConfig) (*model.AssembledContext, BudgetReport, error) {
	ac := &model.AssembledContext{
		ConversationID: conv.ID,
		Preamble:       cfg.Preamble,
		UserMessage:    userMessage,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		links, err := uc.repo.Injection().List(egCtx, conv.WorkspaceID, conv.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list injections", goerr.V(model.ConversationIDKey, conv.ID))
		}
		for _, link := range links {
			mem, err := uc.repo.Memory().Get(egCtx, conv.WorkspaceID, link.MemoryID)
			if err != nil {
				// Deleted between listing and loading; its link is gone too
				if errors.Is(err, model.ErrNotFound) {
					continue
				}
				return goerr.Wrap(err, "failed to get injected memory", goerr.V(model.MemoryIDKey, link.MemoryID))
			}
			ac.Memories = append(ac.Memories, model.ContextMemory{
				ID:      mem.ID,
				Title:   mem.Title,
				Content: mem.Content,
			})
		}
		return nil
	})

	if cfg.HistoryWindow > 0 {
		eg.Go(func() error {
			msgs, err := uc.repo.Conversation().ListMessages(egCtx, conv.WorkspaceID, conv.ID, cfg.HistoryWindow)
			if err != nil {
				return goerr.Wrap(err, "failed to list messages", goerr.V(model.ConversationIDKey, conv.ID))
			}
			for _, msg := range msgs {
				ac.History = append(ac.History, model.ContextTurn{Role: msg.Role, Content: msg.Content})
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, BudgetReport{}, err
	}

	report := cfg.Budget.Apply(ac, uc.counter)
	if report.DroppedHistory > 0 || report.DroppedMemories > 0 {
		logging.From(ctx).Info("context trimmed to token budget",
			"conversation_id", conv.ID,
			"max_tokens", cfg.Budget.MaxTokens,
			"dropped_history", report.DroppedHistory,
			"dropped_memories", report.DroppedMemories)
	}
	return ac, report, nil
}

// SendMessage stores the user message, calls the conversation's model with
// the context assembled from the history before it and stores the reply.
// Sends to one conversation are serialized. When the provider fails the
// user message stays stored, the result carries it and the error wraps
// model.ErrProviderUnavailable.
func (uc *ContextUseCase) SendMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, text string, opts ...ContextOption) (*SendResult, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrValidation, "message is required", goerr.V(model.FieldKey, "content"))
	}

	unlock, err := uc.lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}

	cfg := uc.config(opts)
	ac, report, err := uc.assemble(ctx, conv, text, cfg)
	if err != nil {
		return nil, err
	}

	userMsg, err := uc.repo.Conversation().AppendMessage(ctx, workspaceID,
		model.NewMessage(conv.ID, types.MessageRoleUser, text, nil))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store user message", goerr.V(model.ConversationIDKey, conv.ID))
	}
	result := &SendResult{UserMessage: userMsg, Context: ac, Budget: report}

	completion, err := uc.dispatcher.Call(ctx, conv.ModelID, ac)
	if err != nil {
		return result, goerr.Wrap(err, "failed to get reply",
			goerr.V(model.ConversationIDKey, conv.ID),
			goerr.V("model_id", conv.ModelID))
	}
	result.Completion = completion

	metadata := map[string]any{
		"model_used": completion.ModelID,
		"provider":   completion.Provider.String(),
	}
	if completion.Usage != nil {
		metadata["input_tokens"] = completion.Usage.InputTokens
		metadata["output_tokens"] = completion.Usage.OutputTokens
		metadata["tokens"] = completion.Usage.Total()
	}

	assistantMsg, err := uc.repo.Conversation().AppendMessage(ctx, workspaceID,
		model.NewMessage(conv.ID, types.MessageRoleAssistant, completion.Text, metadata))
	if err != nil {
		return result, goerr.Wrap(err, "failed to store reply", goerr.V(model.ConversationIDKey, conv.ID))
	}
	result.AssistantMessage = assistantMsg

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMessageSent,
		"Sent message in: "+conv.Title,
		map[string]any{"conversation_id": conv.ID.String(), "model_used": completion.ModelID, "memories": len(ac.Memories)}))

	if cfg.AutoExtract {
		extracted, err := uc.extractMemories(ctx, conv, text, completion)
		result.Extracted = extracted
		if err != nil {
			_ = errutil.Handle(ctx, err, "automatic memory extraction failed")
			result.Warnings = append(result.Warnings, WarningAutoExtractFailed)
		}
	}

	return result, nil
}

func (uc *ContextUseCase) extractMemories(ctx context.Context, conv *model.Conversation, userMessage string, completion *model.Completion) ([]*model.Memory, error) {
	var created []*model.Memory
	for _, c := range extract.Extract(userMessage, completion.Text) {
		res, err := uc.memory.CreateMemory(ctx, conv.WorkspaceID, CreateMemoryInput{
			Title:   c.Title,
			Content: c.Content,
			Tags:    c.Tags,
			Metadata: map[string]any{
				"source":           c.Source,
				"auto_extracted":   true,
				"importance":       string(c.Importance),
				"importance_score": c.Score,
				"conversation_id":  conv.ID.String(),
				"model_used":       completion.ModelID,
			},
		})
		if err != nil {
			return created, goerr.Wrap(err, "failed to store extracted memory", goerr.V(model.ConversationIDKey, conv.ID))
		}
		created = append(created, res.Memory)
	}
	return created, nil
}
