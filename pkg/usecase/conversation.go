package usecase

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type ConversationUseCase struct {
	repo     interfaces.Repository
	guard    *accessGuard
	notifier interfaces.ActivityNotifier
}

func NewConversationUseCase(repo interfaces.Repository, guard *accessGuard, notifier interfaces.ActivityNotifier) *ConversationUseCase {
	return &ConversationUseCase{
		repo:     repo,
		guard:    guard,
		notifier: notifier,
	}
}

func (uc *ConversationUseCase) CreateConversation(ctx context.Context, workspaceID, title, modelID string) (*model.Conversation, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	conv := model.NewConversation(workspaceID, title, modelID)
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.Conversation().Create(ctx, conv)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityConversationCreated,
		"Started conversation: "+created.Title,
		map[string]any{"conversation_id": created.ID.String(), "model_id": created.ModelID}))

	return created, nil
}

func (uc *ConversationUseCase) GetConversation(ctx context.Context, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	conv, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}
	return conv, nil
}

func (uc *ConversationUseCase) ListConversations(ctx context.Context, workspaceID string) ([]*model.Conversation, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	convs, err := uc.repo.Conversation().List(ctx, workspaceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	return convs, nil
}

// DeleteConversation removes the conversation, its messages and its links
func (uc *ConversationUseCase) DeleteConversation(ctx context.Context, workspaceID string, conversationID model.ConversationID) error {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return err
	}

	if err := uc.repo.Conversation().Delete(ctx, workspaceID, conversationID); err != nil {
		return goerr.Wrap(err, "failed to delete conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}
	return nil
}

// ListMessages returns the last limit messages in chronological order; all of them when limit <= 0
func (uc *ConversationUseCase) ListMessages(ctx context.Context, workspaceID string, conversationID model.ConversationID, limit int) ([]*model.Message, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	if _, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID); err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}

	msgs, err := uc.repo.Conversation().ListMessages(ctx, workspaceID, conversationID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(model.ConversationIDKey, conversationID))
	}
	return msgs, nil
}

// PinMessage sets or clears the pinned flag of one message
func (uc *ConversationUseCase) PinMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID, pinned bool) (*model.Message, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	msg, err := uc.repo.Conversation().SetMessagePinned(ctx, workspaceID, conversationID, messageID, pinned)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update message",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MessageIDKey, messageID),
			goerr.V("pinned", pinned))
	}
	return msg, nil
}

func (uc *ConversationUseCase) DeleteMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return err
	}

	if err := uc.repo.Conversation().DeleteMessage(ctx, workspaceID, conversationID, messageID); err != nil {
		return goerr.Wrap(err, "failed to delete message",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MessageIDKey, messageID))
	}
	return nil
}
