package interfaces

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// ConversationRepository stores conversations and their messages
type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) (*model.Conversation, error)
	Get(ctx context.Context, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error)

	// List returns the conversations of a workspace, most recently updated first
	List(ctx context.Context, workspaceID string) ([]*model.Conversation, error)

	// Delete removes the conversation with its messages and injection links
	Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID) error

	// AppendMessage stores a message and refreshes the conversation's UpdatedAt
	AppendMessage(ctx context.Context, workspaceID string, message *model.Message) (*model.Message, error)

	// ListMessages returns the last limit messages in chronological order.
	// limit <= 0 returns every message.
	ListMessages(ctx context.Context, workspaceID string, conversationID model.ConversationID, limit int) ([]*model.Message, error)

	// SetMessagePinned updates the pinned flag of one message and refreshes
	// the conversation's UpdatedAt
	SetMessagePinned(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID, pinned bool) (*model.Message, error)

	// DeleteMessage removes one message and refreshes the conversation's UpdatedAt
	DeleteMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error
}
