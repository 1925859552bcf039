package model

import (
	"strings"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultConversationTitle is used when a conversation is created without a title
const DefaultConversationTitle = "New Conversation"

// ConversationID is a UUID-based identifier for Conversation
type ConversationID string

// NewConversationID generates a new UUID v4 ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

func (id ConversationID) String() string {
	return string(id)
}

// Conversation is a chat session in a workspace bound to one model ID
type Conversation struct {
	ID          ConversationID
	WorkspaceID string
	Title       string
	ModelID     string
	Status      types.ConversationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewConversation creates an active conversation
func NewConversation(workspaceID, title, modelID string) *Conversation {
	now := time.Now().UTC()
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultConversationTitle
	}
	return &Conversation{
		ID:          NewConversationID(),
		WorkspaceID: workspaceID,
		Title:       title,
		ModelID:     strings.TrimSpace(modelID),
		Status:      types.ConversationStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the conversation fields
func (c *Conversation) Validate() error {
	if c.WorkspaceID == "" {
		return goerr.Wrap(ErrValidation, "workspace ID is required", goerr.V(FieldKey, "workspace_id"))
	}
	if c.ModelID == "" {
		return goerr.Wrap(ErrValidation, "model ID is required", goerr.V(FieldKey, "model_id"))
	}
	if !c.Status.Normalize().IsValid() {
		return goerr.Wrap(ErrValidation, "invalid conversation status",
			goerr.V(FieldKey, "status"),
			goerr.V("status", c.Status))
	}
	return nil
}

// MessageID is a UUID-based identifier for Message
type MessageID string

// NewMessageID generates a new UUID v4 MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

func (id MessageID) String() string {
	return string(id)
}

// Message is a single turn in a conversation
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Role           types.MessageRole
	Content        string
	Pinned         bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// NewMessage creates a message stamped with the current time
func NewMessage(conversationID ConversationID, role types.MessageRole, content string, metadata map[string]any) *Message {
	return &Message{
		ID:             NewMessageID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       copyMetadata(metadata),
		CreatedAt:      time.Now().UTC(),
	}
}

// Copy returns a deep copy of the message
func (m *Message) Copy() *Message {
	if m == nil {
		return nil
	}
	copied := *m
	copied.Metadata = copyMetadata(m.Metadata)
	return &copied
}
