package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type conversationKey struct {
	workspaceID    string
	conversationID model.ConversationID
}

type conversationRepository struct {
	mu            sync.RWMutex
	conversations map[conversationKey]*model.Conversation
	messages      map[conversationKey][]*model.Message
	injection     *injectionRepository
}

func newConversationRepository(injection *injectionRepository) *conversationRepository {
	return &conversationRepository{
		conversations: make(map[conversationKey]*model.Conversation),
		messages:      make(map[conversationKey][]*model.Message),
		injection:     injection,
	}
}

func conversationNotFound(workspaceID string, conversationID model.ConversationID) error {
	return goerr.Wrap(model.ErrNotFound, "conversation not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.ConversationIDKey, conversationID))
}

func messageNotFound(workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	return goerr.Wrap(model.ErrNotFound, "message not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.ConversationIDKey, conversationID),
		goerr.V(model.MessageIDKey, messageID))
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *conv
	if created.ID == "" {
		created.ID = model.NewConversationID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	created.Status = created.Status.Normalize()

	r.conversations[conversationKey{workspaceID: created.WorkspaceID, conversationID: created.ID}] = &created
	result := created
	return &result, nil
}

func (r *conversationRepository) Get(ctx context.Context, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, exists := r.conversations[conversationKey{workspaceID: workspaceID, conversationID: conversationID}]
	if !exists {
		return nil, conversationNotFound(workspaceID, conversationID)
	}
	result := *conv
	return &result, nil
}

func (r *conversationRepository) List(ctx context.Context, workspaceID string) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Conversation, 0)
	for key, conv := range r.conversations {
		if key.workspaceID != workspaceID {
			continue
		}
		copied := *conv
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *conversationRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationKey{workspaceID: workspaceID, conversationID: conversationID}
	if _, exists := r.conversations[key]; !exists {
		return conversationNotFound(workspaceID, conversationID)
	}

	delete(r.conversations, key)
	delete(r.messages, key)
	r.injection.deleteByConversation(workspaceID, conversationID)
	return nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, workspaceID string, msg *model.Message) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationKey{workspaceID: workspaceID, conversationID: msg.ConversationID}
	conv, exists := r.conversations[key]
	if !exists {
		return nil, conversationNotFound(workspaceID, msg.ConversationID)
	}

	stored := msg.Copy()
	if stored.ID == "" {
		stored.ID = model.NewMessageID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.messages[key] = append(r.messages[key], stored)
	conv.UpdatedAt = stored.CreatedAt
	return stored.Copy(), nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, workspaceID string, conversationID model.ConversationID, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := conversationKey{workspaceID: workspaceID, conversationID: conversationID}
	if _, exists := r.conversations[key]; !exists {
		return nil, conversationNotFound(workspaceID, conversationID)
	}

	all := r.messages[key]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}

	result := make([]*model.Message, 0, len(all)-start)
	for _, m := range all[start:] {
		result = append(result, m.Copy())
	}
	return result, nil
}

func (r *conversationRepository) SetMessagePinned(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID, pinned bool) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationKey{workspaceID: workspaceID, conversationID: conversationID}
	conv, exists := r.conversations[key]
	if !exists {
		return nil, conversationNotFound(workspaceID, conversationID)
	}

	for _, m := range r.messages[key] {
		if m.ID == messageID {
			m.Pinned = pinned
			conv.UpdatedAt = nextTimestamp(conv.UpdatedAt)
			return m.Copy(), nil
		}
	}
	return nil, messageNotFound(workspaceID, conversationID, messageID)
}

func (r *conversationRepository) DeleteMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationKey{workspaceID: workspaceID, conversationID: conversationID}
	conv, exists := r.conversations[key]
	if !exists {
		return conversationNotFound(workspaceID, conversationID)
	}

	msgs := r.messages[key]
	for i, m := range msgs {
		if m.ID == messageID {
			r.messages[key] = append(msgs[:i:i], msgs[i+1:]...)
			conv.UpdatedAt = nextTimestamp(conv.UpdatedAt)
			return nil
		}
	}
	return messageNotFound(workspaceID, conversationID, messageID)
}
