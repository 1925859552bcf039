package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type conversationDoc struct {
	ID          string    `firestore:"ID"`
	WorkspaceID string    `firestore:"WorkspaceID"`
	Title       string    `firestore:"Title"`
	ModelID     string    `firestore:"ModelID"`
	Status      string    `firestore:"Status"`
	CreatedAt   time.Time `firestore:"CreatedAt"`
	UpdatedAt   time.Time `firestore:"UpdatedAt"`
}

func (d *conversationDoc) toModel() *model.Conversation {
	return &model.Conversation{
		ID:          model.ConversationID(d.ID),
		WorkspaceID: d.WorkspaceID,
		Title:       d.Title,
		ModelID:     d.ModelID,
		Status:      types.ConversationStatus(d.Status).Normalize(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type messageDoc struct {
	ID             string         `firestore:"ID"`
	ConversationID string         `firestore:"ConversationID"`
	Role           string         `firestore:"Role"`
	Content        string         `firestore:"Content"`
	Pinned         bool           `firestore:"Pinned"`
	Metadata       map[string]any `firestore:"Metadata"`
	CreatedAt      time.Time      `firestore:"CreatedAt"`
}

func (d *messageDoc) toModel() *model.Message {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &model.Message{
		ID:             model.MessageID(d.ID),
		ConversationID: model.ConversationID(d.ConversationID),
		Role:           types.MessageRole(d.Role),
		Content:        d.Content,
		Pinned:         d.Pinned,
		Metadata:       metadata,
		CreatedAt:      d.CreatedAt,
	}
}

type conversationRepository struct {
	paths
}

func conversationNotFound(workspaceID string, conversationID model.ConversationID) error {
	return goerr.Wrap(model.ErrNotFound, "conversation not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.ConversationIDKey, conversationID))
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
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

	docRef := r.conversations(created.WorkspaceID).Doc(string(created.ID))
	if _, err := docRef.Create(ctx, &conversationDoc{
		ID:          string(created.ID),
		WorkspaceID: created.WorkspaceID,
		Title:       created.Title,
		ModelID:     created.ModelID,
		Status:      created.Status.String(),
		CreatedAt:   created.CreatedAt,
		UpdatedAt:   created.UpdatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V(model.ConversationIDKey, created.ID))
	}
	return &created, nil
}

func (r *conversationRepository) Get(ctx context.Context, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error) {
	doc, err := r.conversations(workspaceID).Doc(string(conversationID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, conversationNotFound(workspaceID, conversationID)
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, conversationID))
	}

	var d conversationDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	return d.toModel(), nil
}

func (r *conversationRepository) List(ctx context.Context, workspaceID string) ([]*model.Conversation, error) {
	iter := r.conversations(workspaceID).OrderBy("UpdatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Conversation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate conversations")
		}

		var d conversationDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal conversation")
		}
		result = append(result, d.toModel())
	}
	return result, nil
}

func (r *conversationRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID) error {
	docRef := r.conversations(workspaceID).Doc(string(conversationID))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return conversationNotFound(workspaceID, conversationID)
		}
		return goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, conversationID))
	}

	links := r.injections(workspaceID).Where("ConversationID", "==", string(conversationID))
	if _, err := deleteAll(ctx, links.Documents(ctx)); err != nil {
		return goerr.Wrap(err, "failed to delete injection links", goerr.V(model.ConversationIDKey, conversationID))
	}
	if _, err := deleteAll(ctx, r.messages(workspaceID, conversationID).Documents(ctx)); err != nil {
		return goerr.Wrap(err, "failed to delete messages", goerr.V(model.ConversationIDKey, conversationID))
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	return nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, workspaceID string, msg *model.Message) (*model.Message, error) {
	stored := msg.Copy()
	if stored.ID == "" {
		stored.ID = model.NewMessageID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	convRef := r.conversations(workspaceID).Doc(string(stored.ConversationID))
	msgRef := r.messages(workspaceID, stored.ConversationID).Doc(string(stored.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return conversationNotFound(workspaceID, stored.ConversationID)
			}
			return goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, stored.ConversationID))
		}

		if err := tx.Create(msgRef, &messageDoc{
			ID:             string(stored.ID),
			ConversationID: string(stored.ConversationID),
			Role:           stored.Role.String(),
			Content:        stored.Content,
			Pinned:         stored.Pinned,
			Metadata:       stored.Metadata,
			CreatedAt:      stored.CreatedAt,
		}); err != nil {
			return goerr.Wrap(err, "failed to create message")
		}

		return tx.Update(convRef, []firestore.Update{
			{Path: "UpdatedAt", Value: stored.CreatedAt},
		})
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, workspaceID string, conversationID model.ConversationID, limit int) ([]*model.Message, error) {
	if _, err := r.Get(ctx, workspaceID, conversationID); err != nil {
		return nil, err
	}

	q := r.messages(workspaceID, conversationID).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	messages := make([]*model.Message, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V(model.ConversationIDKey, conversationID))
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}
		messages = append(messages, d.toModel())
	}

	// newest first from the query, returned oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func messageNotFound(workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	return goerr.Wrap(model.ErrNotFound, "message not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.ConversationIDKey, conversationID),
		goerr.V(model.MessageIDKey, messageID))
}

// getMessageInTx reads the conversation and the message, both of which must
// exist. Reads come before any write in the transaction.
func (r *conversationRepository) getMessageInTx(tx *firestore.Transaction, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) (*conversationDoc, *messageDoc, error) {
	convSnap, err := tx.Get(r.conversations(workspaceID).Doc(string(conversationID)))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil, conversationNotFound(workspaceID, conversationID)
		}
		return nil, nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	var conv conversationDoc
	if err := convSnap.DataTo(&conv); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V(model.ConversationIDKey, conversationID))
	}

	msgSnap, err := tx.Get(r.messages(workspaceID, conversationID).Doc(string(messageID)))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil, messageNotFound(workspaceID, conversationID, messageID)
		}
		return nil, nil, goerr.Wrap(err, "failed to get message", goerr.V(model.MessageIDKey, messageID))
	}
	var msg messageDoc
	if err := msgSnap.DataTo(&msg); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V(model.MessageIDKey, messageID))
	}
	return &conv, &msg, nil
}

func (r *conversationRepository) SetMessagePinned(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID, pinned bool) (*model.Message, error) {
	convRef := r.conversations(workspaceID).Doc(string(conversationID))
	msgRef := r.messages(workspaceID, conversationID).Doc(string(messageID))

	var updated *messageDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		conv, msg, err := r.getMessageInTx(tx, workspaceID, conversationID, messageID)
		if err != nil {
			return err
		}

		if err := tx.Update(msgRef, []firestore.Update{{Path: "Pinned", Value: pinned}}); err != nil {
			return goerr.Wrap(err, "failed to update message", goerr.V(model.MessageIDKey, messageID))
		}
		if err := tx.Update(convRef, []firestore.Update{
			{Path: "UpdatedAt", Value: nextTimestamp(conv.UpdatedAt)},
		}); err != nil {
			return goerr.Wrap(err, "failed to touch conversation", goerr.V(model.ConversationIDKey, conversationID))
		}

		msg.Pinned = pinned
		updated = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.toModel(), nil
}

func (r *conversationRepository) DeleteMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	convRef := r.conversations(workspaceID).Doc(string(conversationID))
	msgRef := r.messages(workspaceID, conversationID).Doc(string(messageID))

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		conv, _, err := r.getMessageInTx(tx, workspaceID, conversationID, messageID)
		if err != nil {
			return err
		}

		if err := tx.Delete(msgRef); err != nil {
			return goerr.Wrap(err, "failed to delete message", goerr.V(model.MessageIDKey, messageID))
		}
		if err := tx.Update(convRef, []firestore.Update{
			{Path: "UpdatedAt", Value: nextTimestamp(conv.UpdatedAt)},
		}); err != nil {
			return goerr.Wrap(err, "failed to touch conversation", goerr.V(model.ConversationIDKey, conversationID))
		}
		return nil
	})
}
