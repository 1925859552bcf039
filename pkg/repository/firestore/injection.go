package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type injectionDoc struct {
	ConversationID string    `firestore:"ConversationID"`
	MemoryID       string    `firestore:"MemoryID"`
	WorkspaceID    string    `firestore:"WorkspaceID"`
	InjectedAt     time.Time `firestore:"InjectedAt"`
}

type injectionRepository struct {
	paths
}

func (r *injectionRepository) Put(ctx context.Context, link *model.InjectionLink) (bool, error) {
	memRef := r.memories(link.WorkspaceID).Doc(string(link.MemoryID))
	convRef := r.conversations(link.WorkspaceID).Doc(string(link.ConversationID))
	docRef := r.injections(link.WorkspaceID).Doc(injectionDocID(link.ConversationID, link.MemoryID))

	// Memory.Delete reads and deletes links in its own transaction, so the
	// two cannot interleave into a link pointing at a deleted memory.
	var created bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		if _, err := tx.Get(memRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(link.WorkspaceID, link.MemoryID)
			}
			return goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, link.MemoryID))
		}
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return conversationNotFound(link.WorkspaceID, link.ConversationID)
			}
			return goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, link.ConversationID))
		}

		if _, err := tx.Get(docRef); err == nil {
			return nil
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get injection link",
				goerr.V(model.ConversationIDKey, link.ConversationID),
				goerr.V(model.MemoryIDKey, link.MemoryID))
		}

		if err := tx.Create(docRef, &injectionDoc{
			ConversationID: string(link.ConversationID),
			MemoryID:       string(link.MemoryID),
			WorkspaceID:    link.WorkspaceID,
			InjectedAt:     link.InjectedAt,
		}); err != nil {
			return goerr.Wrap(err, "failed to put injection link",
				goerr.V(model.ConversationIDKey, link.ConversationID),
				goerr.V(model.MemoryIDKey, link.MemoryID))
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *injectionRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) error {
	// Deleting a missing document succeeds in Firestore
	docRef := r.injections(workspaceID).Doc(injectionDocID(conversationID, memoryID))
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete injection link",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MemoryIDKey, memoryID))
	}
	return nil
}

func (r *injectionRepository) List(ctx context.Context, workspaceID string, conversationID model.ConversationID) ([]*model.InjectionLink, error) {
	iter := r.injections(workspaceID).
		Where("ConversationID", "==", string(conversationID)).
		OrderBy("InjectedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	links := make([]*model.InjectionLink, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate injection links", goerr.V(model.ConversationIDKey, conversationID))
		}

		var d injectionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal injection link")
		}
		links = append(links, &model.InjectionLink{
			ConversationID: model.ConversationID(d.ConversationID),
			MemoryID:       model.MemoryID(d.MemoryID),
			WorkspaceID:    d.WorkspaceID,
			InjectedAt:     d.InjectedAt,
		})
	}
	return links, nil
}
