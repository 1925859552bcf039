package interfaces

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// InjectionRepository stores conversation to memory links
type InjectionRepository interface {
	// Put creates the link unless the pair already exists. created is false
	// for an existing pair, whose InjectedAt is left unchanged.
	Put(ctx context.Context, link *model.InjectionLink) (created bool, err error)

	// Delete removes the link. Removing an absent link is not an error.
	Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) error

	// List returns the links of a conversation ordered by InjectedAt ascending
	List(ctx context.Context, workspaceID string, conversationID model.ConversationID) ([]*model.InjectionLink, error)
}
