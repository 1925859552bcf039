package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

type injectionKey struct {
	workspaceID    string
	conversationID model.ConversationID
}

// Lock order is memories, conversations, then links. Deletes on the other
// repositories take their own lock before the links lock.
type injectionRepository struct {
	mu            sync.RWMutex
	links         map[injectionKey]map[model.MemoryID]*model.InjectionLink
	memories      *memoryRepository
	conversations *conversationRepository
}

func newInjectionRepository() *injectionRepository {
	return &injectionRepository{
		links: make(map[injectionKey]map[model.MemoryID]*model.InjectionLink),
	}
}

func (r *injectionRepository) Put(ctx context.Context, link *model.InjectionLink) (bool, error) {
	r.memories.mu.RLock()
	defer r.memories.mu.RUnlock()
	if _, exists := r.memories.entries[link.WorkspaceID][link.MemoryID]; !exists {
		return false, notFound(link.WorkspaceID, link.MemoryID)
	}

	r.conversations.mu.RLock()
	defer r.conversations.mu.RUnlock()
	convKey := conversationKey{workspaceID: link.WorkspaceID, conversationID: link.ConversationID}
	if _, exists := r.conversations.conversations[convKey]; !exists {
		return false, conversationNotFound(link.WorkspaceID, link.ConversationID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := injectionKey{workspaceID: link.WorkspaceID, conversationID: link.ConversationID}
	bucket, exists := r.links[key]
	if !exists {
		bucket = make(map[model.MemoryID]*model.InjectionLink)
		r.links[key] = bucket
	}
	if _, exists := bucket[link.MemoryID]; exists {
		return false, nil
	}

	copied := *link
	bucket[link.MemoryID] = &copied
	return true, nil
}

func (r *injectionRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := injectionKey{workspaceID: workspaceID, conversationID: conversationID}
	delete(r.links[key], memoryID)
	return nil
}

func (r *injectionRepository) List(ctx context.Context, workspaceID string, conversationID model.ConversationID) ([]*model.InjectionLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.links[injectionKey{workspaceID: workspaceID, conversationID: conversationID}]
	result := make([]*model.InjectionLink, 0, len(bucket))
	for _, link := range bucket {
		copied := *link
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].InjectedAt.Equal(result[j].InjectedAt) {
			return result[i].InjectedAt.Before(result[j].InjectedAt)
		}
		return result[i].MemoryID < result[j].MemoryID
	})

	return result, nil
}

func (r *injectionRepository) deleteByMemory(workspaceID string, memoryID model.MemoryID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, bucket := range r.links {
		if key.workspaceID == workspaceID {
			delete(bucket, memoryID)
		}
	}
}

func (r *injectionRepository) deleteByConversation(workspaceID string, conversationID model.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.links, injectionKey{workspaceID: workspaceID, conversationID: conversationID})
}
