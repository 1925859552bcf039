package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type memoryRepository struct {
	mu        sync.RWMutex
	entries   map[string]map[model.MemoryID]*model.Memory
	injection *injectionRepository
}

func newMemoryRepository(injection *injectionRepository) *memoryRepository {
	return &memoryRepository{
		entries:   make(map[string]map[model.MemoryID]*model.Memory),
		injection: injection,
	}
}

func notFound(workspaceID string, memoryID model.MemoryID) error {
	return goerr.Wrap(model.ErrNotFound, "memory not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.MemoryIDKey, memoryID))
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := mem.Copy()
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	if created.Version == 0 {
		created.Version = 1
	}
	now := time.Now().UTC()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	bucket, exists := r.entries[created.WorkspaceID]
	if !exists {
		bucket = make(map[model.MemoryID]*model.Memory)
		r.entries[created.WorkspaceID] = bucket
	}
	if _, exists := bucket[created.ID]; exists {
		return nil, goerr.Wrap(model.ErrValidation, "memory already exists",
			goerr.V(model.MemoryIDKey, created.ID))
	}

	bucket[created.ID] = created
	return created.Copy(), nil
}

func (r *memoryRepository) Get(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.entries[workspaceID][memoryID]
	if !exists {
		return nil, notFound(workspaceID, memoryID)
	}

	return mem.Copy(), nil
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory, expectedVersion int64) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.entries[mem.WorkspaceID][mem.ID]
	if !exists {
		return nil, notFound(mem.WorkspaceID, mem.ID)
	}
	if stored.Version != expectedVersion {
		return nil, goerr.Wrap(model.ErrConcurrencyConflict, "memory version mismatch",
			goerr.V(model.MemoryIDKey, mem.ID),
			goerr.V("expected", expectedVersion),
			goerr.V("actual", stored.Version))
	}

	updated := mem.Copy()
	updated.CreatedAt = stored.CreatedAt
	updated.Version = expectedVersion + 1
	updated.UpdatedAt = nextTimestamp(stored.UpdatedAt)

	r.entries[mem.WorkspaceID][mem.ID] = updated
	return updated.Copy(), nil
}

func (r *memoryRepository) Delete(ctx context.Context, workspaceID string, memoryID model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.entries[workspaceID]
	if _, exists := bucket[memoryID]; !exists {
		return notFound(workspaceID, memoryID)
	}

	delete(bucket, memoryID)
	r.injection.deleteByMemory(workspaceID, memoryID)
	return nil
}

func (r *memoryRepository) List(ctx context.Context, workspaceID string, opts ...interfaces.ListMemoryOption) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.entries[workspaceID]
	result := make([]*model.Memory, 0, len(bucket))
	for _, m := range bucket {
		result = append(result, m.Copy())
	}

	return interfaces.BuildListMemoryConfig(opts...).Apply(result), nil
}

func (r *memoryRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.entries[workspaceID]
	for id := range bucket {
		r.injection.deleteByMemory(workspaceID, id)
	}
	delete(r.entries, workspaceID)
	return len(bucket), nil
}

// nextTimestamp returns now, nudged forward when the clock has not advanced
// past prev, so UpdatedAt changes on every mutation.
func nextTimestamp(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
