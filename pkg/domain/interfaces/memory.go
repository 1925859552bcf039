package interfaces

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// MemoryRepository defines the interface for Memory data persistence.
// Every method is scoped to one workspace; a memory of another workspace
// is reported as not found.
type MemoryRepository interface {
	// Create stores a new memory. ID, Version and timestamps set by the caller are kept.
	Create(ctx context.Context, memory *model.Memory) (*model.Memory, error)

	// Get retrieves a memory by ID
	Get(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error)

	// Update replaces the mutable fields of the stored memory only when its
	// version still equals expectedVersion. On success the stored version is
	// expectedVersion+1 and UpdatedAt is refreshed. A version mismatch
	// returns model.ErrConcurrencyConflict.
	Update(ctx context.Context, memory *model.Memory, expectedVersion int64) (*model.Memory, error)

	// Delete removes the memory and every injection link referencing it
	Delete(ctx context.Context, workspaceID string, memoryID model.MemoryID) error

	// List returns the memories of a workspace
	List(ctx context.Context, workspaceID string, opts ...ListMemoryOption) ([]*model.Memory, error)

	// DeleteByWorkspace removes all memories (and their links) of a workspace
	// and returns how many memories were deleted
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}
