package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/search"
	"github.com/ahammadshawki8/chimera/pkg/utils/errutil"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// CreateMemoryInput holds the user supplied fields of a new memory
type CreateMemoryInput struct {
	Title    string
	Content  string
	Tags     []string
	Metadata map[string]any
}

// MemoryResult is a stored memory with the warnings raised while storing it
type MemoryResult struct {
	Memory   *model.Memory
	Warnings []Warning
}

type MemoryUseCase struct {
	repo     interfaces.Repository
	guard    *accessGuard
	embedder interfaces.Embedder
	engine   *search.Engine
	notifier interfaces.ActivityNotifier
}

func NewMemoryUseCase(repo interfaces.Repository, guard *accessGuard, embedder interfaces.Embedder, engine *search.Engine, notifier interfaces.ActivityNotifier) *MemoryUseCase {
	return &MemoryUseCase{
		repo:     repo,
		guard:    guard,
		embedder: embedder,
		engine:   engine,
		notifier: notifier,
	}
}

// CreateMemory stores a version 1 memory. The embedding is generated before
// storing; when that fails the memory is stored without one and the result
// carries WarningEmbeddingUnavailable.
func (uc *MemoryUseCase) CreateMemory(ctx context.Context, workspaceID string, input CreateMemoryInput) (*MemoryResult, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	mem := model.NewMemory(workspaceID, input.Title, input.Content, input.Tags, input.Metadata)
	if err := mem.Validate(); err != nil {
		return nil, err
	}

	result := &MemoryResult{}
	if !uc.attachEmbedding(ctx, mem) {
		result.Warnings = append(result.Warnings, WarningEmbeddingUnavailable)
	}

	created, err := uc.repo.Memory().Create(ctx, mem)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	result.Memory = created

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryCreated,
		"Created memory: "+created.Title,
		map[string]any{"memory_id": created.ID.String(), "title": created.Title}))

	return result, nil
}

// attachEmbedding embeds the memory's content and reports whether it succeeded
func (uc *MemoryUseCase) attachEmbedding(ctx context.Context, mem *model.Memory) bool {
	vec, err := uc.embedder.Embed(ctx, mem.Content)
	if err != nil {
		_ = errutil.Handle(ctx, err, "memory stored without embedding")
		mem.Embedding = nil
		mem.EmbeddingModel = ""
		return false
	}
	mem.Embedding = vec
	mem.EmbeddingModel = uc.embedder.Model()
	return true
}

func (uc *MemoryUseCase) GetMemory(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	mem, err := uc.repo.Memory().Get(ctx, workspaceID, memoryID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.MemoryIDKey, memoryID))
	}
	return mem, nil
}

func (uc *MemoryUseCase) ListMemories(ctx context.Context, workspaceID string, opts ...interfaces.ListMemoryOption) ([]*model.Memory, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	memories, err := uc.repo.Memory().List(ctx, workspaceID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	return memories, nil
}

// UpdateMemory applies the provided fields and bumps the version by one.
// With patch.ExpectedVersion set the update fails with
// model.ErrConcurrencyConflict when the stored version differs; without it
// the update is retried against the latest version. A content change
// regenerates the embedding, degrading to no embedding with a warning.
func (uc *MemoryUseCase) UpdateMemory(ctx context.Context, workspaceID string, memoryID model.MemoryID, patch model.MemoryPatch) (*MemoryResult, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	// The new content is fixed by the patch, so it is embedded at most once
	// across retries.
	var (
		embedded     bool
		embeddingVec model.Embedding
	)

	for attempt := 0; ; attempt++ {
		current, err := uc.repo.Memory().Get(ctx, workspaceID, memoryID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get memory",
				goerr.V(model.WorkspaceIDKey, workspaceID),
				goerr.V(model.MemoryIDKey, memoryID))
		}

		expected := current.Version
		if patch.ExpectedVersion != 0 {
			if patch.ExpectedVersion != current.Version {
				return nil, goerr.Wrap(model.ErrConcurrencyConflict, "memory was modified",
					goerr.V(model.MemoryIDKey, memoryID),
					goerr.V(model.VersionKey, current.Version),
					goerr.V("expected_version", patch.ExpectedVersion))
			}
			expected = patch.ExpectedVersion
		}

		next := current.Copy()
		contentChanged := patch.Apply(next)
		if err := next.Validate(); err != nil {
			return nil, err
		}

		result := &MemoryResult{}
		if contentChanged {
			if !embedded {
				vec, err := uc.embedder.Embed(ctx, next.Content)
				if err != nil {
					_ = errutil.Handle(ctx, err, "memory updated without embedding")
				}
				embedded, embeddingVec = true, vec
			}
			if embeddingVec == nil {
				result.Warnings = append(result.Warnings, WarningEmbeddingUnavailable)
			} else {
				next.Embedding = embeddingVec.Copy()
				next.EmbeddingModel = uc.embedder.Model()
			}
		}

		updated, err := uc.repo.Memory().Update(ctx, next, expected)
		if err != nil {
			if errors.Is(err, model.ErrConcurrencyConflict) && patch.ExpectedVersion == 0 && attempt < maxConflictRetries {
				logging.From(ctx).Debug("retrying memory update after conflict",
					"memory_id", memoryID,
					"attempt", attempt+1)
				continue
			}
			return nil, goerr.Wrap(err, "failed to update memory",
				goerr.V(model.WorkspaceIDKey, workspaceID),
				goerr.V(model.MemoryIDKey, memoryID))
		}
		result.Memory = updated

		uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryUpdated,
			"Updated memory: "+updated.Title,
			map[string]any{"memory_id": updated.ID.String(), "version": updated.Version}))

		return result, nil
	}
}

// ReEmbedMemory regenerates the embedding from the current content and bumps
// the version. An embedding failure returns model.ErrEmbeddingUnavailable
// and leaves the memory unchanged.
func (uc *MemoryUseCase) ReEmbedMemory(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		current, err := uc.repo.Memory().Get(ctx, workspaceID, memoryID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get memory",
				goerr.V(model.WorkspaceIDKey, workspaceID),
				goerr.V(model.MemoryIDKey, memoryID))
		}

		vec, err := uc.embedder.Embed(ctx, current.Content)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to re-embed memory", goerr.V(model.MemoryIDKey, memoryID))
		}

		next := current.Copy()
		next.Embedding = vec
		next.EmbeddingModel = uc.embedder.Model()

		updated, err := uc.repo.Memory().Update(ctx, next, current.Version)
		if err != nil {
			if errors.Is(err, model.ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return nil, goerr.Wrap(err, "failed to store embedding", goerr.V(model.MemoryIDKey, memoryID))
		}

		uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryUpdated,
			"Re-embedded memory: "+updated.Title,
			map[string]any{"memory_id": updated.ID.String(), "version": updated.Version, "embedding_model": updated.EmbeddingModel}))

		return updated, nil
	}
}

// DeleteMemory removes the memory and every injection link to it
func (uc *MemoryUseCase) DeleteMemory(ctx context.Context, workspaceID string, memoryID model.MemoryID) error {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return err
	}

	mem, err := uc.repo.Memory().Get(ctx, workspaceID, memoryID)
	if err != nil {
		return goerr.Wrap(err, "failed to get memory",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.MemoryIDKey, memoryID))
	}

	if err := uc.repo.Memory().Delete(ctx, workspaceID, memoryID); err != nil {
		return goerr.Wrap(err, "failed to delete memory",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.MemoryIDKey, memoryID))
	}

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryDeleted,
		"Deleted memory: "+mem.Title,
		map[string]any{"memory_id": memoryID.String(), "title": mem.Title}))

	return nil
}

// SearchMemories ranks the workspace's memories against query. A blank
// query returns the most recently updated memories without embedding
// anything; otherwise an embedding failure is returned as is.
func (uc *MemoryUseCase) SearchMemories(ctx context.Context, workspaceID, query string, topK int) ([]search.Result, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	memories, err := uc.repo.Memory().List(ctx, workspaceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	if strings.TrimSpace(query) == "" {
		return uc.engine.Recent(memories, topK), nil
	}

	vec, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	return uc.engine.Rank(vec, memories, topK), nil
}
