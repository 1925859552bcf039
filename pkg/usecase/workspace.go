package usecase

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type WorkspaceUseCase struct {
	repo  interfaces.Repository
	guard *accessGuard
}

func NewWorkspaceUseCase(repo interfaces.Repository, guard *accessGuard) *WorkspaceUseCase {
	return &WorkspaceUseCase{repo: repo, guard: guard}
}

// DeleteWorkspaceMemories removes every memory of the workspace together
// with their injection links and returns the number of deleted memories
func (uc *WorkspaceUseCase) DeleteWorkspaceMemories(ctx context.Context, workspaceID string) (int, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return 0, err
	}

	n, err := uc.repo.Memory().DeleteByWorkspace(ctx, workspaceID)
	if err != nil {
		return n, goerr.Wrap(err, "failed to delete workspace memories",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V("deleted", n))
	}

	logging.From(ctx).Info("workspace memories deleted", "workspace_id", workspaceID, "count", n)
	return n, nil
}

// ExportRecord is one line of a workspace export
type ExportRecord struct {
	ID                 string         `json:"id"`
	WorkspaceID        string         `json:"workspace_id"`
	Title              string         `json:"title"`
	Content            string         `json:"content"`
	Snippet            string         `json:"snippet"`
	Tags               []string       `json:"tags"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Embedding          []float32      `json:"embedding,omitempty"`
	EmbeddingModel     string         `json:"embedding_model,omitempty"`
	EmbeddingDimension int            `json:"embedding_dimension,omitempty"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// NewExportRecord converts a memory to its export form
func NewExportRecord(m *model.Memory) *ExportRecord {
	rec := &ExportRecord{
		ID:          m.ID.String(),
		WorkspaceID: m.WorkspaceID,
		Title:       m.Title,
		Content:     m.Content,
		Snippet:     m.Snippet,
		Tags:        m.Tags,
		Metadata:    m.Metadata,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if m.HasEmbedding() {
		rec.Embedding = m.Embedding
		rec.EmbeddingModel = m.EmbeddingModel
		rec.EmbeddingDimension = m.Embedding.Dimension()
	}
	return rec
}

// ExportWorkspace writes every memory of the workspace to w as JSON lines,
// most recently updated first, and returns the number of records written
func (uc *WorkspaceUseCase) ExportWorkspace(ctx context.Context, workspaceID string, w io.Writer) (int, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return 0, err
	}

	memories, err := uc.repo.Memory().List(ctx, workspaceID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	enc := json.NewEncoder(w)
	for i, m := range memories {
		if err := enc.Encode(NewExportRecord(m)); err != nil {
			return i, goerr.Wrap(err, "failed to write export record",
				goerr.V(model.WorkspaceIDKey, workspaceID),
				goerr.V(model.MemoryIDKey, m.ID))
		}
	}
	return len(memories), nil
}
