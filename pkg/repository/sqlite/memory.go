package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

const memoryColumns = `id, workspace_id, title, content, snippet, tags, embedding,
	embedding_model, metadata, version, created_at, updated_at`

// memoryRow is the SQL row representation of model.Memory.
// Embedding uses the model.Embedding binary encoding; tags and metadata are JSON.
type memoryRow struct {
	ID             string `db:"id"`
	WorkspaceID    string `db:"workspace_id"`
	Title          string `db:"title"`
	Content        string `db:"content"`
	Snippet        string `db:"snippet"`
	Tags           string `db:"tags"`
	Embedding      []byte `db:"embedding"`
	EmbeddingModel string `db:"embedding_model"`
	Metadata       string `db:"metadata"`
	Version        int64  `db:"version"`
	CreatedAt      int64  `db:"created_at"`
	UpdatedAt      int64  `db:"updated_at"`
}

func toMemoryRow(m *model.Memory) (*memoryRow, error) {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := encodeJSON(tags)
	if err != nil {
		return nil, err
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := encodeJSON(metadata)
	if err != nil {
		return nil, err
	}

	row := &memoryRow{
		ID:             string(m.ID),
		WorkspaceID:    m.WorkspaceID,
		Title:          m.Title,
		Content:        m.Content,
		Snippet:        m.Snippet,
		Tags:           tagsJSON,
		EmbeddingModel: m.EmbeddingModel,
		Metadata:       metadataJSON,
		Version:        m.Version,
		CreatedAt:      toUnixNano(m.CreatedAt),
		UpdatedAt:      toUnixNano(m.UpdatedAt),
	}
	if m.HasEmbedding() {
		encoded, err := m.Embedding.MarshalBinary()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode embedding")
		}
		row.Embedding = encoded
	}
	return row, nil
}

func fromMemoryRow(row *memoryRow) (*model.Memory, error) {
	tags, err := decodeTags(row.Tags)
	if err != nil {
		return nil, err
	}
	metadata, err := decodeMetadata(row.Metadata)
	if err != nil {
		return nil, err
	}

	m := &model.Memory{
		ID:             model.MemoryID(row.ID),
		WorkspaceID:    row.WorkspaceID,
		Title:          row.Title,
		Content:        row.Content,
		Snippet:        row.Snippet,
		Tags:           tags,
		EmbeddingModel: row.EmbeddingModel,
		Metadata:       metadata,
		Version:        row.Version,
		CreatedAt:      fromUnixNano(row.CreatedAt),
		UpdatedAt:      fromUnixNano(row.UpdatedAt),
	}
	if len(row.Embedding) > 0 {
		if err := m.Embedding.UnmarshalBinary(row.Embedding); err != nil {
			return nil, goerr.Wrap(err, "failed to decode embedding", goerr.V(model.MemoryIDKey, row.ID))
		}
	}
	return m, nil
}

type memoryRepository struct {
	db *sqlx.DB
}

func notFound(workspaceID string, memoryID model.MemoryID) error {
	return goerr.Wrap(model.ErrNotFound, "memory not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.MemoryIDKey, memoryID))
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	created := mem.Copy()
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	if created.Version == 0 {
		created.Version = 1
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}

	row, err := toMemoryRow(created)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO memories (` + memoryColumns + `) VALUES (
		:id, :workspace_id, :title, :content, :snippet, :tags, :embedding,
		:embedding_model, :metadata, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(model.MemoryIDKey, created.ID))
	}

	return fromMemoryRow(row)
}

func (r *memoryRepository) Get(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	return getMemory(ctx, r.db, workspaceID, memoryID)
}

func getMemory(ctx context.Context, q sqlx.QueryerContext, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	var row memoryRow
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE workspace_id = ? AND id = ?`
	if err := sqlx.GetContext(ctx, q, &row, query, workspaceID, string(memoryID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(workspaceID, memoryID)
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}
	return fromMemoryRow(&row)
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory, expectedVersion int64) (*model.Memory, error) {
	row, err := toMemoryRow(mem)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// updated_at never stays equal to its previous value
	result, err := tx.ExecContext(ctx, `UPDATE memories SET
			title = ?, content = ?, snippet = ?, tags = ?, embedding = ?,
			embedding_model = ?, metadata = ?, version = version + 1,
			updated_at = MAX(?, updated_at + 1)
		WHERE workspace_id = ? AND id = ? AND version = ?`,
		row.Title, row.Content, row.Snippet, row.Tags, row.Embedding,
		row.EmbeddingModel, row.Metadata, toUnixNano(time.Now()),
		row.WorkspaceID, row.ID, expectedVersion,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V(model.MemoryIDKey, mem.ID))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		current, err := getMemory(ctx, tx, mem.WorkspaceID, mem.ID)
		if err != nil {
			return nil, err
		}
		return nil, goerr.Wrap(model.ErrConcurrencyConflict, "memory version mismatch",
			goerr.V(model.MemoryIDKey, mem.ID),
			goerr.V("expected", expectedVersion),
			goerr.V("actual", current.Version))
	}

	updated, err := getMemory(ctx, tx, mem.WorkspaceID, mem.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit memory update", goerr.V(model.MemoryIDKey, mem.ID))
	}
	return updated, nil
}

func (r *memoryRepository) Delete(ctx context.Context, workspaceID string, memoryID model.MemoryID) error {
	// injection_links rows go with the memory through ON DELETE CASCADE
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memories WHERE workspace_id = ? AND id = ?`, workspaceID, string(memoryID))
	if err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V(model.MemoryIDKey, memoryID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return notFound(workspaceID, memoryID)
	}
	return nil
}

func (r *memoryRepository) List(ctx context.Context, workspaceID string, opts ...interfaces.ListMemoryOption) ([]*model.Memory, error) {
	cfg := interfaces.BuildListMemoryConfig(opts...)

	var sb strings.Builder
	args := []any{workspaceID}
	sb.WriteString(`SELECT ` + memoryColumns + ` FROM memories WHERE workspace_id = ?`)
	if tags := cfg.Tags(); len(tags) > 0 {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(memories.tags) WHERE json_each.value IN (?))`)
		args = append(args, tags)
	}
	switch cfg.Sort() {
	case types.MemorySortTitle:
		sb.WriteString(` ORDER BY lower(title) ASC, id ASC`)
	default:
		sb.WriteString(` ORDER BY updated_at DESC, id ASC`)
	}
	if cfg.Limit() > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, cfg.Limit())
	}

	query, args, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to expand list query")
	}

	var rows []memoryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	memories := make([]*model.Memory, 0, len(rows))
	for i := range rows {
		m, err := fromMemoryRow(&rows[i])
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, nil
}

func (r *memoryRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete workspace memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read affected rows")
	}
	return int(affected), nil
}
