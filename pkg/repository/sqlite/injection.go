package sqlite

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

type injectionRow struct {
	ConversationID string `db:"conversation_id"`
	MemoryID       string `db:"memory_id"`
	WorkspaceID    string `db:"workspace_id"`
	InjectedAt     int64  `db:"injected_at"`
}

type injectionRepository struct {
	db *sqlx.DB
}

func (r *injectionRepository) Put(ctx context.Context, link *model.InjectionLink) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// Both ends are checked in the same transaction as the insert so a
	// concurrent delete cannot leave a dangling link behind.
	found, err := rowExists(ctx, tx, `SELECT EXISTS (SELECT 1 FROM memories WHERE workspace_id = ? AND id = ?)`,
		link.WorkspaceID, string(link.MemoryID))
	if err != nil {
		return false, goerr.Wrap(err, "failed to check memory", goerr.V(model.MemoryIDKey, link.MemoryID))
	}
	if !found {
		return false, notFound(link.WorkspaceID, link.MemoryID)
	}
	found, err = rowExists(ctx, tx, `SELECT EXISTS (SELECT 1 FROM conversations WHERE workspace_id = ? AND id = ?)`,
		link.WorkspaceID, string(link.ConversationID))
	if err != nil {
		return false, goerr.Wrap(err, "failed to check conversation", goerr.V(model.ConversationIDKey, link.ConversationID))
	}
	if !found {
		return false, conversationNotFound(link.WorkspaceID, link.ConversationID)
	}

	// The primary key on (conversation_id, memory_id) makes a repeated pair a no-op.
	result, err := tx.ExecContext(ctx, `INSERT INTO injection_links
			(conversation_id, memory_id, workspace_id, injected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (conversation_id, memory_id) DO NOTHING`,
		string(link.ConversationID), string(link.MemoryID), link.WorkspaceID, toUnixNano(link.InjectedAt),
	)
	if err != nil {
		return false, goerr.Wrap(err, "failed to put injection link",
			goerr.V(model.ConversationIDKey, link.ConversationID),
			goerr.V(model.MemoryIDKey, link.MemoryID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read affected rows")
	}
	if err := tx.Commit(); err != nil {
		return false, goerr.Wrap(err, "failed to commit injection link",
			goerr.V(model.ConversationIDKey, link.ConversationID),
			goerr.V(model.MemoryIDKey, link.MemoryID))
	}
	return affected > 0, nil
}

func rowExists(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (bool, error) {
	var found bool
	if err := sqlx.GetContext(ctx, q, &found, query, args...); err != nil {
		return false, err
	}
	return found, nil
}

func (r *injectionRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM injection_links WHERE workspace_id = ? AND conversation_id = ? AND memory_id = ?`,
		workspaceID, string(conversationID), string(memoryID),
	); err != nil {
		return goerr.Wrap(err, "failed to delete injection link",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MemoryIDKey, memoryID))
	}
	return nil
}

func (r *injectionRepository) List(ctx context.Context, workspaceID string, conversationID model.ConversationID) ([]*model.InjectionLink, error) {
	var rows []injectionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT conversation_id, memory_id, workspace_id, injected_at
		FROM injection_links
		WHERE workspace_id = ? AND conversation_id = ?
		ORDER BY injected_at ASC, memory_id ASC`,
		workspaceID, string(conversationID),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to list injection links", goerr.V(model.ConversationIDKey, conversationID))
	}

	links := make([]*model.InjectionLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, &model.InjectionLink{
			ConversationID: model.ConversationID(row.ConversationID),
			MemoryID:       model.MemoryID(row.MemoryID),
			WorkspaceID:    row.WorkspaceID,
			InjectedAt:     fromUnixNano(row.InjectedAt),
		})
	}
	return links, nil
}
