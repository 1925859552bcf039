package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

type conversationRow struct {
	ID          string `db:"id"`
	WorkspaceID string `db:"workspace_id"`
	Title       string `db:"title"`
	ModelID     string `db:"model_id"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (row *conversationRow) toModel() *model.Conversation {
	return &model.Conversation{
		ID:          model.ConversationID(row.ID),
		WorkspaceID: row.WorkspaceID,
		Title:       row.Title,
		ModelID:     row.ModelID,
		Status:      types.ConversationStatus(row.Status).Normalize(),
		CreatedAt:   fromUnixNano(row.CreatedAt),
		UpdatedAt:   fromUnixNano(row.UpdatedAt),
	}
}

type messageRow struct {
	ID             string `db:"id"`
	ConversationID string `db:"conversation_id"`
	Role           string `db:"role"`
	Content        string `db:"content"`
	Pinned         bool   `db:"pinned"`
	Metadata       string `db:"metadata"`
	CreatedAt      int64  `db:"created_at"`
}

func (row *messageRow) toModel() (*model.Message, error) {
	metadata, err := decodeMetadata(row.Metadata)
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ID:             model.MessageID(row.ID),
		ConversationID: model.ConversationID(row.ConversationID),
		Role:           types.MessageRole(row.Role),
		Content:        row.Content,
		Pinned:         row.Pinned,
		Metadata:       metadata,
		CreatedAt:      fromUnixNano(row.CreatedAt),
	}, nil
}

type conversationRepository struct {
	db *sqlx.DB
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

	if _, err := r.db.ExecContext(ctx, `INSERT INTO conversations
			(id, workspace_id, title, model_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(created.ID), created.WorkspaceID, created.Title, created.ModelID,
		created.Status.String(), toUnixNano(created.CreatedAt), toUnixNano(created.UpdatedAt),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V(model.ConversationIDKey, created.ID))
	}
	return &created, nil
}

func (r *conversationRepository) Get(ctx context.Context, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error) {
	return getConversation(ctx, r.db, workspaceID, conversationID)
}

func getConversation(ctx context.Context, q sqlx.QueryerContext, workspaceID string, conversationID model.ConversationID) (*model.Conversation, error) {
	var row conversationRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT id, workspace_id, title, model_id, status, created_at, updated_at
		FROM conversations WHERE workspace_id = ? AND id = ?`,
		workspaceID, string(conversationID),
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, conversationNotFound(workspaceID, conversationID)
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	return row.toModel(), nil
}

func (r *conversationRepository) List(ctx context.Context, workspaceID string) ([]*model.Conversation, error) {
	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, workspace_id, title, model_id, status, created_at, updated_at
		FROM conversations WHERE workspace_id = ? ORDER BY updated_at DESC, id ASC`,
		workspaceID,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	result := make([]*model.Conversation, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *conversationRepository) Delete(ctx context.Context, workspaceID string, conversationID model.ConversationID) error {
	// messages and injection_links follow through ON DELETE CASCADE
	result, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE workspace_id = ? AND id = ?`,
		workspaceID, string(conversationID))
	if err != nil {
		return goerr.Wrap(err, "failed to delete conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return conversationNotFound(workspaceID, conversationID)
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
	metadata, err := encodeJSON(stored.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getConversation(ctx, tx, workspaceID, stored.ConversationID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO messages
			(id, conversation_id, role, content, pinned, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(stored.ID), string(stored.ConversationID), stored.Role.String(), stored.Content,
		stored.Pinned, metadata, toUnixNano(stored.CreatedAt),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to insert message", goerr.V(model.ConversationIDKey, stored.ConversationID))
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`,
		toUnixNano(stored.CreatedAt), string(stored.ConversationID),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to touch conversation", goerr.V(model.ConversationIDKey, stored.ConversationID))
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit message", goerr.V(model.ConversationIDKey, stored.ConversationID))
	}
	return stored, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, workspaceID string, conversationID model.ConversationID, limit int) ([]*model.Message, error) {
	if _, err := getConversation(ctx, r.db, workspaceID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, conversation_id, role, content, pinned, metadata, created_at
		FROM (
			SELECT id, conversation_id, role, content, pinned, metadata, created_at, rowid AS seq
			FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, seq ASC`,
		string(conversationID), limit,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(model.ConversationIDKey, conversationID))
	}

	messages := make([]*model.Message, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func messageNotFound(workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	return goerr.Wrap(model.ErrNotFound, "message not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.ConversationIDKey, conversationID),
		goerr.V(model.MessageIDKey, messageID))
}

func touchConversation(ctx context.Context, tx *sqlx.Tx, conversationID model.ConversationID) error {
	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = MAX(?, updated_at + 1) WHERE id = ?`,
		toUnixNano(time.Now()), string(conversationID),
	); err != nil {
		return goerr.Wrap(err, "failed to touch conversation", goerr.V(model.ConversationIDKey, conversationID))
	}
	return nil
}

func (r *conversationRepository) SetMessagePinned(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID, pinned bool) (*model.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getConversation(ctx, tx, workspaceID, conversationID); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `UPDATE messages SET pinned = ? WHERE conversation_id = ? AND id = ?`,
		pinned, string(conversationID), string(messageID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update message", goerr.V(model.MessageIDKey, messageID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return nil, messageNotFound(workspaceID, conversationID, messageID)
	}
	if err := touchConversation(ctx, tx, conversationID); err != nil {
		return nil, err
	}

	var row messageRow
	if err := tx.GetContext(ctx, &row, `SELECT id, conversation_id, role, content, pinned, metadata, created_at
		FROM messages WHERE conversation_id = ? AND id = ?`,
		string(conversationID), string(messageID),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to get message", goerr.V(model.MessageIDKey, messageID))
	}

	if err := tx.Commit(); err != nil {
		return nil, goerr.Wrap(err, "failed to commit message update", goerr.V(model.MessageIDKey, messageID))
	}
	return row.toModel()
}

func (r *conversationRepository) DeleteMessage(ctx context.Context, workspaceID string, conversationID model.ConversationID, messageID model.MessageID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getConversation(ctx, tx, workspaceID, conversationID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ? AND id = ?`,
		string(conversationID), string(messageID))
	if err != nil {
		return goerr.Wrap(err, "failed to delete message", goerr.V(model.MessageIDKey, messageID))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return messageNotFound(workspaceID, conversationID, messageID)
	}
	if err := touchConversation(ctx, tx, conversationID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit message delete", goerr.V(model.MessageIDKey, messageID))
	}
	return nil
}
