package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/paperchat/paperchat/internal/domain"
)

// MessageRepository is the append-only message log, keyed by document
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends a message to a document's log
func (r *MessageRepository) Insert(ctx context.Context, documentID, role, text string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Role:       role,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, document_id, role, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.DocumentID, msg.Role, msg.Text, msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// ListRecent returns the most recent n messages for a document, oldest first.
// An empty log yields an empty slice, not an error.
func (r *MessageRepository) ListRecent(ctx context.Context, documentID string, n int) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, role, text, created_at
		FROM messages WHERE document_id = ?
		ORDER BY created_at DESC, seq DESC LIMIT ?
	`, documentID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; the window is consumed oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ListPage returns one page of a document's messages, newest first. The cursor
// is the id of the last message of the previous page; empty means start from
// the newest.
func (r *MessageRepository) ListPage(ctx context.Context, documentID, cursor string, limit int) (*domain.MessagePage, error) {
	afterSeq := int64(0)
	if cursor != "" {
		err := r.db.QueryRowContext(ctx,
			`SELECT seq FROM messages WHERE id = ? AND document_id = ?`,
			cursor, documentID,
		).Scan(&afterSeq)
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	query := `
		SELECT id, document_id, role, text, created_at
		FROM messages WHERE document_id = ?
		ORDER BY created_at DESC, seq DESC LIMIT ?
	`
	args := []any{documentID, limit + 1}
	if afterSeq > 0 {
		query = `
			SELECT id, document_id, role, text, created_at
			FROM messages WHERE document_id = ? AND seq < ?
			ORDER BY created_at DESC, seq DESC LIMIT ?
		`
		args = []any{documentID, afterSeq, limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	page := &domain.MessagePage{Messages: messages}
	if len(messages) > limit {
		page.Messages = messages[:limit]
		page.NextCursor = messages[limit-1].ID
	}

	return page, nil
}

// CountForDocument returns the number of messages in a document's log
func (r *MessageRepository) CountForDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE document_id = ?`, documentID,
	).Scan(&count)
	return count, err
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		msg := &domain.Message{}
		if err := rows.Scan(&msg.ID, &msg.DocumentID, &msg.Role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
