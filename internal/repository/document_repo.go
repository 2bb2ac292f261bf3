package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/paperchat/paperchat/internal/domain"
)

// DocumentRepository handles document persistence
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusProcessing
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, name, file_type, status, chunk_count, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.UserID, doc.Name, doc.FileType, doc.Status, doc.ChunkCount,
		doc.Error, doc.CreatedAt, doc.UpdatedAt)

	return err
}

// GetForUser retrieves a document by ID if it belongs to the user. Returns
// nil without error when there is no match.
func (r *DocumentRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Document, error) {
	doc := &domain.Document{}
	var errText sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, file_type, status, chunk_count, error, created_at, updated_at
		FROM documents WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.FileType, &doc.Status,
		&doc.ChunkCount, &errText, &doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if errText.Valid {
		doc.Error = errText.String
	}

	return doc, nil
}

// ListByUser retrieves all documents owned by a user, newest first
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, file_type, status, chunk_count, error, created_at, updated_at
		FROM documents WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc := &domain.Document{}
		var errText sql.NullString

		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.FileType, &doc.Status,
			&doc.ChunkCount, &errText, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}

		if errText.Valid {
			doc.Error = errText.String
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// UpdateStatus updates a document's ingestion status
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id, status string, chunkCount int, errText string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, chunk_count = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, status, chunkCount, errText, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete deletes a document. Its messages go with it (ON DELETE CASCADE).
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
