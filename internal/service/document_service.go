package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/index"
	"github.com/paperchat/paperchat/internal/repository"
)

// DocumentService owns document lookup, the ownership gate, and deletion
type DocumentService struct {
	documents *repository.DocumentRepository
	messages  *repository.MessageRepository
	index     *index.Index
	logger    *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documents *repository.DocumentRepository,
	messages *repository.MessageRepository,
	ix *index.Index,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		messages:  messages,
		index:     ix,
		logger:    logger,
	}
}

// Authorize is the single ownership gate: it returns the document only if it
// exists and belongs to the user, and ErrNotFound otherwise. A document that
// exists under another owner is indistinguishable from one that does not
// exist.
func (s *DocumentService) Authorize(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := s.documents.GetForUser(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// List returns the user's documents, newest first
func (s *DocumentService) List(ctx context.Context, userID string) ([]*domain.Document, error) {
	return s.documents.ListByUser(ctx, userID)
}

// Messages returns one page of a document's conversation for an authorized
// document, newest first.
func (s *DocumentService) Messages(ctx context.Context, doc *domain.Document, cursor string, limit int) (*domain.MessagePage, error) {
	return s.messages.ListPage(ctx, doc.ID, cursor, limit)
}

// Delete removes an authorized document, its messages (cascade) and its index
// namespace.
func (s *DocumentService) Delete(ctx context.Context, doc *domain.Document) error {
	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return err
	}

	if err := s.index.DeleteNamespace(doc.ID); err != nil {
		// The row and messages are gone; orphaned vectors only waste space.
		s.logger.Warn("failed to drop index namespace",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}

	return nil
}
