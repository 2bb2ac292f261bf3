package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/index"
	"github.com/paperchat/paperchat/internal/repository"
)

// File type constants
const (
	FileTypeTXT = "txt"
	FileTypeMD  = "md"
)

// maxDocumentBytes caps an upload at 10 MiB
const maxDocumentBytes = 10 << 20

// DetectFileType detects file type from filename
func DetectFileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".text":
		return FileTypeTXT
	case ".md", ".markdown":
		return FileTypeMD
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// IsSupported checks if file type is supported
func IsSupported(fileType string) bool {
	return fileType == FileTypeTXT || fileType == FileTypeMD
}

// IngestService turns an uploaded document into an indexed namespace of
// embedded chunks plus a document row.
type IngestService struct {
	documents *repository.DocumentRepository
	index     *index.Index
	chunker   *Chunker
	logger    *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	documents *repository.DocumentRepository,
	ix *index.Index,
	chunker *Chunker,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		documents: documents,
		index:     ix,
		chunker:   chunker,
		logger:    logger,
	}
}

// UploadDocument ingests an uploaded file for a user: create the document
// row, chunk the text, embed and index each chunk under the document's own
// namespace, then mark the document ready. A failed ingestion leaves the row
// in failed status with the cause recorded.
func (s *IngestService) UploadDocument(ctx context.Context, userID, filename string, r io.Reader) (*domain.Document, error) {
	fileType := DetectFileType(filename)
	if !IsSupported(fileType) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidRequest, fileType)
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", domain.ErrInvalidRequest, maxDocumentBytes)
	}

	doc := &domain.Document{
		UserID:   userID,
		Name:     filepath.Base(filename),
		FileType: fileType,
		Status:   domain.DocumentStatusProcessing,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	chunks := s.chunker.Split(string(raw))
	if err := s.index.Add(ctx, doc.ID, chunks); err != nil {
		s.logger.Error("failed to index document",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		doc.Status = domain.DocumentStatusFailed
		doc.Error = err.Error()
		_ = s.documents.UpdateStatus(ctx, doc.ID, doc.Status, 0, doc.Error)
		return doc, nil
	}

	doc.Status = domain.DocumentStatusReady
	doc.ChunkCount = len(chunks)
	if err := s.documents.UpdateStatus(ctx, doc.ID, doc.Status, doc.ChunkCount, ""); err != nil {
		return nil, fmt.Errorf("update document status: %w", err)
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("chunks", doc.ChunkCount),
	)

	return doc, nil
}
