package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/api/middleware"
	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/service"
)

// Pagination bounds for message pages
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Handler handles document API requests
type Handler struct {
	documents *service.DocumentService
	ingest    *service.IngestService
	logger    *zap.Logger
}

// NewHandler creates a new documents handler
func NewHandler(documents *service.DocumentService, ingest *service.IngestService, logger *zap.Logger) *Handler {
	return &Handler{documents: documents, ingest: ingest, logger: logger}
}

// RegisterRoutes registers document routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/documents", h.List)
	r.POST("/documents", h.Upload)
	r.GET("/documents/:id", h.Get)
	r.DELETE("/documents/:id", h.Delete)
	r.GET("/documents/:id/messages", h.Messages)
}

// List returns the caller's documents
func (h *Handler) List(c *gin.Context) {
	user := middleware.User(c)

	docs, err := h.documents.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.DocumentListResponse{Documents: docs, Total: len(docs)})
}

// Upload ingests a new document from a multipart file field named "file"
func (h *Handler) Upload(c *gin.Context) {
	user := middleware.User(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	doc, err := h.ingest.UploadDocument(c.Request.Context(), user.ID, file.Filename, src)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("document upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Get returns a single document's metadata
func (h *Handler) Get(c *gin.Context) {
	user := middleware.User(c)

	doc := h.authorize(c, user.ID)
	if doc == nil {
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete removes a document, its messages and its index namespace
func (h *Handler) Delete(c *gin.Context) {
	user := middleware.User(c)

	doc := h.authorize(c, user.ID)
	if doc == nil {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Messages returns one page of a document's conversation, newest first
func (h *Handler) Messages(c *gin.Context) {
	user := middleware.User(c)

	doc := h.authorize(c, user.ID)
	if doc == nil {
		return
	}

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		limit = n
	}

	page, err := h.documents.Messages(c.Request.Context(), doc, c.Query("cursor"), limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// authorize resolves the :id param through the ownership gate, writing the
// error response itself when the document is not available to the caller.
func (h *Handler) authorize(c *gin.Context, userID string) *domain.Document {
	doc, err := h.documents.Authorize(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil
	}
	return doc
}
