package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/api/middleware"
	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/service"
)

// Handler handles chat API requests
type Handler struct {
	chat      *service.ChatService
	documents *service.DocumentService
	logger    *zap.Logger
}

// NewHandler creates a new chat handler
func NewHandler(chat *service.ChatService, documents *service.DocumentService, logger *zap.Logger) *Handler {
	return &Handler{chat: chat, documents: documents, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/messages", h.SendMessage)
}

// SendMessage handles POST /api/messages. The response is a plain streamed
// text body: fragments are written in generation order as they arrive and the
// end of the body is the end of the answer. There is no framing, so a
// mid-stream generation failure is signalled by severing the connection
// before the terminating chunk; the client sees truncation instead of a clean
// end.
func (h *Handler) SendMessage(c *gin.Context) {
	user := middleware.User(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.documents.Authorize(c.Request.Context(), user.ID, req.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stream, err := h.chat.SendMessage(c.Request.Context(), doc, req.Message)
	if err != nil {
		h.logger.Error("failed to start chat stream",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer message"})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for chunk := range stream {
		switch chunk.Type {
		case domain.ChunkContent:
			if _, err := c.Writer.WriteString(chunk.Content); err != nil {
				// Client went away; drain so the pipeline can finish.
				for range stream {
				}
				return
			}
			c.Writer.Flush()
		case domain.ChunkError:
			h.sever(c)
			return
		case domain.ChunkDone:
			return
		}
	}
}

// sever closes the underlying connection without the terminating zero-length
// chunk, which is the only failure signal available once the body started.
func (h *Handler) sever(c *gin.Context) {
	conn, _, err := c.Writer.Hijack()
	if err != nil {
		h.logger.Warn("failed to hijack connection for abort", zap.Error(err))
		return
	}
	_ = conn.Close()
}
