package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperchat/paperchat/internal/domain"
	"github.com/paperchat/paperchat/internal/repository"
)

// Handler issues session tokens. It stands in for an external identity
// provider so the rest of the API can authenticate against opaque tokens.
type Handler struct {
	sessions *repository.SessionRepository
}

// NewHandler creates a new auth handler
func NewHandler(sessions *repository.SessionRepository) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sessions", h.CreateSession)
}

// CreateSession opens a session for an email, creating the account if needed
func (h *Handler) CreateSession(c *gin.Context) {
	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Open(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open session"})
		return
	}

	c.JSON(http.StatusCreated, domain.CreateSessionResponse{
		Token:  session.Token,
		UserID: session.UserID,
	})
}
