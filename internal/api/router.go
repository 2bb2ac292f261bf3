package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/api/auth"
	"github.com/paperchat/paperchat/internal/api/chat"
	"github.com/paperchat/paperchat/internal/api/documents"
	"github.com/paperchat/paperchat/internal/api/middleware"
	"github.com/paperchat/paperchat/internal/repository"
	"github.com/paperchat/paperchat/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	chatService *service.ChatService,
	documentService *service.DocumentService,
	ingestService *service.IngestService,
	sessionRepo *repository.SessionRepository,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Session issuing (public)
	authHandler := auth.NewHandler(sessionRepo)
	authGroup := r.Group("/api/auth")
	authHandler.RegisterRoutes(authGroup)

	// Everything else requires a session token
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.Auth(sessionRepo))

	chatHandler := chat.NewHandler(chatService, documentService, logger)
	chatHandler.RegisterRoutes(apiGroup)

	documentsHandler := documents.NewHandler(documentService, ingestService, logger)
	documentsHandler.RegisterRoutes(apiGroup)

	return r
}
