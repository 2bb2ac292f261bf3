package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/api"
	"github.com/paperchat/paperchat/internal/config"
	"github.com/paperchat/paperchat/internal/index"
	"github.com/paperchat/paperchat/internal/llm"
	"github.com/paperchat/paperchat/internal/repository"
	"github.com/paperchat/paperchat/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	messageRepo := repository.NewMessageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize LLM clients
	embedder, err := llm.NewEmbedder(cfg.LLM)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	generator := llm.NewGenerator(cfg.LLM)

	// Initialize vector index (one namespace per document)
	vectorIndex, err := index.New(cfg.Index.Path, embedder.Embed)
	if err != nil {
		logger.Fatal("Failed to initialize vector index", zap.Error(err))
	}

	// Initialize services
	historyProvider := service.NewHistoryProvider(messageRepo, cfg.Chat.HistoryWindow)
	retriever := service.NewRetriever(vectorIndex, cfg.Chat.TopK)

	chatService := service.NewChatService(
		messageRepo,
		historyProvider,
		retriever,
		generator,
		cfg.Chat.SystemInstruction,
		logger,
	)

	documentService := service.NewDocumentService(documentRepo, messageRepo, vectorIndex, logger)

	ingestService := service.NewIngestService(
		documentRepo,
		vectorIndex,
		service.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		logger,
	)

	// Setup router
	router := api.SetupRouter(chatService, documentService, ingestService, sessionRepo, logger, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server. No write timeout: chat responses stream for as
	// long as generation runs.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting PaperChat server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
