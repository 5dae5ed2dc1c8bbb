package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-chat-service/internal/api/handlers"
	"support-chat-service/internal/api/routes"
	"support-chat-service/internal/auth"
	"support-chat-service/internal/chat"
	"support-chat-service/internal/config"
	"support-chat-service/internal/llm"
	"support-chat-service/internal/rag"
	"support-chat-service/internal/repository"
	"support-chat-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Info().Msg("Starting support chat service")

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Initialize repository
	repo, err := repository.NewPostgresRepository(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Initialize services
	s3Client, err := services.NewS3Client(context.Background(), &cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	provider := llm.NewOpenAIProvider(cfg.LLM)
	jwtManager := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration)

	// Initialize the document pipeline
	extractor := rag.NewExtractor()
	chunker := rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	processor := rag.NewProcessor(repo, s3Client, extractor, chunker, logger)
	processor.Start(cfg.RAG.Workers)

	// Initialize the chat pipeline
	retriever := rag.NewRetriever(repo, logger)
	composer := rag.NewComposer()
	orchestrator := chat.NewOrchestrator(repo, repo, retriever, composer, provider, chat.Config{
		TopK:          cfg.RAG.TopK,
		MaxFAQs:       cfg.RAG.MaxFAQs,
		HistoryWindow: cfg.RAG.HistoryWindow,
	}, logger)

	// Setup middleware
	setupMiddleware(router, logger)

	// Initialize handlers and routes
	h := handlers.NewHandlers(repo, s3Client, orchestrator, processor, cfg.Upload.MaxFileSize, logger)
	routes.SetupRoutes(router, h, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   0, // streaming responses manage their own lifetime
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight document processing finish
	processor.Shutdown()

	logger.Info().Msg("Server exited")
}

func setupMiddleware(router *gin.Engine, logger zerolog.Logger) {
	// Recovery middleware
	router.Use(gin.Recovery())

	// Logger middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log after processing
		latency := time.Since(start)
		status := c.Writer.Status()

		logger.Info().
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("Request processed")
	})

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}
