package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/config"
	"veriscan-backend/internal/extract"
	"veriscan-backend/internal/handlers"
	"veriscan-backend/internal/logger"
	"veriscan-backend/internal/middleware"
	"veriscan-backend/internal/models"
	"veriscan-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logger.Log.Info("Starting VeriScan backend server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Log.WithField("log_level", cfg.LogLevel).Info("Configuration loaded successfully")

	// Connect to the conversation/usage store; SQLite keeps local setups
	// working without a running Postgres
	db, err := openDatabase(cfg)
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "database_connect",
		})
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	logger.Log.Info("Running database migrations")
	if err := models.AutoMigrate(db); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate database")
	}
	logger.Log.Info("Database migrations completed")

	// Analysis event stream (disabled without brokers)
	events := services.NewEventPublisher(cfg.KafkaBootstrapServers, cfg.KafkaTopicEvents)
	if events != nil {
		logger.Log.WithFields(map[string]interface{}{
			"brokers": cfg.KafkaBootstrapServers,
			"topic":   cfg.KafkaTopicEvents,
		}).Info("Analysis event publishing enabled")
		defer func() {
			if err := events.Close(); err != nil {
				logger.Log.WithError(err).Warn("Failed to close event publisher")
			}
		}()
	} else {
		logger.Log.Info("Analysis event publishing disabled (no Kafka brokers configured)")
	}

	// Model gateway, selected by configuration
	gateway := buildGateway(cfg)
	logger.Log.WithFields(map[string]interface{}{
		"backend": cfg.ModelBackend,
		"model":   gateway.ModelName(),
	}).Info("Model gateway initialized")

	// Services
	extractor := extract.NewExtractor(cfg.ExtractTimeout, cfg.ExtractMaxRetries)
	conversations := services.NewConversationService(db)
	pipeline := services.NewClassificationPipeline(gateway, extractor, conversations, events)

	// Handlers
	detectionHandler := handlers.NewDetectionHandler(pipeline)
	chatHandler := handlers.NewChatHandler(gateway, conversations, cfg.MaxContextMessages)

	router := setupRouter(cfg, detectionHandler, chatHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithField("port", cfg.ServerPort).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Log.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Log.Info("Server gracefully stopped")
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		logger.Log.Info("Connecting to Postgres conversation store")
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	logger.Log.WithField("path", cfg.SQLitePath).Info("Using SQLite conversation store")
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}

func buildGateway(cfg *config.Config) clients.ModelGateway {
	if cfg.ModelBackend == config.BackendOpenAI {
		return clients.NewOpenAIClient(cfg)
	}
	return clients.NewAnthropicClient(cfg)
}

func setupRouter(cfg *config.Config, detectionHandler *handlers.DetectionHandler, chatHandler *handlers.ChatHandler) *gin.Engine {
	if cfg.LogLevel == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "veriscan-backend",
			"version": "1.0.0",
		})
	})

	// Text AI detection
	text := router.Group("/text-ai-detection")
	{
		text.GET("/", handlers.ServiceInfo(
			"Text AI Detection",
			"Detects AI-generated text content",
			"/text-ai-detection/analyze/"))
		text.POST("/analyze/", detectionHandler.AnalyzeText)
	}

	// AI image detection
	image := router.Group("/ai-image-detection")
	{
		image.GET("/", handlers.ServiceInfo(
			"AI Image Detection",
			"Detects AI-generated images",
			"/ai-image-detection/analyze/"))
		image.POST("/analyze/", detectionHandler.AnalyzeImage)
	}

	// Scam screenshot detection
	scam := router.Group("/scam-detector")
	{
		scam.GET("/", handlers.ServiceInfo(
			"Scam Detection",
			"Analyzes screenshots of potential scam messages (SMS, email, etc.)",
			"/scam-detector/analyze/"))
		scam.POST("/analyze/", detectionHandler.AnalyzeScamScreenshot)
	}

	// Fake news detection
	news := router.Group("/fake-news-detection")
	{
		news.GET("/", handlers.ServiceInfo(
			"Fake News Detection",
			"Detects fake news and misinformation",
			"/fake-news-detection/analyze/"))
		news.POST("/analyze/", detectionHandler.AnalyzeNews)
	}

	// Conversational API
	api := router.Group("/api")
	{
		api.POST("/chat/", chatHandler.Chat)
		api.GET("/conversations/", chatHandler.ListConversations)
		api.GET("/conversations/:session_id/", chatHandler.GetConversation)
	}

	return router
}
