package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"concierge/agent"
	"concierge/config"
	"concierge/database"
	"concierge/llmclient"
	"concierge/memory"
	"concierge/rag"
	"concierge/web"
	"concierge/web/handlers"
	"concierge/web/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const generationTemperature = 0.2

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := database.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	chatMemory := memory.New(redisClient, cfg.MaxTurns, cfg.ChatHistoryTTL, logger)

	client := llmclient.New(cfg, logger)
	embed := func(ctx context.Context, texts []string) ([][]float32, error) {
		return client.Embed(ctx, cfg.EmbeddingLLMHost, texts)
	}
	rerank := func(ctx context.Context, query string, documents []string) ([]float64, error) {
		return client.Rerank(ctx, cfg.RerankerLLMHost, query, documents)
	}

	vectors, err := rag.NewVectorIndex(store, embed, cfg.EmbeddingCacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize vector index", zap.Error(err))
	}

	pipeline := rag.New(cfg, store, vectors, rerank, logger)
	if err := pipeline.RebuildLexicon(ctx); err != nil {
		logger.Warn("Failed to build lexical index from persisted corpus", zap.Error(err))
	}

	generator := client.Bind(cfg.MainLLMHost, generationTemperature)
	conciergeAgent := agent.New(cfg, generator, pipeline, store, logger)

	extractor := services.NewExtractor(logger)
	uploads := services.NewUploadService(cfg, store, pipeline, extractor, logger)

	chatHandler := handlers.NewChatHandler(conciergeAgent, chatMemory, logger)
	ingestHandler := handlers.NewIngestHandler(uploads, logger)
	server := web.NewServer(cfg, chatHandler, ingestHandler, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting concierge server", zap.String("port", port))
	if err := server.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
