package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/assistantkit/backend/internal/api"
	"github.com/assistantkit/backend/internal/chat"
	"github.com/assistantkit/backend/internal/config"
	"github.com/assistantkit/backend/internal/database"
	"github.com/assistantkit/backend/internal/ingest"
	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/queue"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/storage"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/training"
	"github.com/assistantkit/backend/internal/vectorstore"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		db, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	gateway, err := llm.NewGateway(cfg.LLM)
	if err != nil {
		slog.Error("failed to build model gateway", "error", err)
		os.Exit(1)
	}

	vectors, err := buildVectorStore(ctx, cfg, db, gateway)
	if err != nil {
		slog.Error("failed to initialize vector store", "error", err)
		os.Exit(1)
	}
	defer vectors.Close()

	blobs, err := buildBlobStorage(cfg)
	if err != nil {
		slog.Error("failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	jobs := queue.NewClient(cfg.Redis)
	defer jobs.Close()

	retryOpts := retry.DefaultOptions()
	if cfg.LLM.MaxRetries > 0 {
		retryOpts.Attempts = cfg.LLM.MaxRetries
	}

	docs := store.NewDocuments(db)
	folders := store.NewFolders(db)
	chats := store.NewChat(db)
	sessions := store.NewTrainingSessions(db)

	orchestrator := ingest.NewOrchestrator(docs, folders, blobs, gateway, vectors, jobs, retryOpts)
	coordinator := chat.NewCoordinator(chats, vectors, gateway, retryOpts)
	manager := training.NewManager(sessions, vectors, gateway, training.NewRedisStopFlag(rdb), jobs)

	router := api.NewRouter(api.Deps{
		DB:       db,
		Redis:    rdb,
		Config:   cfg,
		Ingest:   orchestrator,
		Chat:     coordinator,
		Training: manager,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func buildVectorStore(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, embedder vectorstore.Embedder) (vectorstore.VectorStore, error) {
	var vs vectorstore.VectorStore
	switch cfg.Vector.Backend {
	case "memory":
		vs = vectorstore.NewMemoryStore(embedder)
	default:
		vs = vectorstore.NewPgVectorStore(db, embedder, cfg.Vector.Dims)
	}
	if err := vs.Init(ctx); err != nil {
		return nil, err
	}
	return vs, nil
}

func buildBlobStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Backend == "object" {
		return storage.NewObjectStorage(cfg.Storage.ObjectURL, cfg.Storage.Bucket, cfg.Storage.ServiceKey), nil
	}
	return storage.NewLocalStorage(cfg.Storage.UploadDir)
}
