package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/assistantkit/backend/internal/config"
	"github.com/assistantkit/backend/internal/database"
	"github.com/assistantkit/backend/internal/ingest"
	"github.com/assistantkit/backend/internal/llm"
	"github.com/assistantkit/backend/internal/queue"
	"github.com/assistantkit/backend/internal/queue/workers"
	"github.com/assistantkit/backend/internal/retry"
	"github.com/assistantkit/backend/internal/storage"
	"github.com/assistantkit/backend/internal/store"
	"github.com/assistantkit/backend/internal/training"
	"github.com/assistantkit/backend/internal/vectorstore"
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

	var vectors vectorstore.VectorStore
	switch cfg.Vector.Backend {
	case "memory":
		vectors = vectorstore.NewMemoryStore(gateway)
	default:
		vectors = vectorstore.NewPgVectorStore(db, gateway, cfg.Vector.Dims)
	}
	if err := vectors.Init(ctx); err != nil {
		slog.Error("failed to initialize vector store", "error", err)
		os.Exit(1)
	}
	defer vectors.Close()

	var blobs storage.Storage
	if cfg.Storage.Backend == "object" {
		blobs = storage.NewObjectStorage(cfg.Storage.ObjectURL, cfg.Storage.Bucket, cfg.Storage.ServiceKey)
	} else {
		blobs, err = storage.NewLocalStorage(cfg.Storage.UploadDir)
		if err != nil {
			slog.Error("failed to initialize blob storage", "error", err)
			os.Exit(1)
		}
	}

	jobs := queue.NewClient(cfg.Redis)
	defer jobs.Close()

	retryOpts := retry.DefaultOptions()
	if cfg.LLM.MaxRetries > 0 {
		retryOpts.Attempts = cfg.LLM.MaxRetries
	}

	docs := store.NewDocuments(db)
	folders := store.NewFolders(db)
	sessions := store.NewTrainingSessions(db)

	orchestrator := ingest.NewOrchestrator(docs, folders, blobs, gateway, vectors, jobs, retryOpts)
	manager := training.NewManager(sessions, vectors, gateway, training.NewRedisStopFlag(rdb), jobs)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	workers.NewDocumentWorker(orchestrator).Register(registry)
	workers.NewTrainingWorker(manager).Register(registry)

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
