// Package queue submits long operations to the background-execution
// layer. Document processing and training runs are enqueued
// at-most-once: the entity state machines own their retries, so a
// failed task must not be replayed by the queue.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/assistantkit/backend/internal/config"
)

// Enqueuer is what the orchestrator and training manager need from the
// queue; tests substitute a recording fake.
type Enqueuer interface {
	EnqueueDocumentProcess(documentID uuid.UUID) error
	EnqueueTrainingRun(sessionID uuid.UUID) error
}

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueDocumentProcess(documentID uuid.UUID) error {
	return c.enqueue(TypeDocumentProcess,
		DocumentProcessPayload{DocumentID: documentID.String()},
		asynq.MaxRetry(0), asynq.Timeout(10*time.Minute))
}

func (c *Client) EnqueueTrainingRun(sessionID uuid.UUID) error {
	return c.enqueue(TypeTrainingRun,
		TrainingRunPayload{SessionID: sessionID.String()},
		asynq.MaxRetry(0), asynq.Timeout(2*time.Hour))
}

func (c *Client) enqueue(taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if _, err := c.client.Enqueue(asynq.NewTask(taskType, data), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
