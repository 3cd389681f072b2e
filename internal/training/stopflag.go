package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StopFlag is the stop signal carried between the API process that
// accepts a stop request and the worker process running the job.
type StopFlag interface {
	Set(ctx context.Context, sessionID uuid.UUID) error
	IsSet(ctx context.Context, sessionID uuid.UUID) bool
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// stopFlagTTL bounds how long an unconsumed stop request lingers. A
// worker that crashed before acknowledging it should not see the flag
// on a later, unrelated run.
const stopFlagTTL = 24 * time.Hour

// RedisStopFlag stores stop requests in redis so they cross the
// API/worker process boundary.
type RedisStopFlag struct {
	rdb *redis.Client
}

func NewRedisStopFlag(rdb *redis.Client) *RedisStopFlag {
	return &RedisStopFlag{rdb: rdb}
}

func stopKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("training:stop:%s", sessionID)
}

func (f *RedisStopFlag) Set(ctx context.Context, sessionID uuid.UUID) error {
	if err := f.rdb.Set(ctx, stopKey(sessionID), "1", stopFlagTTL).Err(); err != nil {
		return fmt.Errorf("set stop flag: %w", err)
	}
	return nil
}

// IsSet is polled between training batches, so a redis error reads as
// "not stopped" rather than aborting the job.
func (f *RedisStopFlag) IsSet(ctx context.Context, sessionID uuid.UUID) bool {
	n, err := f.rdb.Exists(ctx, stopKey(sessionID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (f *RedisStopFlag) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := f.rdb.Del(ctx, stopKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear stop flag: %w", err)
	}
	return nil
}
