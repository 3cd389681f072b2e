// Package storage holds raw uploaded bytes until the ingestion worker
// picks them up.
package storage

import (
	"context"
	"io"
)

type Storage interface {
	Put(ctx context.Context, key string, data io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
