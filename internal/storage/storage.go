// Package storage keeps the bytes of quote attachments. Quotes only hold the
// key returned by Save.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists for a key.
var ErrNotFound = errors.New("stored file not found")

// Store persists attachment contents.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
