package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/config"
)

type gridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// NewGridFSStore connects to MongoDB and opens the configured bucket. The
// returned close func disconnects the client.
func NewGridFSStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(cfg.MongoDatabase), options.GridFSBucket().SetName(cfg.GridFSBucket))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	logger.Info("connected to gridfs",
		zap.String("database", cfg.MongoDatabase),
		zap.String("bucket", cfg.GridFSBucket))
	return &gridFSStore{client: client, bucket: bucket}, client.Disconnect, nil
}

func (s *gridFSStore) Save(_ context.Context, name string, r io.Reader) (string, int64, error) {
	counter := &countingReader{r: r}
	id, err := s.bucket.UploadFromStream(name, counter)
	if err != nil {
		return "", 0, err
	}
	return id.Hex(), counter.n, nil
}

func (s *gridFSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return nil, ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStream(id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (s *gridFSStore) Delete(ctx context.Context, key string) error {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return ErrNotFound
	}
	err = s.bucket.DeleteContext(ctx, id)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *gridFSStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
