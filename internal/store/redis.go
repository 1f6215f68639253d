package store

import (
	"context"
	"fmt"

	apperrors "github.com/pradiptarakha/corpusindex/pkg/errors"
	pkgredis "github.com/pradiptarakha/corpusindex/pkg/redis"
)

// RedisStore keeps the snapshot under a single Redis key with no expiry.
type RedisStore struct {
	client *pkgredis.Client
	key    string
}

// NewRedisStore creates a RedisStore using the given key.
func NewRedisStore(client *pkgredis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Save stores the snapshot blob.
func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("storing snapshot in redis: %w", err)
	}
	return nil
}

// Load fetches the snapshot blob, mapping a missing key to
// ErrSnapshotNotFound.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key)
	if pkgredis.IsNilError(err) {
		return nil, fmt.Errorf("%w: redis key %s", apperrors.ErrSnapshotNotFound, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot from redis: %w", err)
	}
	return data, nil
}
