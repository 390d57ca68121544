package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/redis/go-redis/v9"
)

// ResultCache stores processed images keyed by the original bytes and the operation snapshot.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, "processed:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *CacheRepository) Set(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, "processed:"+key, data, r.ttl).Err()
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte) error         { return nil }

// Key hashes the original image together with the operations as they are sent on the wire.
func Key(original []byte, ops entity.OperationState) (string, error) {
	encoded, err := json.Marshal(ops)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(original)
	h.Write([]byte{0})
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil)), nil
}
