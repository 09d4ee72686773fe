package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultRedisPrefix is the key prefix used when NewRedis is given none.
const DefaultRedisPrefix = "flatbatch:checkpoint:"

// Redis is a Store backed by Redis string keys holding msgpack-encoded
// checkpoints.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Store using client. A positive ttl expires checkpoints
// of abandoned runs; zero keeps them until cleared.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(runID string) string {
	return r.prefix + runID
}

// Load implements Store.
func (r *Redis) Load(ctx context.Context, runID string) (Checkpoint, error) {
	data, err := r.client.Get(ctx, r.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, cp Checkpoint) error {
	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := r.client.Set(ctx, r.key(cp.RunID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	return nil
}

// Clear implements Store.
func (r *Redis) Clear(ctx context.Context, runID string) error {
	if err := r.client.Del(ctx, r.key(runID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
