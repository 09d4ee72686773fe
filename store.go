package flatbatch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MasterOfBinary/flatbatch/checkpoint"
	"github.com/MasterOfBinary/flatbatch/config"
)

// dialTimeout bounds connecting to a remote checkpoint backend.
const dialTimeout = 5 * time.Second

// OpenCheckpointStore opens the backend named by cfg.Backend. The returned
// close function releases any connection and is never nil. A nil Store
// means checkpointing is disabled.
func OpenCheckpointStore(ctx context.Context, cfg config.CheckpointConfig) (checkpoint.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.BackendNone:
		return nil, noop, nil

	case config.BackendMemory:
		return checkpoint.NewMemory(), noop, nil

	case config.BackendFile:
		store, err := checkpoint.NewFile(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.BackendEtcd:
		cli, err := checkpoint.DialEtcd(cfg.Endpoints, dialTimeout)
		if err != nil {
			return nil, noop, err
		}
		return checkpoint.NewEtcd(cli, cfg.Prefix), cli.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			DialTimeout: dialTimeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
		}
		return checkpoint.NewRedis(client, cfg.Prefix, cfg.TTL), client.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
