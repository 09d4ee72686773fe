package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultEtcdPrefix is the key prefix used when NewEtcd is given none.
const DefaultEtcdPrefix = "/flatbatch/checkpoints"

// Etcd is a Store backed by an etcd key space. Each run id maps to one key
// holding the JSON-encoded checkpoint.
type Etcd struct {
	kv     clientv3.KV
	prefix string
}

// NewEtcd returns a Store using kv, usually a *clientv3.Client.
func NewEtcd(kv clientv3.KV, prefix string) *Etcd {
	if prefix == "" {
		prefix = DefaultEtcdPrefix
	}
	return &Etcd{kv: kv, prefix: strings.TrimSuffix(prefix, "/")}
}

// DialEtcd connects to the given endpoints.
func DialEtcd(endpoints []string, dialTimeout time.Duration) (*clientv3.Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints are required")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect etcd: %w", err)
	}
	return cli, nil
}

func (e *Etcd) key(runID string) string {
	return e.prefix + "/" + runID
}

// Load implements Store.
func (e *Etcd) Load(ctx context.Context, runID string) (Checkpoint, error) {
	resp, err := e.kv.Get(ctx, e.key(runID))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return Checkpoint{}, ErrNotFound
	}

	var cp Checkpoint
	if err := json.Unmarshal(resp.Kvs[0].Value, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// Save implements Store.
func (e *Etcd) Save(ctx context.Context, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if _, err := e.kv.Put(ctx, e.key(cp.RunID), string(data)); err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}

// Clear implements Store.
func (e *Etcd) Clear(ctx context.Context, runID string) error {
	if _, err := e.kv.Delete(ctx, e.key(runID)); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
