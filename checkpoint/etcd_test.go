package checkpoint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// fakeKV implements the subset of clientv3.KV used by Etcd.
type fakeKV struct {
	clientv3.KV
	data map[string]string
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &clientv3.GetResponse{}
	if v, ok := f.data[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{{Key: []byte(key), Value: []byte(v)}}
		resp.Count = 1
	}
	return resp, nil
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) Delete(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func TestEtcd(t *testing.T) {
	testStore(t, NewEtcd(newFakeKV(), ""))
}

func TestEtcd_KeyLayout(t *testing.T) {
	kv := newFakeKV()
	store := NewEtcd(kv, "/jobs/products/")

	if err := store.Save(context.Background(), sampleCheckpoint("run-9")); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, ok := kv.data["/jobs/products/run-9"]
	if !ok {
		t.Fatalf("expected key /jobs/products/run-9, have %v", kv.data)
	}
	if !strings.Contains(raw, `"offset":42`) {
		t.Errorf("expected JSON payload, got %s", raw)
	}
}

func TestEtcd_Errors(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("etcdserver: request timed out")
	store := NewEtcd(kv, "")
	ctx := context.Background()

	if _, err := store.Load(ctx, "run"); !errors.Is(err, kv.err) {
		t.Errorf("expected load to wrap %v, got %v", kv.err, err)
	}
	if err := store.Save(ctx, sampleCheckpoint("run")); !errors.Is(err, kv.err) {
		t.Errorf("expected save to wrap %v, got %v", kv.err, err)
	}
	if err := store.Clear(ctx, "run"); !errors.Is(err, kv.err) {
		t.Errorf("expected clear to wrap %v, got %v", kv.err, err)
	}
}

func TestEtcd_CorruptValue(t *testing.T) {
	kv := newFakeKV()
	kv.data[DefaultEtcdPrefix+"/bad"] = "{not json"
	store := NewEtcd(kv, "")

	_, err := store.Load(context.Background(), "bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestDialEtcd_RequiresEndpoints(t *testing.T) {
	if _, err := DialEtcd(nil, 0); err == nil {
		t.Error("expected error without endpoints")
	}
}
