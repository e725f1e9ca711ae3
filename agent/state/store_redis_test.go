package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements the commands RedisStore issues; any other call panics
// on the nil embedded client.
type fakeRedis struct {
	redis.UniversalClient

	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisStoreLoadMissingKey(t *testing.T) {
	t.Parallel()

	store, err := NewRedisStoreFromClient(newFakeRedis())
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient() error = %v", err)
	}
	if _, err := store.Load(context.Background(), "c1"); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("Load() error = %v, want ErrFormNotFound", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewRedisStoreFromClient(client)
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient() error = %v", err)
	}

	form := NewOrderForm("+51999999999", time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC))
	form.Merge(FormUpdate{
		QuantityKg:    Float(2.5),
		District:      String("Surco"),
		PaymentMethod: String("yape"),
		Confirmed:     true,
	})
	if err := store.Save(ctx, form); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, ok := client.data["order:form:+51999999999"]
	if !ok {
		t.Fatalf("form not stored under default prefix, keys: %v", client.data)
	}
	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored payload is not json: %v", err)
	}
	if stored["district"] != "Surco" || stored["address"] != nil {
		t.Fatalf("unexpected payload: %s", raw)
	}
	if ttl := client.ttls["order:form:+51999999999"]; ttl != 0 {
		t.Fatalf("ttl = %v, want 0 (no expiry)", ttl)
	}

	got, err := store.Load(ctx, "+51999999999")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got.QuantityKg != 2.5 || *got.District != "Surco" || *got.PaymentMethod != "yape" || !got.Confirmed {
		t.Fatalf("loaded form = %+v", got)
	}
	if got.Address != nil || got.DeliveryDay != nil {
		t.Fatalf("null fields must stay null, got %+v", got)
	}

	if err := store.Delete(ctx, "+51999999999"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "+51999999999"); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("Load() after Delete error = %v", err)
	}
}

func TestRedisStoreOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewRedisStoreFromClient(client, WithKeyPrefix("salmon:"), WithTTL(90*time.Minute))
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient() error = %v", err)
	}
	if err := store.Save(ctx, NewOrderForm("c1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := client.data["salmon:c1"]; !ok {
		t.Fatalf("custom prefix not applied, keys: %v", client.data)
	}
	if ttl := client.ttls["salmon:c1"]; ttl != 90*time.Minute {
		t.Fatalf("ttl = %v, want 90m", ttl)
	}

	if _, err := NewRedisStoreFromClient(client, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestRedisStoreErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newFakeRedis()
	store, err := NewRedisStoreFromClient(client)
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient() error = %v", err)
	}

	if _, err := store.Load(ctx, "  "); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("Load(blank) error = %v", err)
	}
	if err := store.Save(ctx, &OrderForm{}); !errors.Is(err, ErrInvalidCustomer) {
		t.Fatalf("Save(empty id) error = %v", err)
	}

	connErr := errors.New("connection reset")
	client.getErr = connErr
	_, err = store.Load(ctx, "c1")
	if !errors.Is(err, connErr) || errors.Is(err, ErrFormNotFound) {
		t.Fatalf("Load() error = %v, want wrapped connection error", err)
	}

	client.getErr = nil
	client.data["order:form:c1"] = []byte("{not json")
	if _, err := store.Load(ctx, "c1"); err == nil {
		t.Fatal("expected decode error for corrupt payload")
	}

	if err := store.Close(); err != nil || !client.closed {
		t.Fatalf("Close() error = %v, closed = %v", err, client.closed)
	}
}
