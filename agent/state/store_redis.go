package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	URL         string        `envconfig:"URL" split_words:"true" default:"redis://localhost:6379/0"`
	TTL         time.Duration `envconfig:"TTL" split_words:"true" default:"0s"`
	PingTimeout time.Duration `envconfig:"PING_TIMEOUT" split_words:"true" default:"5s"`
}

// RedisStore keeps one JSON blob per customer.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore dials cfg.URL and pings it before returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, append([]StoreOption{WithTTL(cfg.TTL)}, opts...)...)
}

func NewRedisStoreFromClient(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		client:    client,
		keyPrefix: o.keyPrefix,
		ttl:       o.ttl,
	}, nil
}

func (r *RedisStore) Load(ctx context.Context, customerID string) (*OrderForm, error) {
	key, err := r.key(customerID)
	if err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load form from redis: %w", err)
	}
	return decodeForm(data)
}

func (r *RedisStore) Save(ctx context.Context, form *OrderForm) error {
	payload, err := encodeForm(form)
	if err != nil {
		return err
	}
	key, err := r.key(form.CustomerID)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save form to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, customerID string) error {
	key, err := r.key(customerID)
	if err != nil {
		return err
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete form from redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(customerID string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", ErrInvalidCustomer
	}
	return normalizeKeyPrefix(r.keyPrefix) + customerID, nil
}
