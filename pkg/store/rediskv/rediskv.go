// Package rediskv implements store.KV on Redis strings. Keys are prefixed so
// several deployments can share a database, and an optional TTL lets
// abandoned drafts expire.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formwizard/pkg/store"
)

// DefaultPrefix namespaces wizard slots.
const DefaultPrefix = "formwizard"

// Option configures the Redis slot.
type Option func(*KV)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(kv *KV) {
		kv.prefix = prefix
	}
}

// WithTTL expires slots after ttl without writes. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(kv *KV) {
		if ttl >= 0 {
			kv.ttl = ttl
		}
	}
}

// KV is a Redis backed store.KV.
type KV struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ store.KV = (*KV)(nil)

// New wraps an existing client.
func New(client redis.Cmdable, opts ...Option) (*KV, error) {
	if client == nil {
		return nil, errors.New("rediskv: client is required")
	}
	kv := &KV{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv, nil
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*KV, *redis.Client, error) {
	parsed, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("rediskv: parse url: %w", err)
	}
	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("rediskv: ping: %w", err)
	}
	kv, err := New(client, opts...)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return kv, client, nil
}

func (kv *KV) key(key string) string {
	if kv.prefix == "" {
		return key
	}
	return kv.prefix + ":" + key
}

func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := kv.client.Get(ctx, kv.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rediskv: get %q: %w", key, err)
	}
	return value, nil
}

func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.client.Set(ctx, kv.key(key), value, kv.ttl).Err(); err != nil {
		return fmt.Errorf("rediskv: set %q: %w", key, err)
	}
	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, kv.key(key)).Err(); err != nil {
		return fmt.Errorf("rediskv: delete %q: %w", key, err)
	}
	return nil
}
