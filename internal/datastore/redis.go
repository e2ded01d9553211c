package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 4

// RedisFactory stores each namespace document as one JSON string under "<prefix>:<name>".
type RedisFactory struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisFactory returns a RedisFactory. An empty prefix defaults to "userpool".
func NewRedisFactory(client redis.UniversalClient, prefix string) *RedisFactory {
	if prefix == "" {
		prefix = "userpool"
	}
	return &RedisFactory{client: client, prefix: prefix}
}

// Create writes the seed document when the namespace key is absent, then returns a Store for it.
// It satisfies Factory.
func (f *RedisFactory) Create(ctx context.Context, name string, seed any) (Store, error) {
	doc, err := seedDocument(seed)
	if err != nil {
		return nil, err
	}
	data, err := doc.encode()
	if err != nil {
		return nil, err
	}
	key := f.prefix + ":" + name
	if err := f.client.SetNX(ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("datastore: create namespace %s: %w", name, err)
	}
	return &RedisStore{client: f.client, key: key}, nil
}

// RedisStore is one namespace document held in Redis.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// Get decodes the value at key into out.
func (s *RedisStore) Get(ctx context.Context, key []string, out any) (bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrNamespaceNotFound
		}
		return false, fmt.Errorf("datastore: get %s: %w", s.key, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return false, err
	}
	return doc.lookup(key, out)
}

// Set stores value at key using WATCH/MULTI so concurrent writers to the same namespace do not drop each other's keys.
func (s *RedisStore) Set(ctx context.Context, key []string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	return s.update(ctx, func(doc document) error {
		return doc.set(key, v)
	})
}

// Delete removes the value at key.
func (s *RedisStore) Delete(ctx context.Context, key []string) error {
	return s.update(ctx, func(doc document) error {
		doc.remove(key)
		return nil
	})
}

func (s *RedisStore) update(ctx context.Context, mutate func(document) error) error {
	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, s.key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNamespaceNotFound
				}
				return err
			}
			doc, err := parseDocument(data)
			if err != nil {
				return err
			}
			if err := mutate(doc); err != nil {
				return err
			}
			encoded, err := doc.encode()
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.key, encoded, 0)
				return nil
			})
			return err
		}, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotObject) || errors.Is(err, ErrNamespaceNotFound) {
			return err
		}
		return fmt.Errorf("datastore: set %s: %w", s.key, err)
	}
	return ErrConflict
}
