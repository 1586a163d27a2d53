package storage

import (
	"context"
	"strings"
	"time"
)

type scopedStore struct {
	inner  Store
	prefix string
}

// Scope returns a Store whose keys all live under prefix. Entries returned by
// Get carry the unprefixed key.
func Scope(s Store, prefix string) Store {
	return &scopedStore{inner: s, prefix: prefix}
}

func (s *scopedStore) Get(ctx context.Context, key string) (*Entry, error) {
	entry, err := s.inner.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, err
	}
	entry.Key = strings.TrimPrefix(entry.Key, s.prefix)
	return entry, nil
}

func (s *scopedStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return s.inner.Put(ctx, s.prefix+key, payload, ttl)
}

func (s *scopedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}
