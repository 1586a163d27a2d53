// Package storage is the key-value layer that stands in for browser local
// storage. Entries carry their own expiry and are checked lazily on read.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get for absent and for expired entries.
var ErrNotFound = errors.New("storage: entry not found")

// Entry is one stored value. A zero ExpiresAt never expires.
type Entry struct {
	Key       string
	Payload   []byte
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer valid at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store is the injected key-value abstraction.
type Store interface {
	// Get returns the entry for key, or ErrNotFound when it is absent or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores payload under key. ttl <= 0 stores without expiry.
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// GetJSON loads key and decodes it into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(entry.Payload, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, payload, ttl)
}
