package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	require.NoError(t, s.Put(ctx, "quiz:5-9:payload", []byte(`{"title":"x"}`), time.Hour))

	entry, err := s.Get(ctx, "quiz:5-9:payload")
	require.NoError(t, err)
	assert.Equal(t, "quiz:5-9:payload", entry.Key)
	assert.JSONEq(t, `{"title":"x"}`, string(entry.Payload))
}

func TestMemoryStoreUnknownKey(t *testing.T) {
	s := NewMemoryStore(nil)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewMemoryStore(clock.Now)

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Hour))

	clock.Advance(59 * time.Minute)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	clock.Advance(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len(), "expired entry is purged on read")
}

func TestMemoryStoreNoExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewMemoryStore(clock.Now)

	require.NoError(t, s.Put(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	_, err := s.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	require.NoError(t, s.Put(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Put(ctx, "b", []byte("2"), 0))
	require.NoError(t, s.Put(ctx, "a", []byte("3"), 0))
	require.NoError(t, s.Remove(ctx, "a"))

	entry, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(entry.Payload))

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	payload := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", payload, 0))
	payload[0] = 'z'

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	entry.Payload[1] = 'z'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again.Payload))
}

func TestRemoveMissingKey(t *testing.T) {
	assert.NoError(t, NewMemoryStore(nil).Remove(context.Background(), "nope"))
}
