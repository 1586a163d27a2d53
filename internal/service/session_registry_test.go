package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistryIdleEviction(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	reg := NewSessionRegistry(30 * time.Minute)
	reg.now = clock.Now

	a, b := &Session{}, &Session{}
	reg.Put("a", a)
	reg.Put("b", b)

	clock.now = clock.now.Add(20 * time.Minute)
	got, ok := reg.Get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)

	clock.now = clock.now.Add(20 * time.Minute)
	reg.cleanup()
	assert.Equal(t, 1, reg.Len(), "b idled out, a was touched")

	_, ok = reg.Get("b")
	assert.False(t, ok)

	clock.now = clock.now.Add(31 * time.Minute)
	_, ok = reg.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestSessionRegistryRunStops(t *testing.T) {
	reg := NewSessionRegistry(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
