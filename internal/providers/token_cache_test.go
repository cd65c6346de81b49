package providers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTokenCache() (*TokenCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewTokenCache()
	cache.now = clock.Now
	return cache, clock
}

func TestTokenCache_Empty(t *testing.T) {
	t.Parallel()

	cache, _ := newTestTokenCache()
	token, ok := cache.Get()
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.True(t, cache.ExpiresAt().IsZero())
}

func TestTokenCache_ExpiresWithBuffer(t *testing.T) {
	t.Parallel()

	cache, clock := newTestTokenCache()
	cache.Set("tok", time.Minute)

	token, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.Equal(t, clock.Now().Add(55*time.Second), cache.ExpiresAt())

	clock.Advance(54 * time.Second)
	_, ok = cache.Get()
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestTokenCache_ShortTTLKeepsFullLifetime(t *testing.T) {
	t.Parallel()

	cache, clock := newTestTokenCache()
	cache.Set("tok", 3*time.Second)
	assert.Equal(t, clock.Now().Add(3*time.Second), cache.ExpiresAt())
}

func TestTokenCache_NoExpiry(t *testing.T) {
	t.Parallel()

	cache, clock := newTestTokenCache()
	cache.Set("forever", 0)

	clock.Advance(24 * 365 * time.Hour)
	token, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "forever", token)
	assert.True(t, cache.ExpiresAt().IsZero())
}
