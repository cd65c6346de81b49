package providers

import (
	"sync"
	"time"
)

// tokenExpiryBuffer is subtracted from a token's lifetime so a token is not used
// in the last moments before the server rejects it.
const tokenExpiryBuffer = 5 * time.Second

// TokenCache holds a session token in memory. Tokens are never persisted to disk.
// A zero expiry means the token does not expire.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenCache creates a new empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get retrieves the cached token if it exists and is not expired.
// Returns the token and true if valid, empty string and false otherwise.
func (c *TokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.expiredLocked() {
		return "", false
	}
	return c.token, true
}

// Set stores a token with the specified TTL. A TTL <= 0 stores a token that
// never expires.
func (c *TokenCache) Set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if ttl <= 0 {
		c.expiresAt = time.Time{}
		return
	}
	if ttl > tokenExpiryBuffer {
		ttl -= tokenExpiryBuffer
	}
	c.expiresAt = c.now().Add(ttl)
}

// ExpiresAt returns the expiration time of the current token.
// Returns zero time if no token is cached or the token does not expire.
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

func (c *TokenCache) expiredLocked() bool {
	if c.token == "" {
		return true
	}
	if c.expiresAt.IsZero() {
		return false
	}
	return !c.now().Before(c.expiresAt)
}
