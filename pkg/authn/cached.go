package authn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/aussiebroadwan/courtside/pkg/authz"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached remembers successful verifications for a fixed TTL. Failures are
// never cached. Off unless explicitly configured: while an entry lives, a
// revoked credential keeps working.
type Cached struct {
	next  Verifier
	cache *lru.LRU[string, authz.Identity]
}

// NewCached wraps next. ttl must be positive; size bounds the entry count.
func NewCached(next Verifier, ttl time.Duration, size int) *Cached {
	if size <= 0 {
		size = 1024
	}
	return &Cached{
		next:  next,
		cache: lru.NewLRU[string, authz.Identity](size, nil, ttl),
	}
}

func (c *Cached) Verify(ctx context.Context, credential string) (authz.Identity, error) {
	key := fingerprint(credential)
	if id, ok := c.cache.Get(key); ok {
		return id, nil
	}

	id, err := c.next.Verify(ctx, credential)
	if err != nil {
		return authz.Identity{}, err
	}
	c.cache.Add(key, id)
	return id, nil
}

// Len reports the number of live entries.
func (c *Cached) Len() int { return c.cache.Len() }

// fingerprint keeps raw credentials out of memory-resident keys.
func fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Build returns base, wrapped in a cache only when ttl is positive.
func Build(base Verifier, ttl time.Duration, size int) Verifier {
	if ttl <= 0 {
		return base
	}
	return NewCached(base, ttl, size)
}
