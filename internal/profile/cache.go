// File: internal/profile/cache.go
package profile

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// profileCache is an expiring LRU of profile lookups keyed by uid.
// Only hits are cached; a missing profile may be approved at any moment.
type profileCache struct {
	lru *expirable.LRU[string, UserProfile]
}

func newProfileCache(size int, ttl time.Duration) *profileCache {
	if size <= 0 {
		return nil
	}
	return &profileCache{lru: expirable.NewLRU[string, UserProfile](size, nil, ttl)}
}

// Get returns a copy of the cached profile.
func (c *profileCache) Get(uid string) (*UserProfile, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.lru.Get(uid)
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *profileCache) Set(p *UserProfile) {
	if c == nil || p == nil {
		return
	}
	c.lru.Add(p.ID, *p)
}

func (c *profileCache) Invalidate(uid string) {
	if c == nil {
		return
	}
	c.lru.Remove(uid)
}
