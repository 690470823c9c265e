package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Manual quote and balance
// refreshes are limited per invoice so a hammering client cannot flood
// the gateway.
type Limiter struct {
	keys map[string]*rate.Limiter
	mu   *sync.RWMutex
	r    rate.Limit
	b    int
}

func NewLimiter(r rate.Limit, b int) *Limiter {
	return &Limiter{
		keys: make(map[string]*rate.Limiter),
		mu:   &sync.RWMutex{},
		r:    r,
		b:    b,
	}
}

// Allow reports whether the key may act now. Does not block.
func (i *Limiter) Allow(key string) bool {
	return i.getLimiter(key).Allow()
}

func (i *Limiter) add(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter := rate.NewLimiter(i.r, i.b)
	i.keys[key] = limiter
	return limiter
}

// getLimiter returns the rate limiter for the provided key if it
// exists. Otherwise, calls add to create one.
func (i *Limiter) getLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	limiter, exists := i.keys[key]
	if !exists {
		i.mu.Unlock()
		return i.add(key)
	}
	i.mu.Unlock()
	return limiter
}
