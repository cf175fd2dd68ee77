// Package ratelimit provides per-client request limiting for the HTTP API.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	burst    int
	perSec   rate.Limit
	lastSeen time.Time
}

// Limiter keeps one token bucket per client and route pattern.
type Limiter struct {
	config *Config

	mu      sync.Mutex
	entries map[string]*entry

	cleanupStop chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
// A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Limiter{
		config:  config,
		entries: make(map[string]*entry),
		now:     time.Now,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupStop = make(chan struct{})
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow reports whether a request from clientID to path/method may proceed.
func (l *Limiter) Allow(clientID string, path string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	endpoint := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if endpoint == nil {
		endpoint = &EndpointConfig{
			Pattern: "*",
			Method:  method,
			Limit:   l.config.DefaultLimit,
			Window:  l.config.DefaultWindow,
		}
	}
	if endpoint.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	// Keyed by pattern so every session of one client shares a bucket.
	key := clientID + ":" + endpoint.Method + ":" + endpoint.Pattern
	now := l.now()
	e := l.getEntry(key, endpoint, now)

	allowed := e.limiter.AllowN(now, 1)
	tokens := e.limiter.TokensAt(now)

	info := Info{
		Allowed:   allowed,
		Limit:     endpoint.Limit,
		Remaining: max(int(tokens), 0),
		ResetTime: now.Add(durationFor(float64(e.burst)-tokens, e.perSec)),
	}
	if !allowed {
		info.RetryAfter = durationFor(1-tokens, e.perSec)
	}
	return allowed, info
}

func (l *Limiter) getEntry(key string, endpoint *EndpointConfig, now time.Time) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		e.lastSeen = now
		return e
	}

	burst := endpoint.Burst
	if burst <= 0 {
		burst = endpoint.Limit
	}
	perSec := rate.Limit(float64(endpoint.Limit) / endpoint.Window.Seconds())
	e := &entry{
		limiter:  rate.NewLimiter(perSec, burst),
		burst:    burst,
		perSec:   perSec,
		lastSeen: now,
	}
	// Align the bucket's clock with ours so injected clocks behave in tests.
	e.limiter.SetLimitAt(now, perSec)
	l.entries[key] = e
	return e
}

// durationFor returns how long it takes to accrue tokens at perSec.
func durationFor(tokens float64, perSec rate.Limit) time.Duration {
	if tokens <= 0 || perSec <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(perSec) * float64(time.Second))
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.cleanupStop:
			return
		}
	}
}

// evictIdle drops buckets not used within IdleTTL.
func (l *Limiter) evictIdle() {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// Size returns the number of tracked buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
