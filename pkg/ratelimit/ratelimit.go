// Package ratelimit implements a fixed-window per-key request limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision reports whether a request is allowed, and if not, how long
// the caller should wait before retrying.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// Limiter counts requests per key in discrete, non-overlapping windows.
// State is local to one process; separate processes hold separate budgets.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	window     time.Duration
	max        int
	sweepEvery time.Duration
	now        func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSweepInterval sets how often the janitor drops expired buckets.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.sweepEvery = d }
}

func New(window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		window:     window,
		max:        max,
		sweepEvery: 2 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Window() time.Duration { return l.window }
func (l *Limiter) Max() int              { return l.max }

// Allow records a request for key. A missing or expired bucket is
// replaced with a fresh one counting this request.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !b.windowEnd.After(now) {
		l.buckets[key] = &bucket{count: 1, windowEnd: now.Add(l.window)}
		return Decision{Allowed: true}
	}
	if b.count < l.max {
		b.count++
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: b.windowEnd.Sub(now)}
}

// Sweep drops buckets whose windows have expired.
func (l *Limiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if !b.windowEnd.After(now) {
			delete(l.buckets, key)
		}
	}
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartJanitor sweeps expired buckets periodically until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context) {
	if l.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(l.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
}
