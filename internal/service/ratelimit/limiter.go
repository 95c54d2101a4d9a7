package ratelimit

import (
    "context"
    "sync"
    "time"
)

// MinSpacing is the smallest allowed gap between two requests to the same key.
const MinSpacing = 2 * time.Second

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
    lastCall   time.Time
}

// Limiter is a keyed token bucket. Wait delays callers instead of dropping
// them, so every upstream request eventually goes out.
type Limiter struct {
    mu sync.Mutex
    m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

func (l *Limiter) get(key string, capacity, refillPerSec float64, now time.Time) *bucket {
    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity {
            b.tokens = b.capacity
        }
        b.last = now
    }
    return b
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := time.Now()
    l.mu.Lock()
    defer l.mu.Unlock()

    b := l.get(key, capacity, refillPerSec, now)
    if b.tokens >= 1 {
        b.tokens--
        b.lastCall = now
        return true
    }
    return false
}

// Wait blocks until a token is available for key and the minimum spacing since
// the previous call has passed, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
    for {
        now := time.Now()
        l.mu.Lock()
        b := l.get(key, capacity, refillPerSec, now)

        var delay time.Duration
        if gap := now.Sub(b.lastCall); !b.lastCall.IsZero() && gap < MinSpacing {
            delay = MinSpacing - gap
        }
        if delay == 0 && b.tokens >= 1 {
            b.tokens--
            b.lastCall = now
            l.mu.Unlock()
            return nil
        }
        if delay == 0 {
            // time until the next full token
            need := 1 - b.tokens
            delay = time.Duration(need / b.refillRate * float64(time.Second))
            if delay < 50*time.Millisecond {
                delay = 50 * time.Millisecond
            }
        }
        l.mu.Unlock()

        timer := time.NewTimer(delay)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// Cooldown tracks per-key quiet periods after a successful fetch.
type Cooldown struct {
    mu sync.Mutex
    m  map[string]time.Time
}

func NewCooldown() *Cooldown { return &Cooldown{m: make(map[string]time.Time)} }

// Active reports whether key is still cooling down.
func (c *Cooldown) Active(key string) bool {
    c.mu.Lock()
    defer c.mu.Unlock()
    until, ok := c.m[key]
    return ok && time.Now().Before(until)
}

// Touch starts a cooldown of d for key.
func (c *Cooldown) Touch(key string, d time.Duration) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.m[key] = time.Now().Add(d)
}
