package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el equivalente in-process del RedisLimiter, para modo dev
// o single-replica sin Redis. Mismo algoritmo fixed-window; los contadores
// expiran solos con la ventana.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   *gocache.Cache
	max    int64
	window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.window)
	bucket := fmt.Sprintf("%s:%d", key, winStart.Unix())
	windowEnd := winStart.Add(l.window)

	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.hits.Get(bucket); ok {
		hits = v.(int64) + 1
	}
	l.hits.Set(bucket, hits, time.Until(windowEnd))
	l.mu.Unlock()

	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   time.Until(windowEnd),
	}
	if !res.Allowed {
		res.RetryAfter = time.Until(windowEnd)
	}
	return res, nil
}
