// Package rate implementa rate limiting fixed-window para los endpoints de
// autenticación (login y refresh son blancos naturales de fuerza bruta).
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es el veredicto de una consulta al limiter.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter decide si una key (IP, owner ID) puede ejecutar otra request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter cuenta hits por ventana fija con INCR + EXPIRE. El contador
// vive en Redis, así el límite se comparte entre réplicas del servicio.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

// NewRedisLimiter crea el limiter con max hits por window.
func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

// bucketKey deriva la key Redis de la ventana vigente. Incluir el inicio de
// la ventana en la key hace que el contador viejo muera solo por EXPIRE.
func (l *RedisLimiter) bucketKey(key string, now time.Time) string {
	winStart := now.Truncate(l.window).Unix()
	return fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	bucket := l.bucketKey(key, time.Now().UTC())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	ttl := pipe.TTL(ctx, bucket)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	hits := incr.Val()
	windowTTL := ttl.Val()
	if hits == 1 {
		// Primer hit de la ventana: recién ahora existe la key.
		_ = l.client.Expire(ctx, bucket, l.window).Err()
		windowTTL = l.window
	}

	res := Result{
		Allowed:     hits <= l.max,
		Remaining:   max64(l.max-hits, 0),
		CurrentHits: hits,
		WindowTTL:   windowTTL,
	}
	if !res.Allowed {
		res.RetryAfter = windowTTL
		if res.RetryAfter <= 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
