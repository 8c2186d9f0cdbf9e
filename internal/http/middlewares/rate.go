package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/rate"
)

// clientIP extrae la IP del cliente. X-Forwarded-For sólo se honra detrás
// de un proxy de confianza: la key del limiter no puede depender de un
// header que el cliente controla.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
			parts := strings.Split(xf, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey genera un RateKeyFunc basado en IP + path. No lee el body: los
// endpoints de credenciales no deben bufferear requests anónimos.
func IPRateKey(trustProxy bool) RateKeyFunc {
	return func(r *http.Request) string {
		return clientIP(r, trustProxy) + "|" + r.URL.Path
	}
}

// WithRateLimit crea un middleware de rate limiting sobre el limiter dado.
// Con limiter nil es un no-op (rate deshabilitado por config).
func WithRateLimit(limiter rate.Limiter, keyFn RateKeyFunc) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if keyFn == nil {
		keyFn = IPRateKey(false)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), keyFn(r))
			if err != nil {
				// Ante error del limiter permitimos el request: el rate limit
				// protege capacidad, no es un control de acceso.
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				if res.WindowTTL > 0 {
					resetAt := time.Now().Add(res.WindowTTL).Unix()
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
				}
				errors.WriteError(w, errors.ErrRateLimitExceeded)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
