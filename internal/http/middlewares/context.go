package middlewares

import (
	"context"

	"github.com/chambadev/chamba/internal/token"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyClaims
)

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, rid)
}

// GetRequestID retorna el request ID del contexto, o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// WithClaims inyecta las claims verificadas de la credencial access.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// GetClaims retorna las claims del contexto, o nil si el request no está
// autenticado.
func GetClaims(ctx context.Context) *token.Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*token.Claims)
	return v
}

// GetOwnerID retorna el subject autenticado, o "".
func GetOwnerID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.Subject
	}
	return ""
}
