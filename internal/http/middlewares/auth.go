package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chambadev/chamba/internal/auth"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	"github.com/chambadev/chamba/internal/token"
)

// RequireAuth valida Authorization: Bearer <credencial access> y guarda las
// claims verificadas en el contexto. Si falta o es inválida, responde 401.
func RequireAuth(codec *token.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := codec.Decode(raw, token.ClassAccess)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				if errors.Is(err, token.ErrExpired) {
					httperrors.WriteError(w, httperrors.ErrTokenExpired)
					return
				}
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireSubscription aplica el subscription gate en el modo dado. Debe ir
// después de RequireAuth. Deniega con 402 si la suscripción no está activa y
// con 503 si el storage no respondió (nunca degrada a permitido).
func RequireSubscription(gate auth.GateService, mode auth.GateMode) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			switch err := gate.Check(r.Context(), mode, claims); {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrSubscriptionInvalid):
				httperrors.WriteError(w, httperrors.ErrSubscriptionRequired)
			case errors.Is(err, auth.ErrUnavailable):
				httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
			default:
				httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
			}
		})
	}
}
