// Package router arma el chi.Router del servicio con su cadena de
// middlewares y todas las rutas públicas.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chambadev/chamba/internal/auth"
	authctrl "github.com/chambadev/chamba/internal/http/controllers/auth"
	healthctrl "github.com/chambadev/chamba/internal/http/controllers/health"
	providerctrl "github.com/chambadev/chamba/internal/http/controllers/provider"
	subctrl "github.com/chambadev/chamba/internal/http/controllers/subscription"
	httperrors "github.com/chambadev/chamba/internal/http/errors"
	mw "github.com/chambadev/chamba/internal/http/middlewares"
	"github.com/chambadev/chamba/internal/rate"
	"github.com/chambadev/chamba/internal/token"
)

// Deps contiene todo lo que las rutas necesitan.
type Deps struct {
	Codec *token.Codec
	Gate  auth.GateService

	Auth         *authctrl.Controllers
	Subscription *subctrl.Controller
	Provider     *providerctrl.Controller
	Health       *healthctrl.Controller

	// Limiters por endpoint. nil = sin límite.
	LoginLimiter   rate.Limiter
	RefreshLimiter rate.Limiter

	// TrustProxyHeaders habilita X-Forwarded-For como fuente de la IP del
	// cliente. Sólo detrás de un proxy que sobreescriba el header.
	TrustProxyHeaders bool
}

// New construye el router completo.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Cadena base: recover primero (el más externo), después request id y
	// logging para que todo request quede trazado.
	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithSecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Operacional
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAuth := mw.RequireAuth(deps.Codec)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			rateKey := mw.IPRateKey(deps.TrustProxyHeaders)
			r.With(mw.WithRateLimit(deps.LoginLimiter, rateKey)).
				Post("/login", deps.Auth.Login.Login)
			r.With(mw.WithRateLimit(deps.RefreshLimiter, rateKey)).
				Post("/refresh", deps.Auth.Refresh.Refresh)
			r.Post("/logout", deps.Auth.Logout.Logout)
			r.With(requireAuth).Post("/logout-all", deps.Auth.Logout.LogoutAll)
		})

		r.With(requireAuth).Get("/me", deps.Auth.Me.Me)

		r.Route("/subscription", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", deps.Subscription.Status)
			r.Post("/renew", deps.Subscription.Renew)
		})

		// Superficie gated: lecturas con el snapshot del token, mutaciones
		// con lectura autoritativa.
		r.Route("/provider", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(mw.RequireSubscription(deps.Gate, auth.ModeClaim)).
				Get("/profile", deps.Provider.Profile)
			r.With(mw.RequireSubscription(deps.Gate, auth.ModeAuthoritative)).
				Put("/availability", deps.Provider.SetAvailability)
		})
	})

	return r
}
