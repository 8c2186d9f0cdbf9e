package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/metrics"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/token"
)

// GateMode selecciona la estrategia del subscription check. El split es
// intencional para acotar carga de base: no es un bug a "arreglar" leyendo
// siempre el store. Es un parámetro explícito de la operación pública para
// que cada call site elija conscientemente.
type GateMode string

const (
	// ModeClaim inspecciona el snapshot subscriptionExpiresAt embebido en la
	// credencial access. Cero round-trips a storage; staleness acotada por el
	// TTL de la access (decenas de minutos). Para lecturas no críticas.
	ModeClaim GateMode = "claim"

	// ModeAuthoritative lee suscripción y disponibilidad frescas del store.
	// Para operaciones mutantes o lecturas de alto valor.
	ModeAuthoritative GateMode = "authoritative"
)

// GateService es el subscription gate de dos niveles.
type GateService interface {
	// Check retorna nil si la operación está permitida, ErrSubscriptionInvalid
	// si no, o ErrUnavailable si el storage no respondió (nunca se degrada a
	// permitido).
	Check(ctx context.Context, mode GateMode, claims *token.Claims) error
}

// GateDeps contiene las dependencias del gate.
type GateDeps struct {
	Subscriptions repository.SubscriptionRepository
	Providers     repository.ProviderRepository

	Now     func() time.Time
	Backoff time.Duration
}

type gateService struct {
	deps GateDeps
}

// NewGateService crea el gate.
func NewGateService(deps GateDeps) GateService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Backoff == 0 {
		deps.Backoff = storageBackoff
	}
	return &gateService{deps: deps}
}

func (g *gateService) Check(ctx context.Context, mode GateMode, claims *token.Claims) error {
	if claims == nil || claims.Subject == "" {
		return ErrInvalidCredential
	}
	var err error
	if mode == ModeAuthoritative {
		err = g.checkAuthoritative(ctx, claims.Subject)
	} else {
		err = g.checkClaim(claims)
	}

	decision := "allowed"
	if err != nil {
		decision = string(ReasonOf(err))
	}
	metrics.GateDecisionsTotal.WithLabelValues(string(mode), decision).Inc()
	return err
}

// checkClaim decide con el snapshot de emisión. Activa si y sólo si el
// vencimiento embebido es estrictamente futuro. Jamás toca storage.
func (g *gateService) checkClaim(claims *token.Claims) error {
	if claims.SubscriptionExpiresAt == nil || !claims.SubscriptionExpiresAt.After(g.deps.Now()) {
		return ErrSubscriptionInvalid
	}
	return nil
}

// checkAuthoritative lee el estado fresco. Ante denegación persiste
// IsAvailable=false si no lo estaba ya, para que el modo claim converja
// antes (self-healing del flag).
func (g *gateService) checkAuthoritative(ctx context.Context, ownerID string) error {
	now := g.deps.Now().UTC()
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.gate"))

	sub, err := retryOnce(ctx, g.deps.Backoff, func(ctx context.Context) (*repository.Subscription, error) {
		return g.deps.Subscriptions.Get(ctx, ownerID)
	})
	switch {
	case repository.IsNotFound(err):
		g.heal(ctx, ownerID, log)
		return ErrSubscriptionInvalid
	case err != nil:
		return ErrUnavailable
	}

	if !sub.IsActive(now) {
		log.Debug("subscription lapsed", logger.OwnerID(ownerID))
		g.heal(ctx, ownerID, log)
		return ErrSubscriptionInvalid
	}

	prov, err := retryOnce(ctx, g.deps.Backoff, func(ctx context.Context) (*repository.ProviderProfile, error) {
		return g.deps.Providers.Get(ctx, ownerID)
	})
	switch {
	case repository.IsNotFound(err):
		return ErrSubscriptionInvalid
	case err != nil:
		return ErrUnavailable
	}
	if !prov.IsAvailable {
		return ErrSubscriptionInvalid
	}
	return nil
}

// heal fuerza IsAvailable=false tras una denegación. Best effort: un fallo
// acá no cambia la decisión y el sweeper lo corrige en el próximo boundary.
func (g *gateService) heal(ctx context.Context, ownerID string, log *zap.Logger) {
	prov, err := g.deps.Providers.Get(ctx, ownerID)
	if err != nil || !prov.IsAvailable {
		return
	}
	if err := g.deps.Providers.SetAvailability(ctx, ownerID, false); err != nil {
		log.Warn("availability self-heal failed",
			logger.OwnerID(ownerID), logger.Err(err))
	}
}
