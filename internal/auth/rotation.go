package auth

import (
	"context"
	"errors"
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/metrics"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/token"
)

// RotationService define la rotación de refresh credentials.
type RotationService interface {
	// Rotate valida la credencial presentada, consume su record y emite un
	// par nuevo. Cualquier fallo es terminal: el caller debe re-loguearse.
	Rotate(ctx context.Context, refreshToken string) (*token.Pair, error)
}

// RotationDeps contiene las dependencias del servicio de rotación.
type RotationDeps struct {
	Codec         *token.Codec
	Issuer        *token.Issuer
	Principals    repository.PrincipalRepository
	Records       repository.RefreshRecordRepository
	Subscriptions repository.SubscriptionRepository

	// Now se inyecta en tests. Default: time.Now.
	Now func() time.Time

	// Backoff para el único reintento ante storage Unavailable.
	Backoff time.Duration
}

type rotationService struct {
	deps RotationDeps
}

// NewRotationService crea el servicio de rotación.
func NewRotationService(deps RotationDeps) RotationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Backoff == 0 {
		deps.Backoff = storageBackoff
	}
	return &rotationService{deps: deps}
}

// Rotate corre la máquina de estados: Presented → Validated → RecordFound →
// Superseded → Reissued. El orden es secuencial y no se reordena: reemitir
// antes de revocar dejaría dos records vivos más tiempo del necesario.
func (s *rotationService) Rotate(ctx context.Context, refreshToken string) (*token.Pair, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.rotation"))

	// Validated: clase refresh obligatoria; todo fallo del codec se reporta
	// igual hacia afuera.
	claims, err := s.deps.Codec.Decode(refreshToken, token.ClassRefresh)
	if err != nil {
		metrics.RotationRejectedTotal.WithLabelValues(string(ReasonInvalidCredential)).Inc()
		return nil, ErrInvalidCredential
	}

	hash := token.Hash(refreshToken)
	now := s.deps.Now().UTC()

	// RecordFound: absent, revocado y vencido se reportan idéntico; no se
	// distingue para no regalar señal de replay.
	rec, err := retryOnce(ctx, s.deps.Backoff, func(ctx context.Context) (*repository.RefreshRecord, error) {
		return s.deps.Records.GetByHash(ctx, hash)
	})
	switch {
	case repository.IsNotFound(err):
		metrics.RotationRejectedTotal.WithLabelValues(string(ReasonUnknownOrRevoked)).Inc()
		return nil, ErrUnknownOrRevoked
	case err != nil:
		return nil, ErrUnavailable
	}
	if rec.Revoked() || !rec.ExpiresAt.After(now) || rec.OwnerID != claims.Subject {
		metrics.RotationRejectedTotal.WithLabelValues(string(ReasonUnknownOrRevoked)).Inc()
		return nil, ErrUnknownOrRevoked
	}

	// Superseded. El revoke del record presentado es el punto de commit:
	// update condicional de una sola fila ("revoke-if-not-revoked"). Cero
	// filas afectadas significa que otra rotación concurrente ya consumió el
	// token — ese corredor pierde y nunca llega a reemitir.
	if err := s.deps.Records.RevokeByHash(ctx, hash); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRevoked), repository.IsNotFound(err):
			metrics.RotationRejectedTotal.WithLabelValues(string(ReasonUnknownOrRevoked)).Inc()
			return nil, ErrUnknownOrRevoked
		default:
			return nil, ErrUnavailable
		}
	}

	// Caen además todos los demás records vivos del owner, no sólo el
	// presentado: si un atacante y el usuario legítimo corren con el mismo
	// token robado, esto invalida cualquier otra credencial que el atacante
	// tenga en la mano.
	revoked, err := s.deps.Records.RevokeAllByOwner(ctx, rec.OwnerID, hash)
	if err != nil {
		return nil, ErrUnavailable
	}
	if revoked > 0 {
		log.Warn("superseded extra live refresh records",
			logger.OwnerID(rec.OwnerID), logger.Count(revoked))
	}

	// Reissued: par nuevo con snapshot fresco de suscripción y un record
	// nuevo que respalda la refresh emitida.
	principal, err := s.deps.Principals.GetByID(ctx, rec.OwnerID)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.RotationRejectedTotal.WithLabelValues(string(ReasonUnknownOrRevoked)).Inc()
			return nil, ErrUnknownOrRevoked
		}
		return nil, ErrUnavailable
	}

	pair, err := s.deps.Issuer.IssuePair(principal, principal.Role, s.subscriptionSnapshot(ctx, principal.ID))
	if err != nil {
		return nil, err
	}
	// A esta altura el estado viejo ya fue revocado: si el Create falla, el
	// error sale igual dentro de la taxonomía (reason estable) y el próximo
	// intento del cliente cae en UnknownOrRevoked, que lo manda a re-login.
	if _, err := s.deps.Records.Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID:   principal.ID,
		TokenHash: token.Hash(pair.RefreshToken),
		TTL:       s.deps.Issuer.RefreshTTL(),
	}); err != nil {
		return nil, ErrUnavailable
	}

	metrics.RotationsTotal.Inc()
	log.Info("rotation complete", logger.OwnerID(principal.ID))
	return pair, nil
}

// subscriptionSnapshot lee el vencimiento actual para embeberlo en la
// credencial access. Un Unavailable transitorio se reintenta una vez: sin
// snapshot, el gate en modo claim negaría a un suscriptor vigente durante
// todo el TTL de la access. Sin suscripción no hay snapshot; el fallo
// persistente tampoco bloquea la rotación (el gate autoritativo es la
// defensa real).
func (s *rotationService) subscriptionSnapshot(ctx context.Context, ownerID string) *time.Time {
	sub, err := retryOnce(ctx, s.deps.Backoff, func(ctx context.Context) (*repository.Subscription, error) {
		return s.deps.Subscriptions.Get(ctx, ownerID)
	})
	if err != nil {
		return nil
	}
	end := sub.EndAt
	return &end
}
