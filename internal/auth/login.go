package auth

import (
	"context"
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/metrics"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/token"
)

// CredentialVerifier es el colaborador externo que verifica credenciales de
// login (password check). El core no conoce el esquema de hashing.
type CredentialVerifier interface {
	// Verify retorna el principal autenticado o ErrBadLogin.
	Verify(ctx context.Context, email, password string) (*repository.Principal, error)
}

// LoginResult es el resultado de un login exitoso.
type LoginResult struct {
	Principal *repository.Principal
	Pair      *token.Pair
}

// LoginService emite el par inicial tras verificar credenciales.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// LoginDeps contiene las dependencias del servicio de login.
type LoginDeps struct {
	Verifier      CredentialVerifier
	Issuer        *token.Issuer
	Records       repository.RefreshRecordRepository
	Subscriptions repository.SubscriptionRepository

	// Backoff para el único reintento ante storage Unavailable.
	Backoff time.Duration
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea el servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	if deps.Backoff == 0 {
		deps.Backoff = storageBackoff
	}
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.login"))

	principal, err := s.deps.Verifier.Verify(ctx, email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrBadLogin
	}

	// Snapshot de suscripción para la access. Un Unavailable transitorio se
	// reintenta una vez; perder el snapshot acá dejaría al suscriptor negado
	// en modo claim durante todo el TTL de la access.
	var subExp *time.Time
	sub, serr := retryOnce(ctx, s.deps.Backoff, func(ctx context.Context) (*repository.Subscription, error) {
		return s.deps.Subscriptions.Get(ctx, principal.ID)
	})
	if serr == nil {
		end := sub.EndAt
		subExp = &end
	}

	pair, err := s.deps.Issuer.IssuePair(principal, principal.Role, subExp)
	if err != nil {
		return nil, err
	}

	if _, err := s.deps.Records.Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID:   principal.ID,
		TokenHash: token.Hash(pair.RefreshToken),
		TTL:       s.deps.Issuer.RefreshTTL(),
	}); err != nil {
		// Cualquier fallo del storage sale dentro de la taxonomía.
		return nil, ErrUnavailable
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	log.Info("login successful", logger.OwnerID(principal.ID))
	return &LoginResult{Principal: principal, Pair: pair}, nil
}
