package auth

import (
	"context"
	"errors"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/observability/logger"
	"github.com/chambadev/chamba/internal/token"
)

// LogoutService revoca refresh records.
type LogoutService interface {
	// Logout revoca el record que respalda la credencial presentada.
	// Idempotente: si ya estaba revocado o no existe retorna
	// ErrUnknownOrRevoked, que el caller trata como no-fatal.
	Logout(ctx context.Context, refreshToken string) error

	// LogoutAll revoca todos los records vivos del owner.
	LogoutAll(ctx context.Context, ownerID string) (int, error)
}

// LogoutDeps contiene las dependencias del servicio de logout.
type LogoutDeps struct {
	Records repository.RefreshRecordRepository
}

type logoutService struct {
	deps LogoutDeps
}

// NewLogoutService crea el servicio de logout.
func NewLogoutService(deps LogoutDeps) LogoutService {
	return &logoutService{deps: deps}
}

// Logout no valida firma: revocar requiere poseer el valor exacto, y un
// valor que no corresponde a ningún record ya es un no-op.
func (s *logoutService) Logout(ctx context.Context, refreshToken string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.logout"))

	err := s.deps.Records.RevokeByHash(ctx, token.Hash(refreshToken))
	switch {
	case err == nil:
		log.Info("refresh record revoked")
		return nil
	case errors.Is(err, repository.ErrAlreadyRevoked), repository.IsNotFound(err):
		return ErrUnknownOrRevoked
	default:
		return ErrUnavailable
	}
}

func (s *logoutService) LogoutAll(ctx context.Context, ownerID string) (int, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.logout"))

	n, err := s.deps.Records.RevokeAllByOwner(ctx, ownerID, "")
	if err != nil {
		return 0, ErrUnavailable
	}
	log.Info("all refresh records revoked", logger.OwnerID(ownerID), logger.Count(n))
	return n, nil
}
