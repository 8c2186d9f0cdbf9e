package token

import (
	"errors"
	"time"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// Pair es el par access/refresh emitido para un principal.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Issuer emite pares de credenciales. No persiste nada por sí mismo: el
// refresh record lo crea el caller (login o rotación).
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer crea un issuer. accessTTL es corto (minutos), refreshTTL largo
// (días); con cero se aplican 15m y 336h.
func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL retorna el TTL de las credenciales access.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL retorna el TTL de las credenciales refresh.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair emite un par para el principal dado. subExpiresAt es el snapshot
// del vencimiento de su suscripción (nil si no tiene); viaja sólo en la
// credencial access — la refresh vive semanas y nunca carga estado de
// suscripción.
func (i *Issuer) IssuePair(p *repository.Principal, role repository.Role, subExpiresAt *time.Time) (*Pair, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("token: principal required")
	}
	now := i.now().UTC()

	access, err := i.codec.Encode(Claims{
		Subject:               p.ID,
		Role:                  role,
		SubscriptionExpiresAt: subExpiresAt,
	}, ClassAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := i.codec.Encode(Claims{
		Subject: p.ID,
		Role:    role,
	}, ClassRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(i.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(i.refreshTTL),
	}, nil
}
