package repository

import (
	"context"
	"time"
)

// Subscription es el registro activo-o-vencido de un principal.
// IsActive es un predicado derivado, nunca se materializa ni cachea:
// se recomputa en cada lectura para evitar bugs de staleness.
type Subscription struct {
	OwnerID string
	StartAt time.Time
	EndAt   time.Time
}

// IsActive reporta si la suscripción está vigente en now (EndAt estricto).
func (s *Subscription) IsActive(now time.Time) bool {
	return s.EndAt.After(now)
}

// SubscriptionRepository define operaciones sobre suscripciones.
// Una suscripción nunca se borra mientras exista su principal; sólo se
// extiende EndAt por renovación.
type SubscriptionRepository interface {
	// Get lee la suscripción de un owner. Retorna ErrNotFound si nunca tuvo.
	Get(ctx context.Context, ownerID string) (*Subscription, error)

	// Renew crea o extiende la suscripción hasta endAt.
	Renew(ctx context.Context, ownerID string, startAt, endAt time.Time) error
}
