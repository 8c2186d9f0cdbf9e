package repository

import (
	"context"
	"time"
)

// RefreshRecord representa el respaldo durable y revocable de un refresh
// credential vivo. Se crea exactamente una vez por emisión/rotación y queda
// lógicamente muerto en el instante en que RevokedAt se setea.
type RefreshRecord struct {
	ID        string
	OwnerID   string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Revoked reporta si el record fue revocado.
func (r *RefreshRecord) Revoked() bool { return r.RevokedAt != nil }

// Live reporta si el record está vivo: ni revocado ni vencido en now.
func (r *RefreshRecord) Live(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// CreateRefreshRecordInput contiene los datos para crear un refresh record.
type CreateRefreshRecordInput struct {
	OwnerID   string
	TokenHash string
	TTL       time.Duration
}

// RefreshRecordRepository define operaciones sobre refresh records.
type RefreshRecordRepository interface {
	// Create crea un nuevo record. Retorna el ID creado.
	Create(ctx context.Context, input CreateRefreshRecordInput) (string, error)

	// GetByHash busca un record por el hash del token.
	// Retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshRecord, error)

	// RevokeByHash marca el record como revocado sólo si aún no lo estaba
	// (update condicional de una sola fila). Retorna ErrAlreadyRevoked si
	// otro proceso lo consumió primero y ErrNotFound si no existe.
	RevokeByHash(ctx context.Context, tokenHash string) error

	// RevokeAllByOwner revoca todos los records vivos de un owner.
	// Si exceptHash no está vacío, ese record se excluye.
	// Retorna el número de records revocados.
	RevokeAllByOwner(ctx context.Context, ownerID, exceptHash string) (int, error)
}
