package pg

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// principalRepo implementa repository.PrincipalRepository sobre Postgres.
// Sólo lecturas: la escritura de principals es del user-store externo.
type principalRepo struct {
	pool *pgxpool.Pool
}

func (r *principalRepo) GetByID(ctx context.Context, id string) (*repository.Principal, error) {
	const q = `
		SELECT id, name, email, phone, reputation, role, password_hash
		FROM principal
		WHERE id = $1`

	var p repository.Principal
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Reputation, &p.Role, &p.PasswordHash,
	)
	if err != nil {
		return nil, mapErr("principal.get_by_id", err)
	}
	return &p, nil
}

func (r *principalRepo) GetByEmail(ctx context.Context, email string) (*repository.Principal, error) {
	const q = `
		SELECT id, name, email, phone, reputation, role, password_hash
		FROM principal
		WHERE lower(email) = lower($1)`

	var p repository.Principal
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(email)).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Reputation, &p.Role, &p.PasswordHash,
	)
	if err != nil {
		return nil, mapErr("principal.get_by_email", err)
	}
	return &p, nil
}

// recordRepo implementa repository.RefreshRecordRepository sobre Postgres.
type recordRepo struct {
	pool *pgxpool.Pool
}

func (r *recordRepo) Create(ctx context.Context, input repository.CreateRefreshRecordInput) (string, error) {
	if input.OwnerID == "" || input.TokenHash == "" || input.TTL <= 0 {
		return "", repository.ErrInvalidInput
	}

	const q = `
		INSERT INTO refresh_record (id, owner_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := r.pool.Exec(ctx, q, id, input.OwnerID, input.TokenHash, now, now.Add(input.TTL)); err != nil {
		return "", mapErr("refresh_record.create", err)
	}
	return id, nil
}

func (r *recordRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshRecord, error) {
	const q = `
		SELECT id, owner_id, token_hash, created_at, expires_at, revoked_at
		FROM refresh_record
		WHERE token_hash = $1`

	var rec repository.RefreshRecord
	err := r.pool.QueryRow(ctx, q, tokenHash).Scan(
		&rec.ID, &rec.OwnerID, &rec.TokenHash, &rec.CreatedAt, &rec.ExpiresAt, &rec.RevokedAt,
	)
	if err != nil {
		return nil, mapErr("refresh_record.get_by_hash", err)
	}
	return &rec, nil
}

func (r *recordRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	// Update condicional: el WHERE revoked_at IS NULL es el punto de commit
	// de la rotación. Ante N procesos con el mismo token, exactamente uno
	// afecta la fila.
	const q = `
		UPDATE refresh_record
		SET revoked_at = now()
		WHERE token_hash = $1 AND revoked_at IS NULL`

	tag, err := r.pool.Exec(ctx, q, tokenHash)
	if err != nil {
		return mapErr("refresh_record.revoke_by_hash", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Cero filas: o no existe, o ya estaba revocado. El probe distingue.
	const probe = `SELECT 1 FROM refresh_record WHERE token_hash = $1`
	var one int
	err = r.pool.QueryRow(ctx, probe, tokenHash).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return mapErr("refresh_record.revoke_by_hash", err)
	}
	return repository.ErrAlreadyRevoked
}

func (r *recordRepo) RevokeAllByOwner(ctx context.Context, ownerID, exceptHash string) (int, error) {
	const q = `
		UPDATE refresh_record
		SET revoked_at = now()
		WHERE owner_id = $1 AND revoked_at IS NULL AND token_hash <> $2`

	tag, err := r.pool.Exec(ctx, q, ownerID, exceptHash)
	if err != nil {
		return 0, mapErr("refresh_record.revoke_all_by_owner", err)
	}
	return int(tag.RowsAffected()), nil
}

// subscriptionRepo implementa repository.SubscriptionRepository sobre Postgres.
type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func (r *subscriptionRepo) Get(ctx context.Context, ownerID string) (*repository.Subscription, error) {
	const q = `
		SELECT owner_id, start_at, end_at
		FROM subscription
		WHERE owner_id = $1`

	var s repository.Subscription
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&s.OwnerID, &s.StartAt, &s.EndAt)
	if err != nil {
		return nil, mapErr("subscription.get", err)
	}
	return &s, nil
}

func (r *subscriptionRepo) Renew(ctx context.Context, ownerID string, startAt, endAt time.Time) error {
	if ownerID == "" || !endAt.After(startAt) {
		return repository.ErrInvalidInput
	}

	// Upsert: una suscripción por owner, la renovación sólo corre EndAt.
	const q = `
		INSERT INTO subscription (owner_id, start_at, end_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id)
		DO UPDATE SET start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at`

	if _, err := r.pool.Exec(ctx, q, ownerID, startAt, endAt); err != nil {
		return mapErr("subscription.renew", err)
	}
	return nil
}

// providerRepo implementa repository.ProviderRepository sobre Postgres.
type providerRepo struct {
	pool *pgxpool.Pool
}

func (r *providerRepo) Get(ctx context.Context, ownerID string) (*repository.ProviderProfile, error) {
	const q = `
		SELECT owner_id, kind, is_available, specialization
		FROM provider_profile
		WHERE owner_id = $1`

	var (
		p   repository.ProviderProfile
		raw []byte
	)
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&p.OwnerID, &p.Kind, &p.IsAvailable, &raw)
	if err != nil {
		return nil, mapErr("provider.get", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Specialization); err != nil {
			return nil, mapErr("provider.get", err)
		}
	}
	return &p, nil
}

func (r *providerRepo) SetAvailability(ctx context.Context, ownerID string, available bool) error {
	const q = `
		UPDATE provider_profile
		SET is_available = $2
		WHERE owner_id = $1`

	tag, err := r.pool.Exec(ctx, q, ownerID, available)
	if err != nil {
		return mapErr("provider.set_availability", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *providerRepo) DemoteLapsed(ctx context.Context, now time.Time) ([]string, error) {
	// Batch de un solo statement: demueve a todo proveedor disponible cuya
	// suscripción ya venció o que directamente no tiene suscripción.
	const q = `
		UPDATE provider_profile p
		SET is_available = false
		FROM (
			SELECT pp.owner_id
			FROM provider_profile pp
			LEFT JOIN subscription s ON s.owner_id = pp.owner_id
			WHERE pp.is_available AND (s.owner_id IS NULL OR s.end_at <= $1)
		) lapsed
		WHERE p.owner_id = lapsed.owner_id
		RETURNING p.owner_id`

	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, mapErr("provider.demote_lapsed", err)
	}
	defer rows.Close()

	var demoted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr("provider.demote_lapsed", err)
		}
		demoted = append(demoted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("provider.demote_lapsed", err)
	}
	return demoted, nil
}
