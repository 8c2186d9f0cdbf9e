// Package memory implementa un repository.Store en memoria.
//
// Se usa en tests y en modo dev. Thread-safe: todos los métodos pueden
// llamarse concurrentemente desde múltiples requests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chambadev/chamba/internal/domain/repository"
)

// Store es el adapter en memoria.
type Store struct {
	mu         sync.RWMutex
	principals map[string]repository.Principal      // por ID
	byEmail    map[string]string                    // email (lower) → ID
	records    map[string]repository.RefreshRecord  // por token hash
	subs       map[string]repository.Subscription   // por owner ID
	providers  map[string]repository.ProviderProfile // por owner ID

	// Now se inyecta en tests para simular saltos de reloj.
	Now func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		principals: make(map[string]repository.Principal),
		byEmail:    make(map[string]string),
		records:    make(map[string]repository.RefreshRecord),
		subs:       make(map[string]repository.Subscription),
		providers:  make(map[string]repository.ProviderProfile),
		Now:        time.Now,
	}
}

func (s *Store) Principals() repository.PrincipalRepository       { return (*principalRepo)(s) }
func (s *Store) RefreshRecords() repository.RefreshRecordRepository { return (*recordRepo)(s) }
func (s *Store) Subscriptions() repository.SubscriptionRepository { return (*subscriptionRepo)(s) }
func (s *Store) Providers() repository.ProviderRepository         { return (*providerRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// ───────── seeding (tests / dev) ─────────

// SeedPrincipal agrega un principal.
func (s *Store) SeedPrincipal(p repository.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = p
	s.byEmail[strings.ToLower(p.Email)] = p.ID
}

// SeedSubscription agrega o pisa una suscripción.
func (s *Store) SeedSubscription(sub repository.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.OwnerID] = sub
}

// SeedProvider agrega o pisa un perfil de proveedor.
func (s *Store) SeedProvider(p repository.ProviderProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.OwnerID] = p
}

// LiveRecordCount cuenta records vivos de un owner en now.
func (s *Store) LiveRecordCount(ownerID string, now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.RevokedAt == nil && r.ExpiresAt.After(now) {
			n++
		}
	}
	return n
}

// ───────── PrincipalRepository ─────────

type principalRepo Store

func (r *principalRepo) GetByID(ctx context.Context, id string) (*repository.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *principalRepo) GetByEmail(ctx context.Context, email string) (*repository.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := r.principals[id]
	cp := p
	return &cp, nil
}

// ───────── RefreshRecordRepository ─────────

type recordRepo Store

func (r *recordRepo) Create(ctx context.Context, input repository.CreateRefreshRecordInput) (string, error) {
	if input.OwnerID == "" || input.TokenHash == "" {
		return "", repository.ErrInvalidInput
	}
	now := r.Now().UTC()
	rec := repository.RefreshRecord{
		ID:        uuid.NewString(),
		OwnerID:   input.OwnerID,
		TokenHash: input.TokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(input.TTL),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[input.TokenHash]; exists {
		return "", repository.ErrConflict
	}
	r.records[input.TokenHash] = rec
	return rec.ID, nil
}

func (r *recordRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

// RevokeByHash es el update condicional "revoke-if-not-revoked": bajo el
// mismo lock, a lo sumo un caller observa éxito.
func (r *recordRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[tokenHash]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.RevokedAt != nil {
		return repository.ErrAlreadyRevoked
	}
	now := r.Now().UTC()
	rec.RevokedAt = &now
	r.records[tokenHash] = rec
	return nil
}

func (r *recordRepo) RevokeAllByOwner(ctx context.Context, ownerID, exceptHash string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.Now().UTC()
	n := 0
	for hash, rec := range r.records {
		if rec.OwnerID != ownerID || hash == exceptHash || rec.RevokedAt != nil {
			continue
		}
		t := now
		rec.RevokedAt = &t
		r.records[hash] = rec
		n++
	}
	return n, nil
}

// ───────── SubscriptionRepository ─────────

type subscriptionRepo Store

func (r *subscriptionRepo) Get(ctx context.Context, ownerID string) (*repository.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := sub
	return &cp, nil
}

func (r *subscriptionRepo) Renew(ctx context.Context, ownerID string, startAt, endAt time.Time) error {
	if ownerID == "" || !endAt.After(startAt) {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[ownerID]
	if !ok {
		sub = repository.Subscription{OwnerID: ownerID, StartAt: startAt}
	}
	sub.EndAt = endAt
	r.subs[ownerID] = sub
	return nil
}

// ───────── ProviderRepository ─────────

type providerRepo Store

func (r *providerRepo) Get(ctx context.Context, ownerID string) (*repository.ProviderProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := p
	if p.Specialization != nil {
		cp.Specialization = make(map[string]string, len(p.Specialization))
		for k, v := range p.Specialization {
			cp.Specialization[k] = v
		}
	}
	return &cp, nil
}

func (r *providerRepo) SetAvailability(ctx context.Context, ownerID string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsAvailable = available
	r.providers[ownerID] = p
	return nil
}

func (r *providerRepo) DemoteLapsed(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var demoted []string
	for owner, p := range r.providers {
		if !p.IsAvailable {
			continue
		}
		sub, ok := r.subs[owner]
		if ok && sub.EndAt.After(now) {
			continue
		}
		p.IsAvailable = false
		r.providers[owner] = p
		demoted = append(demoted, owner)
	}
	return demoted, nil
}
