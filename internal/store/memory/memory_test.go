package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chambadev/chamba/internal/domain/repository"
)

func TestPrincipalLookup(t *testing.T) {
	st := New()
	st.SeedPrincipal(repository.Principal{ID: "p1", Email: "Ana@Example.Test", Role: repository.RoleProvider})
	ctx := context.Background()

	p, err := st.Principals().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	// Case-insensitive por email.
	p, err = st.Principals().GetByEmail(ctx, "ana@example.test")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = st.Principals().GetByID(ctx, "nope")
	assert.True(t, repository.IsNotFound(err))
}

func TestRecordCreateAndDuplicate(t *testing.T) {
	st := New()
	ctx := context.Background()
	in := repository.CreateRefreshRecordInput{OwnerID: "p1", TokenHash: "abc", TTL: time.Hour}

	id, err := st.RefreshRecords().Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = st.RefreshRecords().Create(ctx, in)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{TokenHash: "x"})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestRevokeByHashIsConditional(t *testing.T) {
	st := New()
	ctx := context.Background()
	_, err := st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID: "p1", TokenHash: "abc", TTL: time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, st.RefreshRecords().RevokeByHash(ctx, "abc"))
	assert.ErrorIs(t, st.RefreshRecords().RevokeByHash(ctx, "abc"), repository.ErrAlreadyRevoked)
	assert.True(t, repository.IsNotFound(st.RefreshRecords().RevokeByHash(ctx, "nope")))
}

// El update condicional es el punto de serialización de la rotación: bajo
// contención, exactamente un caller gana.
func TestRevokeByHashConcurrent(t *testing.T) {
	st := New()
	ctx := context.Background()
	_, err := st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID: "p1", TokenHash: "abc", TTL: time.Hour,
	})
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st.RefreshRecords().RevokeByHash(ctx, "abc") == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	assert.Len(t, wins, 1)
}

func TestRevokeAllByOwnerRespectsException(t *testing.T) {
	st := New()
	ctx := context.Background()
	for _, h := range []string{"h1", "h2", "h3"} {
		_, err := st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{
			OwnerID: "p1", TokenHash: h, TTL: time.Hour,
		})
		require.NoError(t, err)
	}
	_, err := st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID: "p2", TokenHash: "other", TTL: time.Hour,
	})
	require.NoError(t, err)

	n, err := st.RefreshRecords().RevokeAllByOwner(ctx, "p1", "h2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := st.RefreshRecords().GetByHash(ctx, "h2")
	require.NoError(t, err)
	assert.Nil(t, rec.RevokedAt)

	rec, err = st.RefreshRecords().GetByHash(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, rec.RevokedAt, "records of other owners untouched")
}

func TestRenewValidation(t *testing.T) {
	st := New()
	ctx := context.Background()
	now := time.Now()

	assert.ErrorIs(t, st.Subscriptions().Renew(ctx, "", now, now.Add(time.Hour)), repository.ErrInvalidInput)
	assert.ErrorIs(t, st.Subscriptions().Renew(ctx, "p1", now, now), repository.ErrInvalidInput)

	// Renew crea la suscripción si no existía.
	require.NoError(t, st.Subscriptions().Renew(ctx, "p1", now, now.Add(time.Hour)))
	sub, err := st.Subscriptions().Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, sub.IsActive(now))
	assert.False(t, sub.IsActive(now.Add(2*time.Hour)))
}

func TestDemoteLapsed(t *testing.T) {
	st := New()
	ctx := context.Background()
	now := time.Now()

	st.SeedProvider(repository.ProviderProfile{OwnerID: "lapsed", Kind: repository.KindWorker, IsAvailable: true})
	st.SeedSubscription(repository.Subscription{OwnerID: "lapsed", EndAt: now.Add(-time.Minute)})

	st.SeedProvider(repository.ProviderProfile{OwnerID: "active", Kind: repository.KindCompany, IsAvailable: true})
	st.SeedSubscription(repository.Subscription{OwnerID: "active", EndAt: now.Add(time.Hour)})

	// Sin suscripción cuenta como vencida.
	st.SeedProvider(repository.ProviderProfile{OwnerID: "nosub", Kind: repository.KindWorker, IsAvailable: true})

	// Ya demovido: no aparece en el resultado.
	st.SeedProvider(repository.ProviderProfile{OwnerID: "down", Kind: repository.KindWorker, IsAvailable: false})

	demoted, err := st.Providers().DemoteLapsed(ctx, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lapsed", "nosub"}, demoted)

	p, err := st.Providers().Get(ctx, "active")
	require.NoError(t, err)
	assert.True(t, p.IsAvailable)
}

func TestInjectedClock(t *testing.T) {
	st := New()
	ctx := context.Background()
	past := time.Now().Add(-48 * time.Hour)
	st.Now = func() time.Time { return past }

	_, err := st.RefreshRecords().Create(ctx, repository.CreateRefreshRecordInput{
		OwnerID: "p1", TokenHash: "old", TTL: time.Hour,
	})
	require.NoError(t, err)

	rec, err := st.RefreshRecords().GetByHash(ctx, "old")
	require.NoError(t, err)
	assert.True(t, rec.ExpiresAt.Before(time.Now()))
	assert.Zero(t, st.LiveRecordCount("p1", time.Now()))
}
