package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chambadev/chamba/internal/store/memory"
	"github.com/chambadev/chamba/internal/sweeper"
	"github.com/chambadev/chamba/internal/token"
)

// TestSubscriptionLifecycle recorre el ciclo completo de un proveedor: login
// con suscripción de 30 días, gate permisivo mientras está activa, sweep que
// lo demueve al vencer, gate que deniega, renovación que lo rehabilita.
//
// El tiempo simulado avanza vía los relojes inyectados del gate y del
// sweeper; las credenciales se emiten con TTLs reales.
func TestSubscriptionLifecycle(t *testing.T) {
	t0 := time.Now()
	virtual := t0

	st := memory.New()
	codec, iss := newTestIssuer(t)
	p := seedProvider(t, st, "prin-1", t0.Add(30*24*time.Hour))

	gate := NewGateService(GateDeps{
		Subscriptions: st.Subscriptions(),
		Providers:     st.Providers(),
		Now:           func() time.Time { return virtual },
	})
	login := NewLoginService(LoginDeps{
		Verifier:      &fakeVerifier{st: st},
		Issuer:        iss,
		Records:       st.RefreshRecords(),
		Subscriptions: st.Subscriptions(),
	})
	sw := sweeper.New(sweeper.Deps{
		Providers: st.Providers(),
		Clock:     fixedClock{now: func() time.Time { return virtual }},
	})
	ctx := context.Background()

	// T0: login.
	res, err := login.Login(ctx, p.Email, "correcta")
	require.NoError(t, err)
	claims, err := codec.Decode(res.Pair.AccessToken, token.ClassAccess)
	require.NoError(t, err)

	// T0+1d: ambos modos permiten.
	virtual = t0.Add(24 * time.Hour)
	assert.NoError(t, gate.Check(ctx, ModeClaim, claims))
	assert.NoError(t, gate.Check(ctx, ModeAuthoritative, claims))

	// T0+31d: la suscripción venció. El sweep del boundary demueve al
	// proveedor en un solo batch.
	virtual = t0.Add(31 * 24 * time.Hour)
	n, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	prov, err := st.Providers().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, prov.IsAvailable)

	// El snapshot embebido también venció: deniegan ambos modos.
	assert.ErrorIs(t, gate.Check(ctx, ModeClaim, claims), ErrSubscriptionInvalid)
	assert.ErrorIs(t, gate.Check(ctx, ModeAuthoritative, claims), ErrSubscriptionInvalid)

	// Renovación + re-publicación de disponibilidad: vuelve a operar.
	require.NoError(t, st.Subscriptions().Renew(ctx, p.ID, virtual, virtual.Add(30*24*time.Hour)))
	require.NoError(t, st.Providers().SetAvailability(ctx, p.ID, true))
	assert.NoError(t, gate.Check(ctx, ModeAuthoritative, claims))

	// El modo claim sigue denegando hasta que el cliente rote y reciba un
	// snapshot fresco. Staleness acotada por el TTL de la access.
	assert.ErrorIs(t, gate.Check(ctx, ModeClaim, claims), ErrSubscriptionInvalid)
}

type fixedClock struct {
	now func() time.Time
}

func (c fixedClock) Now() time.Time                         { return c.now() }
func (c fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
