package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chambadev/chamba/internal/auth"
	"github.com/chambadev/chamba/internal/domain/repository"
	authctrl "github.com/chambadev/chamba/internal/http/controllers/auth"
	healthctrl "github.com/chambadev/chamba/internal/http/controllers/health"
	providerctrl "github.com/chambadev/chamba/internal/http/controllers/provider"
	subctrl "github.com/chambadev/chamba/internal/http/controllers/subscription"
	"github.com/chambadev/chamba/internal/rate"
	"github.com/chambadev/chamba/internal/security/password"
	"github.com/chambadev/chamba/internal/store/memory"
	"github.com/chambadev/chamba/internal/token"
)

var hashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type testEnv struct {
	store   *memory.Store
	handler http.Handler
}

func newTestEnv(t *testing.T, loginLimiter rate.Limiter) *testEnv {
	t.Helper()

	codec, err := token.NewCodec(
		[]byte("router-test-access-secret-0123456789ab"),
		[]byte("router-test-refresh-secret-0123456789a"),
	)
	require.NoError(t, err)
	issuer := token.NewIssuer(codec, 15*time.Minute, 14*24*time.Hour)

	st := memory.New()
	verifier := password.NewVerifier(st.Principals())

	handler := New(Deps{
		Codec: codec,
		Gate: auth.NewGateService(auth.GateDeps{
			Subscriptions: st.Subscriptions(),
			Providers:     st.Providers(),
		}),
		Auth: authctrl.NewControllers(authctrl.Deps{
			Login: auth.NewLoginService(auth.LoginDeps{
				Verifier:      verifier,
				Issuer:        issuer,
				Records:       st.RefreshRecords(),
				Subscriptions: st.Subscriptions(),
			}),
			Rotation: auth.NewRotationService(auth.RotationDeps{
				Codec:         codec,
				Issuer:        issuer,
				Principals:    st.Principals(),
				Records:       st.RefreshRecords(),
				Subscriptions: st.Subscriptions(),
			}),
			Logout: auth.NewLogoutService(auth.LogoutDeps{Records: st.RefreshRecords()}),
			Issuer: issuer,
		}),
		Subscription: subctrl.NewController(st.Subscriptions(), st.Providers()),
		Provider:     providerctrl.NewController(st.Providers()),
		Health:       healthctrl.NewController(st),
		LoginLimiter: loginLimiter,
	})

	return &testEnv{store: st, handler: handler}
}

func (e *testEnv) seedProvider(t *testing.T, id, email string, subEnd time.Time) {
	t.Helper()
	phc, err := password.Hash(hashParams, "correcta")
	require.NoError(t, err)
	e.store.SeedPrincipal(repository.Principal{
		ID:           id,
		Name:         "Maru Obrera",
		Email:        email,
		Role:         repository.RoleProvider,
		PasswordHash: phc,
	})
	e.store.SeedSubscription(repository.Subscription{
		OwnerID: id,
		StartAt: subEnd.AddDate(0, -1, 0),
		EndAt:   subEnd,
	})
	e.store.SeedProvider(repository.ProviderProfile{
		OwnerID:     id,
		Kind:        repository.KindWorker,
		IsAvailable: true,
	})
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type errBody struct {
	Code string `json:"code"`
}

func (e *testEnv) login(t *testing.T, email string) tokenPair {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": email, "password": "correcta",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	return decodeJSON[tokenPair](t, rec)
}

func TestLoginRefreshLogoutFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().AddDate(0, 0, 30))

	pair := env.login(t, "maru@chamba.app")
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// /v1/me espeja las claims verificadas.
	rec := env.do(t, http.MethodGet, "/v1/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "p1", me["sub"])
	assert.Equal(t, "provider", me["role"])
	assert.NotNil(t, me["subscription_expires_at"])

	// Rotación: el par nuevo sirve, el viejo queda muerto.
	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decodeJSON[tokenPair](t, rec)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_REVOKED", decodeJSON[errBody](t, rec).Code)

	// Logout revoca el par vigente; idempotente en el repeat.
	rec = env.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]string{
		"refresh_token": rotated.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": rotated.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().AddDate(0, 0, 30))

	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "maru@chamba.app", "password": "incorrecta",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeJSON[errBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "maru@chamba.app",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/me", "no-es-un-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestGatedSurfaceWithActiveSubscription(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().AddDate(0, 0, 30))
	pair := env.login(t, "maru@chamba.app")

	rec := env.do(t, http.MethodGet, "/v1/provider/profile", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "worker", profile["kind"])

	rec = env.do(t, http.MethodPut, "/v1/provider/availability", pair.AccessToken, map[string]bool{
		"available": false,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	prov, err := env.store.Providers().Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, prov.IsAvailable)
}

func TestGatedSurfaceWithLapsedSubscription(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().Add(-time.Hour))
	pair := env.login(t, "maru@chamba.app")

	// Sin snapshot en la credencial: el modo claim deniega sin tocar storage.
	rec := env.do(t, http.MethodGet, "/v1/provider/profile", pair.AccessToken, nil)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "SUBSCRIPTION_REQUIRED", decodeJSON[errBody](t, rec).Code)

	rec = env.do(t, http.MethodPut, "/v1/provider/availability", pair.AccessToken, map[string]bool{
		"available": true,
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	// La denegación autoritativa auto-sanea el flag de disponibilidad.
	prov, err := env.store.Providers().Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, prov.IsAvailable)
}

func TestRenewReopensGatedSurface(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().Add(-time.Hour))
	pair := env.login(t, "maru@chamba.app")

	rec := env.do(t, http.MethodPost, "/v1/subscription/renew", pair.AccessToken, map[string]int{
		"days": 30,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// El snapshot viejo sigue sin habilitar el modo claim, pero el modo
	// autoritativo ve la renovación al instante.
	rec = env.do(t, http.MethodGet, "/v1/provider/profile", pair.AccessToken, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/provider/availability", pair.AccessToken, map[string]bool{
		"available": true,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Una credencial fresca trae el snapshot nuevo.
	fresh := env.login(t, "maru@chamba.app")
	rec = env.do(t, http.MethodGet, "/v1/provider/profile", fresh.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, rate.NewMemoryLimiter(2, time.Minute))
	env.seedProvider(t, "p1", "maru@chamba.app", time.Now().AddDate(0, 0, 30))

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email": "maru@chamba.app", "password": "correcta",
		})
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("intento %d", i))
	}

	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "maru@chamba.app", "password": "correcta",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeJSON[errBody](t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeJSON[errBody](t, rec).Code)

	// Todo response sale con request id propagable.
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSubscriptionStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	end := time.Now().AddDate(0, 0, 30)
	env.seedProvider(t, "p1", "maru@chamba.app", end)
	pair := env.login(t, "maru@chamba.app")

	rec := env.do(t, http.MethodGet, "/v1/subscription", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, true, status["active"])
	assert.Equal(t, true, status["is_available"])
	assert.EqualValues(t, end.Unix(), status["end_at"])
}
