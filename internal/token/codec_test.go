package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chambadev/chamba/internal/domain/repository"
)

var (
	testAccessSecret  = []byte("test-access-secret-0123456789abcdef")
	testRefreshSecret = []byte("test-refresh-secret-0123456789abcde")
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testAccessSecret, testRefreshSecret)
	require.NoError(t, err)
	return c
}

func TestNewCodecRejectsWeakSecrets(t *testing.T) {
	_, err := NewCodec([]byte("short"), testRefreshSecret)
	assert.Error(t, err)

	_, err = NewCodec(testAccessSecret, testAccessSecret)
	assert.Error(t, err, "same secret for both classes must be rejected")
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	c := newTestCodec(t)
	subExp := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)

	tok, err := c.Encode(Claims{
		Subject:               "prin-123",
		Role:                  repository.RoleProvider,
		SubscriptionExpiresAt: &subExp,
	}, ClassAccess, 15*time.Minute)
	require.NoError(t, err)

	got, err := c.Decode(tok, ClassAccess)
	require.NoError(t, err)
	assert.Equal(t, "prin-123", got.Subject)
	assert.Equal(t, repository.RoleProvider, got.Role)
	assert.Equal(t, ClassAccess, got.Class)
	require.NotNil(t, got.SubscriptionExpiresAt)
	assert.True(t, got.SubscriptionExpiresAt.Equal(subExp))
}

func TestDecodeExpired(t *testing.T) {
	c := newTestCodec(t)
	tok, err := c.Encode(Claims{Subject: "prin-123"}, ClassAccess, 10*time.Minute)
	require.NoError(t, err)

	// Antes del vencimiento decodifica; después falla con ErrExpired.
	_, err = c.Decode(tok, ClassAccess)
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, err = c.Decode(tok, ClassAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDecodeWrongClass(t *testing.T) {
	c := newTestCodec(t)

	refresh, err := c.Encode(Claims{Subject: "prin-123"}, ClassRefresh, time.Hour)
	require.NoError(t, err)
	_, err = c.Decode(refresh, ClassAccess)
	assert.ErrorIs(t, err, ErrWrongClass)

	access, err := c.Encode(Claims{Subject: "prin-123"}, ClassAccess, time.Hour)
	require.NoError(t, err)
	_, err = c.Decode(access, ClassRefresh)
	assert.ErrorIs(t, err, ErrWrongClass)
}

func TestDecodeTamperedSignature(t *testing.T) {
	c := newTestCodec(t)
	tok, err := c.Encode(Claims{Subject: "prin-123"}, ClassAccess, time.Hour)
	require.NoError(t, err)

	other, err := NewCodec([]byte("another-access-secret-0123456789abc"), testRefreshSecret)
	require.NoError(t, err)
	_, err = other.Decode(tok, ClassAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeMalformed(t *testing.T) {
	c := newTestCodec(t)
	for _, bad := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := c.Decode(bad, ClassAccess)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", bad)
	}
}

func TestRefreshNeverCarriesSubscriptionSnapshot(t *testing.T) {
	c := newTestCodec(t)
	subExp := time.Now().Add(time.Hour)

	tok, err := c.Encode(Claims{
		Subject:               "prin-123",
		SubscriptionExpiresAt: &subExp,
	}, ClassRefresh, time.Hour)
	require.NoError(t, err)

	got, err := c.Decode(tok, ClassRefresh)
	require.NoError(t, err)
	assert.Nil(t, got.SubscriptionExpiresAt)
}
