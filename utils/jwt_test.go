package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return iss
}

func TestAccessRoundTrip(t *testing.T) {
	iss := newIssuer(t)
	tok, err := iss.IssueAccess("admin", "admin@hasake.vn", "admin")
	require.NoError(t, err)

	claims, err := iss.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "admin@hasake.vn", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	// an access token is never accepted as a refresh token
	_, err = iss.VerifyRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshCarriesID(t *testing.T) {
	iss := newIssuer(t)
	tok, jti, err := iss.IssueRefresh("admin", "admin@hasake.vn")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := iss.VerifyRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)

	_, err = iss.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	iss := newIssuer(t)
	past := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return past }
	tok, err := iss.IssueAccess("admin", "a@b.c", "admin")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedToken(t *testing.T) {
	iss := newIssuer(t)
	other, err := NewTokenIssuer("other-access", "other-refresh", time.Minute, time.Hour)
	require.NoError(t, err)

	tok, err := other.IssueAccess("admin", "a@b.c", "admin")
	require.NoError(t, err)
	_, err = iss.VerifyAccess(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRejectsBadSecrets(t *testing.T) {
	_, err := NewTokenIssuer("", "x", time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("same", "same", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"15m", 15 * time.Minute, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"900", 900 * time.Second, true},
		{"1h30m", 90 * time.Minute, true},
		{"", 0, false},
		{"xd", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
