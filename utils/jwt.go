package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type"`
}

// TokenIssuer signs access and refresh tokens with separate HMAC secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt: access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (t *TokenIssuer) sign(secret []byte, claims Claims, ttl time.Duration) (string, error) {
	now := t.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// IssueAccess signs a short-lived token for subject with role.
func (t *TokenIssuer) IssueAccess(subject, email, role string) (string, error) {
	return t.sign(t.accessSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            email,
		Role:             role,
		Type:             TokenTypeAccess,
	}, t.AccessTTL)
}

// IssueRefresh signs a refresh token carrying a fresh unique id.
func (t *TokenIssuer) IssueRefresh(subject, email string) (token, jti string, err error) {
	jti = uuid.NewString()
	token, err = t.sign(t.refreshSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ID: jti},
		Email:            email,
		Type:             TokenTypeRefresh,
	}, t.RefreshTTL)
	return token, jti, err
}

func (t *TokenIssuer) verify(raw string, secret []byte, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) VerifyAccess(raw string) (*Claims, error) {
	return t.verify(raw, t.accessSecret, TokenTypeAccess)
}

func (t *TokenIssuer) VerifyRefresh(raw string) (*Claims, error) {
	return t.verify(raw, t.refreshSecret, TokenTypeRefresh)
}

// ParseTTL accepts Go durations ("15m", "1h30m") plus a day suffix ("7d")
// and bare seconds ("900").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
