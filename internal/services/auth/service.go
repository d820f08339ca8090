package auth

import (
	"context"
	"strings"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/tokenstore"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/metrics"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

var (
	ErrMissingCredentials = domain.Validation("Email & password are required")
	ErrNoRefreshToken     = domain.Unauthorized("No refresh token")
	ErrInvalidRefresh     = domain.Unauthorized("Invalid refresh token")
	ErrUnauthorized       = domain.Unauthorized("Unauthorized")
)

// Session is the result of a successful login or refresh.
type Session struct {
	Principal    domain.Principal
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Refresh exchanges a refresh token for a new pair. Each refresh token
	// is accepted once.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Verify(accessToken string) (domain.Principal, error)
}

type Credentials struct {
	AdminEmail   string
	PasswordHash string
}

type service struct {
	creds  Credentials
	tokens *utils.TokenIssuer
	used   tokenstore.Store
}

func NewService(creds Credentials, tokens *utils.TokenIssuer, used tokenstore.Store) Service {
	creds.AdminEmail = strings.ToLower(strings.TrimSpace(creds.AdminEmail))
	creds.PasswordHash = strings.TrimSpace(creds.PasswordHash)
	if creds.AdminEmail == "" || creds.PasswordHash == "" {
		logrus.Warn("ADMIN_EMAIL or ADMIN_PASSWORD_HASH missing; admin login is disabled")
	}
	return &service{creds: creds, tokens: tokens, used: used}
}

func (s *service) checkPassword(email, password string) bool {
	if s.creds.AdminEmail == "" || s.creds.PasswordHash == "" {
		return false
	}
	if strings.ToLower(strings.TrimSpace(email)) != s.creds.AdminEmail {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password))
	if err != nil && err != bcrypt.ErrMismatchedHashAndPassword {
		logrus.WithError(err).Error("bcrypt compare failed")
	}
	return err == nil
}

func (s *service) issue(email string) (*Session, error) {
	access, err := s.tokens.IssueAccess(adminSubject, email, domain.RoleAdmin)
	if err != nil {
		return nil, domain.Internal("Failed to issue token", err)
	}
	refresh, _, err := s.tokens.IssueRefresh(adminSubject, email)
	if err != nil {
		return nil, domain.Internal("Failed to issue token", err)
	}
	return &Session{
		Principal:    domain.Principal{Subject: adminSubject, Email: email, Role: domain.RoleAdmin},
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.tokens.AccessTTL,
		RefreshTTL:   s.tokens.RefreshTTL,
	}, nil
}

func (s *service) Login(_ context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if !s.checkPassword(email, password) {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		logrus.WithField("email", email).Warn("Admin login rejected")
		return nil, domain.ErrInvalidCredential
	}
	metrics.LoginAttemptsTotal.WithLabelValues("accepted").Inc()
	return s.issue(strings.ToLower(strings.TrimSpace(email)))
}

// consume verifies raw and marks its id as used.
func (s *service) consume(ctx context.Context, raw string) (*utils.Claims, bool, error) {
	claims, err := s.tokens.VerifyRefresh(raw)
	if err != nil || claims.Email == "" || claims.ID == "" {
		return nil, false, ErrInvalidRefresh
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	fresh, err := s.used.Consume(ctx, claims.ID, ttl)
	if err != nil {
		return nil, false, domain.Internal("Failed to check refresh token", err)
	}
	return claims, fresh, nil
}

func (s *service) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, ErrNoRefreshToken
	}
	claims, fresh, err := s.consume(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !fresh {
		logrus.WithField("jti", claims.ID).Warn("Refresh token reused")
		return nil, ErrInvalidRefresh
	}
	return s.issue(claims.Email)
}

// Logout burns the refresh token when one is presented. Missing or invalid
// tokens are not an error.
func (s *service) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if _, _, err := s.consume(ctx, raw); err != nil && domain.AsError(err).Kind == domain.KindInternal {
		return err
	}
	return nil
}

func (s *service) Verify(raw string) (domain.Principal, error) {
	claims, err := s.tokens.VerifyAccess(raw)
	if err != nil || claims.Role != domain.RoleAdmin {
		return domain.Principal{}, ErrUnauthorized
	}
	return domain.Principal{Subject: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
