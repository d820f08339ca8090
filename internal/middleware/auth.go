package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/utils"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	principalKey = "principal"
)

// TokenVerifier turns an access token into the caller's principal.
type TokenVerifier interface {
	Verify(accessToken string) (domain.Principal, error)
}

// BearerToken returns the token of an "Authorization: Bearer x" header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Authenticate accepts the access token from the access_token cookie or a
// bearer header and stores the principal in the request context.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, v) {
			c.Next()
		}
	}
}

func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasRole(c, allowedRoles) {
			c.Next()
		}
	}
}

// AdminAuth is Authenticate followed by RequireRole(admin).
func AdminAuth(v TokenVerifier) gin.HandlerFunc {
	admin := []string{domain.RoleAdmin}
	return func(c *gin.Context) {
		if authenticate(c, v) && hasRole(c, admin) {
			c.Next()
		}
	}
}

func authenticate(c *gin.Context, v TokenVerifier) bool {
	token, _ := c.Cookie(AccessCookie)
	if token == "" {
		token = BearerToken(c)
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Unauthorized"))
		return false
	}

	p, err := v.Verify(token)
	if err != nil {
		// 401 lets the frontend attempt a refresh
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Unauthorized"))
		return false
	}

	c.Set(principalKey, p)
	c.Request = c.Request.WithContext(domain.WithPrincipal(c.Request.Context(), p))
	return true
}

func hasRole(c *gin.Context, allowedRoles []string) bool {
	p, ok := domain.PrincipalFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Unauthorized"))
		return false
	}
	for _, r := range allowedRoles {
		if strings.EqualFold(p.Role, r) {
			return true
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse("You do not have permission to access this resource"))
	return false
}

// Principal returns the principal set by Authenticate.
func Principal(c *gin.Context) domain.Principal {
	p, _ := domain.PrincipalFrom(c.Request.Context())
	return p
}
