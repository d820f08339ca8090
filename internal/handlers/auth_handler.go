package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/services/auth"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
)

// CookieConfig controls how session cookies are issued.
type CookieConfig struct {
	Domain      string
	Secure      bool
	RefreshPath string // refresh cookie is only sent to the refresh endpoint
	ExpiresIn   string // echoed to clients, e.g. "15m"
}

type AuthHandler struct {
	Service auth.Service
	Cookies CookieConfig
}

func NewAuthHandler(svc auth.Service, cookies CookieConfig) *AuthHandler {
	if cookies.RefreshPath == "" {
		cookies.RefreshPath = "/"
	}
	return &AuthHandler{Service: svc, Cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value, path string, ttl time.Duration, httpOnly bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), path, h.Cookies.Domain, h.Cookies.Secure, httpOnly)
}

func (h *AuthHandler) setSession(c *gin.Context, s *auth.Session) {
	h.setCookie(c, middleware.AccessCookie, s.AccessToken, "/", s.AccessTTL, true)
	h.setCookie(c, middleware.RefreshCookie, s.RefreshToken, h.Cookies.RefreshPath, s.RefreshTTL, true)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", h.Cookies.Domain, h.Cookies.Secure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, h.Cookies.RefreshPath, h.Cookies.Domain, h.Cookies.Secure, true)
}

// CSRFToken handles GET /auth/csrf. The cookie is readable by scripts so the
// frontend can echo it in the X-CSRF-Token header.
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	token := middleware.NewCSRFToken()
	h.setCookie(c, middleware.CSRFCookie, token, "/", 24*time.Hour, false)
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, s)
	logrus.WithField("email", s.Principal.Email).Info("Admin logged in")
	c.JSON(http.StatusOK, gin.H{
		"user":      gin.H{"email": s.Principal.Email, "role": s.Principal.Role},
		"token":     s.AccessToken,
		"expiresIn": h.Cookies.ExpiresIn,
	})
}

// Refresh handles POST /auth/refresh with the refresh_token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(middleware.RefreshCookie)
	s, err := h.Service.Refresh(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, s)
	c.JSON(http.StatusOK, gin.H{
		"token":     s.AccessToken,
		"expiresIn": h.Cookies.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(middleware.RefreshCookie)
	if err := h.Service.Logout(c.Request.Context(), raw); err != nil {
		respondError(c, err)
		return
	}
	h.clearSession(c)
	c.JSON(http.StatusOK, utils.SuccessResponse("Logged out"))
}

func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.Principal(c)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": gin.H{"email": p.Email, "role": p.Role}})
}
