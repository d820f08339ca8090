package handlers

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var bcryptHash = regexp.MustCompile(`^\$2[aby]\$\d{2}\$`)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type SystemHandler struct {
	DB         Pinger
	AdminEmail string
	AdminHash  string
	// Status is the redacted configuration report served by /debug/status.
	Status func() map[string]any
	start  time.Time
}

func NewSystemHandler(db Pinger, adminEmail, adminHash string, status func() map[string]any) *SystemHandler {
	return &SystemHandler{DB: db, AdminEmail: adminEmail, AdminHash: adminHash, Status: status, start: time.Now()}
}

// Health handles GET /healthz.
func (h *SystemHandler) Health(c *gin.Context) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("Health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "db": "up"})
}

// AuthConfig handles GET /debug/auth-config.
func (h *SystemHandler) AuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"adminEmail":      h.AdminEmail,
		"hashLooksBcrypt": bcryptHash.MatchString(h.AdminHash),
		"hashLen":         len(h.AdminHash),
	})
}

// DebugStatus handles GET /debug/status.
func (h *SystemHandler) DebugStatus(c *gin.Context) {
	report := gin.H{"uptime": time.Since(h.start).Round(time.Second).String()}
	if h.Status != nil {
		for k, v := range h.Status() {
			report[k] = v
		}
	}
	c.JSON(http.StatusOK, report)
}
