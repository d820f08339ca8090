// Package config maps environment variables (optionally loaded from .env)
// into a typed struct.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"4000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	APIBase  string `env:"API_BASE" envDefault:"/api/v1"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	MongoURI      string `env:"URI_MONGODB,required,notEmpty"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"hasakeplay"`
	RedisURL      string `env:"REDIS_URL"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	CookieDomain string   `env:"COOKIE_DOMAIN" envDefault:"localhost"`
	CookieSecure bool     `env:"COOKIE_SECURE" envDefault:"false"`
	CSRFEnabled  bool     `env:"CSRF_ENABLED" envDefault:"true"`

	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string `env:"JWT_SECRET,required,notEmpty"`
	RefreshSecret     string `env:"REFRESH_SECRET,required,notEmpty"`
	JWTExpires        string `env:"JWT_EXPIRES" envDefault:"15m"`
	RefreshExpires    string `env:"REFRESH_EXPIRES" envDefault:"7d"`

	Cloudinary Cloudinary
	SMTP       SMTP
	Mail       Mail

	EnforceMailDelivery bool `env:"ENFORCE_MAIL_DELIVERY" envDefault:"false"`

	accessTTL  time.Duration
	refreshTTL time.Duration
}

type Cloudinary struct {
	CloudName      string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey         string `env:"CLOUDINARY_API_KEY"`
	APISecret      string `env:"CLOUDINARY_API_SECRET"`
	CatalogsFolder string `env:"CLOUDINARY_FOLDER_CATALOGS" envDefault:"hasake/catalogs"`
}

func (c Cloudinary) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"465"`
	Secure   bool   `env:"SMTP_SECURE" envDefault:"true"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
}

type Mail struct {
	FromName string `env:"MAIL_FROM_NAME" envDefault:"HasakePlay Website"`
	FromAddr string `env:"MAIL_FROM_ADDR"`
	To       string `env:"MAIL_TO_ADDR"`
}

// Load reads .env when present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	var err error
	if c.accessTTL, err = utils.ParseTTL(c.JWTExpires); err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES: %w", err))
	}
	if c.refreshTTL, err = utils.ParseTTL(c.RefreshExpires); err != nil {
		errs = append(errs, fmt.Errorf("REFRESH_EXPIRES: %w", err))
	}
	if c.JWTSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and REFRESH_SECRET must differ"))
	}
	if !strings.HasPrefix(c.APIBase, "/") {
		c.APIBase = "/" + c.APIBase
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	return errors.Join(errs...)
}

func (c *Config) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Config) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Redacted is a configuration report safe to expose to admins.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"appEnv":              c.AppEnv,
		"apiBase":             c.APIBase,
		"corsOrigins":         c.CORSOrigins,
		"cookieDomain":        c.CookieDomain,
		"cookieSecure":        c.CookieSecure,
		"csrfEnabled":         c.CSRFEnabled,
		"adminEmailSet":       c.AdminEmail != "",
		"adminHashSet":        c.AdminPasswordHash != "",
		"jwtExpires":          c.JWTExpires,
		"refreshExpires":      c.RefreshExpires,
		"redisConfigured":     c.RedisURL != "",
		"cloudinary":          c.Cloudinary.Configured(),
		"smtpConfigured":      c.SMTP.Host != "" && c.Mail.To != "",
		"enforceMailDelivery": c.EnforceMailDelivery,
	}
}
