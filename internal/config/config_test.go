package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("URI_MONGODB", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("REFRESH_SECRET", "refresh-secret")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIBase)
	assert.Equal(t, "hasakeplay", cfg.MongoDatabase)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.Secure)
	assert.True(t, cfg.CSRFEnabled)
	assert.Equal(t, "hasake/catalogs", cfg.Cloudinary.CatalogsFolder)
	assert.False(t, cfg.Cloudinary.Configured())
	assert.False(t, cfg.IsProduction())
}

func TestParseOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("API_BASE", "api/v2/")
	t.Setenv("CORS_ORIGINS", "https://hasake.vn,https://admin.hasake.vn")
	t.Setenv("JWT_EXPIRES", "900")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "/api/v2", cfg.APIBase)
	assert.Equal(t, []string{"https://hasake.vn", "https://admin.hasake.vn"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Cloudinary.Configured())
}

func TestParseRejects(t *testing.T) {
	t.Run("same secrets", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REFRESH_SECRET", "access-secret")
		_, err := Parse()
		assert.ErrorContains(t, err, "must differ")
	})
	t.Run("bad ttl", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REFRESH_EXPIRES", "soon")
		_, err := Parse()
		assert.ErrorContains(t, err, "REFRESH_EXPIRES")
	})
	t.Run("missing mongo uri", func(t *testing.T) {
		setRequired(t)
		t.Setenv("URI_MONGODB", "")
		_, err := Parse()
		assert.Error(t, err)
	})
}

func TestRedactedHidesSecrets(t *testing.T) {
	setRequired(t)
	cfg, err := Parse()
	require.NoError(t, err)

	report := cfg.Redacted()
	for _, v := range report {
		assert.NotEqual(t, "access-secret", v)
		assert.NotEqual(t, "refresh-secret", v)
	}
	assert.Equal(t, false, report["adminHashSet"])
}
