package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"JWT_TOKEN_DURATION", "TENANCY_PLATFORM_WRITE", "CORS_EXPOSE_HEADERS", "SEED_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "24h", cfg.JWT.TokenDuration)
	assert.True(t, cfg.Tenancy.PlatformWrite)
	assert.Contains(t, cfg.CORS.ExposeHeaders, "X-Request-ID")
	assert.True(t, cfg.Seed.Enabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("JWT_TOKEN_DURATION", "2h")
	t.Setenv("TENANCY_PLATFORM_WRITE", "false")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.SecretKey)
	d, err := time.ParseDuration(cfg.JWT.TokenDuration)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)
	assert.False(t, cfg.Tenancy.PlatformWrite)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
}
