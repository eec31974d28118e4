package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
ServiceHost = "127.0.0.1"
ServicePort = 9090
AppBaseURL = "https://app.example.com"
cors_origins = ["https://app.example.com"]
log_level = "debug"

[auth]
magic_link_ttl = "30m"
max_code_attempts = 3
admin_emails = ["Ops@Example.com"]
`

func writeConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.toml"), []byte(testConfig), 0o644))
	t.Chdir(dir)
}

func TestNewConfig(t *testing.T) {
	writeConfig(t)
	t.Setenv("CONFIG_NAME", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("MINIO_USE_SSL", "TRUE")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.ServiceHost)
	assert.Equal(t, 9090, cfg.ServicePort)
	assert.Equal(t, "https://app.example.com", cfg.AppBaseURL)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.MagicLinkTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.LoginCodeTTL, "default")
	assert.Equal(t, 3, cfg.Auth.MaxCodeAttempts)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxDocumentSize)
	assert.Equal(t, "secret", cfg.JWT.Token)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, "sprintdesk", cfg.Minio.Bucket)
	assert.Equal(t, "whsec_test", cfg.Webhooks.StripeSecret)
	assert.True(t, cfg.IsAdminEmail(" ops@example.com"))
	assert.False(t, cfg.IsAdminEmail("client@example.com"))
}

func TestNewConfig_RequiresJWTSecret(t *testing.T) {
	writeConfig(t)
	t.Setenv("CONFIG_NAME", "")
	t.Setenv("JWT_SECRET", "")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestNewConfig_InvalidRedisPort(t *testing.T) {
	writeConfig(t)
	t.Setenv("CONFIG_NAME", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_PORT", "not-a-port")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "redis port must be int value")
}
