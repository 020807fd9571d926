package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INSTITUTION_EMAIL_DOMAIN", "")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ictuniversity.edu.cm", cfg.Institution.EmailDomain)
	assert.Equal(t, "system@ictuniversity.edu.cm", cfg.Institution.SystemEmail)
	assert.True(t, cfg.Institution.DeleteRejectedUsers)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL())
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INSTITUTION_EMAIL_DOMAIN", "@Example.EDU")
	t.Setenv("INSTITUTION_DELETE_REJECTED_USERS", "false")
	t.Setenv("ROSTER_ADMINS_CSV", "/tmp/a.csv")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "notanumber")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "example.edu", cfg.Institution.EmailDomain)
	assert.False(t, cfg.Institution.DeleteRejectedUsers)
	assert.Equal(t, "/tmp/a.csv", cfg.Roster.AdminPath)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}
