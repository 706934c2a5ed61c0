package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("SESSION_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("API_KEY", "key")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "key", cfg.Quotes.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Quotes.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.True(t, cfg.PasswordPolicyStrict)
	assert.Equal(t, time.Hour, cfg.Jobs.PriceSnapshotInterval)
	assert.Equal(t,
		"host=localhost user=postgres password=pw dbname=finance port=5432 sslmode=disable TimeZone=UTC",
		cfg.Postgres.DSN(),
	)
}
