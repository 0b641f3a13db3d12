package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("RANKING_TOP_N_DEFAULT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 10, cfg.RankingTopNDefault)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Same(t, cfg, Get())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TIMEZONE", "Not/AZone")
	t.Setenv("RANKING_TOP_N_DEFAULT", "-3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, 10, cfg.RankingTopNDefault)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_TokenSecret(t *testing.T) {
	t.Run("development_falls_back", func(t *testing.T) {
		t.Setenv("ENV", "development")
		t.Setenv("IDENTITY_TOKEN_SECRET", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, devTokenSecret, cfg.IdentityTokenSecret)
	})

	t.Run("production_requires_secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("IDENTITY_TOKEN_SECRET", "")

		cfg, err := Load()
		assert.ErrorIs(t, err, ErrMissingTokenSecret)
		assert.Nil(t, cfg)
	})

	t.Run("production_with_secret", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("IDENTITY_TOKEN_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.IdentityTokenSecret)
	})
}
