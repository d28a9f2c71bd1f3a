package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test.db", cfg.Database.DSN())
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 24, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxSizeBytes)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ":5000", cfg.Server.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "market")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("REALTIME_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Session.IdleTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Realtime.AllowedOrigins)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
	assert.Contains(t, cfg.Database.DSN(), "dbname=market")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "production",
			Database:    DatabaseConfig{Driver: "postgres", Password: "secret"},
			JWT:         JWTConfig{SecretKey: "rotated"},
			Session:     SessionConfig{IdleTimeout: time.Minute},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.JWT.SecretKey = defaultJWTSecret
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Password = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Session.IdleTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadReportsMalformedValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
	assert.Contains(t, err.Error(), "SESSION_IDLE_TIMEOUT")
}

func TestPostgresDSNQuoting(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Password: "it's secret", Database: "market"}
	assert.Equal(t, `host=db password='it\'s secret' dbname=market`, d.DSN())
}
