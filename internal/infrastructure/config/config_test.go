package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"GOALKIT_APP_NAME":                    os.Getenv("GOALKIT_APP_NAME"),
		"GOALKIT_APP_ENV":                     os.Getenv("GOALKIT_APP_ENV"),
		"GOALKIT_APP_PORT":                    os.Getenv("GOALKIT_APP_PORT"),
		"GOALKIT_DATABASE_HOST":               os.Getenv("GOALKIT_DATABASE_HOST"),
		"GOALKIT_DATABASE_PORT":               os.Getenv("GOALKIT_DATABASE_PORT"),
		"GOALKIT_DATABASE_USER":               os.Getenv("GOALKIT_DATABASE_USER"),
		"GOALKIT_DATABASE_PASSWORD":           os.Getenv("GOALKIT_DATABASE_PASSWORD"),
		"GOALKIT_DATABASE_DBNAME":             os.Getenv("GOALKIT_DATABASE_DBNAME"),
		"GOALKIT_DATABASE_SSLMODE":            os.Getenv("GOALKIT_DATABASE_SSLMODE"),
		"GOALKIT_DATABASE_MAX_OPEN_CONNS":     os.Getenv("GOALKIT_DATABASE_MAX_OPEN_CONNS"),
		"GOALKIT_DATABASE_MAX_IDLE_CONNS":     os.Getenv("GOALKIT_DATABASE_MAX_IDLE_CONNS"),
		"GOALKIT_JWT_SECRET":                  os.Getenv("GOALKIT_JWT_SECRET"),
		"GOALKIT_PRESENCE_TTL":                os.Getenv("GOALKIT_PRESENCE_TTL"),
		"GOALKIT_PRESENCE_HEARTBEAT_INTERVAL": os.Getenv("GOALKIT_PRESENCE_HEARTBEAT_INTERVAL"),
		"GOALKIT_PRESENCE_DRAG_LEASE_TTL":     os.Getenv("GOALKIT_PRESENCE_DRAG_LEASE_TTL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "goalkit-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "goalkit", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 15*time.Second, cfg.Presence.HeartbeatInterval)
		assert.Equal(t, 45*time.Second, cfg.Presence.TTL)
		assert.Equal(t, 2*time.Minute, cfg.Presence.DragLeaseTTL)
		assert.Equal(t, 30*time.Second, cfg.Stream.HeartbeatInterval)
	})

	t.Run("loads values from environment variables with GOALKIT prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("GOALKIT_APP_NAME", "test-app")
		os.Setenv("GOALKIT_APP_PORT", "9000")
		os.Setenv("GOALKIT_DATABASE_HOST", "testdb.local")
		os.Setenv("GOALKIT_DATABASE_PORT", "5433")
		os.Setenv("GOALKIT_PRESENCE_DRAG_LEASE_TTL", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 5*time.Minute, cfg.Presence.DragLeaseTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("GOALKIT_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("GOALKIT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates presence TTL must exceed heartbeat interval", func(t *testing.T) {
		clearEnv()
		os.Setenv("GOALKIT_PRESENCE_TTL", "10s")
		os.Setenv("GOALKIT_PRESENCE_HEARTBEAT_INTERVAL", "30s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "presence.ttl")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"GOALKIT_APP_ENV":           os.Getenv("GOALKIT_APP_ENV"),
		"GOALKIT_JWT_SECRET":        os.Getenv("GOALKIT_JWT_SECRET"),
		"GOALKIT_DATABASE_PASSWORD": os.Getenv("GOALKIT_DATABASE_PASSWORD"),
		"GOALKIT_DATABASE_SSLMODE":  os.Getenv("GOALKIT_DATABASE_SSLMODE"),
		"GOALKIT_COOKIE_SECURE":     os.Getenv("GOALKIT_COOKIE_SECURE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("GOALKIT_APP_ENV", "production")
		os.Setenv("GOALKIT_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("GOALKIT_DATABASE_PASSWORD", "secure-password")
		os.Setenv("GOALKIT_DATABASE_SSLMODE", "require")
		os.Setenv("GOALKIT_COOKIE_SECURE", "true")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("GOALKIT_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("GOALKIT_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("GOALKIT_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("GOALKIT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}
