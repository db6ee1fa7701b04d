package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range []string{"PORT", "APP_ENV", "DATABASE_DRIVER", "DATABASE_URL", "REDIS_URL", "JWT_SECRET", "AI_API_KEY", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "port: 4000\n"))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "root:password@tcp(127.0.0.1:3306)/daily_reflections?charset=utf8mb4&loc=Local&parseTime=true", cfg.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 60, cfg.AI.TimeoutSeconds)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 3000\nadmin_path: /admin\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_path")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"port range", "port: 70000\n", "invalid port"},
		{"driver", "database:\n  driver: oracle\n", "unsupported database.driver"},
		{"timezone", "timezone: Mars/Olympus\n", "invalid timezone"},
		{"prod needs secret", "env: production\n", "jwt_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestPostgresAndSQLiteDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  driver: postgresql
  host: db
  user: journal
  password: s3cret
  name: reflections
`))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=db port=5432 user=journal dbname=reflections sslmode=disable password=s3cret", cfg.DSN)

	lite := DatabaseRuntimeConfig{Driver: DriverSQLite, Path: ":memory:"}
	assert.Equal(t, ":memory:", lite.DSNValue())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":    "postgres://u:p@neon.tech/reflections",
		"JWT_SECRET":      "topsecret",
		"AI_API_KEY":      "sk-test",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"PORT":            "8080",
	}
	cfg := defaultAppConfig()
	applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	cfg.normalize()

	require.NoError(t, cfg.validate())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, env["DATABASE_URL"], cfg.DSN)
	assert.Equal(t, "topsecret", cfg.JWTSecret)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 8080, cfg.Port)
}
