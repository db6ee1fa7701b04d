package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies environment overrides and
// validates the result. A missing file at the default path is not an error so
// that the server can be configured from the environment alone.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg, os.LookupEnv)
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		Timezone: "UTC",
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AI: AIConfig{
			Provider:            AIProvider{Type: defaultAIProvider},
			TimeoutSeconds:      defaultAITimeout,
			RequestsPerMinute:   defaultAIRPM,
			ImageSearchEndpoint: defaultImageSearch,
		},
		Backup: BackupConfig{IntervalHours: defaultBackupHours},
	}
}

type lookupFunc func(string) (string, bool)

// applyEnv lets deployment secrets win over the file.
func applyEnv(cfg *AppConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("DATABASE_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_URL", &cfg.Redis.URL)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("AI_API_KEY", &cfg.AI.Provider.APIKey)
	str("AI_PROVIDER", &cfg.AI.Provider.Type)
	str("AI_ENDPOINT", &cfg.AI.Provider.Endpoint)
	str("AI_MODEL", &cfg.AI.Provider.DefaultModel)
	str("APP_ENV", &cfg.Env)
	str("S3_ACCESS_KEY_ID", &cfg.Backup.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &cfg.Backup.S3.SecretAccessKey)

	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Port = port
		}
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
}

func (c *AppConfig) normalize() {
	c.Env = normalizeEnv(c.Env)
	c.Database = normalizeDatabaseConfig(c.Database)
	c.Redis = normalizeRedisConfig(c.Redis)
	c.Paths = normalizeRuntimePaths(c.Paths)
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)
	c.AI = normalizeAIConfig(c.AI)
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = defaultBackupHours
	}
	c.DSN = c.Database.DSNValue()
	c.RedisURL = c.Redis.URLValue()
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.Driver != DriverSQLite && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if !c.IsDev() && c.JWTSecret == "" {
		return errors.New("jwt_secret is required outside development")
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) BackupDir() string {
	if c == nil {
		return ResolveRuntimePath("", "backups")
	}
	return ResolveRuntimePath(c.Paths.Backups, "backups")
}

// AIEnabled reports whether enrichment should call a provider at all.
func (c *AppConfig) AIEnabled() bool {
	if c.AI.Enabled != nil {
		return *c.AI.Enabled
	}
	return c.AI.Provider.APIKey != ""
}

func (c *AppConfig) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *AppConfig) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
