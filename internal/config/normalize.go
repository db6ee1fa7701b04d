package config

import "strings"

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)
	cfg.SSLMode = strings.TrimSpace(cfg.SSLMode)
	cfg.Path = strings.TrimSpace(cfg.Path)

	switch cfg.Driver {
	case "", "mariadb":
		cfg.Driver = DriverMySQL
	case "postgresql", "pg":
		cfg.Driver = DriverPostgres
	case "sqlite3":
		cfg.Driver = DriverSQLite
	}
	// A postgres:// URL implies the driver even when none was configured.
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		cfg.Driver = DriverPostgres
	}

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		if cfg.Driver == DriverPostgres {
			cfg.Port = defaultPGPort
		} else {
			cfg.Port = defaultDBPort
		}
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = defaultPGSSLMode
	}
	if cfg.Path == "" {
		cfg.Path = defaultSQLitePath
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	if cfg.DB < 0 {
		cfg.DB = defaultRedisDB
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeAIConfig(cfg AIConfig) AIConfig {
	cfg.Provider.Type = strings.ToLower(strings.TrimSpace(cfg.Provider.Type))
	cfg.Provider.APIKey = strings.TrimSpace(cfg.Provider.APIKey)
	cfg.Provider.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Provider.Endpoint), "/")
	cfg.Provider.DefaultModel = strings.TrimSpace(cfg.Provider.DefaultModel)
	cfg.ImageSearchEndpoint = strings.TrimSpace(cfg.ImageSearchEndpoint)
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = defaultAIProvider
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultAITimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultAIRPM
	}
	if cfg.ImageSearchEndpoint == "" {
		cfg.ImageSearchEndpoint = defaultImageSearch
	}
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	paths.Logs = strings.TrimSpace(paths.Logs)
	paths.Backups = strings.TrimSpace(paths.Backups)
	return paths
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
