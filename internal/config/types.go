package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	AI             AIConfig              `yaml:"ai"`
	Backup         BackupConfig          `yaml:"backup"`

	// DSN and RedisURL are derived after loading.
	DSN      string `yaml:"-"`
	RedisURL string `yaml:"-"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"` // mysql | postgres | sqlite
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	SSLMode   string            `yaml:"ssl_mode"`
	Path      string            `yaml:"path"` // sqlite file
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs    string `yaml:"logs"`
	Backups string `yaml:"backups"`
}

// AIConfig configures the text-generation provider used by entry enrichment.
type AIConfig struct {
	Enabled             *bool      `yaml:"enabled"`
	Provider            AIProvider `yaml:"provider"`
	TimeoutSeconds      int        `yaml:"timeout_seconds"`
	RequestsPerMinute   int        `yaml:"requests_per_minute"`
	ImageSearchEndpoint string     `yaml:"image_search_endpoint"`
}

type AIProvider struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"` // openai | openai-compatible | anthropic | openrouter
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"model"`
}

type BackupConfig struct {
	Enable        bool      `yaml:"enable"`
	IntervalHours int       `yaml:"interval_hours"`
	S3            S3Options `yaml:"s3"`
}

type S3Options struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	Prefix          string `yaml:"prefix"`
}

// Configured reports whether enough S3 settings are present to attempt an upload.
func (o S3Options) Configured() bool {
	return o.Bucket != "" && o.Region != "" && o.AccessKeyID != "" && o.SecretAccessKey != ""
}
