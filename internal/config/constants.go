package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"

	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultDBDriver    = DriverMySQL
	defaultDBHost      = "127.0.0.1"
	defaultDBPort      = 3306
	defaultPGPort      = 5432
	defaultDBUser      = "root"
	defaultDBPassword  = "password"
	defaultDBName      = "daily_reflections"
	defaultDBCharset   = "utf8mb4"
	defaultDBLoc       = "Local"
	defaultSQLitePath  = "data/reflections.db"
	defaultPGSSLMode   = "disable"
	defaultRedisHost   = "localhost"
	defaultRedisPort   = 6379
	defaultRedisDB     = 0
	defaultAITimeout   = 60 // seconds
	defaultAIRPM       = 30
	defaultAIProvider  = "openai"
	defaultImageSearch = "https://source.unsplash.com/featured/1600x900/"
	defaultBackupHours = 24
)
