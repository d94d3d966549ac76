package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Encryption   EncryptionConfig
	Storage      StorageConfig
	Logging      LoggingConfig
	Matching     MatchingConfig
	Sweeper      SweeperConfig
	GeminiAPIKey string
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured. Without one the
// app falls back to log-only notifications and an in-process sweeper lock.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	AccessSecret string
}

type EncryptionConfig struct {
	// Key seals guardian contact details at rest.
	Key string
}

type StorageConfig struct {
	Type string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MatchingConfig struct {
	RequestTTL      time.Duration
	CandidateCap    int
	DefaultPageSize int
	MaxPageSize     int
	FallbackDefault bool
	GuardianEnforce bool
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
	LockTTL   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("STORAGE_TYPE", StoragePostgres)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MATCH_REQUEST_TTL", "720h")
	v.SetDefault("MATCH_CANDIDATE_CAP", 1000)
	v.SetDefault("MATCH_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("MATCH_MAX_PAGE_SIZE", 100)
	v.SetDefault("MATCH_FALLBACK_DEFAULT", true)
	v.SetDefault("MATCH_GUARDIAN_ENFORCE", false)
	v.SetDefault("SWEEPER_INTERVAL", "1h")
	v.SetDefault("SWEEPER_BATCH_SIZE", 500)
	v.SetDefault("SWEEPER_LOCK_TTL", "5m")
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSL_MODE"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		Storage: StorageConfig{
			Type: strings.ToLower(v.GetString("STORAGE_TYPE")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Matching: MatchingConfig{
			RequestTTL:      v.GetDuration("MATCH_REQUEST_TTL"),
			CandidateCap:    v.GetInt("MATCH_CANDIDATE_CAP"),
			DefaultPageSize: v.GetInt("MATCH_DEFAULT_PAGE_SIZE"),
			MaxPageSize:     v.GetInt("MATCH_MAX_PAGE_SIZE"),
			FallbackDefault: v.GetBool("MATCH_FALLBACK_DEFAULT"),
			GuardianEnforce: v.GetBool("MATCH_GUARDIAN_ENFORCE"),
		},
		Sweeper: SweeperConfig{
			Interval:  v.GetDuration("SWEEPER_INTERVAL"),
			BatchSize: v.GetInt("SWEEPER_BATCH_SIZE"),
			LockTTL:   v.GetDuration("SWEEPER_LOCK_TTL"),
		},
		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StoragePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
		if len(c.Encryption.Key) != 32 {
			return fmt.Errorf("encryption key must be exactly 32 characters")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("log format must be json or text")
	}
	if c.Matching.RequestTTL <= 0 {
		return fmt.Errorf("request TTL must be positive")
	}
	if c.Matching.DefaultPageSize < 1 || c.Matching.MaxPageSize < c.Matching.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 1 <= default <= max")
	}
	if c.Matching.CandidateCap < 1 {
		return fmt.Errorf("candidate cap must be positive")
	}
	if c.Sweeper.Interval <= 0 || c.Sweeper.BatchSize < 1 {
		return fmt.Errorf("sweeper interval and batch size must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
