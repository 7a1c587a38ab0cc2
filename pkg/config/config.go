package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zatekoja/patientsurvey/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Transaction TransactionConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	OTEL        OTELConfig
}

// AppConfig holds process-level settings
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// IsDevelopment reports whether the process runs with local defaults.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// URL overrides the discrete connection fields when set.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	LogQueries bool
}

// TransactionConfig holds the defaults for interactive and batch transactions
type TransactionConfig struct {
	MaxWait        time.Duration
	Timeout        time.Duration
	IsolationLevel string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. Outside production a
// .env file in the working directory is read first; existing variables win.
// With VAULT_ENABLED=true the Vault secret is exported before any variable
// is read.
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	if env != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	}

	vault := secrets.VaultConfigFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 4*vault.Timeout)
	defer cancel()
	if _, err := secrets.ApplyVaultSecrets(ctx, vault); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "patient-survey"),
			Environment: env,
			LogLevel:    getEnv("LOG_LEVEL", ""),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "patient_survey"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			LogQueries:      getEnvAsBool("DB_LOG_QUERIES", false),
		},
		Transaction: TransactionConfig{
			MaxWait:        time.Duration(getEnvAsInt("TX_MAX_WAIT_MS", 2000)) * time.Millisecond,
			Timeout:        time.Duration(getEnvAsInt("TX_TIMEOUT_MS", 5000)) * time.Millisecond,
			IsolationLevel: getEnv("TX_ISOLATION_LEVEL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "patient-survey"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Transaction.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *TransactionConfig) validate() error {
	if c.MaxWait <= 0 {
		return fmt.Errorf("TX_MAX_WAIT_MS must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("TX_TIMEOUT_MS must be positive")
	}
	if _, err := ParseIsolationLevel(c.IsolationLevel); err != nil {
		return fmt.Errorf("unsupported TX_ISOLATION_LEVEL %q", c.IsolationLevel)
	}
	return nil
}

// ParseIsolationLevel accepts ReadUncommitted, ReadCommitted, RepeatableRead
// and Serializable in any case, with or without spaces, underscores or
// dashes between the words. Empty selects the driver default.
func ParseIsolationLevel(s string) (sql.IsolationLevel, error) {
	switch strings.ToLower(isolationSeparators.Replace(strings.TrimSpace(s))) {
	case "":
		return sql.LevelDefault, nil
	case "readuncommitted":
		return sql.LevelReadUncommitted, nil
	case "readcommitted":
		return sql.LevelReadCommitted, nil
	case "repeatableread":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", s)
}

var isolationSeparators = strings.NewReplacer(" ", "", "_", "", "-", "")

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
