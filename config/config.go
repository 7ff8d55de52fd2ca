package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers understood by the application.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application. It is loaded once at
// startup and passed explicitly to every component that needs it.
type Config struct {
	Environment Environment `yaml:"-"`

	// Server configuration
	ServerHost string `yaml:"server_host"`
	ServerPort string `yaml:"server_port"`

	// Database configuration
	DBDriver          string        `yaml:"db_driver"`
	DBHost            string        `yaml:"db_host"`
	DBPort            string        `yaml:"db_port"`
	DBUser            string        `yaml:"db_user"`
	DBPassword        string        `yaml:"-"`
	DBName            string        `yaml:"db_name"`
	DBSSLMode         string        `yaml:"db_ssl_mode"`
	SQLitePath        string        `yaml:"sqlite_path"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`

	// Redis configuration. Caching is disabled when neither RedisURL nor
	// RedisHost is set.
	RedisURL      string        `yaml:"redis_url"`
	RedisHost     string        `yaml:"redis_host"`
	RedisPort     string        `yaml:"redis_port"`
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Recipe export target
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Environment:        Development,
		ServerHost:         "0.0.0.0",
		ServerPort:         "8080",
		DBDriver:           DriverPostgres,
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "postgres",
		DBName:             "recipes",
		DBSSLMode:          "disable",
		SQLitePath:         "recipes.db",
		DBMaxOpenConns:     25,
		DBMaxIdleConns:     25,
		DBConnMaxLifetime:  5 * time.Minute,
		RedisPort:          "6379",
		CacheTTL:           10 * time.Minute,
		LogLevel:           "info",
		LogFormat:          "json",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		S3Prefix:           "exports/",
	}
}

// LoadConfig builds the configuration from, in increasing precedence: the
// defaults, an optional YAML file named by CONFIG_FILE, a .env file, the
// process environment, and Docker secrets for the sensitive values.
func LoadConfig() (*Config, error) {
	dotenv := os.Getenv("DOTENV_FILE")
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
	}

	cfg := Default()
	cfg.Environment = GetEnvironment()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	loadSecrets(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.ServerHost, "SERVER_HOST")
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.S3Bucket, "S3_BUCKET_NAME")
	setString(&cfg.S3Region, "AWS_REGION")
	setString(&cfg.S3Prefix, "S3_PREFIX")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	for _, item := range []struct {
		key string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns},
		{"REDIS_DB", &cfg.RedisDB},
	} {
		if v := os.Getenv(item.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return ValidationError{Field: item.key, Message: fmt.Sprintf("must be an integer, got %q", v)}
			}
			*item.dst = n
		}
	}

	for _, item := range []struct {
		key string
		dst *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", &cfg.DBConnMaxLifetime},
		{"CACHE_TTL", &cfg.CacheTTL},
	} {
		if v := os.Getenv(item.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return ValidationError{Field: item.key, Message: fmt.Sprintf("must be a duration, got %q", v)}
			}
			*item.dst = d
		}
	}
	return nil
}

// loadSecrets fills sensitive values that the environment left empty.
func loadSecrets(cfg *Config) {
	if cfg.DBPassword == "" {
		cfg.DBPassword = readSecret("db_password")
	}
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = readSecret("redis_password")
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// CacheEnabled reports whether a Redis endpoint is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}
