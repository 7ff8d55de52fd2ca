package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the configuration and returns every problem found,
// joined into one error.
func ValidateConfig(cfg *Config) error {
	var errs []error

	if err := validatePort("SERVER_PORT", cfg.ServerPort); err != nil {
		errs = append(errs, err)
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		for _, f := range []struct{ field, value string }{
			{"DB_HOST", cfg.DBHost},
			{"DB_USER", cfg.DBUser},
			{"DB_NAME", cfg.DBName},
		} {
			if f.value == "" {
				errs = append(errs, ValidationError{Field: f.field, Message: "is required for the postgres driver"})
			}
		}
		if err := validatePort("DB_PORT", cfg.DBPort); err != nil {
			errs = append(errs, err)
		}
		if cfg.Environment.IsProduction() && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "db_password", Message: "secret is required in production"})
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{Field: "SQLITE_PATH", Message: "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.CacheTTL < 0 {
		errs = append(errs, ValidationError{Field: "CACHE_TTL", Message: "must not be negative"})
	}

	for _, origin := range cfg.CORSAllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, ValidationError{Field: "CORS_ALLOWED_ORIGINS", Message: fmt.Sprintf("origin %q must start with http:// or https://", origin)})
		}
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{Field: "LOG_FORMAT", Message: fmt.Sprintf("must be json or console, got %q", cfg.LogFormat)})
	}

	return errors.Join(errs...)
}

func validatePort(field, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid port %q", port)}
	}
	if n < 1 || n > 65535 {
		return ValidationError{Field: field, Message: fmt.Sprintf("port %d is out of range", n)}
	}
	return nil
}
