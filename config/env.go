package config

import (
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps an ENV value to an Environment, defaulting to
// Development for anything unrecognised.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production, Test, CI:
		return Environment(v)
	default:
		return Development
	}
}

// IsProduction returns true if the environment is production
func (e Environment) IsProduction() bool {
	return e == Production
}
