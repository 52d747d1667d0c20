package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment.
// CI is detected automatically, everything else comes from ENV.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps a raw ENV value onto a known environment,
// defaulting to development.
func ParseEnvironment(raw string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(raw))) {
	case Production:
		return Production
	case Test:
		return Test
	case CI:
		return CI
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment
func (e Environment) IsProduction() bool {
	return e == Production
}
