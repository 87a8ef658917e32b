// Package env resolves the runtime environment.
package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/voxgate/internal/envvar"
)

// Environment is the runtime environment of the process.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv reads VOXGATE_ENV. Anything other than production (or prod) is
// development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.VoxgateEnv))
}

// Parse maps a string to an Environment.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool {
	return e == Production
}
