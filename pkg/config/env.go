package config

import (
	"os"
	"strings"
)

// Values accepted for server.environment
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// GetEnv returns the prefixed variable CREWBOARD_<key>, or def when unset.
func GetEnv(key, def string) string {
	if value := os.Getenv(EnvPrefix + "_" + key); value != "" {
		return value
	}
	return def
}

// NormalizeEnvironment lowercases an environment name. Blank means development.
func NormalizeEnvironment(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return EnvDevelopment
	}
	return env
}

// GetEnvironment reads CREWBOARD_SERVER_ENVIRONMENT without loading the full config.
func GetEnvironment() string {
	return NormalizeEnvironment(GetEnv("SERVER_ENVIRONMENT", EnvDevelopment))
}

// IsDevelopment reports whether env is local development
func IsDevelopment(env string) bool {
	return NormalizeEnvironment(env) == EnvDevelopment
}

// IsProductionLike reports whether env must carry production configuration:
// real database, JWT secret and broker.
func IsProductionLike(env string) bool {
	switch NormalizeEnvironment(env) {
	case EnvStaging, EnvProduction:
		return true
	}
	return false
}
