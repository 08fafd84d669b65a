package config

import (
	"os"
	"strings"
)

// Environment names accepted in server.environment
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

const environmentVar = "FUELSHIFT_SERVER_ENVIRONMENT"

// GetEnv returns the value of an environment variable or a default value if not set.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RequireEnv returns the value of an environment variable or panics if not set.
func RequireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

// GetEnvironment returns the lower-cased deployment environment, development by default.
func GetEnvironment() string {
	return strings.ToLower(GetEnv(environmentVar, EnvDevelopment))
}

func IsDevelopment() bool { return GetEnvironment() == EnvDevelopment }

func IsProduction() bool { return GetEnvironment() == EnvProduction }

// IsProductionLike reports staging or production, where defaults are refused.
func IsProductionLike() bool {
	env := GetEnvironment()
	return env == EnvStaging || env == EnvProduction
}
