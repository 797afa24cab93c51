package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	CORS        CORSConfig
	Materialize MaterializeConfig
	Secrets     SecretsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// MaterializeConfig controls the scheduled history materialization run.
type MaterializeConfig struct {
	// CronSpec is a robfig/cron expression. The default runs shortly after
	// midnight UTC so yesterday's snapshots exist before the first read.
	CronSpec string
	// Enabled turns the scheduler off entirely (useful for one-shot CLI use).
	Enabled bool
}

// SecretsConfig holds key material for encrypting stored provider tokens.
type SecretsConfig struct {
	// TokenKey is a base64-encoded 32-byte fernet key. Empty disables
	// provider-token storage.
	TokenKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/folio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Materialize: MaterializeConfig{
			CronSpec: getEnv("MATERIALIZE_CRON", "15 0 * * *"),
			Enabled:  getEnv("MATERIALIZE_ENABLED", "true") == "true",
		},
		Secrets: SecretsConfig{
			TokenKey: getEnv("PRICE_TOKEN_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
