// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string
	LogLevel    string
}

// Load reads the .env file when present, then the environment.
func Load() Config {
	// Missing .env is fine; env vars win anyway.
	_ = godotenv.Load()

	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: getenv("DATABASE_URL", "postgres://localhost:5432/piratepod?sslmode=disable"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:   getenv("JWT_SECRET", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
}

// Warnings reports configuration the server will run with but that
// deserves a loud startup notice.
func (c Config) Warnings() []string {
	var warnings []string
	if c.JWTSecret == "" {
		warnings = append(warnings, "JWT_SECRET is not set; room tokens are signed with an empty key")
	}
	return warnings
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
