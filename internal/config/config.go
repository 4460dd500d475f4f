package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	PollInterval    int // seconds
	MaxAttempts     int
	WorkerEnabled   bool
	ShutdownTimeout int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if os.Getenv("S3_BUCKET") == "" {
		fmt.Println("Warning: S3_BUCKET not set, bundle exports will not work")
	}

	return &Config{
		DatabaseURL:     dbURL,
		HTTPAddr:        envString("HTTP_ADDR", ":8080"),
		PollInterval:    envInt("EXPORT_POLL_INTERVAL", 10),
		MaxAttempts:     envInt("EXPORT_MAX_ATTEMPTS", 3),
		WorkerEnabled:   envBool("EXPORT_WORKER_ENABLED", true),
		ShutdownTimeout: envInt("SHUTDOWN_TIMEOUT", 30),
	}, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Printf("Warning: invalid %s=%q, using default %d\n", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Printf("Warning: invalid %s=%q, using default %t\n", key, v, fallback)
		return fallback
	}
	return b
}
