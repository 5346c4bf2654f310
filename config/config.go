package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	Janitor JanitorConfig
	App     AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins string
	// RateLimitRPS caps requests per second per client IP; 0 disables the
	// limiter.
	RateLimitRPS   int
	RateLimitBurst int
}

type StorageConfig struct {
	// ProjectsDir is the root under which every project keeps its record,
	// history and sample blobs.
	ProjectsDir string
}

type RedisConfig struct {
	// Addr enables the Redis usage cache when set; empty means the
	// in-process cache is used.
	Addr     string
	Password string
	DB       int
}

type JanitorConfig struct {
	// Spec is a cron expression (with seconds) for the maintenance sweep.
	Spec string
	// TempMaxAge is how old an orphaned upload temp file must be before the
	// janitor removes it.
	TempMaxAge time.Duration
}

type AppConfig struct {
	Environment string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
			RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 0),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Storage: StorageConfig{
			ProjectsDir: getEnv("PROJECTS_DIR", "projects"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Janitor: JanitorConfig{
			Spec:       getEnv("JANITOR_SPEC", "0 */10 * * * *"),
			TempMaxAge: time.Duration(getEnvAsInt("JANITOR_TEMP_MAX_AGE_MIN", 60)) * time.Minute,
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Storage.ProjectsDir == "" {
		return fmt.Errorf("PROJECTS_DIR is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
