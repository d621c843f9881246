package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	LogLevel     string
	DatabasePath string

	// CSV export settings
	ExportDir     string
	MaxExportRows int

	// Hard cap for /api/transactions/{count}
	MaxBatchSize int

	// Global rate limiter (requests per second / burst)
	RateLimitPerSecond float64
	RateLimitBurst     int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxExportRows := getEnvAsInt("MAX_EXPORT_ROWS", 100000)
	if maxExportRows < 1 {
		log.Printf("WARNING: MAX_EXPORT_ROWS must be >= 1, got %d. Using default 100000.", maxExportRows)
		maxExportRows = 100000
	}

	maxBatchSize := getEnvAsInt("MAX_BATCH_SIZE", 1000)
	if maxBatchSize < 1 {
		log.Printf("WARNING: MAX_BATCH_SIZE must be >= 1, got %d. Using default 1000.", maxBatchSize)
		maxBatchSize = 1000
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./fraudstream.db"),

		ExportDir:     getEnv("EXPORT_DIR", "./exports"),
		MaxExportRows: maxExportRows,

		MaxBatchSize: maxBatchSize,

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, ExportDir=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ExportDir)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Float value for %s not set or empty, using default: %g", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}
