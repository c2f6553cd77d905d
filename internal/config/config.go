package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBDriver   string // sqlite or postgres
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued after PIN unlock
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Duplicate-match policy for backup reconciliation. These are
	// deliberately tunable: the heuristic approximates "same real-world
	// record" and the right thresholds are a product decision.
	MatchAmountTolerance float64
	MatchDateWindow      time.Duration

	// Exchange rates
	RatesBaseURL        string
	RatesUpdateSchedule string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "debtbook.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "debtbook"),
		DBPassword: getEnv("DB_PASSWORD", "debtbook"),
		DBName:     getEnv("DB_NAME", "debtbook"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Session tokens
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Rates
		RatesBaseURL:        getEnv("RATES_BASE_URL", "https://api.frankfurter.dev/v1"),
		RatesUpdateSchedule: getEnv("RATES_UPDATE_SCHEDULE", "@every 12h"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	config.MatchAmountTolerance = getEnvFloat("MATCH_AMOUNT_TOLERANCE", 0.01)

	windowStr := getEnv("MATCH_DATE_WINDOW", "24h")
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		log.Printf("Warning: invalid MATCH_DATE_WINDOW value '%s', falling back to 24h\n", windowStr)
		window = 24 * time.Hour
	}
	config.MatchDateWindow = window

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, value, defaultValue)
		return defaultValue
	}
	return f
}
