package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	CORSOrigins []string

	// Storage backend: postgres, sqlite or mongo
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string
	MongoURI   string

	// Change events
	NATSURL   string
	NATSToken string

	// Identity provider
	IdentityTokenSecret string
	IdentityIssuer      string

	// Domain
	Location           *time.Location
	RankingTopNDefault int
}

var appConfig *Config

const devTokenSecret = "fallback-secret-key-for-dev-only"

// ErrMissingTokenSecret is returned when production runs without an identity
// token secret.
var ErrMissingTokenSecret = errors.New("IDENTITY_TOKEN_SECRET must be set in production")

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "bankroll"),
		DBPassword: getEnv("DB_PASSWORD", "bankroll"),
		DBName:     getEnv("DB_NAME", "bankroll"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/bankroll.db"),
		MongoURI:   getEnv("MONGODB_URI", "mongodb://localhost:27017/bankroll"),

		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		IdentityTokenSecret: getEnv("IDENTITY_TOKEN_SECRET", devTokenSecret),
		IdentityIssuer:      getEnv("IDENTITY_ISSUER", ""),
	}

	if config.Env == "production" && os.Getenv("IDENTITY_TOKEN_SECRET") == "" {
		return nil, ErrMissingTokenSecret
	}

	tz := getEnv("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: invalid TIMEZONE value '%s', falling back to Local\n", tz)
		loc = time.Local
	}
	config.Location = loc

	topN, err := strconv.Atoi(getEnv("RANKING_TOP_N_DEFAULT", "10"))
	if err != nil || topN <= 0 {
		log.Printf("Warning: invalid RANKING_TOP_N_DEFAULT, falling back to 10\n")
		topN = 10
	}
	config.RankingTopNDefault = topN

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

// Set replaces the process-wide configuration. Tests use it to pin secrets.
func Set(cfg *Config) {
	appConfig = cfg
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
