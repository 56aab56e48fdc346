package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Grant policy configuration
	CodeTTL         time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// ID token configuration
	Issuer     string
	RSAKeySize int

	// Bearer authentication for the authorize and client management endpoints
	AuthJWTSecret string

	// Server configuration
	ServerPort int
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "",
		DBPassword: "",
		DBName:     "",

		CodeTTL:         10 * time.Minute,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 720 * time.Hour,

		Issuer:     "http://localhost:8080",
		RSAKeySize: 2048,

		AuthJWTSecret: "",

		ServerPort: 8080,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	codeTTL, err := time.ParseDuration(getEnv("OAUTH_CODE_TTL", "10m"))
	if err != nil {
		return nil, err
	}

	accessTTL, err := time.ParseDuration(getEnv("OAUTH_ACCESS_TOKEN_TTL", "1h"))
	if err != nil {
		return nil, err
	}

	refreshTTL, err := time.ParseDuration(getEnv("OAUTH_REFRESH_TOKEN_TTL", "720h"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "owner"),
		DBPassword: getEnv("DB_PASSWORD", "ownerTest"),
		DBName:     getEnv("DB_NAME", "oauth"),

		CodeTTL:         codeTTL,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		Issuer:     getEnv("OAUTH_ISSUER", "http://localhost:8080"),
		RSAKeySize: getEnvInt("RSA_KEY_SIZE", 2048),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		ServerPort: getEnvInt("PORT", 8080),
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
