package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Matching MatchingConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// Service match policies. Exact compares names case-insensitively;
// contains also matches when one name contains the other.
const (
	MatchModeExact    = "exact"
	MatchModeContains = "contains"
)

// MatchingConfig controls provider matching and the quote lifecycle.
type MatchingConfig struct {
	DefaultRadiusKm    float64
	MaxRadiusKm        float64
	ServiceMatchMode   string // "exact" or "contains"
	QuoteTTLMinutes    int
	OrderExpiryMinutes int
}

type PaymentConfig struct {
	MercadoPagoAccessToken string
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "carcare_marketplace_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Matching: MatchingConfig{
			DefaultRadiusKm:    getEnvAsFloat("MATCH_DEFAULT_RADIUS_KM", 20.0),
			MaxRadiusKm:        getEnvAsFloat("MATCH_MAX_RADIUS_KM", 50.0),
			ServiceMatchMode:   getEnvMatchMode("SERVICE_MATCH_POLICY", MatchModeExact),
			QuoteTTLMinutes:    getEnvAsInt("QUOTE_TTL_MINUTES", 30),
			OrderExpiryMinutes: getEnvAsInt("ORDER_EXPIRY_MINUTES", 60),
		},
		Payment: PaymentConfig{
			MercadoPagoAccessToken: getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvMatchMode normalizes the service match policy. Anything other than
// "exact" or "contains" falls back to the default.
func getEnvMatchMode(key, defaultValue string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == MatchModeContains || value == MatchModeExact {
		return value
	}
	return defaultValue
}
