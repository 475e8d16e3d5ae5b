package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Rates    RatesConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RatesConfig configures the external exchange-rate service.
type RatesConfig struct {
	BaseURL             string
	APIKey              string
	Timeout             time.Duration
	CacheTTL            time.Duration
	CacheBackend        string
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

type RedisConfig struct {
	URL string
}

// JWTConfig holds what is needed to verify tokens minted by the auth service.
// Signing happens elsewhere; this service never sees a private key.
type JWTConfig struct {
	PublicKey *rsa.PublicKey
	Issuer    string
}

type SecurityConfig struct {
	RateLimitPerSecond int
	RateLimitBurst     int
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Load reads configuration from the environment, after merging a .env file when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment overrides from .env")
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:  getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "finance_user"),
			Password:        getEnv("DB_PASSWORD", "finance_password"),
			Name:            getEnv("DB_NAME", "finance_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Rates: RatesConfig{
			BaseURL:             getEnv("RATES_BASE_URL", "https://api.exchangerate.host/latest"),
			APIKey:              getEnv("RATES_API_KEY", ""),
			Timeout:             getDurationEnv("RATES_TIMEOUT", 5*time.Second),
			CacheTTL:            getDurationEnv("RATES_CACHE_TTL", time.Hour),
			CacheBackend:        strings.ToLower(getEnv("RATES_CACHE_BACKEND", CacheBackendMemory)),
			BreakerMaxFailures:  getIntEnv("RATES_BREAKER_MAX_FAILURES", 5),
			BreakerResetTimeout: getDurationEnv("RATES_BREAKER_RESET", 30*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "localhost:6379"),
		},
		Security: SecurityConfig{
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 10),
		},
		JWT: JWTConfig{
			Issuer: getEnv("JWT_ISSUER", "finance-tracker"),
		},
	}

	config.Server.CORSAllowOrigins = config.loadCORSAllowOrigins()

	publicKey, err := config.loadJWTPublicKey()
	if err != nil {
		log.Fatal("Failed to load JWT public key:", err)
	}
	config.JWT.PublicKey = publicKey

	if err := config.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	return config
}

// Validate checks cross-field constraints that env parsing cannot express.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid SERVER_PORT %q", c.Server.Port))
	}

	switch c.Rates.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		problems = append(problems, fmt.Sprintf("invalid RATES_CACHE_BACKEND %q: must be memory or redis", c.Rates.CacheBackend))
	}

	if c.Rates.BaseURL == "" {
		problems = append(problems, "RATES_BASE_URL cannot be empty")
	}

	if c.Rates.Timeout <= 0 {
		problems = append(problems, "RATES_TIMEOUT must be positive")
	}

	if c.Rates.CacheBackend == CacheBackendRedis && c.Redis.URL == "" {
		problems = append(problems, "REDIS_URL is required when RATES_CACHE_BACKEND=redis")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsTesting() bool {
	return c.Server.Environment == "testing"
}

// AuthEnabled reports whether incoming requests must carry a verified token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.PublicKey != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// loadJWTPublicKey reads the base64-encoded PEM public key of the auth service.
// Production refuses to start without one; elsewhere a missing key disables auth.
func (c *Config) loadJWTPublicKey() (*rsa.PublicKey, error) {
	publicKeyB64 := os.Getenv("JWT_PUBLIC_KEY")

	if publicKeyB64 == "" {
		if c.IsProduction() {
			return nil, fmt.Errorf("JWT_PUBLIC_KEY environment variable must be set in production environments")
		}
		log.Println("JWT_PUBLIC_KEY not set: request authentication is disabled")
		return nil, nil
	}

	publicKeyBytes, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT_PUBLIC_KEY: %w", err)
	}

	return ParseRSAPublicKey(publicKeyBytes)
}

// loadCORSAllowOrigins retrieves CORS allowed origins from environment or returns default
func (c *Config) loadCORSAllowOrigins() []string {
	corsOrigins := os.Getenv("CORS_ALLOW_ORIGINS")

	if corsOrigins == "" {
		if c.IsProduction() {
			log.Println("WARNING: CORS_ALLOW_ORIGINS not set in production environment, defaulting to '*' (all origins)")
		}
		return []string{"*"}
	}

	origins := strings.Split(corsOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}

	log.Printf("CORS allowed origins configured: %v", origins)
	return origins
}

// ParseRSAPublicKey loads an RSA public key from PEM format
func ParseRSAPublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}

	publicKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPublicKey, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}

	return rsaPublicKey, nil
}
