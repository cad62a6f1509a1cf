package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Input data
	Data DataConfig

	// Price change calculation
	Analysis AnalysisConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Services
	API       APIConfig
	WSGateway WSGatewayConfig
}

// DataConfig holds input table configuration
type DataConfig struct {
	Source          string // "csv" or "postgres"
	PricesFile      string
	MetadataFile    string
	DuplicatePolicy string // "last" or "first"
	ReloadInterval  time.Duration
	Cache           string // "memory" or "redis"
	CacheTTL        time.Duration
	CacheKeyPrefix  string
}

// AnalysisConfig holds calculator configuration
type AnalysisConfig struct {
	Workers int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port                int
	JWTSecret           string
	RateLimitRPS        int
	AllowedOrigins      []string
	MaxChartCommodities int
	ShutdownTimeout     time.Duration
}

// WSGatewayConfig holds WebSocket gateway configuration
type WSGatewayConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxConnections int
	JWTSecret      string
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Data: DataConfig{
			Source:          getEnv("DATA_SOURCE", "csv"),
			PricesFile:      getEnv("DATA_PRICES_FILE", "data/commodity_prices.csv"),
			MetadataFile:    getEnv("DATA_METADATA_FILE", "data/commodity_list.csv"),
			DuplicatePolicy: getEnv("DATA_DUPLICATE_POLICY", "last"),
			ReloadInterval:  getEnvAsDuration("DATA_RELOAD_INTERVAL", 30*time.Second),
			Cache:           getEnv("DATA_CACHE", "memory"),
			CacheTTL:        getEnvAsDuration("DATA_CACHE_TTL", 24*time.Hour),
			CacheKeyPrefix:  getEnv("DATA_CACHE_KEY_PREFIX", "commodity:tables:"),
		},
		Analysis: AnalysisConfig{
			Workers: getEnvAsInt("ANALYSIS_WORKERS", 4),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "commodities"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		API: APIConfig{
			Port:                getEnvAsInt("API_PORT", 8090),
			JWTSecret:           getEnv("API_JWT_SECRET", ""),
			RateLimitRPS:        getEnvAsInt("API_RATE_LIMIT_RPS", 100),
			AllowedOrigins:      getEnvAsStringSlice("API_ALLOWED_ORIGINS", []string{"*"}),
			MaxChartCommodities: getEnvAsInt("API_MAX_CHART_COMMODITIES", 10),
			ShutdownTimeout:     getEnvAsDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		WSGateway: WSGatewayConfig{
			ReadTimeout:    getEnvAsDuration("WS_GATEWAY_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getEnvAsDuration("WS_GATEWAY_WRITE_TIMEOUT", 10*time.Second),
			PingInterval:   getEnvAsDuration("WS_GATEWAY_PING_INTERVAL", 30*time.Second),
			MaxConnections: getEnvAsInt("WS_GATEWAY_MAX_CONNECTIONS", 1000),
			JWTSecret:      getEnv("WS_GATEWAY_JWT_SECRET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv":
		if c.Data.PricesFile == "" || c.Data.MetadataFile == "" {
			return fmt.Errorf("DATA_PRICES_FILE and DATA_METADATA_FILE are required for the csv source")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres source")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be csv or postgres, got %q", c.Data.Source)
	}

	switch strings.ToLower(c.Data.DuplicatePolicy) {
	case "", "last", "last_wins", "first", "first_wins":
	default:
		return fmt.Errorf("DATA_DUPLICATE_POLICY must be last or first, got %q", c.Data.DuplicatePolicy)
	}

	switch c.Data.Cache {
	case "memory":
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis cache")
		}
	default:
		return fmt.Errorf("DATA_CACHE must be memory or redis, got %q", c.Data.Cache)
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}
	if c.API.MaxChartCommodities < 1 {
		return fmt.Errorf("API_MAX_CHART_COMMODITIES must be at least 1")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
