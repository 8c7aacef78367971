package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"namaz-tracker/internal/prayers"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Sessions
	SessionSweepInterval time.Duration
	MinPasswordLength    int

	// Live events
	EventWorkers   int
	EventQueueSize int

	// Tracking
	Prayers        []string
	TimeZone       string
	MaxHistoryDays int

	// Frontend
	FrontendURL string
}

// ClientConfig configures the terminal front-end.
type ClientConfig struct {
	ServerURL string
	Env       string

	Prayers  []string
	TimeZone string

	// History view
	HistoryDays    int
	HistoryOptions []int
	HistoryQuery   string // "range" | "recent"

	BannerTTL      time.Duration
	RequestTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		AccessTokenTTL:       getEnvAsDurationOrDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      getEnvAsDurationOrDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SessionSweepInterval: getEnvAsDurationOrDefault("SESSION_SWEEP_INTERVAL", time.Minute),
		MinPasswordLength:    getEnvAsIntOrDefault("MIN_PASSWORD_LENGTH", 6),
		EventWorkers:         getEnvAsIntOrDefault("EVENT_WORKERS", 4),
		EventQueueSize:       getEnvAsIntOrDefault("EVENT_QUEUE_SIZE", 256),
		Prayers:              getEnvAsListOrDefault("PRAYERS", prayers.DefaultNames),
		TimeZone:             getEnvOrDefault("TIMEZONE", "Local"),
		MaxHistoryDays:       getEnvAsIntOrDefault("MAX_HISTORY_DAYS", 90),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func LoadClient() *ClientConfig {
	godotenv.Load()

	cfg := &ClientConfig{
		ServerURL:      getEnvOrDefault("SERVER_URL", "http://localhost:8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		Prayers:        getEnvAsListOrDefault("PRAYERS", prayers.DefaultNames),
		TimeZone:       getEnvOrDefault("TIMEZONE", "Local"),
		HistoryDays:    getEnvAsIntOrDefault("HISTORY_DAYS", 7),
		HistoryOptions: getEnvAsIntListOrDefault("HISTORY_OPTIONS", []int{7, 14, 30}),
		HistoryQuery:   getEnvOrDefault("HISTORY_QUERY", "range"),
		BannerTTL:      getEnvAsDurationOrDefault("BANNER_TTL", 5*time.Second),
		RequestTimeout: getEnvAsDurationOrDefault("REQUEST_TIMEOUT", 10*time.Second),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// getEnvAsListOrDefault splits a comma separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return out
}

func getEnvAsIntListOrDefault(key string, defaultVal []int) []int {
	parts := getEnvAsListOrDefault(key, nil)
	if len(parts) == 0 {
		return append([]int(nil), defaultVal...)
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return append([]int(nil), defaultVal...)
		}
		out = append(out, n)
	}
	return out
}
