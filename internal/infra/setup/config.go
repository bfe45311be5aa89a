package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every process-wide setting read once at startup.
type Config struct {
	ListenAddr string
	DBConnection string

	// PublisherBackend selects the Publisher implementation: "memory" (the
	// default, an in-process Broker) or "redis" (RedisPublisher, for
	// deployments running more than one API process).
	PublisherBackend string
	PublisherKey     string
	PublisherCluster string
	PublisherSecret  string

	AuthProviderBaseURL string
	AuthProviderAppID   string
	AuthProviderSecret  string

	TokenSecret string
	TokenTTL    time.Duration

	// StaleRoomTTL is the Stale Room Reaper's idle threshold: a waiting
	// room untouched for longer than this is swept and closed.
	StaleRoomTTL time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads Config from the environment, loading a .env file first if one
// is present (missing .env is not an error — production deploys set the
// environment directly).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("setup: load .env: %w", err)
	}

	cfg := Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		DBConnection:        os.Getenv("DB_CONNECTION"),
		PublisherBackend:    getEnv("PUBLISHER_BACKEND", "memory"),
		PublisherKey:        getEnv("PUBLISHER_KEY", "127.0.0.1:6379"),
		PublisherCluster:    os.Getenv("PUBLISHER_CLUSTER"),
		PublisherSecret:     os.Getenv("PUBLISHER_SECRET"),
		AuthProviderBaseURL: os.Getenv("AUTH_PROVIDER_BASE_URL"),
		AuthProviderAppID:   os.Getenv("AUTH_PROVIDER_APPID"),
		AuthProviderSecret:  os.Getenv("AUTH_PROVIDER_SECRET"),
		TokenSecret:         os.Getenv("TOKEN_SECRET"),
	}
	if cfg.DBConnection == "" {
		return Config{}, fmt.Errorf("setup: DB_CONNECTION environment variable not set")
	}
	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("setup: TOKEN_SECRET environment variable not set")
	}
	if cfg.PublisherBackend != "memory" && cfg.PublisherBackend != "redis" {
		return Config{}, fmt.Errorf("setup: PUBLISHER_BACKEND must be \"memory\" or \"redis\", got %q", cfg.PublisherBackend)
	}

	ttl, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = ttl

	staleTTL, err := getDuration("STALE_ROOM_TTL", 6*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.StaleRoomTTL = staleTTL

	rateLimitMax, err := getInt("RATE_LIMIT_MAX", 100)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitMax = rateLimitMax

	rateLimitWindow, err := getDuration("RATE_LIMIT_WINDOW", time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow = rateLimitWindow

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setup: %s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setup: %s must be an integer number of seconds: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}
