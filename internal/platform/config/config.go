package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultProviderURL is used when SDN_PROVIDER_URL is unset.
const DefaultProviderURL = "http://localhost:8000"

// Server captures process level configuration.
type Server struct {
	Addr     string
	LogLevel string
	// TrustedProxies are addresses or CIDRs whose forwarding headers are
	// believed when resolving the client IP.
	TrustedProxies []string

	Provider  ProviderConfig
	Screening ScreeningConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// ProviderConfig configures the remote sanctions data provider.
type ProviderConfig struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultLimit   int
	LenientPayload bool
}

// ScreeningConfig bounds the batch orchestrator.
type ScreeningConfig struct {
	MaxInFlight  int
	MaxBatchSize int
}

// RedisConfig configures the optional Redis client backing the API rate limiter.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig configures per-client request limits on the HTTP API.
type RateLimitConfig struct {
	Disabled          bool
	RequestsPerWindow int
	Window            time.Duration
}

// EventsConfig configures the screening outcome event stream.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:           getEnv("SDNGUARD_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		Provider: ProviderConfig{
			BaseURL:        strings.TrimRight(getEnv("SDN_PROVIDER_URL", DefaultProviderURL), "/"),
			Timeout:        getEnvDuration("SDN_PROVIDER_TIMEOUT", 10*time.Second),
			DefaultLimit:   getEnvInt("SDN_DEFAULT_LIMIT", 100),
			LenientPayload: os.Getenv("SDN_LENIENT_PAYLOAD") == "true",
		},
		Screening: ScreeningConfig{
			MaxInFlight:  getEnvInt("SDN_MAX_IN_FLIGHT", 10),
			MaxBatchSize: getEnvInt("SDN_MAX_BATCH_SIZE", 1000),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Disabled:          os.Getenv("DISABLE_RATE_LIMITING") == "true",
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 600),
			Window:            getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Events: EventsConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("SCREENING_EVENTS_TOPIC", "sanctions.screening.completed"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("SDN_PROVIDER_TIMEOUT must be positive")
	}
	if c.Provider.DefaultLimit <= 0 {
		return fmt.Errorf("SDN_DEFAULT_LIMIT must be positive")
	}
	if c.Screening.MaxInFlight <= 0 {
		return fmt.Errorf("SDN_MAX_IN_FLIGHT must be positive")
	}
	if c.Screening.MaxBatchSize <= 0 {
		return fmt.Errorf("SDN_MAX_BATCH_SIZE must be positive")
	}
	if !c.RateLimit.Disabled && (c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
