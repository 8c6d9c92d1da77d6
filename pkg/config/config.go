package config

import (
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	BaseURL  string

	// AllowedOrigins feeds the CORS middleware; "*" allows any origin.
	AllowedOrigins []string

	DefaultValidity      time.Duration
	CodeLength           int
	ClickHistoryLimit    int
	SweepInterval        time.Duration
	RejectCodeCollisions bool
	TrustProxyHeaders    bool
	ShutdownTimeout      time.Duration

	Audit AuditConfig
}

// AuditConfig holds the remote audit log endpoints and credentials.
type AuditConfig struct {
	AuthURL      string
	LogURL       string
	Email        string
	Name         string
	RollNo       string
	AccessCode   string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	QueueSize    int
	TokenTTL     time.Duration
}

// Enabled reports whether both remote endpoints are configured.
func (a AuditConfig) Enabled() bool {
	return a.AuthURL != "" && a.LogURL != ""
}

const (
	minCodeLength = 4
	maxCodeLength = 32

	defaultValiditySeconds = 3600
	maxValiditySeconds     = math.MaxInt64 / int64(time.Second)
)

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		AppEnv:               getEnv("APP_ENV", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins:       getEnvList("FRONTEND_ORIGIN", []string{"*"}),
		DefaultValidity:      validityFromSeconds(getEnvInt("DEFAULT_VALIDITY_SECONDS", defaultValiditySeconds)),
		CodeLength:           getEnvInt("CODE_LENGTH", 8),
		ClickHistoryLimit:    getEnvInt("CLICK_HISTORY_LIMIT", 0),
		SweepInterval:        getEnvDuration("SWEEP_INTERVAL", 0),
		RejectCodeCollisions: getEnvBool("REJECT_CODE_COLLISIONS", false),
		TrustProxyHeaders:    getEnvBool("TRUST_PROXY_HEADERS", false),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Audit: AuditConfig{
			AuthURL:      getEnv("AUTH_URL", ""),
			LogURL:       getEnv("LOG_API_URL", ""),
			Email:        getEnv("AUDIT_EMAIL", ""),
			Name:         getEnv("AUDIT_NAME", ""),
			RollNo:       getEnv("AUDIT_ROLL_NO", ""),
			AccessCode:   getEnv("AUDIT_ACCESS_CODE", ""),
			ClientID:     getEnv("AUDIT_CLIENT_ID", ""),
			ClientSecret: getEnv("AUDIT_CLIENT_SECRET", ""),
			Timeout:      getEnvDuration("AUDIT_TIMEOUT", 5*time.Second),
			QueueSize:    getEnvInt("AUDIT_QUEUE_SIZE", 256),
			TokenTTL:     getEnvDuration("AUDIT_TOKEN_TTL", 10*time.Minute),
		},
	}

	cfg.CodeLength = min(max(cfg.CodeLength, minCodeLength), maxCodeLength)
	if cfg.ClickHistoryLimit < 0 {
		cfg.ClickHistoryLimit = 0
	}

	return cfg
}

// validityFromSeconds falls back to the default for values that are not
// positive or would overflow a time.Duration.
func validityFromSeconds(seconds int) time.Duration {
	if seconds <= 0 || int64(seconds) > maxValiditySeconds {
		slog.Warn("DEFAULT_VALIDITY_SECONDS out of range, using default",
			"value", seconds, "max", maxValiditySeconds, "default", defaultValiditySeconds)
		return defaultValiditySeconds * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel maps LOG_LEVEL onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
