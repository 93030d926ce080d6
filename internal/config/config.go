package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	RedisURI      string
	RabbitMQURI   string
	Exchange      string
	JWTSecret     string
	TokenTTL      time.Duration

	LogLevel       string
	LogDevelopment bool

	CORSAllowedOrigins string

	Selection  SelectionConfig
	Completion *CompletionConfig
}

// SelectionConfig tunes the adaptive selection engine
type SelectionConfig struct {
	// Deadline bounds one Select call end to end
	Deadline time.Duration
	CacheTTL time.Duration
	// CacheTimeout bounds one cache read or write inside a selection
	CacheTimeout time.Duration
	// BypassThreshold: at or below this many remaining questions the engine
	// returns them all without consulting the completion service
	BypassThreshold int
	MaxQuestions    int
	HistoryLimit    int
	// LogInterval throttles repeated engine log lines per key
	LogInterval time.Duration
}

// DefaultSelectionConfig returns the engine defaults
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Deadline:        10 * time.Second,
		CacheTTL:        time.Hour,
		CacheTimeout:    500 * time.Millisecond,
		BypassThreshold: 5,
		MaxQuestions:    3,
		HistoryLimit:    3,
		LogInterval:     30 * time.Second,
	}
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	sel := DefaultSelectionConfig()
	var err error
	if sel.Deadline, err = getEnvDuration("ENGINE_DEADLINE", sel.Deadline); err != nil {
		return nil, err
	}
	if sel.CacheTTL, err = getEnvDuration("SELECTION_CACHE_TTL", sel.CacheTTL); err != nil {
		return nil, err
	}
	if sel.CacheTimeout, err = getEnvDuration("SELECTION_CACHE_TIMEOUT", sel.CacheTimeout); err != nil {
		return nil, err
	}
	if sel.LogInterval, err = getEnvDuration("SELECTION_LOG_INTERVAL", sel.LogInterval); err != nil {
		return nil, err
	}

	completion, err := LoadCompletionConfig()
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		MongoURI:           getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnvOrDefault("MONGO_DATABASE", "adaptivequiz"),
		RedisURI:           os.Getenv("REDIS_URI"),
		RabbitMQURI:        os.Getenv("RABBITMQ_URI"),
		Exchange:           getEnvOrDefault("RABBITMQ_EXCHANGE", "quiz.events"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
		TokenTTL:           tokenTTL,
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogDevelopment:     getEnvBool("LOG_DEVELOPMENT", false),
		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"),
		Selection:          sel,
		Completion:         completion,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces cross-field constraints
func (c *Config) Validate() error {
	if c.Selection.Deadline <= 0 {
		return errors.New("config: ENGINE_DEADLINE must be positive")
	}
	if c.Selection.CacheTimeout <= 0 || c.Selection.CacheTimeout >= c.Selection.Deadline {
		return errors.New("config: SELECTION_CACHE_TIMEOUT must be positive and shorter than ENGINE_DEADLINE")
	}
	if c.Selection.CacheTTL <= 0 {
		return errors.New("config: SELECTION_CACHE_TTL must be positive")
	}
	if c.Completion == nil {
		return errors.New("config: completion settings missing")
	}
	if err := c.Completion.Validate(); err != nil {
		return err
	}
	// the completion call must leave the engine time to fall back
	if c.Completion.Timeout >= c.Selection.Deadline {
		return fmt.Errorf("config: COMPLETION_TIMEOUT (%s) must be shorter than ENGINE_DEADLINE (%s)",
			c.Completion.Timeout, c.Selection.Deadline)
	}
	return nil
}

// RedisAddr strips an optional redis:// scheme from RedisURI
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
