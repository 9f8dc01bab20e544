package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultInterval is the update period used when none or an invalid one is configured.
const DefaultInterval = 4 * time.Minute

// ErrInvalidConfig is returned when the loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

type Config struct {
	Server struct {
		Port         string        `yaml:"port" validate:"required,numeric"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		LogLevel     string        `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	} `yaml:"server"`

	Weather struct {
		Service  string `yaml:"service" validate:"required"`
		Key      string `yaml:"key"`
		Location string `yaml:"location" validate:"required"`
		// Forecast holds the raw requested days; the accessory registry validates them.
		Forecast []interface{} `yaml:"forecast"`
		Language string        `yaml:"language"`
		// Interval is the raw configured value in minutes, see ParseInterval.
		Interval interface{} `yaml:"interval"`
	} `yaml:"weather"`

	History struct {
		Path       string        `yaml:"path"`
		MaxEntries int           `yaml:"maxEntries" validate:"gte=0"`
		MaxAge     time.Duration `yaml:"maxAge" validate:"gte=0"`
	} `yaml:"history"`

	CircuitBreaker struct {
		Threshold int           `yaml:"threshold" validate:"gte=0"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"circuitBreaker"`

	Retry struct {
		MaxRetries int           `yaml:"maxRetries" validate:"gte=0"`
		Delay      time.Duration `yaml:"delay"`
		Multiplier float64       `yaml:"multiplier" validate:"gte=0"`
	} `yaml:"retry"`

	HTTP struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`
}

func defaults() *Config {
	cfg := &Config{}

	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.LogLevel = "info"

	cfg.Weather.Language = "en"

	cfg.History.MaxEntries = 5000
	cfg.History.MaxAge = 30 * 24 * time.Hour

	cfg.CircuitBreaker.Threshold = 3
	cfg.CircuitBreaker.Timeout = 30 * time.Second

	cfg.Retry.MaxRetries = 3
	cfg.Retry.Delay = time.Second
	cfg.Retry.Multiplier = 2

	cfg.HTTP.Timeout = 10 * time.Second

	return cfg
}

// LoadConfig builds the configuration from defaults, the optional file at path,
// a .env file and the environment, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file found, using environment variables")
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("FIBER_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = parseDuration("FIBER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = parseDuration("FIBER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)

	cfg.Weather.Service = getEnv("WEATHER_SERVICE", cfg.Weather.Service)
	cfg.Weather.Key = getEnv("WEATHER_KEY", cfg.Weather.Key)
	cfg.Weather.Location = getEnv("WEATHER_LOCATION", cfg.Weather.Location)
	cfg.Weather.Language = getEnv("WEATHER_LANGUAGE", cfg.Weather.Language)
	if value := os.Getenv("WEATHER_FORECAST"); value != "" {
		cfg.Weather.Forecast = ParseForecastList(value)
	}
	if value := os.Getenv("WEATHER_INTERVAL"); value != "" {
		cfg.Weather.Interval = value
	}

	cfg.History.Path = getEnv("HISTORY_PATH", cfg.History.Path)
	cfg.History.MaxEntries = parseInt("HISTORY_MAX_ENTRIES", cfg.History.MaxEntries)
	cfg.History.MaxAge = parseDuration("HISTORY_MAX_AGE", cfg.History.MaxAge)

	cfg.CircuitBreaker.Threshold = parseInt("CIRCUIT_BREAKER_THRESHOLD", cfg.CircuitBreaker.Threshold)
	cfg.CircuitBreaker.Timeout = parseDuration("CIRCUIT_BREAKER_TIMEOUT", cfg.CircuitBreaker.Timeout)

	cfg.Retry.MaxRetries = parseInt("MAX_RETRIES", cfg.Retry.MaxRetries)
	cfg.Retry.Delay = parseDuration("RETRY_DELAY", cfg.Retry.Delay)
	cfg.Retry.Multiplier = parseFloat("RETRY_MULTIPLIER", cfg.Retry.Multiplier)

	cfg.HTTP.Timeout = parseDuration("HTTP_TIMEOUT", cfg.HTTP.Timeout)
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// UpdateInterval resolves the configured interval.
func (c *Config) UpdateInterval() time.Duration {
	return ParseInterval(c.Weather.Interval)
}

// ParseInterval converts a configured interval in minutes. Integers, floats and
// numeric strings are accepted and fractions are truncated. Anything else, or
// a value below one minute, yields DefaultInterval.
func ParseInterval(value interface{}) time.Duration {
	var minutes float64
	switch v := value.(type) {
	case int:
		minutes = float64(v)
	case int64:
		minutes = float64(v)
	case uint64:
		minutes = float64(v)
	case float64:
		minutes = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return DefaultInterval
		}
		minutes = f
	default:
		return DefaultInterval
	}

	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return DefaultInterval
	}
	minutes = math.Trunc(minutes)
	if minutes < 1 || minutes > math.MaxInt32 {
		return DefaultInterval
	}
	return time.Duration(minutes) * time.Minute
}

// ParseForecastList splits a comma separated day list. Integers and floats are
// converted; other entries are kept as strings so they can be reported.
func ParseForecastList(value string) []interface{} {
	var days []interface{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			days = append(days, n)
		} else if f, err := strconv.ParseFloat(part, 64); err == nil {
			days = append(days, f)
		} else {
			days = append(days, part)
		}
	}
	return days
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("key", key), zap.String("value", value), zap.Error(err))
		return defaultValue
	}
	return duration
}

func parseInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("key", key), zap.String("value", value), zap.Error(err))
		return defaultValue
	}
	return intValue
}

func parseFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("key", key), zap.String("value", value), zap.Error(err))
		return defaultValue
	}
	return floatValue
}
