package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrMissingKey is returned when a provider that needs credentials has none.
	ErrMissingKey = errors.New("api key is required")
	// ErrInvalidLocation is returned when the configured location cannot be used.
	ErrInvalidLocation = errors.New("invalid location")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
	secret         string
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
	// BaseURL overrides the provider's public endpoint.
	BaseURL string
}

// DefaultClientConfig mirrors the service defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		Multiplier:     2,
		Threshold:      3,
		BreakerTimeout: 30 * time.Second,
	}
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	threshold := config.Threshold
	if threshold <= 0 {
		threshold = 3
	}
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(threshold) && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     multiplier,
	}
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *BaseClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	data, err := c.GetWithRetry(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *BaseClient) GetWithRetry(ctx context.Context, url string) ([]byte, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doGetWithRetry(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Calculate exponential backoff delay
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("url", c.redact(url)),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("HTTP request failed",
				zap.String("url", c.redact(url)),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()

			if err != nil {
				lastErr = err
				continue
			}

			c.logger.Debug("Request successful",
				zap.String("url", c.redact(url)),
				zap.Int("status", resp.StatusCode),
				zap.Int("body_size", len(body)))

			return body, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)

		// Don't retry on client errors (4xx) except 429 (rate limiting)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}

// redact hides the provider credential in logged URLs.
func (c *BaseClient) redact(url string) string {
	if c.secret == "" {
		return url
	}
	return strings.ReplaceAll(url, c.secret, "***")
}
