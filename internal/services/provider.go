package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/bobby-s-dev/weather-plus/pkg/client"
	"go.uber.org/zap"
)

// Provider is a weather source normalized to the shared measurement vocabulary.
type Provider interface {
	Name() string
	ReportFields() []models.Field
	ForecastFields() []models.Field
	MaxForecastDays() int
	Attribution() string
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

type ProviderOptions struct {
	Key      string
	Location string
	Language string
	Client   client.ClientConfig
}

type providerFactory func(opts ProviderOptions, logger *zap.Logger) (Provider, error)

var providers = map[string]providerFactory{
	"darksky": func(opts ProviderOptions, logger *zap.Logger) (Provider, error) {
		return client.NewDarkSkyClient(opts.Key, opts.Location, opts.Language, opts.Client, logger)
	},
	"weatherunderground": func(opts ProviderOptions, logger *zap.Logger) (Provider, error) {
		return client.NewWeatherUndergroundClient(opts.Key, opts.Location, opts.Language, opts.Client, logger)
	},
	"openweathermap": func(opts ProviderOptions, logger *zap.Logger) (Provider, error) {
		return client.NewOpenWeatherMapClient(opts.Key, opts.Location, opts.Language, opts.Client, logger)
	},
	"openmeteo": func(opts ProviderOptions, logger *zap.Logger) (Provider, error) {
		return client.NewOpenMeteoClient(opts.Location, opts.Client, logger)
	},
}

// NormalizeServiceName lowercases name and strips all whitespace,
// so "Dark Sky" selects "darksky".
func NormalizeServiceName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// ProviderNames lists the registered provider names in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider builds the provider registered under service.
func NewProvider(service string, opts ProviderOptions, logger *zap.Logger) (Provider, error) {
	factory, ok := providers[NormalizeServiceName(service)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownService, service, strings.Join(ProviderNames(), ", "))
	}

	p, err := factory(opts, logger)
	if err != nil {
		return nil, err
	}
	if err := ValidateProvider(p); err != nil {
		return nil, err
	}

	logger.Info("Weather provider initialized",
		zap.String("provider", p.Name()),
		zap.Int("max_forecast_days", p.MaxForecastDays()))

	return p, nil
}

// ValidateProvider checks that every declared field is part of the vocabulary.
func ValidateProvider(p Provider) error {
	if p.MaxForecastDays() < 0 {
		return fmt.Errorf("provider %s: negative forecast days", p.Name())
	}
	for _, fields := range [][]models.Field{p.ReportFields(), p.ForecastFields()} {
		for _, field := range fields {
			if !models.IsKnownField(field) {
				return fmt.Errorf("provider %s: unknown field %q", p.Name(), field)
			}
		}
	}
	return nil
}
