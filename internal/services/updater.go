package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/accessory"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"go.uber.org/zap"
)

// DistributionResult counts accessories by outcome for one snapshot.
type DistributionResult struct {
	Written int
	Skipped int
	Failed  int
	Errors  []error
}

// Stats summarizes the update history for health reporting.
type Stats struct {
	LastFetch    time.Time
	LastSuccess  time.Time
	SuccessCount int
	FailureCount int
	LastError    string
	LastResult   *DistributionResult
}

// Updater fetches snapshots from the provider and writes them to the accessories.
type Updater struct {
	provider Provider
	registry *accessory.Registry
	writer   *accessory.Writer
	logger   *zap.Logger

	mu    sync.RWMutex
	stats Stats
}

func NewUpdater(provider Provider, registry *accessory.Registry, writer *accessory.Writer, logger *zap.Logger) *Updater {
	return &Updater{
		provider: provider,
		registry: registry,
		writer:   writer,
		logger:   logger,
	}
}

// Update runs one fetch and distribution. On fetch failure nothing is written.
func (u *Updater) Update(ctx context.Context) (*DistributionResult, error) {
	snapshot, err := u.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return u.Distribute(snapshot), nil
}

// Fetch asks the provider for a new snapshot.
func (u *Updater) Fetch(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()

	snapshot, err := u.provider.Fetch(ctx)
	if err == nil && snapshot == nil {
		err = fmt.Errorf("empty response")
	}

	u.mu.Lock()
	u.stats.LastFetch = start
	if err != nil {
		u.stats.FailureCount++
		u.stats.LastError = err.Error()
	}
	u.mu.Unlock()

	if err != nil {
		fetchErr := &FetchError{Provider: u.provider.Name(), Err: err}
		u.logger.Error("Failed to fetch weather data",
			zap.String("provider", u.provider.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, fetchErr
	}

	u.logger.Debug("Weather data fetched",
		zap.String("provider", u.provider.Name()),
		zap.Bool("report", snapshot.Report != nil),
		zap.Int("forecasts", len(snapshot.Forecasts)),
		zap.Duration("duration", time.Since(start)))

	return snapshot, nil
}

// Distribute writes snapshot to every accessory in registry order. A failing
// accessory is logged and counted; it never stops the others.
func (u *Updater) Distribute(snapshot *models.Snapshot) *DistributionResult {
	result := &DistributionResult{}

	for _, a := range u.registry.Accessories() {
		written, err := u.updateAccessory(a, snapshot)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, err)
			u.logger.Error("Failed to update accessory",
				zap.String("accessory", a.Name),
				zap.String("field", string(err.Field)),
				zap.Any("data", err.Data),
				zap.Error(err.Err))
		case written:
			result.Written++
		default:
			result.Skipped++
		}
	}

	u.mu.Lock()
	u.stats.SuccessCount++
	u.stats.LastSuccess = time.Now()
	u.stats.LastResult = result
	u.mu.Unlock()

	u.logger.Info("Weather data distributed",
		zap.Int("written", result.Written),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result
}

// updateAccessory writes the measurement group for a's variant. The first
// failing field ends the update of a. A current report without temperature is malformed.
func (u *Updater) updateAccessory(a *accessory.Accessory, snapshot *models.Snapshot) (written bool, werr *WriteError) {
	var data models.Measurements

	defer func() {
		if r := recover(); r != nil {
			written = false
			werr = &WriteError{Accessory: a.Name, Data: data, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch a.Variant.Kind {
	case accessory.KindCurrent:
		data = snapshot.Report
	case accessory.KindForecast:
		data, _ = snapshot.ForecastFor(a.Variant.Day)
	}
	if data == nil {
		return false, nil
	}
	if a.IsCurrent() {
		if _, ok := data.Get(models.Temperature); !ok {
			return false, &WriteError{Accessory: a.Name, Field: models.Temperature, Data: data, Err: ErrMissingTemperature}
		}
	}

	for _, field := range writeOrder(a.Fields) {
		value, ok := data.Get(field)
		if !ok {
			continue
		}
		if err := u.writer.Write(a.Sensor, field, value); err != nil {
			return false, &WriteError{Accessory: a.Name, Field: field, Data: data, Err: err}
		}
	}
	return true, nil
}

// writeOrder puts Temperature first so a bad value in another field cannot leave it stale.
func writeOrder(fields []models.Field) []models.Field {
	ordered := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f == models.Temperature {
			ordered = append(ordered, f)
		}
	}
	for _, f := range fields {
		if f != models.Temperature {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

func (u *Updater) Stats() Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stats
}

func (u *Updater) Provider() Provider {
	return u.provider
}
