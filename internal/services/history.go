package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/accessory"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"go.uber.org/zap"
)

// HistorySampler copies the live current conditions into the history log.
type HistorySampler struct {
	registry *accessory.Registry
	writer   *accessory.Writer
	logger   *zap.Logger
	now      func() time.Time
}

func NewHistorySampler(registry *accessory.Registry, writer *accessory.Writer, logger *zap.Logger) *HistorySampler {
	return &HistorySampler{
		registry: registry,
		writer:   writer,
		logger:   logger,
		now:      time.Now,
	}
}

// Sample appends one record when the current conditions accessory has a live
// temperature. It reports whether a record was written.
func (s *HistorySampler) Sample(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	current, ok := s.registry.Current()
	if !ok || current.History == nil {
		return false, nil
	}

	temperature, ok := s.read(current, models.Temperature)
	if !ok {
		s.logger.Debug("Skipping history sample, no temperature yet")
		return false, nil
	}

	record := models.HistoryRecord{
		Time:        s.now().Unix(),
		Temperature: temperature,
	}
	if v, ok := s.read(current, models.AirPressure); ok {
		record.Pressure = &v
	}
	if v, ok := s.read(current, models.Humidity); ok {
		record.Humidity = &v
	}

	if err := current.History.Append(record); err != nil {
		return false, fmt.Errorf("appending history record: %w", err)
	}

	s.logger.Debug("History sample recorded",
		zap.Float64("temperature", record.Temperature),
		zap.Int64("time", record.Time))

	return true, nil
}

func (s *HistorySampler) read(a *accessory.Accessory, field models.Field) (float64, bool) {
	c, ok := s.writer.Read(a.Sensor, field)
	if !ok {
		return 0, false
	}
	return c.Float()
}
