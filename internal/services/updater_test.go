package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bobby-s-dev/weather-plus/internal/accessory"
	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	report   []models.Field
	forecast []models.Field
	maxDays  int
	snapshot *models.Snapshot
	err      error
	calls    int
}

func (p *fakeProvider) Name() string                   { return "fake" }
func (p *fakeProvider) Attribution() string            { return "Fake Weather" }
func (p *fakeProvider) ReportFields() []models.Field   { return p.report }
func (p *fakeProvider) ForecastFields() []models.Field { return p.forecast }
func (p *fakeProvider) MaxForecastDays() int           { return p.maxDays }

func (p *fakeProvider) Fetch(ctx context.Context) (*models.Snapshot, error) {
	p.calls++
	return p.snapshot, p.err
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		report:   []models.Field{models.Temperature, models.Humidity, models.AirPressure, models.Condition},
		forecast: []models.Field{models.Temperature, models.TemperatureMin, models.ForecastDay},
		maxDays:  3,
	}
}

type fixture struct {
	provider *fakeProvider
	registry *accessory.Registry
	writer   *accessory.Writer
	updater  *Updater
	log      *history.MemoryLog
}

func newFixture(t *testing.T, days ...interface{}) *fixture {
	t.Helper()
	return newFixtureWith(t, newFakeProvider(), days...)
}

func newFixtureWith(t *testing.T, p *fakeProvider, days ...interface{}) *fixture {
	t.Helper()

	writer := accessory.NewWriter(accessory.DefaultCustomCharacteristics())
	log := history.NewMemoryLog(0, 0)

	registry, err := accessory.NewRegistry(days, p, accessory.RegistryOptions{
		Location: "test",
		Writer:   writer,
		History:  log,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	return &fixture{
		provider: p,
		registry: registry,
		writer:   writer,
		updater:  NewUpdater(p, registry, writer, zap.NewNop()),
		log:      log,
	}
}

func (f *fixture) value(t *testing.T, index int, field models.Field) (interface{}, bool) {
	t.Helper()
	a := f.registry.Accessories()[index]
	c, ok := f.writer.Read(a.Sensor, field)
	require.True(t, ok, "%s not attached to %s", field, a.Name)
	return c.Value()
}

// Tests that a failed fetch writes nothing and keeps the previous values.
func TestUpdateFetchFailureKeepsValues(t *testing.T) {
	f := newFixture(t, 1)
	f.provider.snapshot = &models.Snapshot{
		Report:    models.Measurements{models.Temperature: 20.0},
		Forecasts: []models.Measurements{{models.Temperature: 25.0}},
	}

	_, err := f.updater.Update(context.Background())
	require.NoError(t, err)

	f.provider.snapshot = nil
	f.provider.err = errors.New("boom")
	result, err := f.updater.Update(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "fake", fetchErr.Provider)

	v, _ := f.value(t, 0, models.Temperature)
	assert.Equal(t, 20.0, v)
	v, _ = f.value(t, 1, models.Temperature)
	assert.Equal(t, 25.0, v)

	stats := f.updater.Stats()
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, "boom", stats.LastError)
}

// Tests that a write failure on one accessory does not stop the others.
func TestDistributeIsolatesFailures(t *testing.T) {
	f := newFixture(t, 1, 2)

	result := f.updater.Distribute(&models.Snapshot{
		Report: models.Measurements{models.Temperature: 18.0},
		Forecasts: []models.Measurements{
			{models.Temperature: "hot", models.ForecastDay: "Monday"},
			{models.Temperature: 21.0, models.ForecastDay: "Tuesday"},
		},
	})

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)

	var writeErr *WriteError
	require.ErrorAs(t, result.Errors[0], &writeErr)
	assert.Equal(t, "Today", writeErr.Accessory)
	assert.Equal(t, models.Temperature, writeErr.Field)
	assert.Equal(t, "Monday", writeErr.Data[models.ForecastDay])
	assert.ErrorIs(t, writeErr, accessory.ErrInvalidValue)

	v, ok := f.value(t, 0, models.Temperature)
	assert.True(t, ok)
	assert.Equal(t, 18.0, v)
	v, _ = f.value(t, 2, models.Temperature)
	assert.Equal(t, 21.0, v)
	v, _ = f.value(t, 2, models.ForecastDay)
	assert.Equal(t, "Tuesday", v)
}

// Tests that a panic inside one accessory update is recovered.
func TestDistributeRecoversPanic(t *testing.T) {
	f := newFixture(t, 1)
	f.registry.Accessories()[1].Sensor = nil

	result := f.updater.Distribute(&models.Snapshot{
		Report:    models.Measurements{models.Temperature: 10.0},
		Forecasts: []models.Measurements{{models.Temperature: 12.0}},
	})

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0].Error(), "panic")
}

// Tests that distributing the same snapshot twice leaves the same state.
func TestDistributeIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	snapshot := &models.Snapshot{
		Report:    models.Measurements{models.Temperature: 5.5, models.Humidity: 40, models.Condition: "Clear"},
		Forecasts: []models.Measurements{{models.Temperature: 9.0, models.TemperatureMin: -3.0}},
	}

	f.updater.Distribute(snapshot)
	first := f.registry.Accessories()[0].Sensor.Values()
	firstForecast := f.registry.Accessories()[1].Sensor.Values()

	f.updater.Distribute(snapshot)
	assert.Equal(t, first, f.registry.Accessories()[0].Sensor.Values())
	assert.Equal(t, firstForecast, f.registry.Accessories()[1].Sensor.Values())
}

// Tests that only the fields present in a partial report are written.
func TestDistributePartialReport(t *testing.T) {
	f := newFixture(t)

	result := f.updater.Distribute(&models.Snapshot{
		Report: models.Measurements{models.Temperature: 20.5, models.Humidity: nil},
	})
	assert.Equal(t, 1, result.Written)

	v, ok := f.value(t, 0, models.Temperature)
	assert.True(t, ok)
	assert.Equal(t, 20.5, v)

	_, ok = f.value(t, 0, models.Humidity)
	assert.False(t, ok)
	_, ok = f.value(t, 0, models.AirPressure)
	assert.False(t, ok)
}

// Tests that accessories without data in the snapshot are skipped.
func TestDistributeSkipsMissingGroups(t *testing.T) {
	f := newFixture(t, 1, 3)

	result := f.updater.Distribute(&models.Snapshot{
		Forecasts: []models.Measurements{{models.Temperature: 1.0}, nil},
	})
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Failed)
}

// Tests the registry built for days [1, 2, 40] against a three day provider.
func TestRegistryDropsUnsupportedDays(t *testing.T) {
	f := newFixture(t, 1, 2, 40)

	names := []string{}
	for _, a := range f.registry.Accessories() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Now", "Today", "In 1 Day"}, names)

	f.provider.snapshot = &models.Snapshot{
		Report: models.Measurements{models.Temperature: 3.0},
		Forecasts: []models.Measurements{
			{models.Temperature: 4.0}, {models.Temperature: 5.0}, {models.Temperature: 6.0},
		},
	}
	result, err := f.updater.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Written)

	v, _ := f.value(t, 2, models.Temperature)
	assert.Equal(t, 5.0, v)
}

// Tests that a report without temperature fails only the current accessory.
func TestDistributeReportWithoutTemperature(t *testing.T) {
	f := newFixture(t, 1)

	result := f.updater.Distribute(&models.Snapshot{
		Report:    models.Measurements{models.Humidity: 55},
		Forecasts: []models.Measurements{{models.Temperature: 14.0}},
	})

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)

	var writeErr *WriteError
	require.ErrorAs(t, result.Errors[0], &writeErr)
	assert.Equal(t, "Now", writeErr.Accessory)
	assert.Equal(t, models.Temperature, writeErr.Field)
	assert.Equal(t, 55, writeErr.Data[models.Humidity])
	assert.ErrorIs(t, writeErr, ErrMissingTemperature)

	_, ok := f.value(t, 0, models.Humidity)
	assert.False(t, ok)
	v, _ := f.value(t, 1, models.Temperature)
	assert.Equal(t, 14.0, v)
}

// Tests that temperature is written even when an earlier declared field is out of range.
func TestDistributeWritesTemperatureFirst(t *testing.T) {
	p := newFakeProvider()
	p.report = []models.Field{models.AirPressure, models.Humidity, models.Temperature}
	f := newFixtureWith(t, p)

	result := f.updater.Distribute(&models.Snapshot{
		Report: models.Measurements{models.AirPressure: 5000.0, models.Humidity: 60, models.Temperature: -12.0},
	})

	assert.Equal(t, 1, result.Failed)
	var writeErr *WriteError
	require.ErrorAs(t, result.Errors[0], &writeErr)
	assert.Equal(t, models.AirPressure, writeErr.Field)
	assert.ErrorIs(t, writeErr, accessory.ErrOutOfRange)

	v, ok := f.value(t, 0, models.Temperature)
	require.True(t, ok)
	assert.Equal(t, -12.0, v)
	_, ok = f.value(t, 0, models.Humidity)
	assert.False(t, ok)
}

func TestWriteOrder(t *testing.T) {
	assert.Equal(t,
		[]models.Field{models.Temperature, models.AirPressure, models.Humidity},
		writeOrder([]models.Field{models.AirPressure, models.Temperature, models.Humidity}))
	assert.Equal(t, []models.Field{models.Humidity}, writeOrder([]models.Field{models.Humidity}))
}
