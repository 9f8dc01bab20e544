package accessory

import (
	"encoding/json"
	"testing"

	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type capability struct {
	maxDays int
}

func (c capability) ReportFields() []models.Field {
	return []models.Field{models.Temperature, models.Humidity, models.AirPressure, models.WindDirection}
}
func (c capability) ForecastFields() []models.Field {
	return []models.Field{models.Temperature, models.TemperatureMin, models.ForecastDay}
}
func (c capability) MaxForecastDays() int { return c.maxDays }
func (c capability) Attribution() string  { return "Powered by Test" }

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Today", DisplayName(0))
	assert.Equal(t, "In 1 Day", DisplayName(1))
	assert.Equal(t, "In 2 Days", DisplayName(2))
	assert.Equal(t, "In 7 Days", DisplayName(7))
}

func TestForecastDay(t *testing.T) {
	tests := []struct {
		value interface{}
		day   int
		ok    bool
	}{
		{1, 0, true},
		{3, 2, true},
		{int64(2), 1, true},
		{uint8(1), 0, true},
		{2.0, 1, true},
		{float32(3), 2, true},
		{0, 0, false},
		{4, 0, false},
		{-1, 0, false},
		{1.5, 0, false},
		{"2", 0, false},
		{nil, 0, false},
		{true, 0, false},
		{json.Number("2"), 0, false},
	}

	for _, tt := range tests {
		day, ok := ForecastDay(tt.value, 3)
		assert.Equal(t, tt.ok, ok, "%#v", tt.value)
		if tt.ok {
			assert.Equal(t, tt.day, day, "%#v", tt.value)
		}
	}
}

// Tests the registry for days [1, 2, 40] and a provider offering three days.
func TestNewRegistryDropsInvalidDays(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := history.NewMemoryLog(0, 0)

	r, err := NewRegistry([]interface{}{1, 2, 40}, capability{maxDays: 3}, RegistryOptions{
		Location: "37.8,-122.4",
		History:  log,
		Logger:   zap.New(core),
	})
	require.NoError(t, err)

	accessories := r.Accessories()
	require.Len(t, accessories, 3)
	assert.Equal(t, "Now", accessories[0].Name)
	assert.True(t, accessories[0].IsCurrent())
	assert.Equal(t, log, accessories[0].History)

	assert.Equal(t, "Today", accessories[1].Name)
	assert.Equal(t, ForecastVariant(0), accessories[1].Variant)
	assert.Nil(t, accessories[1].History)
	assert.Equal(t, "In 1 Day", accessories[2].Name)
	assert.Equal(t, ForecastVariant(1), accessories[2].Variant)

	warnings := logs.FilterMessage("Ignoring forecast day").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(3), warnings[0].ContextMap()["max_forecast_days"])
}

// Tests that duplicate days are kept as distinct accessories.
func TestNewRegistryKeepsDuplicates(t *testing.T) {
	r, err := NewRegistry([]interface{}{1, 1}, capability{maxDays: 3}, RegistryOptions{Location: "x"})
	require.NoError(t, err)

	accessories := r.Accessories()
	require.Len(t, accessories, 3)
	assert.Equal(t, accessories[1].Name, accessories[2].Name)
	assert.NotEqual(t, accessories[1].ID, accessories[2].ID)

	for _, a := range accessories {
		found, ok := r.ByID(a.ID)
		require.True(t, ok)
		assert.Same(t, a, found)
	}
}

// Tests that identifiers are stable across restarts.
func TestNewRegistryStableIDs(t *testing.T) {
	a, err := NewRegistry([]interface{}{1, 3}, capability{maxDays: 3}, RegistryOptions{Location: "x"})
	require.NoError(t, err)
	b, err := NewRegistry([]interface{}{1, 3}, capability{maxDays: 3}, RegistryOptions{Location: "x"})
	require.NoError(t, err)
	c, err := NewRegistry([]interface{}{1, 3}, capability{maxDays: 3}, RegistryOptions{Location: "y"})
	require.NoError(t, err)

	for i := range a.Accessories() {
		assert.Equal(t, a.Accessories()[i].ID, b.Accessories()[i].ID)
		assert.NotEqual(t, a.Accessories()[i].ID, c.Accessories()[i].ID)
	}
}

func TestNewRegistryNoForecasts(t *testing.T) {
	r, err := NewRegistry(nil, capability{maxDays: 0}, RegistryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "Now", current.Name)
}

func TestAccessoryInformation(t *testing.T) {
	r, err := NewRegistry([]interface{}{2}, capability{maxDays: 3}, RegistryOptions{Location: "Berlin"})
	require.NoError(t, err)

	a := r.Accessories()[1]
	assert.Equal(t, Information{
		Manufacturer: DefaultManufacturer,
		Model:        "Powered by Test",
		SerialNumber: "Berlin",
	}, a.Info())

	services := a.Services()
	require.Len(t, services, 2)
	assert.Equal(t, ServiceAccessoryInformation, services[0].Type)
	assert.Equal(t, ServiceTemperatureSensor, services[1].Type)

	name, _ := a.Information.Characteristic(Name.Name)
	v, _ := name.Value()
	assert.Equal(t, "In 1 Day", v)

	for _, field := range (capability{}).ForecastFields() {
		_, ok := NewWriter(DefaultCustomCharacteristics()).Read(a.Sensor, field)
		assert.True(t, ok, field)
	}
}

// Tests that a provider field without a sink fails construction.
func TestNewRegistryUnknownSink(t *testing.T) {
	_, err := NewRegistry(nil, capability{}, RegistryOptions{
		Writer: NewWriter(map[models.Field]Definition{}),
	})
	assert.ErrorIs(t, err, ErrUnknownCharacteristic)
}
