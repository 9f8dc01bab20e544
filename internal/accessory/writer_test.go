package accessory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSensor(t *testing.T, w *Writer, fields ...models.Field) *Service {
	t.Helper()
	svc := NewService(ServiceTemperatureSensor, "test")
	for _, f := range fields {
		require.NoError(t, w.Attach(svc, f))
	}
	return svc
}

// Tests that the temperature sink accepts sub-zero values down to -50.
func TestWriterTemperatureRange(t *testing.T) {
	w := NewWriter(DefaultCustomCharacteristics())
	svc := newSensor(t, w, models.Temperature)

	require.NoError(t, w.Write(svc, models.Temperature, -50))
	c, _ := w.Read(svc, models.Temperature)
	v, _ := c.Value()
	assert.Equal(t, -50.0, v)

	err := w.Write(svc, models.Temperature, -60)
	assert.ErrorIs(t, err, ErrOutOfRange)
	v, _ = c.Value()
	assert.Equal(t, -50.0, v)
}

func TestWriterBuiltins(t *testing.T) {
	w := NewWriter(nil)

	def, err := w.Definition(models.Humidity)
	require.NoError(t, err)
	assert.Equal(t, CurrentRelativeHumidity.Name, def.Name)

	def, err = w.Definition(models.Temperature)
	require.NoError(t, err)
	assert.Equal(t, "CurrentTemperature", def.Name)
	assert.Equal(t, -50.0, *def.MinValue)

	_, err = w.Definition(models.WindSpeed)
	assert.ErrorIs(t, err, ErrUnknownCharacteristic)
}

func TestWriterValidation(t *testing.T) {
	w := NewWriter(DefaultCustomCharacteristics())
	svc := newSensor(t, w, models.CloudCover, models.Condition, models.RainBool, models.AirPressure)

	assert.NoError(t, w.Write(svc, models.CloudCover, 40.4))
	c, _ := w.Read(svc, models.CloudCover)
	v, _ := c.Value()
	assert.Equal(t, 40, v)

	assert.ErrorIs(t, w.Write(svc, models.CloudCover, 101), ErrOutOfRange)
	assert.ErrorIs(t, w.Write(svc, models.CloudCover, "40"), ErrInvalidValue)
	assert.ErrorIs(t, w.Write(svc, models.Condition, 3), ErrInvalidValue)
	assert.ErrorIs(t, w.Write(svc, models.RainBool, "yes"), ErrInvalidValue)
	assert.NoError(t, w.Write(svc, models.RainBool, true))
	assert.NoError(t, w.Write(svc, models.AirPressure, json.Number("1013.2")))

	// attached sinks only
	assert.ErrorIs(t, w.Write(svc, models.WindSpeed, 3.0), ErrUnknownCharacteristic)
}

func TestServiceLastUpdated(t *testing.T) {
	w := NewWriter(DefaultCustomCharacteristics())
	svc := newSensor(t, w, models.Temperature, models.Humidity)
	assert.True(t, svc.LastUpdated().IsZero())

	before := time.Now()
	require.NoError(t, w.Write(svc, models.Humidity, 50))
	c, _ := w.Read(svc, models.Humidity)
	assert.Equal(t, c.UpdatedAt(), svc.LastUpdated())
	assert.False(t, svc.LastUpdated().Before(before))
}

// Tests that writing the same value twice leaves the same state.
func TestWriterIdempotent(t *testing.T) {
	w := NewWriter(DefaultCustomCharacteristics())
	svc := newSensor(t, w, models.Temperature, models.WindDirection)

	for i := 0; i < 2; i++ {
		require.NoError(t, w.Write(svc, models.Temperature, 12.3))
		require.NoError(t, w.Write(svc, models.WindDirection, "NNW"))
	}
	assert.Equal(t, map[string]interface{}{
		"CurrentTemperature": 12.3,
		"Wind Direction":     "NNW",
	}, svc.Values())
}

func TestServiceAddCharacteristicIdempotent(t *testing.T) {
	svc := NewService(ServiceTemperatureSensor, "test")
	first := svc.AddCharacteristic(sensorTemperature)
	second := svc.AddCharacteristic(sensorTemperature)

	assert.Same(t, first, second)
	assert.Len(t, svc.Characteristics(), 1)
}

// Tests that every vocabulary field has a sink.
func TestDefaultCustomCharacteristicsCoverVocabulary(t *testing.T) {
	w := NewWriter(DefaultCustomCharacteristics())
	for field := range models.Vocabulary {
		_, err := w.Definition(field)
		assert.NoError(t, err, field)
	}
}
