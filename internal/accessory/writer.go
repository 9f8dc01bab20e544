package accessory

import (
	"fmt"

	"github.com/bobby-s-dev/weather-plus/internal/models"
)

// Writer maps measurement fields onto characteristic sinks.
// It is the only component that writes sensor values.
type Writer struct {
	custom map[models.Field]Definition
}

func NewWriter(custom map[models.Field]Definition) *Writer {
	return &Writer{custom: custom}
}

// Definition resolves the sink for a field.
func (w *Writer) Definition(field models.Field) (Definition, error) {
	switch field {
	case models.Humidity:
		return CurrentRelativeHumidity, nil
	case models.Temperature:
		return sensorTemperature, nil
	}

	def, ok := w.custom[field]
	if !ok {
		return Definition{}, fmt.Errorf("%w: no sink registered for %q", ErrUnknownCharacteristic, field)
	}
	return def, nil
}

// Attach installs the sink for field on svc.
func (w *Writer) Attach(svc *Service, field models.Field) error {
	def, err := w.Definition(field)
	if err != nil {
		return err
	}
	svc.AddCharacteristic(def)
	return nil
}

// Write stores value in the sink for field on svc.
func (w *Writer) Write(svc *Service, field models.Field, value interface{}) error {
	def, err := w.Definition(field)
	if err != nil {
		return err
	}

	c, ok := svc.Characteristic(def.Name)
	if !ok {
		return fmt.Errorf("%w: %q is not attached to %q", ErrUnknownCharacteristic, field, svc.Name)
	}

	if err := c.SetValue(value); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}

// Read returns the live value of the sink for field on svc.
func (w *Writer) Read(svc *Service, field models.Field) (*Characteristic, bool) {
	def, err := w.Definition(field)
	if err != nil {
		return nil, false
	}
	return svc.Characteristic(def.Name)
}
