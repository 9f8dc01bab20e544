package services

import (
	"errors"
	"fmt"

	"github.com/bobby-s-dev/weather-plus/internal/models"
)

// ErrUnknownService is returned for a provider name with no registered factory.
var ErrUnknownService = errors.New("unknown weather service")

// ErrMissingTemperature marks a present report that carries no temperature.
var ErrMissingTemperature = errors.New("report has no temperature")

// FetchError wraps a failed provider call.
type FetchError struct {
	Provider string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError reports the first field that could not be written to an accessory.
// Data is the measurement group the accessory was being updated from.
type WriteError struct {
	Accessory string
	Field     models.Field
	Data      models.Measurements
	Err       error
}

func (e *WriteError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("updating %q: %v", e.Accessory, e.Err)
	}
	return fmt.Sprintf("updating %q field %s: %v", e.Accessory, e.Field, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
