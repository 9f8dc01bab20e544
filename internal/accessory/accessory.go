package accessory

import (
	"fmt"

	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/google/uuid"
)

// DefaultManufacturer is reported in every accessory information block.
const DefaultManufacturer = "github.com bobby-s-dev"

const currentName = "Now"

type Kind int

const (
	KindCurrent Kind = iota
	KindForecast
)

func (k Kind) String() string {
	switch k {
	case KindCurrent:
		return "current"
	case KindForecast:
		return "forecast"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Variant tells which part of a snapshot an accessory consumes.
// Day is only meaningful for KindForecast.
type Variant struct {
	Kind Kind `json:"kind"`
	Day  int  `json:"day"`
}

func CurrentVariant() Variant {
	return Variant{Kind: KindCurrent}
}

func ForecastVariant(day int) Variant {
	return Variant{Kind: KindForecast, Day: day}
}

// DisplayName returns the name of the forecast accessory for a zero-based day offset.
func DisplayName(day int) string {
	switch day {
	case 0:
		return "Today"
	case 1:
		return "In 1 Day"
	default:
		return fmt.Sprintf("In %d Days", day)
	}
}

// Information is the static identity of an accessory.
type Information struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// Accessory is one exposed weather view.
type Accessory struct {
	ID      uuid.UUID
	Name    string
	Variant Variant
	Fields  []models.Field

	Information *Service
	Sensor      *Service
	// History is only set for the current conditions accessory.
	History history.Log
}

func newAccessory(id uuid.UUID, name string, variant Variant, info Information) *Accessory {
	infoService := NewService(ServiceAccessoryInformation, name)
	for _, kv := range []struct {
		def   Definition
		value string
	}{
		{Name, name},
		{Manufacturer, info.Manufacturer},
		{Model, info.Model},
		{SerialNumber, info.SerialNumber},
	} {
		// string characteristics never reject a string
		_ = infoService.AddCharacteristic(kv.def).SetValue(kv.value)
	}

	sensor := NewService(ServiceTemperatureSensor, name)
	sensor.AddCharacteristic(sensorTemperature)

	return &Accessory{
		ID:          id,
		Name:        name,
		Variant:     variant,
		Information: infoService,
		Sensor:      sensor,
	}
}

// Services returns the blocks exposed to the host.
func (a *Accessory) Services() []*Service {
	return []*Service{a.Information, a.Sensor}
}

func (a *Accessory) IsCurrent() bool {
	return a.Variant.Kind == KindCurrent
}

// Info returns the values stored in the information block.
func (a *Accessory) Info() Information {
	get := func(def Definition) string {
		c, ok := a.Information.Characteristic(def.Name)
		if !ok {
			return ""
		}
		v, _ := c.Value()
		s, _ := v.(string)
		return s
	}

	return Information{
		Manufacturer: get(Manufacturer),
		Model:        get(Model),
		SerialNumber: get(SerialNumber),
	}
}
