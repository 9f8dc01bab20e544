package accessory

import (
	"fmt"
	"math"

	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/bobby-s-dev/weather-plus"))

// Capability is the part of a weather provider the registry needs.
type Capability interface {
	ReportFields() []models.Field
	ForecastFields() []models.Field
	MaxForecastDays() int
	Attribution() string
}

type RegistryOptions struct {
	Location     string
	Manufacturer string
	Writer       *Writer
	History      history.Log
	Logger       *zap.Logger
}

// Registry is the fixed, ordered set of accessories built at startup.
type Registry struct {
	accessories []*Accessory
	byID        map[uuid.UUID]*Accessory
}

// NewRegistry builds the current conditions accessory followed by one forecast
// accessory per valid requested day. Requested days are one-based; invalid entries
// are dropped with a warning. Duplicates are kept.
func NewRegistry(requested []interface{}, capability Capability, opts RegistryOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := opts.Writer
	if writer == nil {
		writer = NewWriter(DefaultCustomCharacteristics())
	}
	manufacturer := opts.Manufacturer
	if manufacturer == "" {
		manufacturer = DefaultManufacturer
	}

	info := Information{
		Manufacturer: manufacturer,
		Model:        capability.Attribution(),
		SerialNumber: opts.Location,
	}

	r := &Registry{byID: make(map[uuid.UUID]*Accessory)}

	current := newAccessory(r.nextID(opts.Location, CurrentVariant()), currentName, CurrentVariant(), info)
	current.History = opts.History
	if err := r.add(current, capability.ReportFields(), writer); err != nil {
		return nil, err
	}

	maxDays := capability.MaxForecastDays()
	for _, value := range requested {
		day, ok := ForecastDay(value, maxDays)
		if !ok {
			logger.Warn("Ignoring forecast day",
				zap.Any("day", value),
				zap.Int("max_forecast_days", maxDays))
			continue
		}

		variant := ForecastVariant(day)
		a := newAccessory(r.nextID(opts.Location, variant), DisplayName(day), variant, info)
		if err := r.add(a, capability.ForecastFields(), writer); err != nil {
			return nil, err
		}
	}

	logger.Info("Accessories created",
		zap.Int("count", len(r.accessories)),
		zap.Int("forecasts", len(r.accessories)-1))

	return r, nil
}

func (r *Registry) nextID(location string, v Variant) uuid.UUID {
	name := fmt.Sprintf("%s/%s/%d/%d", location, v.Kind, v.Day, len(r.accessories))
	return uuid.NewSHA1(idNamespace, []byte(name))
}

func (r *Registry) add(a *Accessory, fields []models.Field, writer *Writer) error {
	for _, field := range fields {
		if err := writer.Attach(a.Sensor, field); err != nil {
			return fmt.Errorf("accessory %q: %w", a.Name, err)
		}
	}
	a.Fields = append([]models.Field(nil), fields...)

	r.accessories = append(r.accessories, a)
	r.byID[a.ID] = a
	return nil
}

// ForecastDay converts a one-based requested day into a zero-based offset.
// Only integral numbers in [1, maxDays] are accepted.
func ForecastDay(value interface{}, maxDays int) (int, bool) {
	var day int
	switch v := value.(type) {
	case int:
		day = v
	case int8:
		day = int(v)
	case int16:
		day = int(v)
	case int32:
		day = int(v)
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, false
		}
		day = int(v)
	case uint:
		if v > math.MaxInt32 {
			return 0, false
		}
		day = int(v)
	case uint8:
		day = int(v)
	case uint16:
		day = int(v)
	case uint32:
		if v > math.MaxInt32 {
			return 0, false
		}
		day = int(v)
	case uint64:
		if v > math.MaxInt32 {
			return 0, false
		}
		day = int(v)
	case float32:
		return ForecastDay(float64(v), maxDays)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		day = int(v)
	default:
		return 0, false
	}

	if day < 1 || day > maxDays {
		return 0, false
	}
	return day - 1, true
}

// Accessories returns the accessories in registry order.
func (r *Registry) Accessories() []*Accessory {
	out := make([]*Accessory, len(r.accessories))
	copy(out, r.accessories)
	return out
}

// Current returns the first current conditions accessory.
func (r *Registry) Current() (*Accessory, bool) {
	for _, a := range r.accessories {
		if a.IsCurrent() {
			return a, true
		}
	}
	return nil, false
}

func (r *Registry) ByID(id uuid.UUID) (*Accessory, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func (r *Registry) Len() int {
	return len(r.accessories)
}
