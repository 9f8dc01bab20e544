package accessory

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

var (
	// ErrInvalidValue is returned when a value does not match the characteristic format.
	ErrInvalidValue = errors.New("invalid characteristic value")
	// ErrOutOfRange is returned when a numeric value falls outside the characteristic range.
	ErrOutOfRange = errors.New("characteristic value out of range")
	// ErrUnknownCharacteristic is returned when a field has no registered sink.
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
)

type Format string

const (
	FormatFloat  Format = "float"
	FormatUInt8  Format = "uint8"
	FormatString Format = "string"
	FormatBool   Format = "bool"
)

// Definition describes a typed value slot.
type Definition struct {
	Name     string   `json:"name"`
	Format   Format   `json:"format"`
	Unit     string   `json:"unit,omitempty"`
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	MinStep  float64  `json:"min_step,omitempty"`
}

// WithRange returns a copy of the definition with new bounds.
func (d Definition) WithRange(min, max float64) Definition {
	d.MinValue = &min
	d.MaxValue = &max
	return d
}

// normalize converts v into the canonical Go type for the format and checks bounds.
func (d Definition) normalize(v interface{}) (interface{}, error) {
	switch d.Format {
	case FormatFloat, FormatUInt8:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s expects a number, got %T(%v)", ErrInvalidValue, d.Name, v, v)
		}

		if d.Format == FormatUInt8 {
			f = math.Round(f)
		}

		min, max := d.bounds()
		if f < min || f > max {
			return nil, fmt.Errorf("%w: %s=%v not in [%v, %v]", ErrOutOfRange, d.Name, f, min, max)
		}

		if d.Format == FormatUInt8 {
			return int(f), nil
		}
		return f, nil
	case FormatString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, d.Name, v)
		}
		return s, nil
	case FormatBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a bool, got %T", ErrInvalidValue, d.Name, v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %s has unsupported format %q", ErrInvalidValue, d.Name, d.Format)
	}
}

func (d Definition) bounds() (float64, float64) {
	min, max := math.Inf(-1), math.Inf(1)
	if d.Format == FormatUInt8 {
		min, max = 0, 255
	}
	if d.MinValue != nil {
		min = *d.MinValue
	}
	if d.MaxValue != nil {
		max = *d.MaxValue
	}
	return min, max
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Characteristic holds the live value of one Definition.
// Readers and writers may run on different goroutines.
type Characteristic struct {
	def Definition

	mu        sync.RWMutex
	value     interface{}
	set       bool
	updatedAt time.Time
}

func newCharacteristic(def Definition) *Characteristic {
	return &Characteristic{def: def}
}

func (c *Characteristic) Name() string {
	return c.def.Name
}

func (c *Characteristic) Definition() Definition {
	return c.def
}

// SetValue validates v and stores it. An invalid value leaves the previous value untouched.
func (c *Characteristic) SetValue(v interface{}) error {
	normalized, err := c.def.normalize(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.value = normalized
	c.set = true
	c.updatedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Value returns the stored value and whether one was ever written.
func (c *Characteristic) Value() (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.set
}

// Float returns the stored value of a numeric characteristic.
func (c *Characteristic) Float() (float64, bool) {
	v, ok := c.Value()
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (c *Characteristic) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
