package accessory

import (
	"sync"
	"time"
)

const (
	ServiceAccessoryInformation = "AccessoryInformation"
	ServiceTemperatureSensor    = "TemperatureSensor"
)

// Service groups characteristics under one named block.
type Service struct {
	Type string
	Name string

	mu              sync.RWMutex
	characteristics []*Characteristic
	byName          map[string]*Characteristic
}

func NewService(serviceType, name string) *Service {
	return &Service{
		Type:   serviceType,
		Name:   name,
		byName: make(map[string]*Characteristic),
	}
}

// AddCharacteristic installs a characteristic for def.
// Adding a definition whose name is already present returns the existing one.
func (s *Service) AddCharacteristic(def Definition) *Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.byName[def.Name]; ok {
		return c
	}

	c := newCharacteristic(def)
	s.characteristics = append(s.characteristics, c)
	s.byName[def.Name] = c
	return c
}

func (s *Service) Characteristic(name string) (*Characteristic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byName[name]
	return c, ok
}

func (s *Service) Characteristics() []*Characteristic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Characteristic, len(s.characteristics))
	copy(out, s.characteristics)
	return out
}

// LastUpdated returns the most recent write time over all characteristics,
// zero when nothing has been written.
func (s *Service) LastUpdated() time.Time {
	var last time.Time
	for _, c := range s.Characteristics() {
		if t := c.UpdatedAt(); t.After(last) {
			last = t
		}
	}
	return last
}

// Values returns every characteristic that holds a value, keyed by name.
func (s *Service) Values() map[string]interface{} {
	values := make(map[string]interface{})
	for _, c := range s.Characteristics() {
		if v, ok := c.Value(); ok {
			values[c.Name()] = v
		}
	}
	return values
}
