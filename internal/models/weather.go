package models

// Field is the name of a normalized weather measurement.
type Field string

const (
	AirPressure        Field = "AirPressure"
	CloudCover         Field = "CloudCover"
	Condition          Field = "Condition"
	ConditionCategory  Field = "ConditionCategory"
	DewPoint           Field = "DewPoint"
	ForecastDay        Field = "ForecastDay"
	Humidity           Field = "Humidity"
	ObservationStation Field = "ObservationStation"
	ObservationTime    Field = "ObservationTime"
	Ozone              Field = "Ozone"
	Rain1h             Field = "Rain1h"
	RainBool           Field = "RainBool"
	RainChance         Field = "RainChance"
	RainDay            Field = "RainDay"
	SnowBool           Field = "SnowBool"
	Temperature        Field = "Temperature"
	TemperatureMin     Field = "TemperatureMin"
	UVIndex            Field = "UVIndex"
	Visibility         Field = "Visibility"
	WindDirection      Field = "WindDirection"
	WindSpeed          Field = "WindSpeed"
	WindSpeedMax       Field = "WindSpeedMax"
)

// MeasurementField describes one entry of the measurement vocabulary.
type MeasurementField struct {
	Name           Field `json:"name"`
	HomeKitBuiltin bool  `json:"homekit_builtin"`
}

// Vocabulary is the closed set of measurements any provider may declare.
var Vocabulary = map[Field]MeasurementField{
	AirPressure:        {Name: AirPressure},
	CloudCover:         {Name: CloudCover},
	Condition:          {Name: Condition},
	ConditionCategory:  {Name: ConditionCategory},
	DewPoint:           {Name: DewPoint},
	ForecastDay:        {Name: ForecastDay},
	Humidity:           {Name: Humidity, HomeKitBuiltin: true},
	ObservationStation: {Name: ObservationStation},
	ObservationTime:    {Name: ObservationTime},
	Ozone:              {Name: Ozone},
	Rain1h:             {Name: Rain1h},
	RainBool:           {Name: RainBool},
	RainChance:         {Name: RainChance},
	RainDay:            {Name: RainDay},
	SnowBool:           {Name: SnowBool},
	Temperature:        {Name: Temperature, HomeKitBuiltin: true},
	TemperatureMin:     {Name: TemperatureMin},
	UVIndex:            {Name: UVIndex},
	Visibility:         {Name: Visibility},
	WindDirection:      {Name: WindDirection},
	WindSpeed:          {Name: WindSpeed},
	WindSpeedMax:       {Name: WindSpeedMax},
}

// IsKnownField reports whether name belongs to the vocabulary.
func IsKnownField(name Field) bool {
	_, ok := Vocabulary[name]
	return ok
}

// Measurements maps field names to normalized values.
// A missing key and a nil value both mean "not measured".
type Measurements map[Field]interface{}

// Get returns the value for name if it is present and not nil.
func (m Measurements) Get(name Field) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Snapshot is the result of a single provider fetch.
type Snapshot struct {
	// Report holds the current conditions, nil when the provider could not supply them.
	Report Measurements `json:"report,omitempty"`
	// Forecasts[i] holds the forecast i days from today. Entries may be nil.
	Forecasts   []Measurements `json:"forecasts"`
	Attribution string         `json:"attribution"`
}

// ForecastFor returns the forecast entry for the zero-based day offset.
func (s *Snapshot) ForecastFor(day int) (Measurements, bool) {
	if s == nil || day < 0 || day >= len(s.Forecasts) || s.Forecasts[day] == nil {
		return nil, false
	}
	return s.Forecasts[day], true
}

// HistoryRecord is one sample of the current conditions.
type HistoryRecord struct {
	Time        int64    `json:"time"`
	Temperature float64  `json:"temp"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}
