package client

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
)

// Condition categories shared by all providers.
const (
	CategoryClear  = 0
	CategoryCloudy = 1
	CategoryRain   = 2
	CategorySnow   = 3
)

const msToKmh = 3.6

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// compassDirection converts a bearing in degrees to a 16 point compass label.
func compassDirection(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Round(d/22.5))%16]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// parseCoordinates validates a "lat,lon" location and returns both parts trimmed.
func parseCoordinates(location string) (string, string, error) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q is not \"latitude,longitude\"", ErrInvalidLocation, location)
	}

	lat, lon := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	latValue, err := strconv.ParseFloat(lat, 64)
	if err != nil || latValue < -90 || latValue > 90 {
		return "", "", fmt.Errorf("%w: bad latitude %q", ErrInvalidLocation, lat)
	}
	lonValue, err := strconv.ParseFloat(lon, 64)
	if err != nil || lonValue < -180 || lonValue > 180 {
		return "", "", fmt.Errorf("%w: bad longitude %q", ErrInvalidLocation, lon)
	}

	return lat, lon, nil
}

// parseNumber reads numbers that upstream APIs send as decorated strings,
// e.g. "65%", " 0.3" or "1013". Sentinels such as "-9999" and "NA" are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= -999 {
		return 0, false
	}
	return v, true
}

// flexFloat accepts a JSON number, a numeric string or null.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	f.Value, f.Valid = 0, false

	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		f.Value, f.Valid = parseNumber(s)
		return nil
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || v <= -999 {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// measurementSet builds a Measurements map, skipping missing values.
type measurementSet models.Measurements

func (m measurementSet) float(field models.Field, v *float64, scale float64, places int) {
	if v == nil || math.IsNaN(*v) {
		return
	}
	m[field] = round(*v*scale, places)
}

func (m measurementSet) flex(field models.Field, v flexFloat, scale float64, places int) {
	if !v.Valid {
		return
	}
	m[field] = round(v.Value*scale, places)
}

func (m measurementSet) integer(field models.Field, v *float64, scale float64) {
	if v == nil || math.IsNaN(*v) {
		return
	}
	m[field] = int(math.Round(*v * scale))
}

func (m measurementSet) str(field models.Field, v string) {
	if v = strings.TrimSpace(v); v != "" {
		m[field] = v
	}
}

func (m measurementSet) direction(field models.Field, degrees *float64) {
	if degrees == nil || math.IsNaN(*degrees) {
		return
	}
	m[field] = compassDirection(*degrees)
}

func (m measurementSet) weekday(t time.Time) {
	if !t.IsZero() {
		m[models.ForecastDay] = t.Weekday().String()
	}
}

// result returns nil for an empty set so that absent data stays absent.
func (m measurementSet) result() models.Measurements {
	if len(m) == 0 {
		return nil
	}
	return models.Measurements(m)
}

// daysBetween counts calendar days from a to b in a's location.
func daysBetween(a, b time.Time) int {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

func floatPtr(v float64) *float64 {
	return &v
}

func sinDegrees(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func cosDegrees(d float64) float64 { return math.Cos(d * math.Pi / 180) }

// meanBearing turns summed unit vectors back into a bearing.
func meanBearing(sin, cos float64) float64 {
	return math.Atan2(sin, cos) * 180 / math.Pi
}
