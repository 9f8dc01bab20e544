package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"go.uber.org/zap"
)

const darkSkyForecastDays = 8

var darkSkyReportFields = []models.Field{
	models.AirPressure, models.CloudCover, models.Condition, models.ConditionCategory,
	models.DewPoint, models.Humidity, models.Ozone, models.Rain1h, models.RainBool,
	models.RainChance, models.SnowBool, models.Temperature, models.UVIndex,
	models.Visibility, models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

var darkSkyForecastFields = []models.Field{
	models.AirPressure, models.CloudCover, models.Condition, models.ConditionCategory,
	models.DewPoint, models.ForecastDay, models.Humidity, models.Ozone, models.RainChance,
	models.RainDay, models.Temperature, models.TemperatureMin, models.UVIndex,
	models.Visibility, models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

type DarkSkyClient struct {
	*BaseClient
	apiKey   string
	location string
	language string
	baseURL  string
}

type darkSkyDataPoint struct {
	Time              int64    `json:"time"`
	Summary           string   `json:"summary"`
	Icon              string   `json:"icon"`
	PrecipIntensity   *float64 `json:"precipIntensity"`
	PrecipProbability *float64 `json:"precipProbability"`
	PrecipType        string   `json:"precipType"`
	Temperature       *float64 `json:"temperature"`
	TemperatureHigh   *float64 `json:"temperatureHigh"`
	TemperatureLow    *float64 `json:"temperatureLow"`
	DewPoint          *float64 `json:"dewPoint"`
	Humidity          *float64 `json:"humidity"`
	Pressure          *float64 `json:"pressure"`
	WindSpeed         *float64 `json:"windSpeed"`
	WindGust          *float64 `json:"windGust"`
	WindBearing       *float64 `json:"windBearing"`
	CloudCover        *float64 `json:"cloudCover"`
	UVIndex           *float64 `json:"uvIndex"`
	Visibility        *float64 `json:"visibility"`
	Ozone             *float64 `json:"ozone"`
}

type DarkSkyResponse struct {
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Timezone  string            `json:"timezone"`
	Currently *darkSkyDataPoint `json:"currently"`
	Daily     struct {
		Data []darkSkyDataPoint `json:"data"`
	} `json:"daily"`
}

func NewDarkSkyClient(apiKey, location, language string, config ClientConfig, logger *zap.Logger) (*DarkSkyClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("darksky: %w", ErrMissingKey)
	}
	lat, lon, err := parseCoordinates(location)
	if err != nil {
		return nil, fmt.Errorf("darksky: %w", err)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.darksky.net"
	}
	if language == "" {
		language = "en"
	}

	baseClient := NewBaseClient("darksky", config, logger)
	baseClient.secret = apiKey

	return &DarkSkyClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		location:   lat + "," + lon,
		language:   language,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (c *DarkSkyClient) Name() string                   { return "darksky" }
func (c *DarkSkyClient) Attribution() string            { return "Powered by Dark Sky" }
func (c *DarkSkyClient) ReportFields() []models.Field   { return darkSkyReportFields }
func (c *DarkSkyClient) ForecastFields() []models.Field { return darkSkyForecastFields }
func (c *DarkSkyClient) MaxForecastDays() int           { return darkSkyForecastDays }

func (c *DarkSkyClient) Fetch(ctx context.Context) (*models.Snapshot, error) {
	query := url.Values{}
	query.Set("units", "si")
	query.Set("lang", c.language)
	query.Set("exclude", "minutely,hourly,alerts,flags")

	endpoint := fmt.Sprintf("%s/forecast/%s/%s?%s", c.baseURL, c.apiKey, c.location, query.Encode())

	var response DarkSkyResponse
	if err := c.GetJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}

	loc, err := time.LoadLocation(response.Timezone)
	if err != nil || response.Timezone == "" {
		loc = time.UTC
	}

	snapshot := &models.Snapshot{
		Report:      c.parseReport(response.Currently),
		Forecasts:   make([]models.Measurements, darkSkyForecastDays),
		Attribution: c.Attribution(),
	}

	for i := 0; i < darkSkyForecastDays && i < len(response.Daily.Data); i++ {
		snapshot.Forecasts[i] = c.parseForecast(&response.Daily.Data[i], loc)
	}

	return snapshot, nil
}

func (c *DarkSkyClient) parseReport(p *darkSkyDataPoint) models.Measurements {
	if p == nil || p.Temperature == nil {
		return nil
	}

	m := measurementSet{}
	c.common(m, p)
	m.float(models.Temperature, p.Temperature, 1, 1)
	m.float(models.Rain1h, p.PrecipIntensity, 1, 1)

	precipitating := p.PrecipIntensity != nil && *p.PrecipIntensity > 0
	m[models.RainBool] = precipitating && p.PrecipType == "rain"
	m[models.SnowBool] = precipitating && p.PrecipType == "snow"

	return m.result()
}

func (c *DarkSkyClient) parseForecast(p *darkSkyDataPoint, loc *time.Location) models.Measurements {
	m := measurementSet{}
	c.common(m, p)
	m.float(models.Temperature, p.TemperatureHigh, 1, 1)
	m.float(models.TemperatureMin, p.TemperatureLow, 1, 1)
	// precipIntensity is mm/h averaged over the day
	m.float(models.RainDay, p.PrecipIntensity, 24, 1)
	if p.Time > 0 {
		m.weekday(time.Unix(p.Time, 0).In(loc))
	}
	return m.result()
}

func (c *DarkSkyClient) common(m measurementSet, p *darkSkyDataPoint) {
	m.float(models.AirPressure, p.Pressure, 1, 0)
	m.integer(models.CloudCover, p.CloudCover, 100)
	m.str(models.Condition, p.Summary)
	if p.Icon != "" {
		m[models.ConditionCategory] = darkSkyCategory(p.Icon)
	}
	m.float(models.DewPoint, p.DewPoint, 1, 1)
	m.integer(models.Humidity, p.Humidity, 100)
	m.float(models.Ozone, p.Ozone, 1, 0)
	m.integer(models.RainChance, p.PrecipProbability, 100)
	m.integer(models.UVIndex, p.UVIndex, 1)
	m.float(models.Visibility, p.Visibility, 1, 1)
	m.direction(models.WindDirection, p.WindBearing)
	m.float(models.WindSpeed, p.WindSpeed, msToKmh, 1)
	m.float(models.WindSpeedMax, p.WindGust, msToKmh, 1)
}

func darkSkyCategory(icon string) int {
	switch icon {
	case "clear-day", "clear-night":
		return CategoryClear
	case "rain", "sleet", "thunderstorm", "hail":
		return CategoryRain
	case "snow":
		return CategorySnow
	default:
		// cloudy, partly-cloudy-*, fog, wind
		return CategoryCloudy
	}
}
