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

const openMeteoForecastDays = 7

var openMeteoReportFields = []models.Field{
	models.AirPressure, models.CloudCover, models.Condition, models.ConditionCategory,
	models.DewPoint, models.Humidity, models.ObservationTime, models.Rain1h,
	models.RainBool, models.SnowBool, models.Temperature, models.Visibility,
	models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

var openMeteoForecastFields = []models.Field{
	models.Condition, models.ConditionCategory, models.ForecastDay, models.RainChance,
	models.RainDay, models.Temperature, models.TemperatureMin, models.UVIndex,
	models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

const (
	openMeteoCurrentParams = "temperature_2m,relative_humidity_2m,dew_point_2m,pressure_msl,cloud_cover," +
		"visibility,wind_speed_10m,wind_direction_10m,wind_gusts_10m,rain,snowfall,weather_code"
	openMeteoDailyParams = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum," +
		"precipitation_probability_max,uv_index_max,wind_speed_10m_max,wind_gusts_10m_max,wind_direction_10m_dominant"
)

// OpenMeteoClient needs no API key; the location must be "latitude,longitude".
type OpenMeteoClient struct {
	*BaseClient
	latitude  string
	longitude string
	baseURL   string
}

type OpenMeteoResponse struct {
	Timezone string `json:"timezone"`
	Current  *struct {
		Time               string   `json:"time"`
		Temperature2M      *float64 `json:"temperature_2m"`
		RelativeHumidity2M *float64 `json:"relative_humidity_2m"`
		DewPoint2M         *float64 `json:"dew_point_2m"`
		PressureMSL        *float64 `json:"pressure_msl"`
		CloudCover         *float64 `json:"cloud_cover"`
		Visibility         *float64 `json:"visibility"`
		WindSpeed10M       *float64 `json:"wind_speed_10m"`
		WindDirection10M   *float64 `json:"wind_direction_10m"`
		WindGusts10M       *float64 `json:"wind_gusts_10m"`
		Rain               *float64 `json:"rain"`
		Snowfall           *float64 `json:"snowfall"`
		WeatherCode        *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		Temperature2MMax            []*float64 `json:"temperature_2m_max"`
		Temperature2MMin            []*float64 `json:"temperature_2m_min"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		UVIndexMax                  []*float64 `json:"uv_index_max"`
		WindSpeed10MMax             []*float64 `json:"wind_speed_10m_max"`
		WindGusts10MMax             []*float64 `json:"wind_gusts_10m_max"`
		WindDirection10MDominant    []*float64 `json:"wind_direction_10m_dominant"`
	} `json:"daily"`
}

func NewOpenMeteoClient(location string, config ClientConfig, logger *zap.Logger) (*OpenMeteoClient, error) {
	lat, lon, err := parseCoordinates(location)
	if err != nil {
		return nil, fmt.Errorf("openmeteo: %w", err)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1"
	}

	return &OpenMeteoClient{
		BaseClient: NewBaseClient("openmeteo", config, logger),
		latitude:   lat,
		longitude:  lon,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func (c *OpenMeteoClient) Name() string                   { return "openmeteo" }
func (c *OpenMeteoClient) Attribution() string            { return "Open-Meteo.com" }
func (c *OpenMeteoClient) ReportFields() []models.Field   { return openMeteoReportFields }
func (c *OpenMeteoClient) ForecastFields() []models.Field { return openMeteoForecastFields }
func (c *OpenMeteoClient) MaxForecastDays() int           { return openMeteoForecastDays }

func (c *OpenMeteoClient) Fetch(ctx context.Context) (*models.Snapshot, error) {
	query := url.Values{}
	query.Set("latitude", c.latitude)
	query.Set("longitude", c.longitude)
	query.Set("current", openMeteoCurrentParams)
	query.Set("daily", openMeteoDailyParams)
	query.Set("timezone", "auto")
	query.Set("wind_speed_unit", "kmh")
	query.Set("forecast_days", fmt.Sprint(openMeteoForecastDays))

	var response OpenMeteoResponse
	if err := c.GetJSON(ctx, c.baseURL+"/forecast?"+query.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}

	snapshot := &models.Snapshot{
		Report:      c.parseReport(&response),
		Forecasts:   make([]models.Measurements, openMeteoForecastDays),
		Attribution: c.Attribution(),
	}

	for i := 0; i < openMeteoForecastDays && i < len(response.Daily.Time); i++ {
		snapshot.Forecasts[i] = c.parseForecast(&response, i)
	}

	return snapshot, nil
}

func (c *OpenMeteoClient) parseReport(response *OpenMeteoResponse) models.Measurements {
	cur := response.Current
	if cur == nil || cur.Temperature2M == nil {
		return nil
	}

	m := measurementSet{}
	m.float(models.AirPressure, cur.PressureMSL, 1, 0)
	m.integer(models.CloudCover, cur.CloudCover, 1)
	if cur.WeatherCode != nil {
		m[models.Condition] = weatherCodeToDescription(*cur.WeatherCode)
		m[models.ConditionCategory] = weatherCodeToCategory(*cur.WeatherCode)
	}
	m.float(models.DewPoint, cur.DewPoint2M, 1, 1)
	m.integer(models.Humidity, cur.RelativeHumidity2M, 1)
	// local time without offset, e.g. "2024-05-01T14:15"
	if t, err := time.Parse("2006-01-02T15:04", cur.Time); err == nil {
		m[models.ObservationTime] = t.Format("15:04:05")
	}
	m.float(models.Rain1h, cur.Rain, 1, 1)
	m[models.RainBool] = cur.Rain != nil && *cur.Rain > 0
	m[models.SnowBool] = cur.Snowfall != nil && *cur.Snowfall > 0
	m.float(models.Temperature, cur.Temperature2M, 1, 1)
	m.float(models.Visibility, cur.Visibility, 0.001, 1)
	m.direction(models.WindDirection, cur.WindDirection10M)
	m.float(models.WindSpeed, cur.WindSpeed10M, 1, 1)
	m.float(models.WindSpeedMax, cur.WindGusts10M, 1, 1)

	return m.result()
}

func (c *OpenMeteoClient) parseForecast(response *OpenMeteoResponse, i int) models.Measurements {
	d := response.Daily

	m := measurementSet{}
	if code := intAt(d.WeatherCode, i); code != nil {
		m[models.Condition] = weatherCodeToDescription(*code)
		m[models.ConditionCategory] = weatherCodeToCategory(*code)
	}
	if date, err := time.Parse("2006-01-02", d.Time[i]); err == nil {
		m.weekday(date)
	}
	m.integer(models.RainChance, floatAt(d.PrecipitationProbabilityMax, i), 1)
	m.float(models.RainDay, floatAt(d.PrecipitationSum, i), 1, 1)
	m.float(models.Temperature, floatAt(d.Temperature2MMax, i), 1, 1)
	m.float(models.TemperatureMin, floatAt(d.Temperature2MMin, i), 1, 1)
	m.integer(models.UVIndex, floatAt(d.UVIndexMax, i), 1)
	m.direction(models.WindDirection, floatAt(d.WindDirection10MDominant, i))
	m.float(models.WindSpeed, floatAt(d.WindSpeed10MMax, i), 1, 1)
	m.float(models.WindSpeedMax, floatAt(d.WindGusts10MMax, i), 1, 1)

	return m.result()
}

func floatAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func intAt(values []*int, i int) *int {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// WMO weather interpretation codes
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func weatherCodeToDescription(code int) string {
	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "Unknown"
}

func weatherCodeToCategory(code int) int {
	switch {
	case code <= 1:
		return CategoryClear
	case code <= 48:
		return CategoryCloudy
	case code <= 67:
		return CategoryRain
	case code <= 77:
		return CategorySnow
	case code <= 82:
		return CategoryRain
	case code <= 86:
		return CategorySnow
	default:
		return CategoryRain
	}
}
