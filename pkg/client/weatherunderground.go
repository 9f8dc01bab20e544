package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/models"
	"go.uber.org/zap"
)

const weatherUndergroundForecastDays = 4

var weatherUndergroundReportFields = []models.Field{
	models.AirPressure, models.Condition, models.ConditionCategory, models.DewPoint,
	models.Humidity, models.ObservationStation, models.ObservationTime, models.Rain1h,
	models.RainDay, models.Temperature, models.UVIndex, models.Visibility,
	models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

var weatherUndergroundForecastFields = []models.Field{
	models.Condition, models.ConditionCategory, models.ForecastDay, models.Humidity,
	models.RainChance, models.RainDay, models.Temperature, models.TemperatureMin,
	models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

// Weather Underground uses its own language codes for a few locales.
var weatherUndergroundLanguages = map[string]string{
	"cs": "CZ",
	"da": "DK",
	"de": "DL",
	"el": "GR",
	"ja": "JP",
	"ko": "KR",
	"sv": "SW",
	"zh": "CN",
}

type WeatherUndergroundClient struct {
	*BaseClient
	apiKey   string
	location string
	language string
	baseURL  string
}

type weatherUndergroundObservation struct {
	TempC               flexFloat `json:"temp_c"`
	RelativeHumidity    flexFloat `json:"relative_humidity"`
	PressureMb          flexFloat `json:"pressure_mb"`
	DewpointC           flexFloat `json:"dewpoint_c"`
	Weather             string    `json:"weather"`
	Icon                string    `json:"icon"`
	ObservationEpoch    flexFloat `json:"observation_epoch"`
	LocalTzLong         string    `json:"local_tz_long"`
	StationID           string    `json:"station_id"`
	UV                  flexFloat `json:"UV"`
	VisibilityKm        flexFloat `json:"visibility_km"`
	WindDegrees         flexFloat `json:"wind_degrees"`
	WindKph             flexFloat `json:"wind_kph"`
	WindGustKph         flexFloat `json:"wind_gust_kph"`
	Precip1hrMetric     flexFloat `json:"precip_1hr_metric"`
	PrecipTodayMetric   flexFloat `json:"precip_today_metric"`
	ObservationLocation struct {
		Full string `json:"full"`
	} `json:"observation_location"`
}

type weatherUndergroundForecastDay struct {
	Date struct {
		Epoch   flexFloat `json:"epoch"`
		Weekday string    `json:"weekday"`
		TzLong  string    `json:"tz_long"`
	} `json:"date"`
	Period int `json:"period"`
	High   struct {
		Celsius flexFloat `json:"celsius"`
	} `json:"high"`
	Low struct {
		Celsius flexFloat `json:"celsius"`
	} `json:"low"`
	Conditions string    `json:"conditions"`
	Icon       string    `json:"icon"`
	Pop        flexFloat `json:"pop"`
	QpfAllday  struct {
		Mm flexFloat `json:"mm"`
	} `json:"qpf_allday"`
	Avewind struct {
		Kph     flexFloat `json:"kph"`
		Degrees flexFloat `json:"degrees"`
	} `json:"avewind"`
	Maxwind struct {
		Kph flexFloat `json:"kph"`
	} `json:"maxwind"`
	Avehumidity flexFloat `json:"avehumidity"`
}

type WeatherUndergroundResponse struct {
	Response struct {
		Error *struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"response"`
	CurrentObservation *weatherUndergroundObservation `json:"current_observation"`
	Forecast           *struct {
		Simpleforecast struct {
			Forecastday []weatherUndergroundForecastDay `json:"forecastday"`
		} `json:"simpleforecast"`
	} `json:"forecast"`
}

func NewWeatherUndergroundClient(apiKey, location, language string, config ClientConfig, logger *zap.Logger) (*WeatherUndergroundClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("weatherunderground: %w", ErrMissingKey)
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("weatherunderground: %w: empty location", ErrInvalidLocation)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.wunderground.com"
	}

	baseClient := NewBaseClient("weatherunderground", config, logger)
	baseClient.secret = apiKey

	return &WeatherUndergroundClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		location:   location,
		language:   weatherUndergroundLanguage(language),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

func weatherUndergroundLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return "EN"
	}
	if code, ok := weatherUndergroundLanguages[language]; ok {
		return code
	}
	return strings.ToUpper(language)
}

func (c *WeatherUndergroundClient) Name() string                   { return "weatherunderground" }
func (c *WeatherUndergroundClient) Attribution() string            { return "Powered by Weather Underground" }
func (c *WeatherUndergroundClient) ReportFields() []models.Field   { return weatherUndergroundReportFields }
func (c *WeatherUndergroundClient) ForecastFields() []models.Field { return weatherUndergroundForecastFields }
func (c *WeatherUndergroundClient) MaxForecastDays() int           { return weatherUndergroundForecastDays }

func (c *WeatherUndergroundClient) Fetch(ctx context.Context) (*models.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/%s/conditions/forecast/lang:%s/q/%s.json",
		c.baseURL, c.apiKey, c.language, url.PathEscape(c.location))

	var response WeatherUndergroundResponse
	if err := c.GetJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}

	if e := response.Response.Error; e != nil {
		return nil, errors.New("API error: " + e.Type + ": " + e.Description)
	}

	snapshot := &models.Snapshot{
		Report:      c.parseReport(response.CurrentObservation),
		Forecasts:   make([]models.Measurements, weatherUndergroundForecastDays),
		Attribution: c.Attribution(),
	}

	if response.Forecast != nil {
		days := response.Forecast.Simpleforecast.Forecastday
		for i := 0; i < weatherUndergroundForecastDays && i < len(days); i++ {
			snapshot.Forecasts[i] = c.parseForecast(&days[i])
		}
	}

	return snapshot, nil
}

func (c *WeatherUndergroundClient) parseReport(o *weatherUndergroundObservation) models.Measurements {
	if o == nil || !o.TempC.Valid {
		return nil
	}

	m := measurementSet{}
	m.flex(models.AirPressure, o.PressureMb, 1, 0)
	m.str(models.Condition, o.Weather)
	if o.Icon != "" {
		m[models.ConditionCategory] = weatherUndergroundCategory(o.Icon)
	}
	m.flex(models.DewPoint, o.DewpointC, 1, 1)
	m.flex(models.Humidity, o.RelativeHumidity, 1, 0)
	m.str(models.ObservationStation, o.ObservationLocation.Full)
	if _, ok := m[models.ObservationStation]; !ok {
		m.str(models.ObservationStation, o.StationID)
	}
	if o.ObservationEpoch.Valid {
		m[models.ObservationTime] = time.Unix(int64(o.ObservationEpoch.Value), 0).
			In(loadLocation(o.LocalTzLong)).Format("15:04:05")
	}
	m.flex(models.Rain1h, o.Precip1hrMetric, 1, 1)
	m.flex(models.RainDay, o.PrecipTodayMetric, 1, 1)
	m.flex(models.Temperature, o.TempC, 1, 1)
	if o.UV.Valid && o.UV.Value >= 0 {
		m[models.UVIndex] = int(round(o.UV.Value, 0))
	}
	m.flex(models.Visibility, o.VisibilityKm, 1, 1)
	if o.WindDegrees.Valid {
		m[models.WindDirection] = compassDirection(o.WindDegrees.Value)
	}
	m.flex(models.WindSpeed, o.WindKph, 1, 1)
	m.flex(models.WindSpeedMax, o.WindGustKph, 1, 1)

	return m.result()
}

func (c *WeatherUndergroundClient) parseForecast(d *weatherUndergroundForecastDay) models.Measurements {
	m := measurementSet{}
	m.str(models.Condition, d.Conditions)
	if d.Icon != "" {
		m[models.ConditionCategory] = weatherUndergroundCategory(d.Icon)
	}
	if d.Date.Epoch.Valid {
		m.weekday(time.Unix(int64(d.Date.Epoch.Value), 0).In(loadLocation(d.Date.TzLong)))
	} else {
		m.str(models.ForecastDay, d.Date.Weekday)
	}
	m.flex(models.Humidity, d.Avehumidity, 1, 0)
	if d.Pop.Valid {
		m[models.RainChance] = int(round(d.Pop.Value, 0))
	}
	m.flex(models.RainDay, d.QpfAllday.Mm, 1, 1)
	m.flex(models.Temperature, d.High.Celsius, 1, 1)
	m.flex(models.TemperatureMin, d.Low.Celsius, 1, 1)
	if d.Avewind.Degrees.Valid {
		m[models.WindDirection] = compassDirection(d.Avewind.Degrees.Value)
	}
	m.flex(models.WindSpeed, d.Avewind.Kph, 1, 1)
	m.flex(models.WindSpeedMax, d.Maxwind.Kph, 1, 1)

	return m.result()
}

func weatherUndergroundCategory(icon string) int {
	icon = strings.TrimPrefix(icon, "nt_")
	switch icon {
	case "clear", "sunny", "mostlysunny":
		return CategoryClear
	case "rain", "chancerain", "sleet", "chancesleet", "tstorms", "chancetstorms":
		return CategoryRain
	case "snow", "chancesnow", "flurries", "chanceflurries":
		return CategorySnow
	default:
		return CategoryCloudy
	}
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

