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

const openWeatherForecastDays = 5

var openWeatherReportFields = []models.Field{
	models.AirPressure, models.CloudCover, models.Condition, models.ConditionCategory,
	models.Humidity, models.ObservationStation, models.ObservationTime, models.Rain1h,
	models.RainBool, models.SnowBool, models.Temperature, models.Visibility,
	models.WindDirection, models.WindSpeed, models.WindSpeedMax,
}

var openWeatherForecastFields = []models.Field{
	models.AirPressure, models.CloudCover, models.Condition, models.ConditionCategory,
	models.ForecastDay, models.Humidity, models.RainChance, models.RainDay,
	models.Temperature, models.TemperatureMin, models.WindDirection, models.WindSpeed,
	models.WindSpeedMax,
}

type OpenWeatherMapClient struct {
	*BaseClient
	apiKey   string
	location string
	language string
	baseURL  string
	now      func() time.Time
}

type openWeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherCurrentResponse struct {
	Weather []openWeatherCondition `json:"weather"`
	Main    struct {
		Temp     *float64 `json:"temp"`
		Pressure *float64 `json:"pressure"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour *float64 `json:"1h"`
	} `json:"snow"`
	Dt       int64  `json:"dt"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
	Cod      int    `json:"cod"`
}

type openWeatherForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []openWeatherCondition `json:"weather"`
	Clouds  struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Pop  float64 `json:"pop"`
	Rain struct {
		ThreeHours float64 `json:"3h"`
	} `json:"rain"`
}

type OpenWeatherForecastResponse struct {
	Cod  string                    `json:"cod"`
	List []openWeatherForecastItem `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

func NewOpenWeatherMapClient(apiKey, location, language string, config ClientConfig, logger *zap.Logger) (*OpenWeatherMapClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openweathermap: %w", ErrMissingKey)
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("openweathermap: %w: empty location", ErrInvalidLocation)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	if language == "" {
		language = "en"
	}

	baseClient := NewBaseClient("openweathermap", config, logger)
	baseClient.secret = apiKey

	return &OpenWeatherMapClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		location:   location,
		language:   language,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}, nil
}

func (c *OpenWeatherMapClient) Name() string                   { return "openweathermap" }
func (c *OpenWeatherMapClient) Attribution() string            { return "OpenWeatherMap" }
func (c *OpenWeatherMapClient) ReportFields() []models.Field   { return openWeatherReportFields }
func (c *OpenWeatherMapClient) ForecastFields() []models.Field { return openWeatherForecastFields }
func (c *OpenWeatherMapClient) MaxForecastDays() int           { return openWeatherForecastDays }

func (c *OpenWeatherMapClient) endpoint(path string) string {
	query := url.Values{}
	query.Set("q", c.location)
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")
	query.Set("lang", c.language)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
}

// Fetch queries current conditions and the 3-hourly forecast. A failure of one
// request leaves that half of the snapshot empty; only a failure of both is an error.
func (c *OpenWeatherMapClient) Fetch(ctx context.Context) (*models.Snapshot, error) {
	snapshot := &models.Snapshot{
		Forecasts:   make([]models.Measurements, openWeatherForecastDays),
		Attribution: c.Attribution(),
	}

	report, currentErr := c.fetchCurrent(ctx)
	if currentErr != nil {
		c.logger.Warn("Failed to fetch current weather", zap.Error(currentErr))
	} else {
		snapshot.Report = report
	}

	forecasts, forecastErr := c.fetchForecast(ctx)
	if forecastErr != nil {
		c.logger.Warn("Failed to fetch forecast", zap.Error(forecastErr))
	} else {
		copy(snapshot.Forecasts, forecasts)
	}

	if currentErr != nil && forecastErr != nil {
		return nil, errors.Join(currentErr, forecastErr)
	}
	return snapshot, nil
}

func (c *OpenWeatherMapClient) fetchCurrent(ctx context.Context) (models.Measurements, error) {
	var response OpenWeatherCurrentResponse
	if err := c.GetJSON(ctx, c.endpoint("weather"), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	if response.Cod != 0 && response.Cod != 200 {
		return nil, fmt.Errorf("API error: %d", response.Cod)
	}
	if response.Main.Temp == nil {
		return nil, nil
	}

	m := measurementSet{}
	m.float(models.AirPressure, response.Main.Pressure, 1, 0)
	m.integer(models.CloudCover, response.Clouds.All, 1)
	if len(response.Weather) > 0 {
		m.str(models.Condition, response.Weather[0].Description)
		m[models.ConditionCategory] = openWeatherCategory(response.Weather[0].ID)
	}
	m.integer(models.Humidity, response.Main.Humidity, 1)
	m.str(models.ObservationStation, response.Name)
	if response.Dt > 0 {
		zone := time.FixedZone("", response.Timezone)
		m[models.ObservationTime] = time.Unix(response.Dt, 0).In(zone).Format("15:04:05")
	}
	m.float(models.Rain1h, response.Rain.OneHour, 1, 1)
	m[models.RainBool] = response.Rain.OneHour != nil && *response.Rain.OneHour > 0
	m[models.SnowBool] = response.Snow.OneHour != nil && *response.Snow.OneHour > 0
	m.float(models.Temperature, response.Main.Temp, 1, 1)
	// visibility is reported in metres
	m.float(models.Visibility, response.Visibility, 0.001, 1)
	m.direction(models.WindDirection, response.Wind.Deg)
	m.float(models.WindSpeed, response.Wind.Speed, msToKmh, 1)
	m.float(models.WindSpeedMax, response.Wind.Gust, msToKmh, 1)

	return m.result(), nil
}

func (c *OpenWeatherMapClient) fetchForecast(ctx context.Context) ([]models.Measurements, error) {
	var response OpenWeatherForecastResponse
	if err := c.GetJSON(ctx, c.endpoint("forecast"), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	if response.Cod != "" && response.Cod != "200" {
		return nil, fmt.Errorf("API error: %s", response.Cod)
	}
	if len(response.List) == 0 {
		return nil, nil
	}

	// Group the 3-hourly items by local calendar day counted from today in the city's zone.
	// The list starts at the next slot, so late in the evening it may hold nothing for today.
	zone := time.FixedZone(response.City.Name, response.City.Timezone)
	today := c.now().In(zone)

	byDay := make([][]openWeatherForecastItem, openWeatherForecastDays)
	for _, item := range response.List {
		day := daysBetween(today, time.Unix(item.Dt, 0))
		if day < 0 || day >= openWeatherForecastDays {
			continue
		}
		byDay[day] = append(byDay[day], item)
	}

	forecasts := make([]models.Measurements, openWeatherForecastDays)
	for i, items := range byDay {
		if len(items) == 0 {
			continue
		}
		forecasts[i] = aggregateOpenWeatherDay(items, zone)
	}
	return forecasts, nil
}

func aggregateOpenWeatherDay(items []openWeatherForecastItem, zone *time.Location) models.Measurements {
	var (
		maxTemp, minTemp               = items[0].Main.TempMax, items[0].Main.TempMin
		totalPressure, totalHumidity   float64
		totalClouds, totalWind, maxPop float64
		maxGust, rain                  float64
		sinDeg, cosDeg                 float64
	)

	for _, item := range items {
		if item.Main.TempMax > maxTemp {
			maxTemp = item.Main.TempMax
		}
		if item.Main.TempMin < minTemp {
			minTemp = item.Main.TempMin
		}
		totalPressure += item.Main.Pressure
		totalHumidity += item.Main.Humidity
		totalClouds += item.Clouds.All
		totalWind += item.Wind.Speed
		if item.Wind.Gust > maxGust {
			maxGust = item.Wind.Gust
		}
		if item.Pop > maxPop {
			maxPop = item.Pop
		}
		rain += item.Rain.ThreeHours
		sinDeg += sinDegrees(item.Wind.Deg)
		cosDeg += cosDegrees(item.Wind.Deg)
	}

	n := float64(len(items))
	representative := items[len(items)/2]

	m := measurementSet{}
	m.float(models.AirPressure, floatPtr(totalPressure/n), 1, 0)
	m.integer(models.CloudCover, floatPtr(totalClouds/n), 1)
	if len(representative.Weather) > 0 {
		m.str(models.Condition, representative.Weather[0].Description)
		m[models.ConditionCategory] = openWeatherCategory(representative.Weather[0].ID)
	}
	m.weekday(time.Unix(items[0].Dt, 0).In(zone))
	m.integer(models.Humidity, floatPtr(totalHumidity/n), 1)
	m.integer(models.RainChance, floatPtr(maxPop), 100)
	m.float(models.RainDay, floatPtr(rain), 1, 1)
	m.float(models.Temperature, floatPtr(maxTemp), 1, 1)
	m.float(models.TemperatureMin, floatPtr(minTemp), 1, 1)
	m.direction(models.WindDirection, floatPtr(meanBearing(sinDeg, cosDeg)))
	m.float(models.WindSpeed, floatPtr(totalWind/n), msToKmh, 1)
	m.float(models.WindSpeedMax, floatPtr(maxGust), msToKmh, 1)

	return m.result()
}

// openWeatherCategory maps OpenWeatherMap condition ids.
func openWeatherCategory(id int) int {
	switch {
	case id == 800:
		return CategoryClear
	case id >= 200 && id < 600:
		// thunderstorm, drizzle, rain
		return CategoryRain
	case id == 611 || id == 612 || id == 613 || id == 615 || id == 616:
		// sleet and rain-snow mixes
		return CategoryRain
	case id >= 600 && id < 700:
		return CategorySnow
	default:
		return CategoryCloudy
	}
}
