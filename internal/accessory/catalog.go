package accessory

import "github.com/bobby-s-dev/weather-plus/internal/models"

// Built-in characteristics of the host framework.
var (
	Name         = Definition{Name: "Name", Format: FormatString}
	Manufacturer = Definition{Name: "Manufacturer", Format: FormatString}
	Model        = Definition{Name: "Model", Format: FormatString}
	SerialNumber = Definition{Name: "SerialNumber", Format: FormatString}

	CurrentTemperature      = Definition{Name: "CurrentTemperature", Format: FormatFloat, Unit: "celsius", MinStep: 0.1}.WithRange(0, 100)
	CurrentRelativeHumidity = Definition{Name: "CurrentRelativeHumidity", Format: FormatFloat, Unit: "percentage", MinStep: 1}.WithRange(0, 100)
)

// Weather temperatures go below zero, which the built-in range rejects.
var sensorTemperature = CurrentTemperature.WithRange(-50, 100)

func custom(name string, format Format, unit string, min, max float64) Definition {
	d := Definition{Name: name, Format: format, Unit: unit}
	if format == FormatFloat || format == FormatUInt8 {
		d = d.WithRange(min, max)
	}
	return d
}

// DefaultCustomCharacteristics returns a fresh mapping from every non built-in
// measurement to its custom characteristic definition.
func DefaultCustomCharacteristics() map[models.Field]Definition {
	return map[models.Field]Definition{
		models.AirPressure:        custom("Air Pressure", FormatFloat, "hPa", 700, 1100),
		models.CloudCover:         custom("Cloud Cover", FormatUInt8, "percentage", 0, 100),
		models.Condition:          custom("Condition", FormatString, "", 0, 0),
		models.ConditionCategory:  custom("Condition Category", FormatUInt8, "", 0, 3),
		models.DewPoint:           custom("Dew Point", FormatFloat, "celsius", -50, 100),
		models.ForecastDay:        custom("Day", FormatString, "", 0, 0),
		models.ObservationStation: custom("Station", FormatString, "", 0, 0),
		models.ObservationTime:    custom("Observation Time", FormatString, "", 0, 0),
		models.Ozone:              custom("Ozone", FormatFloat, "DU", 0, 500),
		models.Rain1h:             custom("Rain Last Hour", FormatFloat, "mm", 0, 1000),
		models.RainBool:           custom("Rain", FormatBool, "", 0, 0),
		models.RainChance:         custom("Rain Chance", FormatUInt8, "percentage", 0, 100),
		models.RainDay:            custom("Rain All Day", FormatFloat, "mm", 0, 1000),
		models.SnowBool:           custom("Snow", FormatBool, "", 0, 0),
		models.TemperatureMin:     custom("Temperature Min", FormatFloat, "celsius", -50, 100),
		models.UVIndex:            custom("UV Index", FormatUInt8, "", 0, 20),
		models.Visibility:         custom("Visibility", FormatFloat, "km", 0, 200),
		models.WindDirection:      custom("Wind Direction", FormatString, "", 0, 0),
		models.WindSpeed:          custom("Wind Speed", FormatFloat, "km/h", 0, 300),
		models.WindSpeedMax:       custom("Wind Speed Max", FormatFloat, "km/h", 0, 300),
	}
}
