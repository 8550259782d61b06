package weather

import (
	"fmt"
	"time"
)

// Sky represents a normalized sky condition bucket.
type Sky string

const (
	SkyClear        Sky = "clear"
	SkyPartlyCloudy Sky = "partly-cloudy"
	SkyCloudy       Sky = "cloudy"
	SkyOvercast     Sky = "overcast"
	SkyRain         Sky = "rain"
	SkyLightRain    Sky = "light-rain"
	SkyHeavyRain    Sky = "heavy-rain"
	SkyThunderstorm Sky = "thunderstorm"
	SkySnow         Sky = "snow"
	SkyLightSnow    Sky = "light-snow"
	SkyHeavySnow    Sky = "heavy-snow"
	SkyMist         Sky = "mist"
	SkyFog          Sky = "fog"
	SkyHaze         Sky = "haze"
)

// SkyConditions lists every valid Sky value.
var SkyConditions = []Sky{
	SkyClear, SkyPartlyCloudy, SkyCloudy, SkyOvercast,
	SkyRain, SkyLightRain, SkyHeavyRain, SkyThunderstorm,
	SkySnow, SkyLightSnow, SkyHeavySnow,
	SkyMist, SkyFog, SkyHaze,
}

// Valid reports whether s is one of the known sky conditions.
func (s Sky) Valid() bool {
	for _, v := range SkyConditions {
		if v == s {
			return true
		}
	}
	return false
}

// Compass is an 8-point compass label.
type Compass string

const (
	North     Compass = "N"
	NorthEast Compass = "NE"
	East      Compass = "E"
	SouthEast Compass = "SE"
	South     Compass = "S"
	SouthWest Compass = "SW"
	West      Compass = "W"
	NorthWest Compass = "NW"
)

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for the point.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Wind holds speed in km/h and the compass direction the wind blows from.
type Wind struct {
	Speed     float64 `json:"speed"`
	Direction Compass `json:"direction"`
}

// Reading is a normalized point-in-time weather record.
type Reading struct {
	Temperature   float64 `json:"temperature"`   // °C
	Humidity      int     `json:"humidity"`      // %
	Pressure      float64 `json:"pressure"`      // hPa
	Precipitation float64 `json:"precipitation"` // mm
	Sky           Sky     `json:"sky"`
	Wind          Wind    `json:"wind"`
	Visibility    float64 `json:"visibility"` // km
	MoonPhase     string  `json:"moonPhase"`
}

// DailyForecast is one day of a multi-day forecast.
type DailyForecast struct {
	Date                     string  `json:"date"` // YYYY-MM-DD
	MaxTemp                  float64 `json:"maxTemp"`
	MinTemp                  float64 `json:"minTemp"`
	Precipitation            float64 `json:"precipitation"`
	PrecipitationProbability int     `json:"precipitationProbability"`
	MoonPhase                string  `json:"moonPhase"`

	// Pressure is only set when the source reports it for the day. WeatherAPI
	// has no daily pressure and repeats the current reading instead.
	Pressure *float64 `json:"pressure,omitempty"`
}

// Forecast is the normalized "current + daily" forecast shape.
type Forecast struct {
	Source  Source          `json:"source"`
	Current Reading         `json:"current"`
	Daily   []DailyForecast `json:"daily"`
}

// Source names a weather data provider.
type Source string

const (
	SourceOpenMeteo  Source = "openmeteo"
	SourceWeatherAPI Source = "weatherapi"
)

// Spot is a tracked fishing location.
type Spot struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Coords Coordinates `json:"coords"`
}

// Snapshot is a stored forecast for a spot.
type Snapshot struct {
	ID        string    `json:"id"`
	SpotID    string    `json:"spotId"`
	Source    Source    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"` // always UTC
	Forecast  Forecast  `json:"forecast"`
}

// Consensus is a current reading merged from several sources.
type Consensus struct {
	Current Reading  `json:"current"`
	Sources []Source `json:"sources"`
}
