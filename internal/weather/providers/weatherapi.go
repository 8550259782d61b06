package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/fishing-log/internal/weather"
)

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	apiKey    string
	baseURL   string
	transport *transport
}

var _ weather.ForecastProvider = (*WeatherAPIProvider)(nil)

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		apiKey:    apiKey,
		baseURL:   "https://api.weatherapi.com/v1/forecast.json",
		transport: newTransport(string(weather.SourceWeatherAPI), cfg),
	}
}

func (p *WeatherAPIProvider) Name() weather.Source {
	return weather.SourceWeatherAPI
}

type weatherAPIResponse struct {
	Current struct {
		TempC      float64 `json:"temp_c"`
		Humidity   float64 `json:"humidity"`
		PressureMb float64 `json:"pressure_mb"`
		PrecipMm   float64 `json:"precip_mm"`
		Condition  struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
		WindKph    float64 `json:"wind_kph"`
		WindDegree float64 `json:"wind_degree"`
		WindDir    string  `json:"wind_dir"` // 16-point, not used
		VisKm      float64 `json:"vis_km"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []weatherAPIForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type weatherAPIForecastDay struct {
	Date string `json:"date"`
	Day  struct {
		MaxTempC          float64 `json:"maxtemp_c"`
		MinTempC          float64 `json:"mintemp_c"`
		TotalPrecipMm     float64 `json:"totalprecip_mm"`
		DailyChanceOfRain float64 `json:"daily_chance_of_rain"`
	} `json:"day"`
	Astro struct {
		MoonPhase string `json:"moon_phase"`
	} `json:"astro"`
}

// FetchForecast returns current conditions and up to 7 daily entries.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Coordinates) (weather.Forecast, error) {
	if p.apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", strconv.FormatFloat(loc.Lat, 'f', -1, 64)+","+strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("days", "7")
	values.Set("aqi", "no")
	values.Set("alerts", "no")

	var payload weatherAPIResponse
	if err := p.transport.getJSON(ctx, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Forecast{}, err
	}

	return normalizeWeatherAPI(payload)
}

func normalizeWeatherAPI(payload weatherAPIResponse) (weather.Forecast, error) {
	days := payload.Forecast.ForecastDay
	if len(days) == 0 {
		return weather.Forecast{}, malformed(string(weather.SourceWeatherAPI), "empty forecastday")
	}

	c := payload.Current
	current := weather.Reading{
		Temperature:   c.TempC,
		Humidity:      int(c.Humidity),
		Pressure:      c.PressureMb,
		Precipitation: c.PrecipMm,
		Sky:           weather.SkyFromConditionCode(c.Condition.Code),
		Wind: weather.Wind{
			Speed:     c.WindKph,
			Direction: weather.CompassFromDegrees(c.WindDegree),
		},
		Visibility: c.VisKm,
	}

	daily := make([]weather.DailyForecast, 0, len(days))
	for _, fd := range days {
		date, err := time.Parse(dateLayout, fd.Date)
		if err != nil {
			return weather.Forecast{}, malformed(string(weather.SourceWeatherAPI), "forecast date %q: %v", fd.Date, err)
		}

		// No daily pressure on this API; repeat the current reading.
		pressure := c.PressureMb
		daily = append(daily, weather.DailyForecast{
			Date:                     date.Format(dateLayout),
			MaxTemp:                  fd.Day.MaxTempC,
			MinTemp:                  fd.Day.MinTempC,
			Precipitation:            fd.Day.TotalPrecipMm,
			PrecipitationProbability: int(fd.Day.DailyChanceOfRain),
			MoonPhase:                moonOrCalculated(fd.Astro.MoonPhase, date),
			Pressure:                 &pressure,
		})
	}

	current.MoonPhase = daily[0].MoonPhase

	return weather.Forecast{
		Source:  weather.SourceWeatherAPI,
		Current: current,
		Daily:   daily,
	}, nil
}

// moonOrCalculated passes the provider's phase through unchanged and only
// falls back to the calculator when it is empty.
func moonOrCalculated(phase string, date time.Time) string {
	if phase != "" {
		return phase
	}
	return weather.MoonPhaseOn(date)
}
