package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/fishing-log/internal/weather"
)

const (
	openMeteoHourlyFields = "temperature_2m,relative_humidity_2m,precipitation,pressure_msl,cloud_cover,wind_speed_10m,wind_direction_10m,visibility"
	openMeteoDailyFields  = "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max"
	dateLayout            = "2006-01-02"
)

// OpenMeteoProvider implements weather.ReadingProvider and
// weather.ForecastProvider for Open-Meteo. No API key is required.
type OpenMeteoProvider struct {
	baseURL   string
	transport *transport
	now       func() time.Time
}

var (
	_ weather.ReadingProvider  = (*OpenMeteoProvider)(nil)
	_ weather.ForecastProvider = (*OpenMeteoProvider)(nil)
)

func NewOpenMeteoProvider(cfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL:   "https://api.open-meteo.com/v1/forecast",
		transport: newTransport(string(weather.SourceOpenMeteo), cfg),
		now:       time.Now,
	}
}

func (p *OpenMeteoProvider) Name() weather.Source {
	return weather.SourceOpenMeteo
}

type openMeteoResponse struct {
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	Timezone         string          `json:"timezone"`
	UTCOffsetSeconds int             `json:"utc_offset_seconds"`
	Hourly           openMeteoHourly `json:"hourly"`
	Daily            openMeteoDaily  `json:"daily"`
}

// location is the spot's fixed UTC offset as resolved by timezone=auto.
func (r openMeteoResponse) location() *time.Location {
	return time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
}

// outOfRange reports whether err is Open-Meteo rejecting a date it has no data for.
func outOfRange(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusBadRequest &&
		strings.Contains(se.body, "out of allowed range")
}

type openMeteoHourly struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	Humidity      []float64 `json:"relative_humidity_2m"`
	Precipitation []float64 `json:"precipitation"`
	Pressure      []float64 `json:"pressure_msl"`
	CloudCover    []float64 `json:"cloud_cover"`
	WindSpeed     []float64 `json:"wind_speed_10m"`
	WindDirection []float64 `json:"wind_direction_10m"`
	Visibility    []float64 `json:"visibility"` // meters
}

type openMeteoDaily struct {
	Time                     []string  `json:"time"`
	TemperatureMax           []float64 `json:"temperature_2m_max"`
	TemperatureMin           []float64 `json:"temperature_2m_min"`
	PrecipitationSum         []float64 `json:"precipitation_sum"`
	PrecipitationProbability []float64 `json:"precipitation_probability_max"`
}

// hours is the length of the hourly series.
func (h openMeteoHourly) hours() int {
	return len(h.Temperature)
}

// readingAt assembles the reading for hour i. ok is false when any series is
// too short to hold index i.
func (h openMeteoHourly) readingAt(i int) (r weather.Reading, ok bool) {
	for _, series := range [][]float64{
		h.Temperature, h.Humidity, h.Precipitation, h.Pressure,
		h.CloudCover, h.WindSpeed, h.WindDirection, h.Visibility,
	} {
		if i < 0 || i >= len(series) {
			return weather.Reading{}, false
		}
	}

	return weather.Reading{
		Temperature:   h.Temperature[i],
		Humidity:      int(math.Round(h.Humidity[i])),
		Pressure:      h.Pressure[i],
		Precipitation: h.Precipitation[i],
		Sky:           weather.SkyFromCloudCover(h.CloudCover[i]),
		Wind: weather.Wind{
			Speed:     h.WindSpeed[i],
			Direction: weather.CompassFromDegrees(h.WindDirection[i]),
		},
		Visibility: h.Visibility[i] / 1000,
	}, true
}

func (p *OpenMeteoProvider) query(loc weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("hourly", openMeteoHourlyFields)
	values.Set("timezone", "auto")
	return values
}

// FetchReading returns the hourly reading covering the wall-clock time at.
// The hourly series is requested for at's calendar date in the spot's own
// timezone.
func (p *OpenMeteoProvider) FetchReading(ctx context.Context, loc weather.Coordinates, at time.Time) (weather.Reading, error) {
	date := at.Format(dateLayout)

	values := p.query(loc)
	values.Set("start_date", date)
	values.Set("end_date", date)

	var payload openMeteoResponse
	if err := p.transport.getJSON(ctx, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		if outOfRange(err) {
			return weather.Reading{}, fmt.Errorf("%w: %s is outside the provider's range", weather.ErrNoDataForTime, date)
		}
		return weather.Reading{}, err
	}

	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return readingForHour(payload.Hourly, day, at)
}

// readingForHour picks the entry for the whole hours elapsed between day's
// midnight and at.
func readingForHour(h openMeteoHourly, day, at time.Time) (weather.Reading, error) {
	idx := int(math.Floor(at.Sub(day).Hours()))
	if idx < 0 || idx >= h.hours() {
		return weather.Reading{}, fmt.Errorf("%w: hour %d outside the %d returned", weather.ErrNoDataForTime, idx, h.hours())
	}

	r, ok := h.readingAt(idx)
	if !ok {
		return weather.Reading{}, malformed(string(weather.SourceOpenMeteo), "hourly series shorter than %d entries", idx+1)
	}
	r.MoonPhase = weather.MoonPhaseOn(at)
	return r, nil
}

// FetchForecast returns current conditions and the daily forecast from today.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Coordinates) (weather.Forecast, error) {
	values := p.query(loc)
	values.Set("daily", openMeteoDailyFields)
	values.Set("forecast_days", "7")

	var payload openMeteoResponse
	if err := p.transport.getJSON(ctx, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Forecast{}, err
	}

	return p.normalizeForecast(payload)
}

func (p *OpenMeteoProvider) normalizeForecast(payload openMeteoResponse) (weather.Forecast, error) {
	current, ok := payload.Hourly.readingAt(0)
	if !ok {
		return weather.Forecast{}, malformed(string(weather.SourceOpenMeteo), "empty hourly series")
	}
	current.MoonPhase = weather.MoonPhaseOn(p.now().In(payload.location()))

	d := payload.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) < n || len(d.TemperatureMin) < n ||
		len(d.PrecipitationSum) < n || len(d.PrecipitationProbability) < n {
		return weather.Forecast{}, malformed(string(weather.SourceOpenMeteo), "daily series shorter than %d days", n)
	}

	daily := make([]weather.DailyForecast, 0, n)
	for i, raw := range d.Time {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return weather.Forecast{}, malformed(string(weather.SourceOpenMeteo), "daily time %q: %v", raw, err)
		}

		daily = append(daily, weather.DailyForecast{
			Date:                     date.Format(dateLayout),
			MaxTemp:                  d.TemperatureMax[i],
			MinTemp:                  d.TemperatureMin[i],
			Precipitation:            d.PrecipitationSum[i],
			PrecipitationProbability: int(math.Round(d.PrecipitationProbability[i])),
			MoonPhase:                weather.MoonPhaseOn(date),
		})
	}

	return weather.Forecast{
		Source:  weather.SourceOpenMeteo,
		Current: current,
		Daily:   daily,
	}, nil
}
