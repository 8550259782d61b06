package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/fishing-log/internal/weather"
)

const weatherAPIFixture = `{
  "location": {"name": "Constancia", "lat": 39.48, "lon": -8.24, "tz_id": "Europe/Lisbon"},
  "current": {
    "temp_c": 14.2,
    "humidity": 88,
    "pressure_mb": 1012.0,
    "precip_mm": 0.6,
    "condition": {"text": "Light rain", "code": 1183},
    "wind_kph": 18.7,
    "wind_degree": 200,
    "wind_dir": "SSW",
    "vis_km": 9.0
  },
  "forecast": {
    "forecastday": [
      {"date": "2024-01-25", "day": {"maxtemp_c": 16.1, "mintemp_c": 8.4, "totalprecip_mm": 4.2, "daily_chance_of_rain": 86}, "astro": {"moon_phase": "Full Moon"}},
      {"date": "2024-01-26", "day": {"maxtemp_c": 15.0, "mintemp_c": 7.9, "totalprecip_mm": 0.0, "daily_chance_of_rain": 12}, "astro": {"moon_phase": "Waning Gibbous"}},
      {"date": "2024-01-27", "day": {"maxtemp_c": 14.3, "mintemp_c": 6.0, "totalprecip_mm": 0.0, "daily_chance_of_rain": 0}, "astro": {"moon_phase": ""}}
    ]
  }
}`

func newTestWeatherAPI(srv *httptest.Server, key string) *WeatherAPIProvider {
	p := NewWeatherAPIProvider(DefaultHTTPClientConfig(srv.Client()), key)
	p.baseURL = srv.URL
	return p
}

func TestWeatherAPIFetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", q.Get("key"))
		}
		if q.Get("q") != "39.477037,-8.24094" {
			t.Errorf("q = %q, want 39.477037,-8.24094", q.Get("q"))
		}
		if q.Get("days") != "7" {
			t.Errorf("days = %q, want 7", q.Get("days"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(weatherAPIFixture))
	}))
	defer srv.Close()

	p := newTestWeatherAPI(srv, "test-key")
	fc, err := p.FetchForecast(context.Background(), weather.Coordinates{Lat: 39.477037, Lon: -8.24094})
	if err != nil {
		t.Fatalf("FetchForecast() error = %v", err)
	}

	if fc.Source != weather.SourceWeatherAPI {
		t.Errorf("Source = %s, want weatherapi", fc.Source)
	}

	cur := fc.Current
	if cur.Sky != weather.SkyRain {
		t.Errorf("Current.Sky = %s, want rain for code 1183", cur.Sky)
	}
	if cur.Wind.Direction != weather.South || cur.Wind.Speed != 18.7 {
		t.Errorf("Current.Wind = %+v, want 18.7 km/h S", cur.Wind)
	}
	if cur.Humidity != 88 || cur.Pressure != 1012 || cur.Visibility != 9 || cur.Precipitation != 0.6 {
		t.Errorf("Current = %+v", cur)
	}
	if cur.MoonPhase != "Full Moon" {
		t.Errorf("Current.MoonPhase = %q, want first day's phase", cur.MoonPhase)
	}

	if len(fc.Daily) != 3 {
		t.Fatalf("len(Daily) = %d, want 3", len(fc.Daily))
	}
	for i, d := range fc.Daily {
		if d.Pressure == nil || *d.Pressure != 1012 {
			t.Errorf("Daily[%d].Pressure = %v, want current pressure 1012", i, d.Pressure)
		}
	}
	if fc.Daily[1].MoonPhase != "Waning Gibbous" {
		t.Errorf("Daily[1].MoonPhase = %q, want provider value", fc.Daily[1].MoonPhase)
	}
	if fc.Daily[2].MoonPhase != weather.MoonPhases[5] {
		t.Errorf("Daily[2].MoonPhase = %q, want calculated %q", fc.Daily[2].MoonPhase, weather.MoonPhases[5])
	}
	if fc.Daily[0].PrecipitationProbability != 86 || fc.Daily[0].MaxTemp != 16.1 {
		t.Errorf("Daily[0] = %+v", fc.Daily[0])
	}
}

func TestWeatherAPIMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := newTestWeatherAPI(srv, "")
	if _, err := p.FetchForecast(context.Background(), weather.Coordinates{Lat: 1, Lon: 2}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if called {
		t.Error("no request should be made without an api key")
	}
}

func TestWeatherAPIEmptyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current": {"temp_c": 10}, "forecast": {"forecastday": []}}`))
	}))
	defer srv.Close()

	p := newTestWeatherAPI(srv, "k")
	_, err := p.FetchForecast(context.Background(), weather.Coordinates{Lat: 1, Lon: 2})
	if !errors.Is(err, weather.ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestWeatherAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":2008,"message":"API key has been disabled."}}`))
	}))
	defer srv.Close()

	p := newTestWeatherAPI(srv, "k")
	_, err := p.FetchForecast(context.Background(), weather.Coordinates{Lat: 1, Lon: 2})
	if !errors.Is(err, weather.ErrFetchFailed) {
		t.Errorf("error = %v, want ErrFetchFailed", err)
	}
}
