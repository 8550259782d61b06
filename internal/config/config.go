package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/fishing-log/internal/common"
	"github.com/i474232898/fishing-log/internal/weather"
)

type AppConfig struct {
	WeatherAPIKey string `validate:"required_if=PrimarySource weatherapi"`
	GeocoderKey   string

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// FetchInterval controls how often tracked spots are refreshed.
	FetchInterval time.Duration `validate:"gte=1m"`

	// Spots to track.
	Spots []weather.Spot

	StoreDriver     string        `validate:"oneof=memory sqlite"`
	StorePath       string        `validate:"required_if=StoreDriver sqlite"`
	StoreMaxHistory int           `validate:"gte=0"` // max number of snapshots per spot (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of snapshots (0 = unlimited)

	ProviderMaxRetries int     `validate:"gte=0,lte=10"`
	ProviderRateLimit  float64 `validate:"gte=0"` // requests per second per provider (0 = unlimited)

	PrimarySource weather.Source `validate:"oneof=openmeteo weatherapi"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "30m"); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreDriver = getenvDefault("STORE_DRIVER", "memory")
	cfg.StorePath = getenvDefault("STORE_PATH", "data/fishing-log.db")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48) // one day at 30-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "72h"); err != nil {
		return nil, err
	}

	cfg.ProviderMaxRetries = getenvInt("PROVIDER_MAX_RETRIES", 0)
	if v := os.Getenv("PROVIDER_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_RATE_LIMIT: %w", err)
		}
		cfg.ProviderRateLimit = rps
	}

	cfg.PrimarySource = weather.Source(getenvDefault("PRIMARY_SOURCE", string(weather.SourceOpenMeteo)))
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	spots, err := loadSpots(cfg.GeocoderKey)
	if err != nil {
		return nil, err
	}
	cfg.Spots = spots

	return cfg, nil
}

func loadSpots(geocoderKey string) ([]weather.Spot, error) {
	var spots []weather.Spot

	if path := os.Getenv("SPOTS_FILE"); path != "" {
		fromFile, err := LoadSpotsFile(path, geocoderKey)
		if err != nil {
			return nil, err
		}
		spots = append(spots, fromFile...)
	}

	cities := common.SplitList(os.Getenv("SPOT_CITY"))
	countries := common.SplitList(os.Getenv("SPOT_COUNTRY"))
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	for i := range cities {
		spot, err := resolveSpot(SpotEntry{Name: cities[i], City: cities[i], Country: countries[i]}, geocoderKey)
		if err != nil {
			return nil, err
		}
		spots = append(spots, spot)
	}

	return dedupeSpots(spots), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("INFO: ignoring invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
