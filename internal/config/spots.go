package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"

	"github.com/kelvins/geocoder"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/fishing-log/internal/weather"
)

// SpotEntry is one fishing spot in the spots file. Either coordinates or a
// city/country pair must be given; the latter is geocoded.
type SpotEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name" validate:"required"`
	Lat     *float64 `yaml:"lat"`
	Lon     *float64 `yaml:"lon"`
	City    string   `yaml:"city"`
	Country string   `yaml:"country" validate:"required_with=City"`
}

type spotsFile struct {
	Spots []SpotEntry `yaml:"spots" validate:"dive"`
}

// geocode resolves a city/country pair to coordinates.
var geocode = func(city, country, apiKey string) (weather.Coordinates, error) {
	if apiKey == "" {
		return weather.Coordinates{}, errors.New("GEOCODER_API_KEY is required to geocode spots")
	}
	geocoder.ApiKey = apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return weather.Coordinates{}, err
	}
	return weather.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// LoadSpotsFile reads and validates a YAML spots file.
func LoadSpotsFile(path, geocoderKey string) ([]weather.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spots file %s: %w", path, err)
	}

	var file spotsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse spots file %s: %w", path, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid spots file %s: %w", path, err)
	}

	spots := make([]weather.Spot, 0, len(file.Spots))
	for _, entry := range file.Spots {
		spot, err := resolveSpot(entry, geocoderKey)
		if err != nil {
			return nil, err
		}
		spots = append(spots, spot)
	}
	return spots, nil
}

func resolveSpot(entry SpotEntry, geocoderKey string) (weather.Spot, error) {
	spot := weather.Spot{ID: entry.ID, Name: entry.Name}
	if spot.ID == "" {
		spot.ID = slug(entry.Name)
	}
	if spot.ID == "" {
		return weather.Spot{}, fmt.Errorf("spot %q: cannot derive an id from the name; set id explicitly", entry.Name)
	}

	if (entry.Lat == nil) != (entry.Lon == nil) {
		return weather.Spot{}, fmt.Errorf("spot %q: lat and lon must be given together", entry.Name)
	}
	if entry.Lat != nil {
		if *entry.Lat < -90 || *entry.Lat > 90 || *entry.Lon < -180 || *entry.Lon > 180 {
			return weather.Spot{}, fmt.Errorf("spot %q: coordinates out of range", entry.Name)
		}
		spot.Coords = weather.Coordinates{Lat: *entry.Lat, Lon: *entry.Lon}
		return spot, nil
	}
	if entry.City == "" {
		return weather.Spot{}, fmt.Errorf("spot %q: either lat/lon or city/country is required", entry.Name)
	}

	coords, err := geocode(entry.City, entry.Country, geocoderKey)
	if err != nil {
		return weather.Spot{}, fmt.Errorf("geocode spot %q (%s, %s): %w", entry.Name, entry.City, entry.Country, err)
	}
	log.Printf("INFO: geocoded spot %s to %s", spot.ID, coords.Key())
	spot.Coords = coords
	return spot, nil
}

// slug turns a display name into a URL-safe lower-case identifier.
func slug(name string) string {
	// Strip combining marks so "Pedrógão" becomes "Pedrogao".
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func dedupeSpots(spots []weather.Spot) []weather.Spot {
	seen := make(map[string]bool, len(spots))
	out := spots[:0]
	for _, s := range spots {
		if seen[s.ID] {
			log.Printf("INFO: duplicate spot id %s ignored", s.ID)
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}
