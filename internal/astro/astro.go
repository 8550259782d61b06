// Package astro builds per-day celestial summaries for a fishing spot:
// moon phase plus sunrise and sunset.
package astro

import (
	"errors"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/i474232898/fishing-log/internal/weather"
)

// MaxDays is the longest range Days will compute.
const MaxDays = 14

var ErrInvalidDays = fmt.Errorf("days must be between 1 and %d", MaxDays)

// Day is the celestial summary for one calendar date at a location.
// Sunrise and Sunset are UTC and zero during polar day or night.
type Day struct {
	Date      string    `json:"date"`
	MoonPhase string    `json:"moonPhase"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
}

// DaylightHours returns the time between sunrise and sunset, or 0 when either is unknown.
func (d Day) DaylightHours() float64 {
	if d.Sunrise.IsZero() || d.Sunset.IsZero() {
		return 0
	}
	return d.Sunset.Sub(d.Sunrise).Hours()
}

// ForDate returns the summary for the calendar date of date. Only the
// year, month and day of date in its own location are used.
func ForDate(loc weather.Coordinates, date time.Time) (Day, error) {
	if err := validate(loc); err != nil {
		return Day{}, err
	}
	return compute(loc, date), nil
}

// Days returns n consecutive summaries starting at from.
func Days(loc weather.Coordinates, from time.Time, n int) ([]Day, error) {
	if n < 1 || n > MaxDays {
		return nil, ErrInvalidDays
	}

	y, m, d := from.Date()
	out := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		day, err := ForDate(loc, time.Date(y, m, d+i, 12, 0, 0, 0, time.UTC))
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, nil
}

func compute(loc weather.Coordinates, date time.Time) Day {
	y, m, d := date.Date()
	rise, set := sunrise.SunriseSunset(loc.Lat, loc.Lon, y, m, d)

	return Day{
		Date:      fmt.Sprintf("%04d-%02d-%02d", y, int(m), d),
		MoonPhase: weather.MoonPhaseOn(date),
		Sunrise:   rise,
		Sunset:    set,
	}
}

func validate(loc weather.Coordinates) error {
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lon < -180 || loc.Lon > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}
