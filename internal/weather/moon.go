package weather

import (
	"math"
	"time"
)

// Moon phase labels in synodic order, starting at the new moon.
const (
	MoonNew            = "New Moon"
	MoonWaxingCrescent = "Waxing Crescent"
	MoonFirstQuarter   = "First Quarter"
	MoonWaxingGibbous  = "Waxing Gibbous"
	MoonFull           = "Full Moon"
	MoonWaningGibbous  = "Waning Gibbous"
	MoonLastQuarter    = "Last Quarter"
	MoonWaningCrescent = "Waning Crescent"
)

// MoonPhases lists the phase labels in synodic order.
var MoonPhases = []string{
	MoonNew, MoonWaxingCrescent, MoonFirstQuarter, MoonWaxingGibbous,
	MoonFull, MoonWaningGibbous, MoonLastQuarter, MoonWaningCrescent,
}

const (
	synodicMonth   = 29.530588853
	newMoonEpochJD = 2451550.1
)

// julianDate returns the Julian Date at midnight of the given civil date.
func julianDate(year, month, day int) float64 {
	y, m, d := float64(year), float64(month), float64(day)
	return 367*y -
		math.Floor(7*(y+math.Floor((m+9)/12))/4) +
		math.Floor(275*m/9) +
		d - 730530 + 2451545.5
}

// MoonPhaseOn returns the moon phase label for the calendar date of t, as
// seen in t's own location. The time of day is ignored.
func MoonPhaseOn(t time.Time) string {
	y, m, d := t.Date()
	return moonPhase(y, int(m), d)
}

func moonPhase(year, month, day int) string {
	ip := (julianDate(year, month, day) - newMoonEpochJD) / synodicMonth
	age := ip - math.Floor(ip)
	phase := int(math.Round(age*8)) % 8
	return MoonPhases[phase]
}
