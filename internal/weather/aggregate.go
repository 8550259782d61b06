package weather

import "math"

// SourcedReading is a current reading tagged with the source it came from.
type SourcedReading struct {
	Source  Source
	Reading Reading
}

// AggregateReadings combines current readings from several sources into one.
// Numeric fields are averaged, the sky is picked by majority (ties go to the
// earliest source in the slice), and the wind direction comes from the mean
// wind vector.
func AggregateReadings(readings []SourcedReading) Consensus {
	if len(readings) == 0 {
		return Consensus{}
	}

	var (
		sumTemp       float64
		sumHumidity   float64
		sumPressure   float64
		sumPrecip     float64
		sumVisibility float64
		sumWind       float64
		sumU, sumV    float64
	)

	skyCounts := make(map[Sky]int)
	skyOrder := make([]Sky, 0, len(readings))
	sources := make([]Source, 0, len(readings))
	moon := ""

	for _, sr := range readings {
		r := sr.Reading
		sumTemp += r.Temperature
		sumHumidity += float64(r.Humidity)
		sumPressure += r.Pressure
		sumPrecip += r.Precipitation
		sumVisibility += r.Visibility
		sumWind += r.Wind.Speed

		rad := compassDegrees(r.Wind.Direction) * math.Pi / 180
		sumU += r.Wind.Speed * math.Sin(rad)
		sumV += r.Wind.Speed * math.Cos(rad)

		if _, seen := skyCounts[r.Sky]; !seen {
			skyOrder = append(skyOrder, r.Sky)
		}
		skyCounts[r.Sky]++

		if moon == "" && r.MoonPhase != "" {
			moon = r.MoonPhase
		}
		sources = append(sources, sr.Source)
	}

	n := float64(len(readings))

	// Pick majority sky.
	bestSky := skyOrder[0]
	for _, sky := range skyOrder[1:] {
		if skyCounts[sky] > skyCounts[bestSky] {
			bestSky = sky
		}
	}

	direction := readings[0].Reading.Wind.Direction
	if sumU != 0 || sumV != 0 {
		direction = CompassFromDegrees(math.Atan2(sumU, sumV) * 180 / math.Pi)
	}

	return Consensus{
		Current: Reading{
			Temperature:   sumTemp / n,
			Humidity:      int(math.Round(sumHumidity / n)),
			Pressure:      sumPressure / n,
			Precipitation: sumPrecip / n,
			Sky:           bestSky,
			Wind: Wind{
				Speed:     sumWind / n,
				Direction: direction,
			},
			Visibility: sumVisibility / n,
			MoonPhase:  moon,
		},
		Sources: sources,
	}
}

func compassDegrees(c Compass) float64 {
	for i, p := range compassPoints {
		if p == c {
			return float64(i) * 45
		}
	}
	return 0
}
