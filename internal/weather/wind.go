package weather

import "math"

var compassPoints = []Compass{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// CompassFromDegrees converts a wind bearing to one of 8 compass points,
// each covering a 45° sector centred on its label.
func CompassFromDegrees(deg float64) Compass {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/45)) % 8
	return compassPoints[idx]
}
