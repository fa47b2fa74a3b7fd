package utils

import (
	"math"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var compassNames = map[string]string{
	"N":  "north",
	"NE": "north-east",
	"E":  "east",
	"SE": "south-east",
	"S":  "south",
	"SW": "south-west",
	"W":  "west",
	"NW": "north-west",
}

// Bearing returns the initial great-circle bearing in degrees [0, 360) from
// (lat1, lng1) to (lat2, lng2).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	y := math.Sin(deltaLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLng)

	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

// CompassPoint converts a bearing to one of the 8 compass points.
func CompassPoint(bearing float64) string {
	index := int((bearing+22.5)/45.0) % 8
	return compassPoints[index]
}

// Heading describes the direction of travel in words, e.g. "north-east".
func Heading(lat1, lng1, lat2, lng2 float64) string {
	return compassNames[CompassPoint(Bearing(lat1, lng1, lat2, lng2))]
}
