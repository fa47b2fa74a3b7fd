package planner

// distanceTolerance is how close two distances must be, in meters, to count as a tie.
const distanceTolerance = 1e-9

// Nearest returns the stop closest to p. Equidistant stops resolve to the
// lowest id. stops must not be empty.
func Nearest(stops []Stop, p GeoPoint) Stop {
	best := stops[0]
	bestDist := Distance(p, best.Location)

	for _, s := range stops[1:] {
		d := Distance(p, s.Location)
		switch {
		case d < bestDist-distanceTolerance:
			best, bestDist = s, d
		case d <= bestDist+distanceTolerance && CompareIDs(s.ID, best.ID) < 0:
			best, bestDist = s, d
		}
	}

	return best
}
