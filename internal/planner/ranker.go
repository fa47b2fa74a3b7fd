package planner

import "sort"

// Rank returns a copy of its ordered by criterion, ties broken by route id.
// The sort is stable.
func Rank(its []Itinerary, criterion Criterion) []Itinerary {
	ranked := make([]Itinerary, len(its))
	copy(ranked, its)

	key := rankKey(criterion.OrDefault())
	sort.SliceStable(ranked, func(i, j int) bool {
		ki, kj := key(ranked[i]), key(ranked[j])
		if ki != kj {
			return ki < kj
		}
		return CompareIDs(ranked[i].RouteID, ranked[j].RouteID) < 0
	})

	return ranked
}

func rankKey(criterion Criterion) func(Itinerary) int {
	switch criterion {
	case Cheapest:
		return func(it Itinerary) int { return it.TotalCost }
	case LeastTransfers:
		// Always 1 while itineraries use a single route.
		return func(it Itinerary) int { return it.RideCount() }
	default:
		return func(it Itinerary) int { return it.TotalDurationSeconds }
	}
}
