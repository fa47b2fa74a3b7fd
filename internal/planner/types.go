package planner

import (
	"time"

	"makro.app/internal/utils"
)

// Criterion selects how itineraries are ranked.
type Criterion string

const (
	Fastest        Criterion = "fastest"
	Cheapest       Criterion = "cheapest"
	LeastTransfers Criterion = "least_transfers"
)

// DefaultCriterion applies when a request leaves the criterion empty.
const DefaultCriterion = Fastest

func (c Criterion) Valid() bool {
	switch c {
	case Fastest, Cheapest, LeastTransfers:
		return true
	}
	return false
}

// OrDefault returns c, or DefaultCriterion when c is empty.
func (c Criterion) OrDefault() Criterion {
	if c == "" {
		return DefaultCriterion
	}
	return c
}

type Stop struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// Route is one minibus line. Stops are ordered by stop order.
// OperatingHours is informational, e.g. "06:00-22:00".
type Route struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	FlatPrice      int    `json:"flat_price"`
	OperatingHours string `json:"operating_hours,omitempty"`
	Stops          []Stop `json:"stops,omitempty"`
}

type SearchRequest struct {
	Origin      GeoPoint  `json:"origin"`
	Destination GeoPoint  `json:"destination"`
	Criterion   Criterion `json:"criterion"`
}

// Normalize fills in defaults without touching invalid values.
func (r SearchRequest) Normalize() SearchRequest {
	r.Criterion = r.Criterion.OrDefault()
	return r
}

// Validate reports field errors keyed by request field name.
func (r SearchRequest) Validate() error {
	fieldErrors := utils.ValidateCoordinate(r.Origin.Lat, r.Origin.Lng, "start_lat", "start_lng", nil)
	fieldErrors = utils.ValidateCoordinate(r.Destination.Lat, r.Destination.Lng, "end_lat", "end_lng", fieldErrors)

	if !r.Criterion.OrDefault().Valid() {
		fieldErrors["filter_type"] = append(fieldErrors["filter_type"],
			"filter_type must be one of fastest, cheapest, least_transfers")
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

type SegmentKind string

const (
	Walk SegmentKind = "walk"
	Ride SegmentKind = "ride"
)

// Segment is one leg of an itinerary. RouteID, the stop ids and Fare are
// only meaningful for rides, except that a walk records the stop it
// starts or ends at.
type Segment struct {
	Kind              SegmentKind `json:"kind"`
	From              GeoPoint    `json:"from"`
	To                GeoPoint    `json:"to"`
	DistanceMeters    float64     `json:"distance_meters"`
	DurationSeconds   int         `json:"duration_seconds"`
	Instructions      string      `json:"instructions"`
	RouteID           string      `json:"route_id,omitempty"`
	OriginStopID      string      `json:"origin_stop_id,omitempty"`
	DestinationStopID string      `json:"destination_stop_id,omitempty"`
	Fare              int         `json:"fare,omitempty"`
}

type Itinerary struct {
	RouteID              string    `json:"route_id"`
	Description          string    `json:"description"`
	Segments             []Segment `json:"segments"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	TotalCost            int       `json:"total_cost"`
}

// RideCount is the number of ride segments, which is the transfer count plus one.
func (it Itinerary) RideCount() int {
	n := 0
	for _, s := range it.Segments {
		if s.Kind == Ride {
			n++
		}
	}
	return n
}

// newItinerary derives the totals from the segments.
func newItinerary(routeID, description string, segments []Segment) Itinerary {
	totalDuration := 0
	totalCost := 0
	for _, s := range segments {
		totalDuration += s.DurationSeconds
		if s.Kind == Ride {
			totalCost += s.Fare
		}
	}

	return Itinerary{
		RouteID:              routeID,
		Description:          description,
		Segments:             segments,
		TotalDurationSeconds: totalDuration,
		TotalCost:            totalCost,
	}
}

// CacheEntry is the envelope stored in the result cache.
type CacheEntry struct {
	Fingerprint string      `json:"fingerprint"`
	Payload     []Itinerary `json:"payload"`
	CreatedAt   time.Time   `json:"created_at"`
	TTLSeconds  int         `json:"ttl_seconds"`
}
