package planner

import (
	"context"
	"fmt"
	"time"

	"makro.app/internal/utils"
)

const (
	// WalkThresholdMeters is the distance at or below which a walk leg is omitted.
	WalkThresholdMeters = 30.0
	// WalkingSpeed is 5 km/h in meters per second.
	WalkingSpeed = 5000.0 / 3600.0
	// RideSpeed is 20 km/h in meters per second.
	RideSpeed = 20000.0 / 3600.0
)

// TrafficEstimator reports extra ride delay in seconds between two points.
// Implementations never fail; an unavailable source reports 0.
type TrafficEstimator interface {
	ExtraDelay(ctx context.Context, origin, destination GeoPoint, departure time.Time) int
}

// Builder composes the walk, ride, walk itinerary for one route.
type Builder struct {
	Estimator TrafficEstimator
	Clock     func() time.Time
}

func (b Builder) now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now()
}

// Build returns the itinerary for riding route from the stop nearest the
// origin to the stop nearest the destination. route must have at least one stop.
func (b Builder) Build(ctx context.Context, route Route, req SearchRequest) Itinerary {
	startStop := Nearest(route.Stops, req.Origin)
	endStop := Nearest(route.Stops, req.Destination)

	segments := make([]Segment, 0, 3)

	if d := Distance(req.Origin, startStop.Location); d > WalkThresholdMeters {
		segments = append(segments, Segment{
			Kind:              Walk,
			From:              req.Origin,
			To:                startStop.Location,
			DistanceMeters:    d,
			DurationSeconds:   int(d / WalkingSpeed),
			Instructions:      fmt.Sprintf("Walk %s to the nearest stop: %s", heading(req.Origin, startStop.Location), stopLabel(startStop)),
			DestinationStopID: startStop.ID,
		})
	}

	rideDistance := Distance(startStop.Location, endStop.Location)
	rideDuration := int(rideDistance / RideSpeed)
	if req.Criterion.OrDefault() == Fastest && b.Estimator != nil {
		if extra := b.Estimator.ExtraDelay(ctx, startStop.Location, endStop.Location, b.now()); extra > 0 {
			rideDuration += extra
		}
	}

	segments = append(segments, Segment{
		Kind:              Ride,
		From:              startStop.Location,
		To:                endStop.Location,
		DistanceMeters:    rideDistance,
		DurationSeconds:   rideDuration,
		Instructions:      fmt.Sprintf("Take the makro from %s to %s", stopLabel(startStop), stopLabel(endStop)),
		RouteID:           route.ID,
		OriginStopID:      startStop.ID,
		DestinationStopID: endStop.ID,
		Fare:              route.FlatPrice,
	})

	if d := Distance(endStop.Location, req.Destination); d > WalkThresholdMeters {
		segments = append(segments, Segment{
			Kind:            Walk,
			From:            endStop.Location,
			To:              req.Destination,
			DistanceMeters:  d,
			DurationSeconds: int(d / WalkingSpeed),
			Instructions:    fmt.Sprintf("Walk %s from %s to your destination", heading(endStop.Location, req.Destination), stopLabel(endStop)),
			OriginStopID:    endStop.ID,
		})
	}

	description := route.Name
	if description == "" {
		description = route.ID
	}

	return newItinerary(route.ID, description, segments)
}

func heading(from, to GeoPoint) string {
	return utils.Heading(from.Lat, from.Lng, to.Lat, to.Lng)
}

func stopLabel(s Stop) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
