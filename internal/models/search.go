package models

import (
	"makro.app/internal/planner"
)

// SearchRouteRequest is the body of POST /search-route. Coordinates are
// pointers so that a missing field can be told apart from zero.
type SearchRouteRequest struct {
	StartLat   *float64 `json:"start_lat"`
	StartLng   *float64 `json:"start_lng"`
	EndLat     *float64 `json:"end_lat"`
	EndLng     *float64 `json:"end_lng"`
	FilterType string   `json:"filter_type,omitempty"`
}

// ToSearchRequest converts the body into a planner request. The returned
// map lists the required fields that were absent; it is nil when the body
// is complete.
func (r SearchRouteRequest) ToSearchRequest() (planner.SearchRequest, map[string][]string) {
	var missing map[string][]string
	value := func(field string, v *float64) float64 {
		if v == nil {
			if missing == nil {
				missing = make(map[string][]string)
			}
			missing[field] = append(missing[field], field+" is required")
			return 0
		}
		return *v
	}

	req := planner.SearchRequest{
		Origin:      planner.GeoPoint{Lat: value("start_lat", r.StartLat), Lng: value("start_lng", r.StartLng)},
		Destination: planner.GeoPoint{Lat: value("end_lat", r.EndLat), Lng: value("end_lng", r.EndLng)},
		Criterion:   planner.Criterion(r.FilterType),
	}
	return req, missing
}

type SearchRouteResponse struct {
	Routes []SuggestedRoute `json:"routes"`
}

type SuggestedRoute struct {
	RouteID                   string         `json:"route_id"`
	Description               string         `json:"description"`
	Segments                  []RouteSegment `json:"segments"`
	TotalEstimatedTimeSeconds int            `json:"total_estimated_time_seconds"`
	TotalEstimatedCost        int            `json:"total_estimated_cost"`
}

// RouteSegment is one leg on the wire. A walk towards the boarding stop
// carries end_stop_id; a walk away from the alighting stop carries
// start_stop_id. Rides carry all of the optional fields.
type RouteSegment struct {
	Type            string  `json:"type"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	Instructions    string  `json:"instructions"`
	MakroID         *string `json:"makro_id,omitempty"`
	StartStopID     *string `json:"start_stop_id,omitempty"`
	EndStopID       *string `json:"end_stop_id,omitempty"`
	EstimatedCost   *int    `json:"estimated_cost,omitempty"`
}

// NewSearchRouteResponse renders ranked itineraries. The routes list is
// never null.
func NewSearchRouteResponse(itineraries []planner.Itinerary) SearchRouteResponse {
	routes := make([]SuggestedRoute, 0, len(itineraries))
	for _, it := range itineraries {
		routes = append(routes, NewSuggestedRoute(it))
	}
	return SearchRouteResponse{Routes: routes}
}

func NewSuggestedRoute(it planner.Itinerary) SuggestedRoute {
	segments := make([]RouteSegment, 0, len(it.Segments))
	for _, s := range it.Segments {
		segments = append(segments, NewRouteSegment(s))
	}
	return SuggestedRoute{
		RouteID:                   it.RouteID,
		Description:               it.Description,
		Segments:                  segments,
		TotalEstimatedTimeSeconds: it.TotalDurationSeconds,
		TotalEstimatedCost:        it.TotalCost,
	}
}

func NewRouteSegment(s planner.Segment) RouteSegment {
	seg := RouteSegment{
		Type:            SegmentTypeWalk,
		DistanceMeters:  s.DistanceMeters,
		DurationSeconds: s.DurationSeconds,
		Instructions:    s.Instructions,
		StartStopID:     optional(s.OriginStopID),
		EndStopID:       optional(s.DestinationStopID),
	}
	if s.Kind == planner.Ride {
		fare := s.Fare
		seg.Type = SegmentTypeMakro
		seg.MakroID = optional(s.RouteID)
		seg.EstimatedCost = &fare
	}
	return seg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
