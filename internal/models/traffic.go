package models

import "makro.app/internal/planner"

type LatLng struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// TrafficEstimateRequest is the body of POST /traffic-data/estimate.
type TrafficEstimateRequest struct {
	Origin      *LatLng `json:"origin"`
	Destination *LatLng `json:"destination"`
}

// Points returns the two coordinates, or the fields that were missing.
func (r TrafficEstimateRequest) Points() (origin, destination planner.GeoPoint, missing map[string][]string) {
	point := func(name string, ll *LatLng) planner.GeoPoint {
		if ll == nil || ll.Lat == nil || ll.Lng == nil {
			if missing == nil {
				missing = make(map[string][]string)
			}
			missing[name] = append(missing[name], name+" requires lat and lng")
			return planner.GeoPoint{}
		}
		return planner.GeoPoint{Lat: *ll.Lat, Lng: *ll.Lng}
	}
	origin = point("origin", r.Origin)
	destination = point("destination", r.Destination)
	return origin, destination, missing
}

type TrafficEstimateResponse struct {
	ExtraDelaySeconds int    `json:"extra_delay_seconds"`
	Provider          string `json:"provider"`
}
