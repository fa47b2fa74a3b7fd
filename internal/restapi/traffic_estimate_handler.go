package restapi

import (
	"net/http"
	"time"

	"makro.app/internal/models"
	"makro.app/internal/utils"
)

// trafficEstimateHandler exposes the configured traffic estimator for a
// single origin and destination, departing now.
func (api *RestAPI) trafficEstimateHandler(w http.ResponseWriter, r *http.Request) {
	var body models.TrafficEstimateRequest
	if err := decodeStrictJSONBody(w, r, &body); err != nil {
		api.badBodyResponse(w, r, err)
		return
	}

	origin, destination, fieldErrors := body.Points()
	if fieldErrors == nil {
		fieldErrors = utils.ValidateCoordinate(origin.Lat, origin.Lng, "origin.lat", "origin.lng", nil)
		fieldErrors = utils.ValidateCoordinate(destination.Lat, destination.Lng, "destination.lat", "destination.lng", fieldErrors)
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	delay := api.Traffic.ExtraDelay(r.Context(), origin, destination, time.Now())

	api.sendJSON(w, r, http.StatusOK, models.TrafficEstimateResponse{
		ExtraDelaySeconds: delay,
		Provider:          api.TrafficProvider,
	})
}
