package restapi

import (
	"net/http"

	"makro.app/internal/models"
)

func (api *RestAPI) searchRouteHandler(w http.ResponseWriter, r *http.Request) {
	var body models.SearchRouteRequest
	if err := decodeJSONBody(w, r, &body); err != nil {
		api.badBodyResponse(w, r, err)
		return
	}

	req, missing := body.ToSearchRequest()
	if missing != nil {
		api.validationErrorResponse(w, r, missing)
		return
	}

	itineraries, err := api.Planner.Search(r.Context(), req)
	if err != nil {
		api.searchErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, models.NewSearchRouteResponse(itineraries))
}
