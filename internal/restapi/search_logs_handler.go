package restapi

import (
	"net/http"

	"makro.app/internal/models"
	"makro.app/internal/utils"
)

const (
	defaultSearchLogLimit = 100
	maxSearchLogLimit     = 1000
)

func (api *RestAPI) searchLogsHandler(w http.ResponseWriter, r *http.Request) {
	limit, fieldErrors := utils.ParseIntParam(r.URL.Query(), "limit", defaultSearchLogLimit, nil)
	if len(fieldErrors) == 0 {
		if err := utils.ValidateLimit(limit, 1, maxSearchLogLimit); err != nil {
			fieldErrors["limit"] = append(fieldErrors["limit"], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	entries, err := api.RecentSearches(r.Context(), limit)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendJSON(w, r, http.StatusOK, models.NewSearchLogsResponse(entries))
}
