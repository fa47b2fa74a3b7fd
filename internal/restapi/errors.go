package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"makro.app/internal/logging"
	"makro.app/internal/models"
	"makro.app/internal/planner"
)

// invalidAPIKeyResponse sends a 401 Unauthorized response.
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendStatus(w, r, http.StatusUnauthorized, "permission denied")
}

// serverErrorResponse sends a 500 and logs err when it is set.
func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "request failed", err)
	}
	api.sendStatus(w, r, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "route catalog unavailable", err)
	api.sendStatus(w, r, http.StatusServiceUnavailable, "service unavailable")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendJSON(w, r, http.StatusBadRequest, models.FieldErrorsResponse{FieldErrors: fieldErrors})
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendStatus(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) sendMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.sendStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// searchErrorResponse maps a planner error onto its HTTP status.
func (api *RestAPI) searchErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *planner.ValidationError
	switch {
	case errors.As(err, &validationErr):
		api.validationErrorResponse(w, r, validationErr.FieldErrors)
	case errors.Is(err, planner.ErrCatalogUnavailable):
		api.serviceUnavailableResponse(w, r, err)
	default:
		api.serverErrorResponse(w, r, err)
	}
}

func (api *RestAPI) sendStatus(w http.ResponseWriter, r *http.Request, code int, text string) {
	api.sendJSON(w, r, code, models.NewResponse(code, nil, text))
}

func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err)
	}
}
