package restapi

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// SetRoutes registers the API endpoints on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	search := http.HandlerFunc(api.searchRouteHandler)
	router.Handler(http.MethodPost, "/search-route", search)
	router.Handler(http.MethodPost, "/search-route/", search)
	router.Handler(http.MethodGet, "/search-route/logs", validateAPIKey(api, api.searchLogsHandler))

	router.HandlerFunc(http.MethodPost, "/traffic-data/estimate", api.trafficEstimateHandler)
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(api.sendMethodNotAllowed)
}

// Handler returns the router wrapped in the middleware chain, outermost
// first: tracing, request id, request logging, panic recovery, security
// headers, CORS, rate limiting and compression.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.HandleOPTIONS = false
	api.SetRoutes(router)

	var h http.Handler = router
	h = CompressionMiddleware(h)
	h = api.rateLimiter.Handler(h)
	h = NewCORSMiddleware()(h)
	h = securityHeaders(h)
	h = api.recoverPanic(h)
	h = NewRequestLoggingMiddleware(api.logger())(h)
	h = requestID(h)
	return otelhttp.NewHandler(h, "makro-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

func (api *RestAPI) logger() *slog.Logger {
	if api.Logger == nil {
		return slog.Default()
	}
	return api.Logger
}
