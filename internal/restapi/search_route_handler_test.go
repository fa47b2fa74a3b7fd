package restapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makro.app/internal/models"
	"makro.app/internal/planner"
)

func TestSearchRouteDamascusExample(t *testing.T) {
	api := createTestApi(t, testOptions{})

	rec := serve(t, api, http.MethodPost, "/search-route", damascusSearchBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.SearchRouteResponse
	decodeResponseBody(t, rec, &resp)
	require.Len(t, resp.Routes, 1)

	route := resp.Routes[0]
	assert.Equal(t, "1", route.RouteID)
	assert.Equal(t, 2000, route.TotalEstimatedCost)
	assert.Greater(t, route.TotalEstimatedTimeSeconds, 0)

	require.Len(t, route.Segments, 3)
	assert.Equal(t, []string{"walk", "makro", "walk"},
		[]string{route.Segments[0].Type, route.Segments[1].Type, route.Segments[2].Type})

	ride := route.Segments[1]
	require.NotNil(t, ride.EstimatedCost)
	assert.Equal(t, 2000, *ride.EstimatedCost)
	require.NotNil(t, ride.MakroID)
	assert.Equal(t, "1", *ride.MakroID)
	assert.Equal(t, "101", *ride.StartStopID)
	assert.Equal(t, "103", *ride.EndStopID)

	require.NotNil(t, route.Segments[0].EndStopID)
	assert.Equal(t, "101", *route.Segments[0].EndStopID)
	require.NotNil(t, route.Segments[2].StartStopID)
	assert.Equal(t, "103", *route.Segments[2].StartStopID)

	total := 0
	for _, s := range route.Segments {
		total += s.DurationSeconds
	}
	assert.Equal(t, route.TotalEstimatedTimeSeconds, total)
}

func TestSearchRouteTrailingSlash(t *testing.T) {
	api := createTestApi(t, testOptions{})
	rec := serve(t, api, http.MethodPost, "/search-route/", damascusSearchBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchRouteIgnoresUnknownKeys(t *testing.T) {
	api := createTestApi(t, testOptions{})

	body := `{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865,"filter_type":"fastest","user_id":7,"via":"Mezzeh"}`
	rec := serve(t, api, http.MethodPost, "/search-route", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.SearchRouteResponse
	decodeResponseBody(t, rec, &resp)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, "1", resp.Routes[0].RouteID)
}

func TestSearchRouteEmptyCatalog(t *testing.T) {
	api := createTestApi(t, testOptions{catalog: &testCatalog{}})

	rec := serve(t, api, http.MethodPost, "/search-route", damascusSearchBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"routes":[]}`, rec.Body.String())
}

func TestSearchRouteTopThree(t *testing.T) {
	catalog := &testCatalog{routes: []planner.Route{
		damascusRoute("5", 1500),
		damascusRoute("2", 2500),
		damascusRoute("9", 1000),
		damascusRoute("4", 3000),
	}}
	api := createTestApi(t, testOptions{catalog: catalog})

	rec := serve(t, api, http.MethodPost, "/search-route",
		`{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865,"filter_type":"cheapest"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SearchRouteResponse
	decodeResponseBody(t, rec, &resp)
	require.Len(t, resp.Routes, 3)
	assert.Equal(t, []string{"9", "5", "2"},
		[]string{resp.Routes[0].RouteID, resp.Routes[1].RouteID, resp.Routes[2].RouteID})
}

func TestSearchRouteDefaultsToFastest(t *testing.T) {
	api := createTestApi(t, testOptions{})

	rec := serve(t, api, http.MethodPost, "/search-route",
		`{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865}`)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := api.RecentSearches(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fastest", entries[0].FilterType)
	assert.Equal(t, "1", entries[0].RouteID)
}

func TestSearchRouteBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantText  string
	}{
		{
			name:      "invalid filter",
			body:      `{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865,"filter_type":"invalid_filter"}`,
			wantField: "filter_type",
		},
		{
			name:      "latitude out of range",
			body:      `{"start_lat":95,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865}`,
			wantField: "start_lat",
		},
		{
			name:      "longitude out of range",
			body:      `{"start_lat":33.5,"start_lng":36.2765,"end_lat":33.5238,"end_lng":-181}`,
			wantField: "end_lng",
		},
		{
			name:      "missing coordinate",
			body:      `{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238}`,
			wantField: "end_lng",
			wantText:  "end_lng is required",
		},
		{
			name:      "malformed JSON",
			body:      `{"start_lat":33.5138,`,
			wantField: "body",
			wantText:  "badly-formed JSON",
		},
		{
			name:      "wrong type",
			body:      `{"start_lat":"north","start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865}`,
			wantField: "body",
			wantText:  `incorrect JSON type for field "start_lat"`,
		},
		{
			name:      "two objects",
			body:      damascusSearchBody + damascusSearchBody,
			wantField: "body",
			wantText:  "single JSON value",
		},
		{
			name:      "empty body",
			body:      ``,
			wantField: "body",
			wantText:  "must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &testCatalog{routes: []planner.Route{damascusRoute("1", 2000)}}
			api := createTestApi(t, testOptions{catalog: catalog})

			rec := serve(t, api, http.MethodPost, "/search-route", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp models.FieldErrorsResponse
			decodeResponseBody(t, rec, &resp)
			require.Contains(t, resp.FieldErrors, tt.wantField)
			if tt.wantText != "" {
				assert.Contains(t, strings.Join(resp.FieldErrors[tt.wantField], " "), tt.wantText)
			}
			assert.Zero(t, catalog.calls.Load(), "invalid requests never reach the catalog")

			entries, err := api.RecentSearches(context.Background(), 10)
			require.NoError(t, err)
			assert.Empty(t, entries, "invalid requests are not logged")
		})
	}
}

func TestSearchRouteBodyTooLarge(t *testing.T) {
	api := createTestApi(t, testOptions{})

	body := `{"start_lat":33.5138,"padding":"` + strings.Repeat("x", maxRequestBodyBytes) + `"}`
	rec := serve(t, api, http.MethodPost, "/search-route", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSearchRouteCatalogUnavailable(t *testing.T) {
	api := createTestApi(t, testOptions{catalog: &testCatalog{err: errCatalogDown}})

	rec := serve(t, api, http.MethodPost, "/search-route", damascusSearchBody)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp models.ResponseModel
	decodeResponseBody(t, rec, &resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "service unavailable", resp.Text)
	assert.NotContains(t, rec.Body.String(), "connection refused", "internal errors are not leaked")
}

func TestSearchRouteIsCached(t *testing.T) {
	catalog := &testCatalog{routes: []planner.Route{damascusRoute("1", 2000), damascusRoute("2", 1500)}}
	api := createTestApi(t, testOptions{catalog: catalog})

	first := serve(t, api, http.MethodPost, "/search-route", damascusSearchBody)
	second := serve(t, api, http.MethodPost, "/search-route", damascusSearchBody)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), catalog.calls.Load())

	entries, err := api.RecentSearches(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "cache hits are logged too")
}

func TestSearchRouteMethodNotAllowed(t *testing.T) {
	api := createTestApi(t, testOptions{})

	rec := serve(t, api, http.MethodGet, "/search-route", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var resp models.ResponseModel
	decodeResponseBody(t, rec, &resp)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestUnknownPathIsJSONNotFound(t *testing.T) {
	api := createTestApi(t, testOptions{})

	rec := serve(t, api, http.MethodGet, "/api/where/stops", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ResponseModel
	decodeResponseBody(t, rec, &resp)
	assert.Equal(t, "resource not found", resp.Text)
}
