package restapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"makro.app/internal/logging"
)

// recoverPanic turns a handler panic into a 500 response and an error log.
func (api *RestAPI) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				w.Header().Set("Connection", "close")
				logging.LogError(logging.FromContext(r.Context()), "panic recovered", fmt.Errorf("%v", rec),
					slog.String("stack", string(debug.Stack())))
				api.serverErrorResponse(w, r, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
