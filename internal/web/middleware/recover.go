package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Recoverer turns a panic in a handler into a 500 JSON error instead of a
// dropped connection. http.ErrAbortHandler is re-panicked.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel is compared by identity in net/http
				panic(rvr)
			}

			log.Printf("[%s] panic serving %s %s: %v\n%s",
				chiMiddleware.GetReqID(r.Context()), r.Method, r.URL.Path, rvr, debug.Stack())

			if r.Header.Get("Connection") == "Upgrade" {
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprint(rvr)})
		}()

		next.ServeHTTP(w, r)
	})
}
