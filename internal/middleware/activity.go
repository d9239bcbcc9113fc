package middleware

import (
	"net/http"

	"photofind/internal/activity"
)

// Activity returns middleware that marks a request in flight on the tracker
// for its whole duration. The background scheduler polls the tracker and
// pauses while anything interactive is running, so this wraps only the API
// routes a user is actually waiting on, not health or metrics probes.
func Activity(tracker *activity.Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker.Begin()
			defer tracker.End()
			next.ServeHTTP(w, r)
		})
	}
}
