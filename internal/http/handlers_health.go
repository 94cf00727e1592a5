package httpx

import (
	"net/http"
	"time"
)

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// healthHandler answers liveness probes. HEAD requests get headers only.
func healthHandler(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, healthBody{
			Status: "ok",
			Uptime: time.Since(started).Truncate(time.Second).String(),
		})
	}
}
