package admission

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Rejection é o corpo JSON escrito em toda requisição recusada.
type Rejection struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Route   string `json:"route"`
}

func unknownRoute(route string) Rejection {
	return Rejection{
		Status:  http.StatusNotFound,
		Message: "route " + route + " is not available",
		Route:   route,
	}
}

func quotaExceeded(route string) Rejection {
	return Rejection{
		Status:  http.StatusTooManyRequests,
		Message: "request quota for route " + route + " has been exhausted",
		Route:   route,
	}
}

func storeUnavailable(route string) Rejection {
	return Rejection{
		Status:  http.StatusServiceUnavailable,
		Message: "quota status for route " + route + " is unavailable, try again",
		Route:   route,
	}
}

func writeRejection(w http.ResponseWriter, rej Rejection) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(rej.Status)
	_ = json.NewEncoder(w).Encode(rej)
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func retryAfterSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return formatInt(secs)
}
