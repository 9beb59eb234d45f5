package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/models"
)

// New creates a bare router carrying the health check. Unknown routes and methods are
// answered in the same JSON error shape as every handler.
func New() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	b, _ := json.Marshal(models.HealthCheckResponse{Alive: true})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	config.ErrorStatus("route not found", http.StatusNotFound, w, fmt.Errorf("%s %s", r.Method, r.URL.Path))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	config.ErrorStatus("method not allowed", http.StatusMethodNotAllowed, w, fmt.Errorf("%s %s", r.Method, r.URL.Path))
}
