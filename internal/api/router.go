package api

import (
	"net/http"
	"time"

	"fleet-dispatch-service/internal/api/handlers"
	"fleet-dispatch-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(dispatcher *services.Dispatcher, loc *time.Location) http.Handler {
	mux := http.NewServeMux()

	dispatchHandler := &handlers.DispatchHandler{
		Dispatcher: dispatcher,
		Location:   loc,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/dispatch", dispatchHandler.Dispatch)

	return loggingMiddleware(mux)
}
