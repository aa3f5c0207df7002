package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"fleet-dispatch-service/internal/adapters/osrm"
	"fleet-dispatch-service/internal/adapters/tabular"
	"fleet-dispatch-service/internal/adapters/wialon"
	"fleet-dispatch-service/internal/api"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Excel reader, Wialon, OSRM) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	loc, err := time.LoadLocation(config.Get("TIMEZONE", "Africa/Nairobi"))
	if err != nil {
		log.Fatal(err)
	}

	planner, err := buildPlanner(loc)
	if err != nil {
		log.Fatal(err)
	}

	dispatcher := &services.Dispatcher{
		Reader:  tabular.NewXLSXReader(),
		Planner: planner,
	}

	router := api.NewRouter(dispatcher, loc)

	// Write timeout covers the full submission: two 60s remote calls plus
	// fallback geometry lookups.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      240 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func buildPlanner(loc *time.Location) (*wialon.Client, error) {
	geometry, err := osrm.NewClient(config.Get("OSRM_URL", "https://router.project-osrm.org"))
	if err != nil {
		return nil, err
	}

	depot, err := depotFromEnv()
	if err != nil {
		return nil, err
	}

	return wialon.NewClient(wialon.Config{
		APIURL:   config.Get("WIALON_API_URL", "https://hst-api.wialon.com/wialon/ajax.html"),
		AppsURL:  config.Get("WIALON_APPS_URL", "https://apps.wialon.com"),
		Depot:    depot,
		Location: loc,
	}, geometry)
}

func depotFromEnv() (wialon.Depot, error) {
	lat, err := strconv.ParseFloat(config.Get("DEPOT_LAT", "-0.28802969095623043"), 64)
	if err != nil {
		return wialon.Depot{}, err
	}
	lon, err := strconv.ParseFloat(config.Get("DEPOT_LON", "36.04494759379902"), 64)
	if err != nil {
		return wialon.Depot{}, err
	}

	return wialon.Depot{
		Name:  config.Get("DEPOT_NAME", "MORL"),
		Coord: domain.Coordinates{Lat: lat, Lon: lon},
	}, nil
}
