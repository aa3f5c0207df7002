package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fleet-dispatch-service/internal/adapters/osrm"
	"fleet-dispatch-service/internal/adapters/tabular"
	"fleet-dispatch-service/internal/adapters/wialon"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/services"
)

// One-shot CLI runner: submits a set of spreadsheets through the same
// pipeline the server uses and prints the result.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	var (
		ordersArg  = flag.String("orders", "", "comma-separated order spreadsheet paths (required)")
		assetsArg  = flag.String("assets", "", "asset spreadsheet path (required)")
		token      = flag.String("token", "", "platform API token (required)")
		resourceID = flag.Int64("resource", 0, "platform resource id (required)")
		dateArg    = flag.String("date", time.Now().Format("2006-01-02"), "route date (YYYY-MM-DD)")
		startHour  = flag.Int("from-hour", 6, "route start hour")
		endHour    = flag.Int("to-hour", 18, "route end hour")
	)
	flag.Parse()

	if *ordersArg == "" || *assetsArg == "" || *token == "" || *resourceID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	loc, err := time.LoadLocation(config.Get("TIMEZONE", "Africa/Nairobi"))
	if err != nil {
		log.Fatal(err)
	}

	window, err := buildWindow(*dateArg, *startHour, *endHour, loc)
	if err != nil {
		log.Fatal(err)
	}

	geometry, err := osrm.NewClient(config.Get("OSRM_URL", "https://router.project-osrm.org"))
	if err != nil {
		log.Fatal(err)
	}

	lat, err := strconv.ParseFloat(config.Get("DEPOT_LAT", "-0.28802969095623043"), 64)
	if err != nil {
		log.Fatal(err)
	}
	lon, err := strconv.ParseFloat(config.Get("DEPOT_LON", "36.04494759379902"), 64)
	if err != nil {
		log.Fatal(err)
	}

	planner, err := wialon.NewClient(wialon.Config{
		APIURL:  config.Get("WIALON_API_URL", "https://hst-api.wialon.com/wialon/ajax.html"),
		AppsURL: config.Get("WIALON_APPS_URL", "https://apps.wialon.com"),
		Depot: wialon.Depot{
			Name:  config.Get("DEPOT_NAME", "MORL"),
			Coord: domain.Coordinates{Lat: lat, Lon: lon},
		},
		Location: loc,
	}, geometry)
	if err != nil {
		log.Fatal(err)
	}

	dispatcher := &services.Dispatcher{
		Reader:  tabular.NewXLSXReader(),
		Planner: planner,
	}

	orders, closeAll, err := openOrderFiles(strings.Split(*ordersArg, ","))
	if err != nil {
		log.Fatal(err)
	}
	defer closeAll()

	assets, err := os.Open(*assetsArg)
	if err != nil {
		log.Fatal(err)
	}
	defer assets.Close()

	result := dispatcher.Dispatch(context.Background(), services.DispatchRequest{
		Orders:     orders,
		Assets:     assets,
		Token:      *token,
		ResourceID: *resourceID,
		Window:     window,
	})

	if !result.OK {
		log.Fatalf("dispatch failed: %s", result.Message)
	}

	fmt.Printf("Route created successfully\n")
	fmt.Printf("Delivery points: %d\n", result.DeliveryPoints)
	fmt.Printf("Tonnage: %.2f\n", result.TotalTonnage)
	fmt.Printf("Amount: %.2f\n", result.TotalAmount)
	fmt.Printf("Plan: %s\n", result.PlanURL)
}

func buildWindow(date string, startHour, endHour int, loc *time.Location) (domain.TimeWindow, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("parse date: %w", err)
	}
	if startHour < 0 || startHour > 23 || endHour <= startHour || endHour > 23 {
		return domain.TimeWindow{}, fmt.Errorf("hours must satisfy 0 <= from-hour < to-hour <= 23")
	}

	return domain.TimeWindow{
		From: day.Add(time.Duration(startHour) * time.Hour).Unix(),
		To:   day.Add(time.Duration(endHour) * time.Hour).Unix(),
	}, nil
}

func openOrderFiles(paths []string) ([]io.Reader, func(), error) {
	files := make([]*os.File, 0, len(paths))
	readers := make([]io.Reader, 0, len(paths))

	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		readers = append(readers, f)
	}

	if len(readers) == 0 {
		closeAll()
		return nil, nil, fmt.Errorf("no order files given")
	}

	return readers, closeAll, nil
}
