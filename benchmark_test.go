package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appLogger "github.com/FACorreiaa/go-city-locations/app/logger"
	appMiddleware "github.com/FACorreiaa/go-city-locations/app/middleware"
	"github.com/FACorreiaa/go-city-locations/internal/api/city"
	api "github.com/FACorreiaa/go-city-locations/internal/router"
	"github.com/FACorreiaa/go-city-locations/internal/types"
)

// BenchmarkSuite provides benchmark testing for the API
type BenchmarkSuite struct {
	router chi.Router
	logger *slog.Logger
}

// setupBenchmarkSuite initializes the benchmark test suite over the
// in-memory location store, so numbers reflect the composition pipeline
// rather than network or database latency.
func setupBenchmarkSuite() *BenchmarkSuite {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	repo := seedLocations()
	cityService := city.NewServiceImpl(repo, logger)
	cityHandler := city.NewHandlerImpl(cityService, logger)

	mainRouter := api.SetupRouter(&api.Config{
		CityHandler: cityHandler,
		Logger:      logger,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(appLogger.StructuredLogger(logger))
	router.Mount("/", mainRouter)

	return &BenchmarkSuite{
		router: router,
		logger: logger,
	}
}

// get performs a GET request against the benchmark router.
func (suite *BenchmarkSuite) get(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	return w
}

// BenchmarkGetCity benchmarks the single-city lookup endpoint
func BenchmarkGetCity(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/get?id=101748113&language=cs", nil)
	}
}

// BenchmarkFeaturedCities benchmarks the fan-out list composition,
// including the preferred-country partition sort.
func BenchmarkFeaturedCities(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/featured?language=de", nil)
	}
}

// BenchmarkSearchCities benchmarks free-text search composition
func BenchmarkSearchCities(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/search?query=br&language=en", nil)
	}
}

// BenchmarkClosestCityExplicit benchmarks the explicit-coordinates tier
func BenchmarkClosestCityExplicit(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/closest?language=en&lat=50.0&lon=14.4", nil)
	}
}

// BenchmarkClosestCityInferred benchmarks the edge-header tier, which
// pays for header parsing plus the featured-only nearest lookup.
func BenchmarkClosestCityInferred(b *testing.B) {
	suite := setupBenchmarkSuite()
	headers := map[string]string{
		appMiddleware.HeaderGeoLat: "49.70",
		appMiddleware.HeaderGeoLon: "13.40",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/closest?language=en", headers)
	}
}

// BenchmarkClosestCityDefault benchmarks the no-signal fallback tier
func BenchmarkClosestCityDefault(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/closest?language=pl", nil)
	}
}

// BenchmarkAssociatedFeaturedCity benchmarks the featured-association
// resolution for a non-featured city.
func BenchmarkAssociatedFeaturedCity(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/associatedFeatured?id=101748111&language=cs", nil)
	}
}

// BenchmarkConcurrentRequests benchmarks concurrent requests handling
func BenchmarkConcurrentRequests(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			suite.get("/city/v1/featured?language=cs", nil)
		}
	})
}

// BenchmarkRequestRouting benchmarks the router performance across all
// five endpoints.
func BenchmarkRequestRouting(b *testing.B) {
	suite := setupBenchmarkSuite()

	routes := []string{
		"/city/v1/get?id=101748113&language=cs",
		"/city/v1/featured?language=de",
		"/city/v1/search?query=pra&language=en",
		"/city/v1/closest?language=sk",
		"/city/v1/associatedFeatured?id=101748111&language=pl",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get(routes[i%len(routes)], nil)
	}
}

// BenchmarkBadRequestShortCircuit benchmarks rejection paths, which must
// never reach the store.
func BenchmarkBadRequestShortCircuit(b *testing.B) {
	suite := setupBenchmarkSuite()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		suite.get("/city/v1/closest?language=en&lat=50.0", nil)
	}
}

// BenchmarkJSONSerialization benchmarks JSON serialization/deserialization
// of the list response shape.
func BenchmarkJSONSerialization(b *testing.B) {
	cities := make([]types.CityResponse, 10)
	for i := range cities {
		cities[i] = types.CityResponse{
			ID:         int64(101748100 + i),
			IsFeatured: i%2 == 0,
			CountryISO: "CZ",
			Name:       fmt.Sprintf("Město %d", i),
			RegionName: fmt.Sprintf("Kraj %d", i),
		}
	}
	payload := types.MultiCityResponse{Cities: cities}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		data, _ := json.Marshal(payload)

		var result types.MultiCityResponse
		json.Unmarshal(data, &result)
	}
}

// BenchmarkNearestCityScan benchmarks the in-memory nearest-neighbour
// fixture itself, to keep its cost visible next to the endpoint numbers.
func BenchmarkNearestCityScan(b *testing.B) {
	repo := seedLocations()
	ctx := context.Background()
	point := types.Coordinates{Lat: 49.70, Lon: 13.40}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		repo.GetNearestCity(ctx, point, true)
	}
}
