package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/FACorreiaa/go-city-locations/app/middleware"
	apiResponse "github.com/FACorreiaa/go-city-locations/internal/api"
	"github.com/FACorreiaa/go-city-locations/internal/api/city"
)

// Config contains dependencies needed for the router setup
type Config struct {
	CityHandler *city.HandlerImpl
	Logger      *slog.Logger
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	// Public read-only API; browsers may call it from anywhere.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/city/v1", func(r chi.Router) {
		// Edge geolocation headers only matter on city routes.
		r.Use(appMiddleware.InferredLocation(cfg.Logger))

		r.Get("/get", cfg.CityHandler.GetCity)
		r.Get("/featured", cfg.CityHandler.GetFeaturedCities)
		r.Get("/search", cfg.CityHandler.SearchCities)
		r.Get("/closest", cfg.CityHandler.GetClosestCity)
		r.Get("/associatedFeatured", cfg.CityHandler.GetAssociatedFeaturedCity)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiResponse.ErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("no route for path %q", r.URL.Path))
	})

	return r
}
