package appMiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/go-city-locations/internal/types"
)

// Define typed context keys
type contextKey string

const GeoCoordsKey contextKey = "geoCoords"

// Geolocation headers attached by the CDN edge.
const (
	HeaderGeoLat = "Fastly-Geo-Lat"
	HeaderGeoLon = "Fastly-Geo-Lon"
)

// InferredLocation parses edge geolocation headers into the request
// context. Missing or unparsable headers mean no inferred location, and so
// does the (0, 0) pair the edge sends when it cannot place the client.
// Header coordinates are never bounds-validated; they are metadata, not
// caller input.
func InferredLocation(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			coords, ok := coordsFromHeaders(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			logger.DebugContext(r.Context(), "Inferred location from edge headers",
				slog.Float64("lat", coords.Lat),
				slog.Float64("lon", coords.Lon),
			)
			ctx := context.WithValue(r.Context(), GeoCoordsKey, coords)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func coordsFromHeaders(r *http.Request) (types.Coordinates, bool) {
	latHeader := r.Header.Get(HeaderGeoLat)
	lonHeader := r.Header.Get(HeaderGeoLon)
	if latHeader == "" || lonHeader == "" {
		return types.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(latHeader, 64)
	if err != nil {
		return types.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(lonHeader, 64)
	if err != nil {
		return types.Coordinates{}, false
	}

	coords := types.Coordinates{Lat: lat, Lon: lon}
	if coords.IsZero() {
		// The edge sends 0, 0 when IP geolocation failed.
		return types.Coordinates{}, false
	}
	return coords, true
}

// GetInferredCoordsFromContext returns the coordinates the edge inferred
// for this request, if any.
func GetInferredCoordsFromContext(ctx context.Context) (types.Coordinates, bool) {
	coords, ok := ctx.Value(GeoCoordsKey).(types.Coordinates)
	return coords, ok
}
