package city

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	appMiddleware "github.com/FACorreiaa/go-city-locations/app/middleware"
	"github.com/FACorreiaa/go-city-locations/internal/api"
	"github.com/FACorreiaa/go-city-locations/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetCity(w http.ResponseWriter, r *http.Request)
	GetFeaturedCities(w http.ResponseWriter, r *http.Request)
	SearchCities(w http.ResponseWriter, r *http.Request)
	GetClosestCity(w http.ResponseWriter, r *http.Request)
	GetAssociatedFeaturedCity(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	cityService Service
	logger      *slog.Logger
}

// NewHandlerImpl creates a new city HandlerImpl instance.
func NewHandlerImpl(cityService Service, logger *slog.Logger) *HandlerImpl {
	instanceAddress := fmt.Sprintf("%p", logger)
	slog.Info("Creating NewHandlerImpl", slog.String("logger_address", instanceAddress), slog.Bool("logger_is_nil", logger == nil))
	if logger == nil {
		panic("PANIC: Attempting to create HandlerImpl with nil logger!")
	}

	return &HandlerImpl{
		cityService: cityService,
		logger:      logger,
	}
}

// parseID reads the required positive-integer `id` query parameter.
func parseID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, errors.New("missing `id` parameter")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("`id` must be a positive integer, got %q", raw)
	}
	return id, nil
}

// parseLanguage reads the required `language` query parameter.
func parseLanguage(r *http.Request) (types.Language, error) {
	raw := r.URL.Query().Get("language")
	if raw == "" {
		return "", errors.New("missing `language` parameter")
	}
	return types.ParseLanguage(raw)
}

// parseExplicitCoords reads the optional `lat`/`lon` parameters; either
// both or none must be present.
func parseExplicitCoords(r *http.Request) (*types.Coordinates, error) {
	q := r.URL.Query()
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lonRaw == "" {
		return nil, errors.New("either both or none of `lat`, `lon` expected")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("`lat` must be a decimal number, got %q", latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, fmt.Errorf("`lon` must be a decimal number, got %q", lonRaw)
	}
	return &types.Coordinates{Lat: lat, Lon: lon}, nil
}

// GetCity godoc
// @Summary      Get City
// @Description  Retrieves a city by id, localized to the given language.
// @Tags         City
// @Accept       json
// @Produce      json
// @Param        id query int true "City ID"
// @Param        language query string true "Language code (cs, de, en, pl, sk)"
// @Success      200 {object} types.CityResponse "City"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "City Not Found"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /city/v1/get [get]
func (h *HandlerImpl) GetCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetCity"))

	id, err := parseID(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid id parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	language, err := parseLanguage(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid language parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	city, err := h.cityService.GetCity(ctx, id, language)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get city", slog.Int64("city_id", id), slog.Any("error", err))
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, city)
}

// GetFeaturedCities godoc
// @Summary      Featured Cities
// @Description  Lists all featured cities, the given language's preferred country first.
// @Tags         City
// @Accept       json
// @Produce      json
// @Param        language query string true "Language code (cs, de, en, pl, sk)"
// @Success      200 {object} types.MultiCityResponse "Featured Cities"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /city/v1/featured [get]
func (h *HandlerImpl) GetFeaturedCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetFeaturedCities"))

	language, err := parseLanguage(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid language parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cities, err := h.cityService.GetFeaturedCities(ctx, language)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get featured cities", slog.Any("error", err))
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, cities)
}

// SearchCities godoc
// @Summary      Search Cities
// @Description  Searches cities by free text, optionally scoped to a country. Limited to 10 results, no pagination.
// @Tags         City
// @Accept       json
// @Produce      json
// @Param        query query string true "Search query"
// @Param        language query string true "Language code (cs, de, en, pl, sk)"
// @Param        countryIso query string false "ISO 3166-1 alpha-2 country code to scope the search"
// @Success      200 {object} types.MultiCityResponse "Matching Cities"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /city/v1/search [get]
func (h *HandlerImpl) SearchCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "SearchCities"))

	q := r.URL.Query()
	if !q.Has("query") {
		l.WarnContext(ctx, "Missing query parameter")
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing `query` parameter")
		return
	}
	searchQuery := q.Get("query")
	countryISO := q.Get("countryIso")

	language, err := parseLanguage(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid language parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cities, err := h.cityService.SearchCities(ctx, searchQuery, language, countryISO)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search cities", slog.String("query", searchQuery), slog.Any("error", err))
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, cities)
}

// GetClosestCity godoc
// @Summary      Closest City
// @Description  Returns the city closest to the given coordinates. Without coordinates, falls back to the location inferred at the edge (featured cities only), then to the language's default city.
// @Tags         City
// @Accept       json
// @Produce      json
// @Param        language query string true "Language code (cs, de, en, pl, sk)"
// @Param        lat query number false "Latitude in decimal degrees"
// @Param        lon query number false "Longitude in decimal degrees"
// @Success      200 {object} types.CityResponse "Closest City"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "No City Found"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /city/v1/closest [get]
func (h *HandlerImpl) GetClosestCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetClosestCity"))

	language, err := parseLanguage(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid language parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	explicit, err := parseExplicitCoords(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid coordinates", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var inferred *types.Coordinates
	if coords, ok := appMiddleware.GetInferredCoordsFromContext(ctx); ok {
		inferred = &coords
	}

	city, err := h.cityService.GetClosestCity(ctx, explicit, inferred, language)
	if err != nil {
		l.ErrorContext(ctx, "Failed to resolve closest city", slog.Any("error", err))
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, city)
}

// GetAssociatedFeaturedCity godoc
// @Summary      Associated Featured City
// @Description  For a given city id returns the closest featured city. A featured city is associated with itself.
// @Tags         City
// @Accept       json
// @Produce      json
// @Param        id query int true "City ID"
// @Param        language query string true "Language code (cs, de, en, pl, sk)"
// @Success      200 {object} types.CityResponse "Associated Featured City"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "City Not Found"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /city/v1/associatedFeatured [get]
func (h *HandlerImpl) GetAssociatedFeaturedCity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetAssociatedFeaturedCity"))

	id, err := parseID(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid id parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	language, err := parseLanguage(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid language parameter", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	city, err := h.cityService.GetAssociatedFeaturedCity(ctx, id, language)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get associated featured city", slog.Int64("city_id", id), slog.Any("error", err))
		if errors.Is(err, types.ErrBadRequest) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong.")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, city)
}
