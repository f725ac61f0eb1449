package city

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-city-locations/app/observability/metrics"
	"github.com/FACorreiaa/go-city-locations/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for city resolution and
// localized response composition.
type Service interface {
	GetCity(ctx context.Context, id int64, language types.Language) (*types.CityResponse, error)
	GetFeaturedCities(ctx context.Context, language types.Language) (*types.MultiCityResponse, error)
	SearchCities(ctx context.Context, query string, language types.Language, countryISO string) (*types.MultiCityResponse, error)
	GetClosestCity(ctx context.Context, explicit, inferred *types.Coordinates, language types.Language) (*types.CityResponse, error)
	GetAssociatedFeaturedCity(ctx context.Context, id int64, language types.Language) (*types.CityResponse, error)
}

type ServiceImpl struct {
	logger             *slog.Logger
	locationRepository Repository
}

func NewServiceImpl(locationRepository Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:             logger,
		locationRepository: locationRepository,
	}
}

// observeLookup counts a finished lookup and records its duration.
func observeLookup(ctx context.Context, operation string, start time.Time) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.CityLookupsTotal.Add(ctx, 1, attrs)
	m.CityLookupDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}

func (s *ServiceImpl) GetCity(ctx context.Context, id int64, language types.Language) (*types.CityResponse, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetCity", trace.WithAttributes(
		attribute.Int64("city.id", id),
		attribute.String("language", string(language)),
	))
	defer span.End()
	defer observeLookup(ctx, "get", time.Now())

	city, err := s.locationRepository.GetCityByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get city", slog.Int64("city_id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get city")
		return nil, err
	}

	resp, err := s.composeCity(ctx, city, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compose city")
		return nil, err
	}

	span.SetStatus(codes.Ok, "City retrieved")
	return resp, nil
}

func (s *ServiceImpl) GetFeaturedCities(ctx context.Context, language types.Language) (*types.MultiCityResponse, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetFeaturedCities", trace.WithAttributes(
		attribute.String("language", string(language)),
	))
	defer span.End()
	defer observeLookup(ctx, "featured", time.Now())

	cities, err := s.locationRepository.GetFeaturedCities(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get featured cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get featured cities")
		return nil, err
	}

	// Stable partition: cities of the language's preferred country first,
	// ties keep store order. Keyed on the boolean predicate only so the
	// tie-break is exactly the stable-sort guarantee.
	preferred := language.PreferredCountryISO()
	sort.SliceStable(cities, func(i, j int) bool {
		return cities[i].CountryISO == preferred && cities[j].CountryISO != preferred
	})

	resp, err := s.composeCities(ctx, cities, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compose featured cities")
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(resp.Cities)))
	span.SetStatus(codes.Ok, "Featured cities retrieved")
	return resp, nil
}

func (s *ServiceImpl) SearchCities(ctx context.Context, query string, language types.Language, countryISO string) (*types.MultiCityResponse, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "SearchCities", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.String("language", string(language)),
		attribute.String("search.country_iso", countryISO),
	))
	defer span.End()
	defer observeLookup(ctx, "search", time.Now())

	cities, err := s.locationRepository.SearchCities(ctx, query, language, countryISO)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to search cities", slog.String("query", query), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to search cities")
		return nil, err
	}

	// Store relevance order is preserved, no further sorting.
	resp, err := s.composeCities(ctx, cities, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compose searched cities")
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(resp.Cities)))
	span.SetStatus(codes.Ok, "Cities searched")
	return resp, nil
}

func (s *ServiceImpl) GetClosestCity(ctx context.Context, explicit, inferred *types.Coordinates, language types.Language) (*types.CityResponse, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetClosestCity", trace.WithAttributes(
		attribute.Bool("coords.explicit", explicit != nil),
		attribute.Bool("coords.inferred", inferred != nil),
		attribute.String("language", string(language)),
	))
	defer span.End()
	defer observeLookup(ctx, "closest", time.Now())

	city, err := s.resolveClosestCity(ctx, explicit, inferred, language)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to resolve closest city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to resolve closest city")
		return nil, err
	}

	resp, err := s.composeCity(ctx, city, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compose closest city")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("city.id", resp.ID))
	span.SetStatus(codes.Ok, "Closest city resolved")
	return resp, nil
}

func (s *ServiceImpl) GetAssociatedFeaturedCity(ctx context.Context, id int64, language types.Language) (*types.CityResponse, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetAssociatedFeaturedCity", trace.WithAttributes(
		attribute.Int64("city.id", id),
		attribute.String("language", string(language)),
	))
	defer span.End()
	defer observeLookup(ctx, "associated_featured", time.Now())

	city, err := s.locationRepository.GetCityByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get city", slog.Int64("city_id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get city")
		return nil, err
	}

	// An already-featured city is its own associated featured city; no
	// extra store round-trip.
	if !city.IsFeatured {
		city, err = s.locationRepository.GetNearestCity(ctx, city.Centroid, true)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to get nearest featured city", slog.Int64("city_id", id), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to get nearest featured city")
			return nil, err
		}
	}

	resp, err := s.composeCity(ctx, city, language)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compose associated featured city")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("featured.city.id", resp.ID))
	span.SetStatus(codes.Ok, "Associated featured city resolved")
	return resp, nil
}

// resolveClosestCity picks a city record by strict priority: explicit
// coordinates, then inferred ones, then the language's default city.
// Invalid explicit coordinates are an error, never a fallthrough to the
// next tier, and they fail before any store call. Only the inferred tier
// restricts the lookup to featured cities.
func (s *ServiceImpl) resolveClosestCity(ctx context.Context, explicit, inferred *types.Coordinates, language types.Language) (*types.City, error) {
	switch {
	case explicit != nil:
		if err := explicit.Validate(); err != nil {
			return nil, err
		}
		return s.locationRepository.GetNearestCity(ctx, *explicit, false)
	case inferred != nil:
		return s.locationRepository.GetNearestCity(ctx, *inferred, true)
	default:
		return s.locationRepository.GetCityByID(ctx, language.DefaultCityID())
	}
}

// composeCity joins a city with its region and localizes both names. A
// record missing the requested translation is a bad request naming the
// missing key, never a blank field in the response.
func (s *ServiceImpl) composeCity(ctx context.Context, city *types.City, language types.Language) (*types.CityResponse, error) {
	region, err := s.locationRepository.GetRegionByID(ctx, city.RegionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get region", slog.Int64("region_id", city.RegionID), slog.Any("error", err))
		return nil, err
	}

	nameKey := language.NameKey()
	name, ok := city.Names[nameKey]
	if !ok {
		return nil, fmt.Errorf("%w: city %d has no name for key %q", types.ErrBadRequest, city.ID, nameKey)
	}
	regionName, ok := region.Names[nameKey]
	if !ok {
		return nil, fmt.Errorf("%w: region %d has no name for key %q", types.ErrBadRequest, region.ID, nameKey)
	}

	return &types.CityResponse{
		ID:         city.ID,
		IsFeatured: city.IsFeatured,
		CountryISO: city.CountryISO,
		Name:       name,
		RegionName: regionName,
	}, nil
}

// composeCities localizes many cities in parallel, preserving input order.
// Region fetches fan out one goroutine per city into a pre-sized slice
// indexed by input position; the first failure cancels the rest and fails
// the whole call, never a partial list. Redundant region fetches are left
// to the store-layer cache to absorb.
func (s *ServiceImpl) composeCities(ctx context.Context, cities []types.City, language types.Language) (*types.MultiCityResponse, error) {
	responses := make([]types.CityResponse, len(cities))

	g, gCtx := errgroup.WithContext(ctx)
	for i := range cities {
		g.Go(func() error {
			resp, err := s.composeCity(gCtx, &cities[i], language)
			if err != nil {
				return err
			}
			responses[i] = *resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &types.MultiCityResponse{Cities: responses}, nil
}
