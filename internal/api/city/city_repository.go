package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-city-locations/app/observability/metrics"
	"github.com/FACorreiaa/go-city-locations/internal/types"
)

// searchResultLimit caps search results; no pagination is offered.
const searchResultLimit = 10

var _ Repository = (*PostgresLocationRepository)(nil)

// Repository is the narrow capability contract the rest of the service uses
// to reach the location record store. Callers never see the backend's query
// language or driver errors.
type Repository interface {
	GetCityByID(ctx context.Context, id int64) (*types.City, error)
	GetRegionByID(ctx context.Context, id int64) (*types.Region, error)
	GetFeaturedCities(ctx context.Context) ([]types.City, error)
	SearchCities(ctx context.Context, query string, language types.Language, countryISO string) ([]types.City, error)
	GetNearestCity(ctx context.Context, point types.Coordinates, featuredOnly bool) (*types.City, error)
}

// DB is the subset of pgxpool.Pool the repository needs. Kept narrow so
// tests can substitute pgxmock.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresLocationRepository struct {
	logger      *slog.Logger
	db          DB
	regionCache *cache.Cache
}

func NewLocationRepository(db DB, logger *slog.Logger) *PostgresLocationRepository {
	return &PostgresLocationRepository{
		logger:      logger,
		db:          db,
		regionCache: cache.New(24*time.Hour, 1*time.Hour), // Regions barely change, cleanup hourly
	}
}

const cityColumns = `id, is_featured, country_iso, region_id, names, ST_Y(centroid), ST_X(centroid)`

func scanCity(row pgx.Row) (*types.City, error) {
	var city types.City
	err := row.Scan(
		&city.ID,
		&city.IsFeatured,
		&city.CountryISO,
		&city.RegionID,
		&city.Names,
		&city.Centroid.Lat,
		&city.Centroid.Lon,
	)
	if err != nil {
		return nil, err
	}
	return &city, nil
}

// observeQuery records duration and error metrics for a single store query.
func (r *PostgresLocationRepository) observeQuery(ctx context.Context, operation string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *PostgresLocationRepository) GetCityByID(ctx context.Context, id int64) (_ *types.City, err error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "GetCityByID", trace.WithAttributes(
		attribute.Int64("city.id", id),
	))
	defer span.End()
	start := time.Now()
	defer func() { r.observeQuery(ctx, "get_city", start, err) }()

	query := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`

	city, err := scanCity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "City not found", slog.Int64("city_id", id))
			span.SetStatus(codes.Error, "City not found")
			return nil, fmt.Errorf("%w: no city with id %d", types.ErrNotFound, id)
		}
		r.logger.ErrorContext(ctx, "Failed to query city", slog.Int64("city_id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("%w: querying city %d: %v", types.ErrInternal, id, err)
	}

	span.SetStatus(codes.Ok, "City retrieved")
	return city, nil
}

func (r *PostgresLocationRepository) GetRegionByID(ctx context.Context, id int64) (_ *types.Region, err error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "GetRegionByID", trace.WithAttributes(
		attribute.Int64("region.id", id),
	))
	defer span.End()

	cacheKey := strconv.FormatInt(id, 10)
	span.SetAttributes(attribute.String("cache.key", cacheKey))
	if cached, found := r.regionCache.Get(cacheKey); found {
		span.SetStatus(codes.Ok, "Region served from cache")
		return cached.(*types.Region), nil
	}

	start := time.Now()
	defer func() { r.observeQuery(ctx, "get_region", start, err) }()

	query := `SELECT id, names FROM regions WHERE id = $1`

	var region types.Region
	if err = r.db.QueryRow(ctx, query, id).Scan(&region.ID, &region.Names); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "Region not found", slog.Int64("region_id", id))
			span.SetStatus(codes.Error, "Region not found")
			return nil, fmt.Errorf("%w: no region with id %d", types.ErrNotFound, id)
		}
		r.logger.ErrorContext(ctx, "Failed to query region", slog.Int64("region_id", id), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("%w: querying region %d: %v", types.ErrInternal, id, err)
	}

	r.regionCache.Set(cacheKey, &region, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Region retrieved")
	return &region, nil
}

func (r *PostgresLocationRepository) GetFeaturedCities(ctx context.Context) (_ []types.City, err error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "GetFeaturedCities")
	defer span.End()
	start := time.Now()
	defer func() { r.observeQuery(ctx, "get_featured_cities", start, err) }()

	// Ordering by id keeps the store order deterministic; the service layer
	// relies on it as the tie-break within featured partitions.
	query := `SELECT ` + cityColumns + ` FROM cities WHERE is_featured ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query featured cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("%w: querying featured cities: %v", types.ErrInternal, err)
	}
	defer rows.Close()

	cities, err := collectCities(rows)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to scan featured cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, fmt.Errorf("%w: scanning featured cities: %v", types.ErrInternal, err)
	}

	span.SetAttributes(attribute.Int("results.count", len(cities)))
	span.SetStatus(codes.Ok, "Featured cities retrieved")
	return cities, nil
}

func (r *PostgresLocationRepository) SearchCities(ctx context.Context, searchQuery string, language types.Language, countryISO string) (_ []types.City, err error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "SearchCities", trace.WithAttributes(
		attribute.String("search.query", searchQuery),
		attribute.String("search.language", string(language)),
		attribute.String("search.country_iso", countryISO),
	))
	defer span.End()
	start := time.Now()
	defer func() { r.observeQuery(ctx, "search_cities", start, err) }()

	// Trigram similarity over the requested language's name. Empty country
	// filter means unscoped.
	query := `
        SELECT ` + cityColumns + `
        FROM cities
        WHERE similarity(names->>$1, $2) > 0.3
          AND ($3 = '' OR country_iso = $3)
        ORDER BY similarity(names->>$1, $2) DESC
        LIMIT ` + strconv.Itoa(searchResultLimit)

	rows, err := r.db.Query(ctx, query, language.NameKey(), searchQuery, countryISO)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to search cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("%w: searching cities: %v", types.ErrInternal, err)
	}
	defer rows.Close()

	cities, err := collectCities(rows)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to scan searched cities", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row scan failed")
		return nil, fmt.Errorf("%w: scanning searched cities: %v", types.ErrInternal, err)
	}

	span.SetAttributes(attribute.Int("results.count", len(cities)))
	span.SetStatus(codes.Ok, "Cities searched")
	return cities, nil
}

func (r *PostgresLocationRepository) GetNearestCity(ctx context.Context, point types.Coordinates, featuredOnly bool) (_ *types.City, err error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "GetNearestCity", trace.WithAttributes(
		attribute.Float64("point.lat", point.Lat),
		attribute.Float64("point.lon", point.Lon),
		attribute.Bool("featured_only", featuredOnly),
	))
	defer span.End()
	start := time.Now()
	defer func() { r.observeQuery(ctx, "get_nearest_city", start, err) }()

	// WKT takes lon before lat.
	wkt := fmt.Sprintf("POINT(%f %f)", point.Lon, point.Lat)

	query := `SELECT ` + cityColumns + ` FROM cities`
	if featuredOnly {
		query += ` WHERE is_featured`
	}
	query += ` ORDER BY ST_Distance(centroid, ST_GeomFromText($1, 4326)) ASC LIMIT 1`

	city, err := scanCity(r.db.QueryRow(ctx, query, wkt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "No city found near point",
				slog.Float64("lat", point.Lat),
				slog.Float64("lon", point.Lon),
				slog.Bool("featured_only", featuredOnly),
			)
			span.SetStatus(codes.Error, "No city found")
			return nil, fmt.Errorf("%w: no city near (%f, %f)", types.ErrNotFound, point.Lat, point.Lon)
		}
		r.logger.ErrorContext(ctx, "Failed to query nearest city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("%w: querying nearest city: %v", types.ErrInternal, err)
	}

	span.SetAttributes(attribute.Int64("city.id", city.ID))
	span.SetStatus(codes.Ok, "Nearest city retrieved")
	return city, nil
}

func collectCities(rows pgx.Rows) ([]types.City, error) {
	var cities []types.City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city row: %w", err)
		}
		cities = append(cities, *city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}
	return cities, nil
}
