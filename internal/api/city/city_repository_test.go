package city

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-city-locations/internal/types"
)

var cityRowColumns = []string{"id", "is_featured", "country_iso", "region_id", "names", "st_y", "st_x"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresLocationRepository) {
	t.Helper()
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return mockDB, NewLocationRepository(mockDB, slog.Default())
}

func TestRepositoryGetCityByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows(cityRowColumns).
			AddRow(int64(101748113), true, "CZ", int64(101748112), map[string]string{"cs": "Praha", "en": "Prague"}, 50.0755, 14.4378)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE id = \$1`).
			WithArgs(int64(101748113)).
			WillReturnRows(rows)

		city, err := repo.GetCityByID(ctx, 101748113)

		require.NoError(t, err)
		assert.Equal(t, int64(101748113), city.ID)
		assert.True(t, city.IsFeatured)
		assert.Equal(t, "CZ", city.CountryISO)
		assert.Equal(t, int64(101748112), city.RegionID)
		assert.Equal(t, "Praha", city.Names["cs"])
		assert.InDelta(t, 50.0755, city.Centroid.Lat, 1e-9)
		assert.InDelta(t, 14.4378, city.Centroid.Lon, 1e-9)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE id = \$1`).
			WithArgs(int64(123)).
			WillReturnError(pgx.ErrNoRows)

		city, err := repo.GetCityByID(ctx, 123)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Contains(t, err.Error(), "123")
		assert.Nil(t, city)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Driver Error Becomes Internal", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE id = \$1`).
			WithArgs(int64(101748113)).
			WillReturnError(errors.New("connection refused"))

		city, err := repo.GetCityByID(ctx, 101748113)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrInternal)
		assert.Nil(t, city)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestRepositoryGetRegionByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success And Cached", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows([]string{"id", "names"}).
			AddRow(int64(101748112), map[string]string{"cs": "Praha", "en": "Prague"})
		// A single expected query: the second lookup must come from the cache.
		mockDB.ExpectQuery(`SELECT id, names FROM regions WHERE id = \$1`).
			WithArgs(int64(101748112)).
			WillReturnRows(rows)

		region, err := repo.GetRegionByID(ctx, 101748112)
		require.NoError(t, err)
		assert.Equal(t, "Prague", region.Names["en"])

		cached, err := repo.GetRegionByID(ctx, 101748112)
		require.NoError(t, err)
		assert.Equal(t, region, cached)

		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT id, names FROM regions WHERE id = \$1`).
			WithArgs(int64(999)).
			WillReturnError(pgx.ErrNoRows)

		region, err := repo.GetRegionByID(ctx, 999)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Nil(t, region)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestRepositoryGetFeaturedCities(t *testing.T) {
	ctx := context.Background()

	t.Run("Success Keeps Row Order", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows(cityRowColumns).
			AddRow(int64(101748109), true, "CZ", int64(101748108), map[string]string{"cs": "Brno"}, 49.1951, 16.6068).
			AddRow(int64(101748113), true, "CZ", int64(101748112), map[string]string{"cs": "Praha"}, 50.0755, 14.4378)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE is_featured ORDER BY id`).
			WillReturnRows(rows)

		cities, err := repo.GetFeaturedCities(ctx)

		require.NoError(t, err)
		require.Len(t, cities, 2)
		assert.Equal(t, int64(101748109), cities[0].ID)
		assert.Equal(t, int64(101748113), cities[1].ID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Driver Error Becomes Internal", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE is_featured ORDER BY id`).
			WillReturnError(errors.New("connection reset"))

		cities, err := repo.GetFeaturedCities(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrInternal)
		assert.Nil(t, cities)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestRepositorySearchCities(t *testing.T) {
	ctx := context.Background()

	t.Run("Scoped To Country", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows(cityRowColumns).
			AddRow(int64(101748111), false, "CZ", int64(101748110), map[string]string{"cs": "Plzeň"}, 49.7384, 13.3736)
		mockDB.ExpectQuery(`SELECT .+ FROM cities\s+WHERE similarity\(names->>\$1, \$2\) > 0.3`).
			WithArgs("cs", "plzen", "CZ").
			WillReturnRows(rows)

		cities, err := repo.SearchCities(ctx, "plzen", types.LanguageCS, "CZ")

		require.NoError(t, err)
		require.Len(t, cities, 1)
		assert.Equal(t, int64(101748111), cities[0].ID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("No Matches Yields Empty Slice", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT .+ FROM cities\s+WHERE similarity\(names->>\$1, \$2\) > 0.3`).
			WithArgs("en", "xyzzy", "").
			WillReturnRows(pgxmock.NewRows(cityRowColumns))

		cities, err := repo.SearchCities(ctx, "xyzzy", types.LanguageEN, "")

		require.NoError(t, err)
		assert.Len(t, cities, 0)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestRepositoryGetNearestCity(t *testing.T) {
	ctx := context.Background()

	t.Run("Unrestricted", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows(cityRowColumns).
			AddRow(int64(101748111), false, "CZ", int64(101748110), map[string]string{"cs": "Plzeň"}, 49.7384, 13.3736)
		// WKT is lon before lat.
		mockDB.ExpectQuery(`SELECT .+ FROM cities ORDER BY ST_Distance`).
			WithArgs("POINT(14.000000 50.000000)").
			WillReturnRows(rows)

		city, err := repo.GetNearestCity(ctx, types.Coordinates{Lat: 50.0, Lon: 14.0}, false)

		require.NoError(t, err)
		assert.Equal(t, int64(101748111), city.ID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Featured Only Adds Filter", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		rows := pgxmock.NewRows(cityRowColumns).
			AddRow(int64(101748113), true, "CZ", int64(101748112), map[string]string{"cs": "Praha"}, 50.0755, 14.4378)
		mockDB.ExpectQuery(`SELECT .+ FROM cities WHERE is_featured ORDER BY ST_Distance`).
			WithArgs("POINT(14.000000 50.000000)").
			WillReturnRows(rows)

		city, err := repo.GetNearestCity(ctx, types.Coordinates{Lat: 50.0, Lon: 14.0}, true)

		require.NoError(t, err)
		assert.True(t, city.IsFeatured)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Empty Store", func(t *testing.T) {
		mockDB, repo := newMockRepo(t)
		mockDB.ExpectQuery(`SELECT .+ FROM cities ORDER BY ST_Distance`).
			WithArgs("POINT(14.000000 50.000000)").
			WillReturnError(pgx.ErrNoRows)

		city, err := repo.GetNearestCity(ctx, types.Coordinates{Lat: 50.0, Lon: 14.0}, false)

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Nil(t, city)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}
