package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-city-locations/app/db"
	"github.com/FACorreiaa/go-city-locations/config"
	"github.com/FACorreiaa/go-city-locations/internal/api/city"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	CityHandler *city.HandlerImpl
}

// NewContainer initializes and returns a new dependency container. Pending
// migrations are applied before the pool is opened.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	// Initialize repositories, services and HandlerImpls
	locationRepo := city.NewLocationRepository(pool, logger)
	cityService := city.NewServiceImpl(locationRepo, logger)
	cityHandler := city.NewHandlerImpl(cityService, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		CityHandler: cityHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
