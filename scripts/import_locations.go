package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	database "github.com/FACorreiaa/go-city-locations/app/db"
	"github.com/FACorreiaa/go-city-locations/config"
	"github.com/FACorreiaa/go-city-locations/internal/types"
)

const upsertRegionSQL = `
	INSERT INTO regions (id, names)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET names = EXCLUDED.names`

const upsertCitySQL = `
	INSERT INTO cities (id, is_featured, country_iso, region_id, names, centroid)
	VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326))
	ON CONFLICT (id) DO UPDATE SET
		is_featured = EXCLUDED.is_featured,
		country_iso = EXCLUDED.country_iso,
		region_id   = EXCLUDED.region_id,
		names       = EXCLUDED.names,
		centroid    = EXCLUDED.centroid`

// locationsFile is the import payload: the full region list first, then the
// cities referencing them.
type locationsFile struct {
	Regions []types.Region `json:"regions"`
	Cities  []types.City   `json:"cities"`
}

func main() {
	filePath := flag.String("file", "data/locations.json", "path to the locations JSON dump")
	flag.Parse()

	ctx := context.Background()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Load configuration
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Set up database connection
	dbpool, err := pgxpool.New(ctx, dbConfig.ConnectionURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database successfully")

	payload, err := readLocations(*filePath)
	if err != nil {
		log.Fatalf("Failed to read locations file: %v", err)
	}
	logger.Info("Loaded locations file",
		slog.String("file", *filePath),
		slog.Int("regions", len(payload.Regions)),
		slog.Int("cities", len(payload.Cities)))

	if err := importLocations(ctx, dbpool, payload, logger); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	logger.Info("Location import completed!")
}

func readLocations(path string) (*locationsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var payload locationsFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &payload, nil
}

func importLocations(ctx context.Context, dbpool *pgxpool.Pool, payload *locationsFile, logger *slog.Logger) error {
	totalImported := 0
	totalErrors := 0

	// Regions first, cities hold a foreign key to them.
	for _, region := range payload.Regions {
		if _, err := dbpool.Exec(ctx, upsertRegionSQL, region.ID, region.Names); err != nil {
			logger.Error("Failed to upsert region",
				slog.Int64("region_id", region.ID),
				slog.Any("error", err))
			totalErrors++
			continue
		}
		totalImported++
	}

	for _, city := range payload.Cities {
		if _, err := dbpool.Exec(ctx, upsertCitySQL,
			city.ID, city.IsFeatured, city.CountryISO, city.RegionID, city.Names,
			city.Centroid.Lon, city.Centroid.Lat); err != nil {
			logger.Error("Failed to upsert city",
				slog.Int64("city_id", city.ID),
				slog.String("city_name", city.Names["en"]),
				slog.Any("error", err))
			totalErrors++
			continue
		}
		totalImported++
	}

	logger.Info("Location import finished",
		slog.Int("total_imported", totalImported),
		slog.Int("total_errors", totalErrors))

	if totalErrors > 0 {
		return fmt.Errorf("import completed with %d errors out of %d records", totalErrors, totalImported+totalErrors)
	}
	return nil
}
