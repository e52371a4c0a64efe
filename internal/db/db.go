package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crane-booking-backend/config"
	"crane-booking-backend/internal/model"
)

// Init opens the configured database and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One writer at a time: every check-and-write transaction runs alone.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableGist && cfg.Driver != "sqlite" {
		log.Println("GIST indexing is enabled, applying range index DDL...")
		if err := applyGistDDL(db); err != nil {
			log.Printf("Warning: failed to apply some GIST DDL: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table the engine uses.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Resource{},
		&model.LoadProfile{},
		&model.Reservation{},
		&model.MaintenanceBlock{},
		&model.WaitingListEntry{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	// Both dialects support expression indexes.
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_name_lower ON resources (lower(name))").Error; err != nil {
		return fmt.Errorf("resource name index: %w", err)
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func applyGistDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		// Intervals are half-open and non-empty.
		"ALTER TABLE reservations DROP CONSTRAINT IF EXISTS reservations_period_valid;",
		"ALTER TABLE reservations ADD CONSTRAINT reservations_period_valid CHECK (start_at < end_at);",
		"ALTER TABLE maintenance_blocks DROP CONSTRAINT IF EXISTS maintenance_blocks_period_valid;",
		"ALTER TABLE maintenance_blocks ADD CONSTRAINT maintenance_blocks_period_valid CHECK (start_at < end_at);",

		// Range indexes serve the per-resource overlap lookups.
		"CREATE INDEX IF NOT EXISTS idx_reservations_period ON reservations " +
			"USING GIST (resource_id, tstzrange(start_at, end_at, '[)')) WHERE status IN ('pending', 'approved');",
		"CREATE INDEX IF NOT EXISTS idx_maintenance_blocks_period ON maintenance_blocks " +
			"USING GIST (resource_id, tstzrange(start_at, end_at, '[)'));",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

// MemoryConfig returns a private in-memory SQLite configuration named name.
func MemoryConfig(name string) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	}
}
