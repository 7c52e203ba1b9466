package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformerrors "telewatch-go/internal/platform/errors"
)

// Open connects to the SQLite database at the given DSN and migrates the
// telemetry schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "open sqlite database", err)
	}
	if err := db.AutoMigrate(&TelemetryEntry{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.migrate", "migrate telemetry schema", err)
	}
	return db, nil
}
