package telemetry

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"telewatch-go/internal/platform/storage"
)

// sqliteSink persists records through the shared gorm handle.
type sqliteSink struct {
	db *gorm.DB
}

// NewSQLiteSink wraps an already-opened, migrated database.
func NewSQLiteSink(db *gorm.DB) Sink {
	return &sqliteSink{db: db}
}

func (s *sqliteSink) Deliver(ctx context.Context, record Record) error {
	entry := &storage.TelemetryEntry{
		ReceivedAt: record.ReceivedAt,
		Owner:      record.Owner,
		ClientIP:   record.ClientIP,
		ClientMAC:  record.ClientMAC,
		Payload:    record.Payload,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert telemetry entry: %w", err)
	}
	return nil
}

func (s *sqliteSink) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
