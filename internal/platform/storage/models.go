package storage

import (
	"time"

	"gorm.io/datatypes"
)

// TelemetryEntry is the persisted form of an accepted telemetry record.
type TelemetryEntry struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ReceivedAt time.Time      `gorm:"index;not null" json:"received_at"`
	Owner      string         `gorm:"index;not null" json:"owner"`
	ClientIP   string         `json:"client_ip"`
	ClientMAC  string         `json:"client_mac"`
	Payload    string         `gorm:"type:text" json:"payload"`
	Meta       datatypes.JSON `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (TelemetryEntry) TableName() string {
	return "telemetry_entries"
}
