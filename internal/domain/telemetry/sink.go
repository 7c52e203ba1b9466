package telemetry

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Driver identifiers supported by the sink factory.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Sink receives accepted telemetry records. Implementations must be safe for
// concurrent delivery from in-flight request handlers.
type Sink interface {
	Deliver(ctx context.Context, record Record) error
	Close(ctx context.Context) error
}

// Config describes the sink selection parameters.
type Config struct {
	Driver string
	File   *FileConfig
	Redis  *RedisConfig
}

// FileConfig holds the append-log sink settings.
type FileConfig struct {
	Path string
}

// RedisConfig captures connection options for the redis sink.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	// Key is the list records are pushed onto.
	Key string
	// MaxEntries caps the list length; 0 keeps everything.
	MaxEntries int
}

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// Logger is the minimal logging contract the sinks need.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// New creates a sink based on the provided configuration.
func New(cfg Config, deps Dependencies, logger Logger) (Sink, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		if cfg.File == nil || cfg.File.Path == "" {
			return nil, fmt.Errorf("file sink requires a path")
		}
		return NewFileSink(cfg.File.Path, logger)
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite sink requires database handle")
		}
		return NewSQLiteSink(deps.SQLiteDB), nil
	case DriverRedis:
		return NewRedisSink(cfg)
	default:
		return nil, fmt.Errorf("unsupported sink driver: %s", driver)
	}
}
