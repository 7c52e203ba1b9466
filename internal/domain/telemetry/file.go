package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileSink appends reception blocks to a single log file, separated by a
// `---` marker. Writes are serialized; the saved format is what field
// operators grep through.
type fileSink struct {
	path   string
	logger Logger
	mu     sync.Mutex
}

// NewFileSink creates the append-log sink, creating parent directories as
// needed.
func NewFileSink(path string, logger Logger) (Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sink directory: %w", err)
		}
	}
	return &fileSink{path: path, logger: logger}, nil
}

func (s *fileSink) Deliver(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sink file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(record.FormatBlock() + "\n---\n"); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *fileSink) Close(context.Context) error {
	return nil
}
