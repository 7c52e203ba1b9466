package sensor

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Logger is the logging contract of the sensor simulators.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type eventEntry struct {
	Timestamp string `json:"timestamp"`
	SensorID  string `json:"sensor_id,omitempty"`
	Message   string `json:"message"`
}

// EventLog appends one JSON object per line to a simulator's event file.
type EventLog struct {
	mu       sync.Mutex
	path     string
	sensorID string
}

// NewEventLog creates the log file's directory if needed. sensorID is
// stamped on every entry when non-empty.
func NewEventLog(path, sensorID string) (*EventLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &EventLog{path: path, sensorID: sensorID}, nil
}

// Append writes one timestamped entry.
func (l *EventLog) Append(message string) error {
	entry := eventEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		SensorID:  l.sensorID,
		Message:   message,
	}
	line, err := sonic.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}
