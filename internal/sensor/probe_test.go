package sensor

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func newTestProbe(t *testing.T) *Probe {
	t.Helper()
	dir := t.TempDir()
	events, err := NewEventLog(filepath.Join(dir, "events.log"), "")
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}
	return NewProbe(ProbeOptions{
		ID:       "sensor_1",
		DataFile: filepath.Join(dir, "data.json"),
		Events:   events,
		Logger:   testLogger{},
	})
}

func TestGenerateStaysInRange(t *testing.T) {
	probe := newTestProbe(t)
	for i := 0; i < 200; i++ {
		reading := probe.Generate()
		if reading.SensorID != "sensor_1" {
			t.Fatalf("unexpected sensor id %q", reading.SensorID)
		}
		if reading.Temperature < 15.0 || reading.Temperature > 25.0 {
			t.Fatalf("temperature out of range: %v", reading.Temperature)
		}
		if reading.Humidity < 30.0 || reading.Humidity > 70.0 {
			t.Fatalf("humidity out of range: %v", reading.Humidity)
		}
		if got := math.Round(reading.Temperature*100) / 100; got != reading.Temperature {
			t.Fatalf("temperature not rounded to two decimals: %v", reading.Temperature)
		}
	}
}

func TestSaveReadingGrowsArray(t *testing.T) {
	probe := newTestProbe(t)

	first := Reading{SensorID: "sensor_1", Timestamp: "2026-01-01T00:00:00Z", Temperature: 21.5, Humidity: 44.0}
	second := Reading{SensorID: "sensor_1", Timestamp: "2026-01-01T00:00:15Z", Temperature: 19.8, Humidity: 51.2}
	if err := probe.saveReading(first); err != nil {
		t.Fatalf("saveReading: %v", err)
	}
	if err := probe.saveReading(second); err != nil {
		t.Fatalf("saveReading: %v", err)
	}

	data, err := os.ReadFile(probe.dataFile)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	var readings []Reading
	if err := sonic.Unmarshal(data, &readings); err != nil {
		t.Fatalf("decode data file: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[1].Temperature != 19.8 {
		t.Fatalf("second reading mismatch: %+v", readings[1])
	}
}

func TestSaveReadingRecoversFromCorruptFile(t *testing.T) {
	probe := newTestProbe(t)
	if err := os.WriteFile(probe.dataFile, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if err := probe.saveReading(Reading{SensorID: "sensor_1", Timestamp: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("saveReading: %v", err)
	}

	data, err := os.ReadFile(probe.dataFile)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	var readings []Reading
	if err := sonic.Unmarshal(data, &readings); err != nil {
		t.Fatalf("corrupt file not replaced: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected fresh array of 1, got %d", len(readings))
	}
}

func TestEventLogAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.log")
	events, err := NewEventLog(path, "sensor_2")
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	if err := events.Append("first"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := events.Append("second"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var entry eventEntry
	if err := sonic.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if entry.SensorID != "sensor_2" || entry.Message != "second" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
