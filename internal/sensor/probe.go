package sensor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/plgd-dev/go-coap/v3/message/codes"

	"telewatch-go/internal/transport/coap"
)

// Reading is one simulated sample.
type Reading struct {
	SensorID    string  `json:"sensor_id"`
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// envelope is the wire shape the chamber expects.
type envelope struct {
	SensorData Reading `json:"sensor_data"`
}

// ProbeOptions configures a probe simulator.
type ProbeOptions struct {
	ID       string
	Client   *coap.Client
	Path     string
	DataFile string
	Events   *EventLog
	Period   time.Duration
	Logger   Logger
}

// Probe emits a random temperature/humidity sample every period, POSTs it
// to the chamber, and on success records it locally: the sample joins a
// JSON array data file and the event log gets one line.
type Probe struct {
	id       string
	client   *coap.Client
	path     string
	dataFile string
	events   *EventLog
	period   time.Duration
	logger   Logger

	mu sync.Mutex // guards the data file
}

// NewProbe builds a probe.
func NewProbe(opts ProbeOptions) *Probe {
	period := opts.Period
	if period <= 0 {
		period = 15 * time.Second
	}
	return &Probe{
		id:       opts.ID,
		client:   opts.Client,
		path:     opts.Path,
		dataFile: opts.DataFile,
		events:   opts.Events,
		period:   period,
		logger:   opts.Logger,
	}
}

// Generate produces one sample: temperature in [15,25], humidity in
// [30,70], both rounded to two decimals.
func (p *Probe) Generate() Reading {
	return Reading{
		SensorID:    p.id,
		Timestamp:   time.Now().Format(time.RFC3339),
		Temperature: round2(15.0 + rand.Float64()*10.0),
		Humidity:    round2(30.0 + rand.Float64()*40.0),
	}
}

// Run sends one sample immediately, then one per period, until canceled.
func (p *Probe) Run(ctx context.Context) {
	p.logger.Info("[SENSOR] probe %s sending to %s every %s", p.id, p.path, p.period)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		p.Cycle(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("[SENSOR] probe %s stopped", p.id)
			return
		case <-ticker.C:
		}
	}
}

// Cycle generates, sends, and on success persists one sample.
func (p *Probe) Cycle(ctx context.Context) {
	reading := p.Generate()
	payload, err := sonic.Marshal(envelope{SensorData: reading})
	if err != nil {
		p.logEvent(fmt.Sprintf("Error encoding data: %v", err))
		return
	}

	code, _, err := p.client.Post(ctx, p.path, nil, payload)
	if err != nil {
		p.logEvent(fmt.Sprintf("Error sending data: %v", err))
		return
	}
	if code != codes.Valid {
		p.logEvent(fmt.Sprintf("Unexpected response code: %v", code))
		return
	}

	if err := p.saveReading(reading); err != nil {
		p.logEvent(fmt.Sprintf("Error saving sensor data: %v", err))
	}
	p.logEvent(fmt.Sprintf("Data sent successfully: temperature=%.2f humidity=%.2f", reading.Temperature, reading.Humidity))
}

// saveReading appends to the JSON array in the data file. An unreadable or
// corrupt file restarts the array rather than blocking the cycle.
func (p *Probe) saveReading(reading Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var readings []Reading
	if data, err := os.ReadFile(p.dataFile); err == nil && len(data) > 0 {
		if err := sonic.Unmarshal(data, &readings); err != nil {
			readings = nil
		}
	}
	readings = append(readings, reading)

	data, err := sonic.MarshalIndent(readings, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.dataFile, data, 0o644)
}

func (p *Probe) logEvent(message string) {
	if err := p.events.Append(message); err != nil {
		p.logger.Error("[SENSOR] event log write failed: %v", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
