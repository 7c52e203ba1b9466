package sensor

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/mux"
	coapnet "github.com/plgd-dev/go-coap/v3/net"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"

	platformerrors "telewatch-go/internal/platform/errors"
)

// Comfort band the chamber regulates toward.
const (
	internalTempMin     = 20.0
	internalTempMax     = 22.0
	internalHumidityMin = 30.0
	internalHumidityMax = 50.0
)

// ChamberOptions configures a chamber simulator.
type ChamberOptions struct {
	ID        string
	BindAddr  string
	PathPart1 string
	PathPart2 string
	Events    *EventLog
	// Interval between adjustment passes; defaults to 15s.
	Interval time.Duration
	Logger   Logger
}

// Chamber listens for probe readings over CoAP and simulates a climate
// controller: each adjustment pass nudges the internal temperature and
// humidity toward the comfort band, steered by the latest external reading.
type Chamber struct {
	id       string
	bindAddr string
	path     string
	events   *EventLog
	interval time.Duration
	logger   Logger

	mu               sync.Mutex
	internalTemp     float64
	internalHumidity float64
	externalTemp     *float64
	externalHumidity *float64
}

// NewChamber initializes the internal climate at a random point inside the
// comfort band.
func NewChamber(opts ChamberOptions) *Chamber {
	interval := opts.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Chamber{
		id:               opts.ID,
		bindAddr:         opts.BindAddr,
		path:             fmt.Sprintf("/%s/%s", opts.PathPart1, opts.PathPart2),
		events:           opts.Events,
		interval:         interval,
		logger:           opts.Logger,
		internalTemp:     round2(internalTempMin + rand.Float64()*(internalTempMax-internalTempMin)),
		internalHumidity: round2(internalHumidityMin + rand.Float64()*(internalHumidityMax-internalHumidityMin)),
	}
}

// Run serves the listener and the adjustment loop until canceled.
func (c *Chamber) Run(ctx context.Context) error {
	go c.adjustLoop(ctx)
	return c.serve(ctx)
}

func (c *Chamber) serve(ctx context.Context) error {
	router := mux.NewRouter()
	if err := router.Handle(c.path, mux.HandlerFunc(c.handlePost)); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "chamber.serve", "register resource", err)
	}

	listener, err := coapnet.NewListenUDP("udp", c.bindAddr)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "chamber.serve", "bind udp listener", err)
	}
	defer listener.Close()

	server := udp.NewServer(options.WithMux(router), options.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			server.Stop()
		case <-done:
		}
	}()
	defer close(done)

	c.logger.Info("[SENSOR] chamber %s listening on %s%s", c.id, c.bindAddr, c.path)
	if err := server.Serve(listener); err != nil && ctx.Err() == nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "chamber.serve", "serve udp", err)
	}
	return nil
}

func (c *Chamber) handlePost(w mux.ResponseWriter, r *mux.Message) {
	body, err := r.ReadBody()
	if err != nil {
		body = nil
	}
	code, payload := c.ingestReading(body)
	if err := w.SetResponse(code, message.TextPlain, bytes.NewReader(payload)); err != nil {
		c.logger.Error("[SENSOR] chamber response failed: %v", err)
	}
}

// ingestReading decodes a probe envelope and records the external climate.
func (c *Chamber) ingestReading(body []byte) (codes.Code, []byte) {
	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil || env.SensorData.Timestamp == "" {
		c.logEvent(fmt.Sprintf("Error processing sensor data: %v", err))
		return codes.BadRequest, []byte("Invalid sensor data")
	}

	c.mu.Lock()
	temp := env.SensorData.Temperature
	humidity := env.SensorData.Humidity
	c.externalTemp = &temp
	c.externalHumidity = &humidity
	c.mu.Unlock()

	c.logEvent(fmt.Sprintf("Received sensor data: temperature=%.2f humidity=%.2f", temp, humidity))
	return codes.Valid, []byte("Sensor data processed")
}

func (c *Chamber) adjustLoop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.adjust()
		}
	}
}

// adjust runs one regulation pass. Nothing happens until a first external
// reading has arrived.
func (c *Chamber) adjust() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.externalTemp == nil || c.externalHumidity == nil {
		return
	}

	c.internalTemp = adjustTemperature(*c.externalTemp, c.internalTemp)
	c.internalHumidity = adjustHumidity(*c.externalHumidity, c.internalHumidity)

	c.logEvent(fmt.Sprintf("Adjusting temperature to %.2f", c.internalTemp))
	c.logEvent(fmt.Sprintf("Adjusting humidity to %.2f", c.internalHumidity))
}

// Climate reports the current internal readings.
func (c *Chamber) Climate() (temperature, humidity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internalTemp, c.internalHumidity
}

// adjustTemperature steps the internal temperature toward [20,22]: a hot
// exterior cools it, a cold one heats it, otherwise it drifts slightly. The
// result is clamped to the band.
func adjustTemperature(external, internal float64) float64 {
	var step float64
	switch {
	case external > internalTempMax:
		step = -1.0 + rand.Float64()*0.5
	case external < internalTempMin:
		step = 0.5 + rand.Float64()*0.5
	default:
		step = -0.2 + rand.Float64()*0.4
	}
	return round2(clamp(internal+step, internalTempMin, internalTempMax))
}

// adjustHumidity steps the internal humidity toward [30,50] the same way.
func adjustHumidity(external, internal float64) float64 {
	var step float64
	switch {
	case external > internalHumidityMax:
		step = -2.0 + rand.Float64()
	case external < internalHumidityMin:
		step = 1.0 + rand.Float64()
	default:
		step = -0.5 + rand.Float64()
	}
	return round2(clamp(internal+step, internalHumidityMin, internalHumidityMax))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Chamber) logEvent(message string) {
	if err := c.events.Append(message); err != nil {
		c.logger.Error("[SENSOR] event log write failed: %v", err)
	}
}
