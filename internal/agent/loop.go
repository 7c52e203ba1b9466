package agent

import (
	"context"
	"time"

	"telewatch-go/internal/platform/config"
)

// LoopOptions configures the telemetry loop.
type LoopOptions struct {
	Harvester *Harvester
	Session   *SessionClient
	Rotator   *Rotator
	Period    time.Duration
	// RotatePolicy is config.RotateAlways or config.RotateOnSuccess.
	RotatePolicy string
	Logger       Logger
}

// TelemetryLoop is the agent driver: harvest, send, rotate, sleep. A failed
// send is logged and abandoned for the cycle; there is no retry or queueing.
type TelemetryLoop struct {
	harvester    *Harvester
	session      *SessionClient
	rotator      *Rotator
	period       time.Duration
	rotatePolicy string
	logger       Logger
}

// NewLoop builds the loop.
func NewLoop(opts LoopOptions) *TelemetryLoop {
	period := opts.Period
	if period <= 0 {
		period = 15 * time.Second
	}
	policy := opts.RotatePolicy
	if policy == "" {
		policy = config.RotateAlways
	}
	return &TelemetryLoop{
		harvester:    opts.Harvester,
		session:      opts.Session,
		rotator:      opts.Rotator,
		period:       period,
		rotatePolicy: policy,
		logger:       opts.Logger,
	}
}

// Run executes cycles until the context is canceled.
func (l *TelemetryLoop) Run(ctx context.Context) {
	l.logger.Info("[AGENT] telemetry loop started, period %s", l.period)
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		l.Cycle(ctx)
		select {
		case <-ctx.Done():
			l.logger.Info("[AGENT] telemetry loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// Cycle runs one harvest/send/rotate pass.
func (l *TelemetryLoop) Cycle(ctx context.Context) {
	payload := l.harvester.Collect()

	err := l.session.Send(ctx, []byte(payload))
	if err != nil {
		l.logger.Error("[AGENT] failed to send telemetry: %v", err)
	} else {
		l.logger.Debug("[AGENT] telemetry sent, %d bytes", len(payload))
	}

	if l.rotatePolicy == config.RotateAlways || err == nil {
		l.rotator.Rotate()
	}
}
