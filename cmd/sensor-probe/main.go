package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	platformconfig "telewatch-go/internal/platform/config"
	platformlogging "telewatch-go/internal/platform/logging"
	"telewatch-go/internal/sensor"
	"telewatch-go/internal/transport/coap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the probe configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sensor-probe failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	config, err := platformconfig.NewLoader(configPath).WithDotEnv(true).Load()
	if err != nil {
		return err
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    config.Log.Level,
		Dir:      config.Log.Dir,
		Filename: "sensor-probe.log",
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	sensorCfg := config.Sensor
	events, err := sensor.NewEventLog(sensorCfg.LogFile, "")
	if err != nil {
		return err
	}

	probe := sensor.NewProbe(sensor.ProbeOptions{
		ID:       sensorCfg.ID,
		Client:   coap.NewClient(sensorCfg.TargetAddr),
		Path:     fmt.Sprintf("/%s/%s", sensorCfg.PathPart1, sensorCfg.PathPart2),
		DataFile: sensorCfg.DataFile,
		Events:   events,
		Period:   time.Duration(sensorCfg.PeriodSeconds) * time.Second,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probe.Run(ctx)
	return nil
}
