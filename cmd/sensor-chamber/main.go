package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	platformconfig "telewatch-go/internal/platform/config"
	platformlogging "telewatch-go/internal/platform/logging"
	"telewatch-go/internal/sensor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the chamber configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sensor-chamber failed: %v\n", err)
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
		Filename: "sensor-chamber.log",
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	sensorCfg := config.Sensor
	events, err := sensor.NewEventLog(sensorCfg.LogFile, sensorCfg.ID)
	if err != nil {
		return err
	}

	chamber := sensor.NewChamber(sensor.ChamberOptions{
		ID:        sensorCfg.ID,
		BindAddr:  sensorCfg.BindAddr,
		PathPart1: sensorCfg.PathPart1,
		PathPart2: sensorCfg.PathPart2,
		Events:    events,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return chamber.Run(ctx)
}
