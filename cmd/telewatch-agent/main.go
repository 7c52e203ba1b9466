package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telewatch-go/internal/agent"
	platformconfig "telewatch-go/internal/platform/config"
	platformlogging "telewatch-go/internal/platform/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the agent configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "telewatch-agent failed: %v\n", err)
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
		Filename: "agent.log",
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	agentCfg := config.Agent
	session, err := agent.NewSessionClient(agent.SessionOptions{
		Transport: agent.NewTransport(agentCfg.ServerAddr, agentCfg.PathPart1, agentCfg.PathPart2),
		Username:  agentCfg.Username,
		Password:  agentCfg.Password,
		TokenTTL:  time.Duration(agentCfg.TokenTTLSeconds) * time.Second,
		Timeout:   time.Duration(agentCfg.TimeoutSeconds) * time.Second,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	loop := agent.NewLoop(agent.LoopOptions{
		Harvester:    agent.NewHarvester(agentCfg.LogFiles, "", logger),
		Session:      session,
		Rotator:      agent.NewRotator(agentCfg.LogFiles, logger),
		Period:       time.Duration(agentCfg.PeriodSeconds) * time.Second,
		RotatePolicy: agentCfg.RotatePolicy,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoTag("AGENT", "starting telewatch-agent against %s", agentCfg.ServerAddr)
	loop.Run(ctx)
	return nil
}
