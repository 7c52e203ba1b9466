package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "telewatch-go/internal/domain/auth"
	"telewatch-go/internal/domain/eventbus"
	"telewatch-go/internal/domain/telemetry"
	platformconfig "telewatch-go/internal/platform/config"
	platformerrors "telewatch-go/internal/platform/errors"
	platformlogging "telewatch-go/internal/platform/logging"
	"telewatch-go/internal/platform/netinfo"
	platformstorage "telewatch-go/internal/platform/storage"
	coaptransport "telewatch-go/internal/transport/coap"
	httptransport "telewatch-go/internal/transport/http"
	httpwebapi "telewatch-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string

	config      *platformconfig.Config
	logger      *platformlogging.Logger
	credentials *domainauth.CredentialStore
	ledger      *domainauth.TokenLedger
	authManager *domainauth.Manager
	sink        telemetry.Sink
	bus         *eventbus.Bus
	coapServer  *coaptransport.Server
}

// Run drives the full server lifecycle: load configuration, initialize the
// dependency graph, serve until a signal arrives, shut down gracefully.
func Run(ctx context.Context, configPath string) error {
	state := &appState{configPath: configPath}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	defer func() {
		if err := state.authManager.Close(); err != nil {
			logger.ErrorTag("BOOT", "auth manager close failed: %v", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := state.sink.Close(shutdownCtx); err != nil {
			logger.ErrorTag("BOOT", "sink close failed: %v", err)
		}
		state.bus.Close()
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}
	logger.InfoTag("BOOT", "services started")

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// InitGraph lists the initialization steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "auth:init-credentials",
			Title:     "Load credential store",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindAuth,
			Execute:   initCredentialsStep,
		},
		{
			ID:        "auth:init-ledger",
			Title:     "Initialise token ledger",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindLedger,
			Execute:   initLedgerStep,
		},
		{
			ID:        "auth:init-manager",
			Title:     "Initialise auth manager",
			DependsOn: []string{"auth:init-credentials", "auth:init-ledger"},
			Kind:      platformerrors.KindAuth,
			Execute:   initAuthManagerStep,
		},
		{
			ID:        "sink:init",
			Title:     "Initialise telemetry sink",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initSinkStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "coap:init-server",
			Title:     "Initialise CoAP server",
			DependsOn: []string{"auth:init-manager", "sink:init", "eventbus:init"},
			Kind:      platformerrors.KindTransport,
			Execute:   initCoAPServerStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	config, err := platformconfig.NewLoader(state.configPath).WithDotEnv(true).Load()
	if err != nil {
		return err
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	return nil
}

func initCredentialsStep(_ context.Context, state *appState) error {
	store, err := domainauth.NewCredentialStore(state.config.Server.Auth.CredentialsFile, state.logger)
	if err != nil {
		return err
	}
	state.logger.InfoTag("BOOT", "credential store loaded, %d users", store.Count())
	state.credentials = store
	return nil
}

func initLedgerStep(_ context.Context, state *appState) error {
	state.ledger = domainauth.NewTokenLedger(domainauth.LedgerConfig{
		TTL:   time.Duration(state.config.Server.Auth.TokenTTLSeconds) * time.Second,
		Sweep: time.Duration(state.config.Server.Auth.SweepSeconds) * time.Second,
	}, state.logger)
	return nil
}

func initAuthManagerStep(_ context.Context, state *appState) error {
	manager, err := domainauth.NewManager(domainauth.Options{
		Credentials: state.credentials,
		Ledger:      state.ledger,
		Logger:      state.logger,
	})
	if err != nil {
		return err
	}
	state.authManager = manager
	return nil
}

func initSinkStep(_ context.Context, state *appState) error {
	sinkCfg := state.config.Server.Sink
	cfg := telemetry.Config{Driver: sinkCfg.Driver}
	deps := telemetry.Dependencies{}

	switch sinkCfg.Driver {
	case "", "file":
		cfg.File = &telemetry.FileConfig{Path: sinkCfg.File.Path}
	case "sqlite":
		db, err := platformstorage.Open(sinkCfg.SQLite.DSN)
		if err != nil {
			return err
		}
		deps.SQLiteDB = db
	case "redis":
		cfg.Redis = &telemetry.RedisConfig{
			Addr:       sinkCfg.Redis.Addr,
			Username:   sinkCfg.Redis.Username,
			Password:   sinkCfg.Redis.Password,
			DB:         sinkCfg.Redis.DB,
			Key:        sinkCfg.Redis.Key,
			MaxEntries: sinkCfg.Redis.MaxEntries,
		}
	}

	sink, err := telemetry.New(cfg, deps, state.logger)
	if err != nil {
		return err
	}
	state.logger.InfoTag("BOOT", "telemetry sink ready, driver %s", sinkCfg.Driver)
	state.sink = sink
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New()
	logger := state.logger

	if err := bus.SubscribeRecordAccepted(func(evt eventbus.RecordEvent) {
		logger.InfoTag("SINK", "record accepted: owner=%s ip=%s bytes=%d", evt.Owner, evt.ClientIP, evt.Bytes)
	}); err != nil {
		return err
	}
	if err := bus.SubscribeRecordRejected(func(evt eventbus.RecordEvent) {
		logger.WarnTag("SINK", "record rejected: ip=%s reason=%s", evt.ClientIP, evt.Reason)
	}); err != nil {
		return err
	}
	if err := bus.SubscribeTokenIssued(func(evt eventbus.TokenEvent) {
		logger.InfoTag("AUTH", "token issued for %s", evt.Owner)
	}); err != nil {
		return err
	}

	state.bus = bus
	return nil
}

func initCoAPServerStep(_ context.Context, state *appState) error {
	handler := coaptransport.NewHandler(
		state.authManager,
		state.sink,
		state.bus,
		netinfo.NewARPResolver(),
		state.logger,
	)

	server, err := coaptransport.NewServer(coaptransport.ServerOptions{
		Addr:      fmt.Sprintf("%s:%d", state.config.Server.IP, state.config.Server.Port),
		PathPart1: state.config.Server.PathPart1,
		PathPart2: state.config.Server.PathPart2,
		Handler:   handler,
		Logger:    state.logger,
	})
	if err != nil {
		return err
	}
	state.coapServer = server
	return nil
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	g.Go(func() error {
		return state.coapServer.Serve(groupCtx)
	})

	if state.config.Web.Enabled {
		if err := startHTTPServer(state, g, groupCtx); err != nil {
			return err
		}
	}
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	router, err := httptransport.Build(httptransport.Options{
		LogLevel: state.config.Log.Level,
		Logger:   state.logger,
	})
	if err != nil {
		return err
	}

	service, err := httpwebapi.NewService(state.authManager, state.config.Server.Sink.Driver, state.logger)
	if err != nil {
		return err
	}
	service.Register(router.API)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", state.config.Web.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		state.logger.InfoTag("WebAPI", "ops server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return platformerrors.Wrap(platformerrors.KindTransport, "http.serve", "ops server failed", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown requested (%v), draining services", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, exiting anyway")
		return errors.New("shutdown timed out")
	}
	return nil
}
