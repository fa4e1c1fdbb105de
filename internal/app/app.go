package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/skillcoder/dockguard/internal/adapters/outbound/docker"
	"github.com/skillcoder/dockguard/internal/adapters/outbound/logsink"
	"github.com/skillcoder/dockguard/internal/config"
	"github.com/skillcoder/dockguard/internal/httpserver"
	"github.com/skillcoder/dockguard/internal/infra/cronparser"
	"github.com/skillcoder/dockguard/internal/infra/shutdown"
	"github.com/skillcoder/dockguard/internal/logic/alert"
	"github.com/skillcoder/dockguard/internal/logic/monitor"
	"github.com/skillcoder/dockguard/internal/logic/pressure"
	"github.com/skillcoder/dockguard/internal/logic/report"
)

const startupTimeout = 30 * time.Second

type App struct {
	logger     *slog.Logger
	appState   appstater
	signals    signalHandler
	pingers    pingerService
	engine     *docker.Adapter
	components []appServer
}

// New creates a new application instance with all dependencies wired.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingers pingerService,
) (*App, error) {
	thresholds, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	parser := cronparser.New()

	if cfg.ReportSchedule != "" {
		if err := parser.Validate(cfg.ReportSchedule, cfg.ReportTZ); err != nil {
			return nil, fmt.Errorf("validate report schedule: %w", err)
		}
	}

	// Create docker engine client
	cli, err := docker.NewClient(cfg.DockerHost)
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}

	// Create secondary adapter (docker adapter)
	engine := docker.New(logger, cli, thresholds.Pressure.MemoryCacheKey)

	// Alerts always land in the log; a webhook is layered on when configured
	var sink alert.Sink = logsink.NewLog(logger)
	if cfg.AlertWebhookURL != "" {
		sink = logsink.NewMulti(sink, logsink.NewWebhook(cfg.AlertWebhookURL))
	}

	limiter := alert.NewLimiter(cfg.AlertCooldown)
	notifier := alert.NewNotifier(logger, limiter, sink)

	// Create logic services (inject repository adapter)
	monitorSvc := monitor.New(logger, engine, notifier, thresholds.Monitor, runtime.NumCPU())
	pressureSvc := pressure.New(logger, engine, notifier, thresholds.Pressure)
	reportSvc := report.New(
		logger,
		monitorSvc,
		pressureSvc,
		sink,
		parser,
		cfg.ReportSchedule,
		cfg.ReportTZ,
	)

	httpSrv := httpserver.New(logger, appState, pressureSvc, cfg.HTTPPort)
	metricsSrv := httpserver.NewMetricsServer(logger, cfg.MetricsPort)

	return &App{
		logger:   logger,
		appState: appState,
		signals:  shutdown.New(logger, appState),
		pingers:  pingers,
		engine:   engine,
		components: []appServer{
			metricsSrv,
			monitorSvc,
			pressureSvc,
			reportSvc,
			httpSrv,
		},
	}, nil
}

// Run starts the application and blocks until context is cancelled.
func (a *App) Run(originCtx context.Context) error {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	if err := a.start(ctx); err != nil {
		// Roll back whatever did come up
		if shutdownErr := a.appState.Shutdown(ctx); shutdownErr != nil {
			a.logger.ErrorContext(ctx, "shutdown after failed start", "reason", shutdownErr)
		}

		return err
	}

	if err := a.appState.SetRunning(ctx); err != nil {
		return fmt.Errorf("set running application state: %w", err)
	}

	a.logger.InfoContext(ctx, "application is running")

	<-ctx.Done()

	if err := a.appState.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// start brings up the pinger service and every component, then waits until
// all of them report ready.
func (a *App) start(ctx context.Context) error {
	if err := a.appState.RegisterShutdowner(a.pingers); err != nil {
		return fmt.Errorf("register pinger service shutdowner: %w", err)
	}

	if err := a.pingers.Start(ctx); err != nil {
		return fmt.Errorf("start pinger service: %w", err)
	}

	if err := a.appState.RegisterPinger(a.engine); err != nil {
		return fmt.Errorf("register engine pinger: %w", err)
	}

	readyChans := make([]<-chan struct{}, 0, len(a.components)+1)
	readyChans = append(readyChans, a.pingers.Ready())

	for _, component := range a.components {
		if err := a.appState.RegisterShutdowner(component); err != nil {
			return fmt.Errorf("register %s shutdowner: %w", component.Name(), err)
		}

		if err := a.appState.RegisterPinger(component); err != nil {
			return fmt.Errorf("register %s pinger: %w", component.Name(), err)
		}

		if err := component.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", component.Name(), err)
		}

		readyChans = append(readyChans, component.Ready())
	}

	select {
	case <-allChannelsClose(ctx, a.logger, readyChans...):
	case <-time.After(startupTimeout):
		return fmt.Errorf("components did not become ready within %s", startupTimeout)
	case <-ctx.Done():
		return fmt.Errorf("startup interrupted: %w", ctx.Err())
	}

	return nil
}

// allChannelsClose returns a channel that closes once every input channel has
// closed. Context cancellation does not close the output early; the caller
// selects on both.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for _, ch := range chans {
			select {
			case <-ch:
			case <-ctx.Done():
				logger.InfoContext(ctx, "context done while waiting for channels to close")

				<-ch
			}
		}
	}()

	return out
}
