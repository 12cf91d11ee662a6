package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MagicCL33/Dashboard/internal/adapter/events"
	"github.com/MagicCL33/Dashboard/internal/adapter/httpapi"
	"github.com/MagicCL33/Dashboard/internal/adapter/oracle"
	"github.com/MagicCL33/Dashboard/internal/adapter/repository/kvstate"
	"github.com/MagicCL33/Dashboard/internal/config"
	"github.com/MagicCL33/Dashboard/internal/domain"
	"github.com/MagicCL33/Dashboard/internal/observability"
	"github.com/MagicCL33/Dashboard/internal/state"
	"github.com/MagicCL33/Dashboard/internal/usecase/assets"
	"github.com/MagicCL33/Dashboard/internal/usecase/bootstrap"
	"github.com/MagicCL33/Dashboard/internal/usecase/pricegate"
	"github.com/MagicCL33/Dashboard/internal/usecase/projects"
	"github.com/MagicCL33/Dashboard/internal/usecase/snapshots"
	"github.com/MagicCL33/Dashboard/internal/usecase/trades"
	"github.com/MagicCL33/Dashboard/internal/usecase/valuation"
)

type options struct {
	configPath string
	addr       string
	logLevel   string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Crypto portfolio ledger and valuation server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	bindFlags(cmd.Flags(), &opts)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&o.addr, "addr", "", "HTTP listen address (overrides config and HTTP_ADDR)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides config and LOG_LEVEL)")
}

// loadConfig reads the configuration; flags win over the file and the environment
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := observability.NewLogger("server", cfg.Log.Level)
	componentLogger := func(name string) zerolog.Logger {
		return observability.NewLogger(name, cfg.Log.Level)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := func() time.Time { return time.Now().In(loc) }

	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker()

	// 1. Storage
	backend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	repo := kvstate.NewStateRepository(backend.blobs, cfg.Storage.KeyPrefix, componentLogger("kvstate"))
	store := state.NewStore(repo, componentLogger("store"), metrics)

	// 2. Events
	var publisher domain.EventPublisher = domain.NopPublisher{}
	var eventPublisher *events.JetStreamPublisher
	if cfg.Events.Enabled {
		js, err := backend.jetStream(cfg.Storage.NATS.URL)
		if err != nil {
			return err
		}
		if err := events.EnsureStream(ctx, js, cfg.Events.Stream, cfg.Events.SubjectPrefix); err != nil {
			return err
		}
		eventPublisher = events.NewJetStreamPublisher(js, cfg.Events.SubjectPrefix, cfg.Events.Buffer, componentLogger("events"), metrics)
		publisher = eventPublisher
	}

	// 3. Price oracle
	var priceOracle domain.PriceOracle = oracle.Offline{}
	if cfg.Oracle.URL != "" {
		priceOracle = oracle.NewHTTPOracle(oracle.Config{
			URL:               cfg.Oracle.URL,
			SymbolsParam:      cfg.Oracle.SymbolsParam,
			ListPath:          cfg.Oracle.ListPath,
			SymbolField:       cfg.Oracle.SymbolField,
			PriceField:        cfg.Oracle.PriceField,
			APIKeyHeader:      cfg.Oracle.APIKeyHeader,
			APIKey:            cfg.Oracle.APIKey,
			Timeout:           cfg.Oracle.Timeout,
			RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
			Burst:             cfg.Oracle.Burst,
		}, componentLogger("oracle"))
	} else {
		logger.Warn().Msg("no oracle url configured, prices will not refresh")
	}

	// 4. Services (Use Cases)
	gate := pricegate.NewGate(store, priceOracle, publisher, componentLogger("pricegate"), metrics)
	gate.Now = clock
	assetService := assets.NewAssetService(store, gate, publisher, componentLogger("assets"))
	assetService.Now = clock
	projectService := projects.NewProjectService(store, publisher, componentLogger("projects"))
	projectService.Now = clock
	tradeService := trades.NewTradeService(store, publisher, componentLogger("trades"))
	tradeService.Now = clock
	snapshotService := snapshots.NewSnapshotService(store, publisher, componentLogger("snapshots"), metrics)
	snapshotService.Now = clock
	valuationService := valuation.NewValuationService(store, cfg.Ledger.Currency)

	// 5. Background workers
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	goRun := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}

	goRun("store", store.Run)
	if eventPublisher != nil {
		goRun("events", eventPublisher.Run)
	}

	boot := bootstrap.NewBootstrapper(store, gate, snapshotService, componentLogger("bootstrap"))
	if err := boot.Start(ctx); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	goRun("daily", func(ctx context.Context) error {
		return boot.RunDaily(ctx, cfg.Ledger.CheckInterval)
	})

	// 6. HTTP server
	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Addr = cfg.Server.Addr
	serverCfg.Token = cfg.Server.APIToken
	server := httpapi.NewServer(serverCfg, httpapi.Services{
		Assets:    assetService,
		Gate:      gate,
		Projects:  projectService,
		Trades:    tradeService,
		Valuation: valuationService,
		Snapshots: snapshotService,
	}, health, metrics, componentLogger("http"))

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	health.SetReady(true)

	err = waitForShutdown(runCtx, serveErr, logger)

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error().Err(shutdownErr).Msg("http server shutdown failed")
	}

	cancel()
	wg.Wait()
	if flushErr := store.Flush(shutdownCtx); flushErr != nil {
		logger.Error().Err(flushErr).Msg("final ledger save failed")
	}
	logger.Info().Msg("server stopped")
	return err
}

// waitForShutdown waits for SIGTERM or SIGINT, a server failure, or ctx cancellation
func waitForShutdown(ctx context.Context, serveErr <-chan error, logger zerolog.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		return nil
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
