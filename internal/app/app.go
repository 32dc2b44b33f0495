// Package app wires configuration, storage, clients, and services into a
// running s-portfolio process.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dandalion98/s-portfolio/internal/clients/horizon"
	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/services/portfolio"
	"github.com/dandalion98/s-portfolio/internal/services/valuation"
	"github.com/dandalion98/s-portfolio/internal/storage"
)

// App holds all initialized services, clients, and storage. It is the
// shared core behind cmd/sportfolio-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Ledger           interfaces.LedgerClient
	PortfolioService interfaces.PortfolioService
	ValuationService interfaces.ValuationService
	StartupTime      time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients, and storage. configPath may
// be empty, in which case SPORTFOLIO_CONFIG and then the binary
// directory are consulted.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("SPORTFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "sportfolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/sportfolio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ledgerClient := horizon.NewClient(
		horizon.WithBaseURL(config.Horizon.BaseURL),
		horizon.WithLogger(logger),
		horizon.WithRateLimit(config.Horizon.RateLimit),
		horizon.WithTimeout(config.Horizon.GetTimeout()),
		horizon.WithPageLimit(config.Horizon.PageLimit),
	)

	var valuationService interfaces.ValuationService
	if config.Sync.Valuation {
		valuationService = valuation.NewService(storageManager, ledgerClient, logger)
	}
	portfolioService := portfolio.NewService(storageManager, ledgerClient, valuationService, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Ledger:           ledgerClient,
		PortfolioService: portfolioService,
		ValuationService: valuationService,
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("environment", config.Environment).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// StartScheduler launches the background account sync loop.
func (a *App) StartScheduler() {
	a.scheduler = NewScheduler(a.PortfolioService, a.Storage, a.Logger, a.Config.Sync.GetInterval())
	a.scheduler.Start()
}

// Close releases all resources. Shutdown order: stop the scheduler, then
// close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
