package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/clients/eodhd"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/prompt"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/price"
	"github.com/bobmcallan/folio/internal/storage/holdingsfs"
)

// App holds all initialized services, clients, and storage.
// It is the shared core behind every cmd/folio subcommand.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	SessionID        string
	Store            *holdingsfs.Store
	MarketClient     interfaces.MarketDataClient
	Prompter         *prompt.Prompter
	PriceResolver    interfaces.PriceResolver
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	logCloser io.Closer
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, FOLIO_CONFIG,
// folio.toml next to the binary, then folio.toml in the working directory.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("FOLIO_CONFIG"); env != "" {
		return env
	}
	candidate := filepath.Join(getBinaryDir(), "folio.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return "folio.toml"
}

// NewApp initializes config, logging, the market data client, storage and
// services. Interactive questions are read from in and written to out.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string, in io.Reader, out io.Writer) (*App, error) {
	startupStart := time.Now()

	// Release metadata next to the binary, used when ldflags were not set
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	baseLogger, closer, err := common.NewLoggerFromConfig(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger, sessionID := baseLogger.WithSession()

	store, err := holdingsfs.NewStore(logger, config.Portfolio.DataPath)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Left as a nil interface without a key: prices then come from manual entry.
	var marketClient interfaces.MarketDataClient
	if key := config.Clients.EODHD.APIKey; key != "" {
		marketClient = eodhd.NewClient(key,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			eodhd.WithDefaultExchange(config.Clients.EODHD.DefaultExchange),
		)
	} else {
		logger.Warn().Msg("EODHD API key not configured - prices will be entered manually")
	}

	prompter := prompt.New(in, out)

	priceResolver := price.NewService(marketClient, prompter, logger,
		price.WithLookback(config.Clients.EODHD.GetLookback()),
		price.WithFetchTimeout(config.Prices.GetFetchTimeout()),
		price.WithConcurrency(config.Prices.Concurrency),
	)

	portfolioService := portfolio.NewService(store, priceResolver, marketClient, logger,
		portfolio.WithChartSize(config.Chart.Width, config.Chart.Height),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		SessionID:        sessionID,
		Store:            store,
		MarketClient:     marketClient,
		Prompter:         prompter,
		PriceResolver:    priceResolver,
		PortfolioService: portfolioService,
		StartupTime:      startupStart,
		logCloser:        closer,
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases the resources held by the App.
func (a *App) Close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}
