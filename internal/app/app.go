package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
	"github.com/ternarybob/stockreport/internal/eodhd"
	"github.com/ternarybob/stockreport/internal/interfaces"
	"github.com/ternarybob/stockreport/internal/polygon"
	"github.com/ternarybob/stockreport/internal/portfolio"
	"github.com/ternarybob/stockreport/internal/services/document"
	"github.com/ternarybob/stockreport/internal/services/latex"
	"github.com/ternarybob/stockreport/internal/services/llm"
	"github.com/ternarybob/stockreport/internal/services/pdf"
	"github.com/ternarybob/stockreport/internal/services/report"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Gateway      interfaces.MarketDataGateway
	Narrator     interfaces.NarrativeService
	Renderer     interfaces.DocumentRenderer
	Orchestrator *report.Orchestrator
	Portfolios   *portfolio.Store
}

// New initializes the application with all dependencies.
// Missing credentials for the selected providers fail here, before any run starts.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:     cfg,
		Logger:     logger,
		Portfolios: portfolio.NewStore(cfg.Report.PortfolioFile),
	}

	if err := app.initServices(ctx); err != nil {
		return nil, err
	}

	app.Orchestrator = report.NewOrchestrator(
		app.Gateway,
		app.Narrator,
		app.Renderer,
		cfg.Report.Concurrency,
		logger,
	)

	logger.Info().
		Str("market_provider", app.Gateway.Name()).
		Str("llm_provider", app.Narrator.Name()).
		Str("renderer", string(cfg.Renderer.Engine)).
		Int("concurrency", cfg.Report.Concurrency).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initServices(ctx context.Context) error {
	var err error

	if a.Gateway, err = NewGateway(a.Config, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize market data gateway: %w", err)
	}

	if a.Narrator, err = llm.NewNarrativeService(ctx, a.Config, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize narrative service: %w", err)
	}

	if a.Renderer, err = NewRenderer(a.Config, nil, a.Logger); err != nil {
		return fmt.Errorf("failed to initialize document renderer: %w", err)
	}

	return nil
}

// NewGateway creates the market data gateway selected by market.provider.
func NewGateway(cfg *common.Config, logger arbor.ILogger) (interfaces.MarketDataGateway, error) {
	timeout, err := common.ParseDuration(cfg.Market.Timeout, polygon.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid market timeout: %w", err)
	}

	switch cfg.Market.Provider {
	case common.MarketProviderPolygon:
		if cfg.Polygon.APIKey == "" {
			return nil, fmt.Errorf("polygon API key is required (set polygon.api_key or POLYGON_API_KEY)")
		}
		return polygon.NewClient(cfg.Polygon.APIKey,
			polygon.WithBaseURL(cfg.Polygon.BaseURL),
			polygon.WithTimeout(timeout),
			polygon.WithRateLimit(cfg.Market.RateLimit),
			polygon.WithLogger(logger),
		), nil

	case common.MarketProviderEODHD:
		if cfg.EODHD.APIKey == "" {
			return nil, fmt.Errorf("eodhd API key is required (set eodhd.api_key or EODHD_API_KEY)")
		}
		return eodhd.NewClient(cfg.EODHD.APIKey,
			eodhd.WithBaseURL(cfg.EODHD.BaseURL),
			eodhd.WithTimeout(timeout),
			eodhd.WithRateLimit(cfg.Market.RateLimit),
			eodhd.WithExchange(cfg.EODHD.Exchange),
			eodhd.WithLogger(logger),
		), nil

	default:
		return nil, fmt.Errorf("unsupported market provider: %s", cfg.Market.Provider)
	}
}

// NewRenderer creates the document renderer selected by renderer.engine.
// A nil clock dates output directories with the wall clock.
func NewRenderer(cfg *common.Config, clock document.Clock, logger arbor.ILogger) (interfaces.DocumentRenderer, error) {
	switch cfg.Renderer.Engine {
	case common.RendererEngineLaTeX:
		renderer, err := latex.NewRenderer(&cfg.Renderer, clock, logger)
		if err != nil {
			return nil, err
		}
		return renderer, nil

	case common.RendererEngineBuiltin:
		return pdf.NewRenderer(&cfg.Renderer, clock, logger), nil

	default:
		return nil, fmt.Errorf("unsupported renderer engine: %s", cfg.Renderer.Engine)
	}
}
