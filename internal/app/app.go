// Package app wires configuration into a ready market data service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"optionsgateway/internal/config"
	"optionsgateway/internal/httpx"
	"optionsgateway/internal/logging"
	"optionsgateway/internal/marketdata"
	"optionsgateway/internal/metrics"
	"optionsgateway/internal/mode"
	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/cache"
	"optionsgateway/internal/provider/eodhd"
	"optionsgateway/internal/provider/massive"
	"optionsgateway/internal/provider/mockdata"
	"optionsgateway/internal/provider/ratelimit"
	"optionsgateway/internal/provider/strategy"
	"optionsgateway/internal/provider/theta"
)

const userAgent = "optionsgateway/1.0"

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Factory  *strategy.Factory
	Service  *marketdata.Service
}

// LoggingConfig converts the log section for logging.New.
func LoggingConfig(l config.Log) logging.Config {
	return logging.Config{
		Level:      l.Level,
		Format:     l.Format,
		Output:     l.Output,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

// New validates the mode and the provider selectors and assembles the
// service. Adapters are built lazily on the first upstream call.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sel, err := strategy.ParseSelection(cfg.MarketData.OptionsProvider, cfg.MarketData.QuotesProvider)
	if err != nil {
		return nil, err
	}
	resolver := mode.NewResolver(cfg.MarketData.Mode, logger, mode.WithSource("market-data:"+string(sel.Options)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	b := &builder{
		cfg:    cfg,
		http:   httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second),
		logger: logger,
	}
	factory := strategy.NewFactory(sel, b.build)

	svc, err := marketdata.New(resolver, factory,
		cache.New(time.Duration(cfg.Cache.TTLSec)*time.Second, time.Duration(cfg.Cache.SweepSec)*time.Second),
		mockdata.New(),
		marketdata.WithLogger(logger),
		marketdata.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("market-data-service-ready",
		"source", "market-data",
		"mode", string(svc.Mode()),
		"options_provider", string(sel.Options),
		"quotes_provider", string(sel.Quotes),
	)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
		Factory:  factory,
		Service:  svc,
	}, nil
}

type builder struct {
	cfg    config.Config
	http   *httpx.Client
	logger *slog.Logger
}

// build constructs one adapter with its throttle.
func (b *builder) build(id provider.ID) (provider.Provider, error) {
	switch id {
	case provider.IDTheta:
		c := b.cfg.Theta
		p := theta.New(theta.Config{BaseURL: c.BaseURL, Verbose: b.cfg.MarketData.VerboseLogs}, b.http, theta.WithLogger(b.logger))
		return ratelimit.Wrap(p, c.MaxRPM, c.Burst), nil
	case provider.IDMassive:
		c := b.cfg.Massive
		if c.APIKey == "" {
			b.logger.Warn("massive api key not set; live calls will fail with auth errors", "source", "market-data")
		}
		client, err := massive.NewClient(c.APIKey,
			massive.WithBaseURL(c.BaseURL),
			massive.WithHTTPClient(b.http.HTTP),
			massive.WithHeader(http.Header{"User-Agent": []string{userAgent}}),
		)
		if err != nil {
			return nil, fmt.Errorf("massive client: %w", err)
		}
		p := massive.New(massive.Config{Verbose: b.cfg.MarketData.VerboseLogs}, client, b.logger)
		return ratelimit.Wrap(p, c.MaxRPM, c.Burst), nil
	case provider.IDEODHD:
		c := b.cfg.EODHD
		p := eodhd.New(eodhd.Config{BaseURL: c.BaseURL, APIKey: c.APIKey, Verbose: b.cfg.MarketData.VerboseLogs}, b.http, b.logger)
		return ratelimit.Wrap(p, c.MaxRPM, c.Burst), nil
	default:
		return nil, fmt.Errorf("%w: no adapter for %q", strategy.ErrInvalidSelection, id)
	}
}
