// Package main is the entry point for the EPIC mining profitability API: it
// answers rig queries with daily yield, cost and profit estimates built from
// live explorer and market data.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/circuitbreaker"
	"github.com/yourorg/epic-mining-calc/internal/config"
	"github.com/yourorg/epic-mining-calc/internal/fetch"
	tracing "github.com/yourorg/epic-mining-calc/internal/otel"
	"github.com/yourorg/epic-mining-calc/internal/security"
	"github.com/yourorg/epic-mining-calc/internal/service"
	"github.com/yourorg/epic-mining-calc/internal/validation"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracer := tracing.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	cache, err := fetch.NewCache(context.Background(), cfg.CacheTTL)
	if err != nil {
		logrus.Fatalf("Failed to create response cache: %v", err)
	}
	defer cache.Close()

	svc := newProfitService(cfg, cache)

	var signer *security.ReportSigner
	if cfg.SignReports {
		signer, err = security.NewReportSigner(cfg.SigningKey)
		if err != nil {
			logrus.Fatalf("Failed to initialize report signing: %v", err)
		}
		logrus.WithField("public_key", signer.PublicKey()).Info("Report signing enabled")
	}

	NewServer(cfg, svc, signer).Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// newProfitService wires the live data clients, plausibility options and
// circuit breaker into a ProfitService
func newProfitService(cfg config.Config, cache *fetch.Cache) *service.ProfitService {
	limiter := fetch.NewLimiter(cfg.OutboundRPS)
	market := fetch.NewMarketDataClient(cfg.MarketDataURL, cfg.RequestTimeout, limiter, cache)
	chain := fetch.NewBlockchainClient(cfg.ExplorerURL, cfg.RequestTimeout, limiter, cache)

	opts := validation.DefaultValidationOptions()
	opts.MaxBlockAge = cfg.MaxBlockAge

	svc := service.New(market, chain).
		WithValidation(opts).
		WithDefaultCurrency(cfg.DefaultCurrency)

	if cfg.EnableCircuitBreaker {
		cb := circuitbreaker.New(circuitbreaker.Thresholds{
			MaxPriceChange:    cfg.MaxPriceChange,
			MaxHashrateChange: cfg.MaxHashrateChange,
		}).
			WithResetDelay(cfg.CircuitResetDelay).
			WithTripCallback(func(reason string, sample circuitbreaker.Sample) {
				logrus.WithFields(logrus.Fields{
					"reason":   reason,
					"height":   sample.Snapshot.Height,
					"currency": sample.Prices.Currency,
					"price":    sample.Prices.Native,
				}).Warn("Circuit breaker tripped")
			})
		svc.WithCircuitBreaker(cb)
	}

	logrus.WithFields(logrus.Fields{
		"market_data_url":  cfg.MarketDataURL,
		"explorer_url":     cfg.ExplorerURL,
		"default_currency": cfg.DefaultCurrency,
		"timeout":          cfg.RequestTimeout,
		"cache_ttl":        cfg.CacheTTL,
		"circuit_breaker":  cfg.EnableCircuitBreaker,
	}).Info("Profit service initialized")

	return svc
}
