// Package service orchestrates a profitability request: it parses the query,
// fetches live data, guards it and runs the calculation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/epic-mining-calc/internal/calculator"
	"github.com/yourorg/epic-mining-calc/internal/circuitbreaker"
	"github.com/yourorg/epic-mining-calc/internal/metrics"
	"github.com/yourorg/epic-mining-calc/internal/model"
	tracing "github.com/yourorg/epic-mining-calc/internal/otel"
	"github.com/yourorg/epic-mining-calc/internal/query"
	"github.com/yourorg/epic-mining-calc/internal/report"
	"github.com/yourorg/epic-mining-calc/internal/validation"
)

var (
	// ErrUpstream wraps failures of the market or blockchain providers
	ErrUpstream = errors.New("upstream data unavailable")

	// ErrUnavailable is returned when the circuit is open and no fallback exists
	ErrUnavailable = errors.New("live data rejected and no fallback available")
)

// Request is one profitability query with its optional hints
type Request struct {
	Query    string
	Hashrate uint64

	// Algorithm is used when the query text names none
	Algorithm string

	// PoolFee is used when the query text carries no "N%" token
	PoolFee *float64

	Currency    string
	Consumption *float64
	Energy      float64
	Days        int
	Name        string
}

// ProfitService produces profitability reports from live data
type ProfitService struct {
	market          MarketDataProvider
	chain           BlockchainDataProvider
	parser          *query.Parser
	breaker         *circuitbreaker.CircuitBreaker
	validationOpts  validation.ValidationOptions
	defaultCurrency string
	now             func() time.Time
}

// New creates a ProfitService backed by the given providers
func New(market MarketDataProvider, chain BlockchainDataProvider) *ProfitService {
	return &ProfitService{
		market:          market,
		chain:           chain,
		parser:          query.NewParser(nil),
		validationOpts:  validation.DefaultValidationOptions(),
		defaultCurrency: model.DefaultCurrency,
		now:             time.Now,
	}
}

// WithCircuitBreaker guards live data with cb
func (s *ProfitService) WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) *ProfitService {
	s.breaker = cb
	return s
}

// WithValidation sets the plausibility options applied to fetched data
func (s *ProfitService) WithValidation(opts validation.ValidationOptions) *ProfitService {
	s.validationOpts = opts
	return s
}

// WithDefaultCurrency sets the currency used when a request names none
func (s *ProfitService) WithDefaultCurrency(currency string) *ProfitService {
	if currency != "" {
		s.defaultCurrency = currency
	}
	return s
}

// WithParser replaces the query parser
func (s *ProfitService) WithParser(p *query.Parser) *ProfitService {
	s.parser = p
	return s
}

// Breaker returns the configured circuit breaker, if any
func (s *ProfitService) Breaker() *circuitbreaker.CircuitBreaker {
	return s.breaker
}

// Calculate answers a request with a profitability report. Fatal input and
// computation errors short-circuit; no partial report is returned.
func (s *ProfitService) Calculate(ctx context.Context, req Request) (report.Report, error) {
	ctx, span := tracing.Tracer().Start(ctx, "service.Calculate")
	defer span.End()

	rig, params, currency, err := s.rigFromRequest(req)
	if err != nil {
		tracing.RecordError(ctx, err)
		return report.Report{}, err
	}
	span.SetAttributes(
		attribute.String("algorithm", rig.Algorithm.String()),
		attribute.String("currency", currency),
	)

	snapshot, prices, err := s.fetch(ctx, currency)
	if err != nil {
		tracing.RecordError(ctx, err)
		metrics.ObserveReport(rig.Algorithm.String(), currency, 0, 0, err)
		return report.Report{}, err
	}

	res, err := calculator.Calculate(rig, snapshot, prices, params)
	metrics.ObserveReport(rig.Algorithm.String(), currency, res.YieldPerDay, res.Profit, err)
	if err != nil {
		tracing.RecordError(ctx, err)
		return report.Report{}, err
	}

	r := report.Assemble(rig, res)
	logrus.WithFields(logrus.Fields{
		"rig":          rig.Name,
		"algorithm":    rig.Algorithm,
		"hashrate":     rig.Hashrate,
		"height":       res.Height,
		"epic_per_day": r.EpicPerDay,
		"profit":       r.Profit,
		"currency":     r.Currency,
	}).Info("Report generated")
	return r, nil
}

func (s *ProfitService) rigFromRequest(req Request) (model.Rig, calculator.Params, string, error) {
	parsed := s.parser.Parse(req.Query, req.Hashrate)

	hashrate, err := parsed.RigHashrate()
	if err != nil {
		return model.Rig{}, calculator.Params{}, "", err
	}

	algorithm := string(parsed.Algorithm)
	if algorithm == "" {
		algorithm = req.Algorithm
	}

	rig, err := model.NewRig(req.Name, hashrate, algorithm, req.Consumption)
	if err != nil {
		return model.Rig{}, calculator.Params{}, "", err
	}

	params := calculator.Params{
		PoolFeePercent:        parsed.PoolFee,
		ElectricityCostPerKWh: req.Energy,
		HorizonDays:           req.Days,
	}
	if parsed.PoolFee == 0 && req.PoolFee != nil {
		params.PoolFeePercent = *req.PoolFee
	}
	if err := params.Validate(); err != nil {
		return model.Rig{}, calculator.Params{}, "", err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	return rig, params, currency, nil
}

// fetch loads both data sets concurrently, validates them and passes them
// through the circuit breaker
func (s *ProfitService) fetch(ctx context.Context, currency string) (model.BlockchainSnapshot, model.MarketPrices, error) {
	var (
		wg       sync.WaitGroup
		snapshot model.BlockchainSnapshot
		prices   model.MarketPrices
		chainErr error
		priceErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshot, chainErr = s.chain.LatestBlock(ctx)
	}()
	go func() {
		defer wg.Done()
		prices, priceErr = s.market.Prices(ctx, currency)
	}()
	wg.Wait()

	if err := errors.Join(chainErr, priceErr); err != nil {
		return s.fallback(currency, fmt.Errorf("%w: %w", ErrUpstream, err))
	}

	if err := validation.CheckPrices(prices, s.validationOpts); err != nil {
		return s.fallback(currency, fmt.Errorf("%w: %w", ErrUpstream, err))
	}
	if err := validation.CheckSnapshot(snapshot, s.validationOpts, s.now()); err != nil {
		return s.fallback(currency, fmt.Errorf("%w: %w", ErrUpstream, err))
	}

	if s.breaker != nil {
		if err := s.breaker.Check(snapshot, prices); err != nil {
			return s.fallback(currency, fmt.Errorf("%w: %w", ErrUnavailable, err))
		}
	}
	return snapshot, prices, nil
}

// fallback serves the breaker's last good sample for currency, or cause. A
// sample older than the freshness window is not served.
func (s *ProfitService) fallback(currency string, cause error) (model.BlockchainSnapshot, model.MarketPrices, error) {
	if s.breaker != nil {
		if sample, ok := s.breaker.LastGood(currency); ok {
			observed := sample.Snapshot.Timestamp
			if observed.IsZero() {
				observed = sample.CheckedAt
			}
			if age := s.now().Sub(observed); s.validationOpts.MaxBlockAge > 0 && age > s.validationOpts.MaxBlockAge {
				logrus.WithFields(logrus.Fields{
					"currency": currency,
					"height":   sample.Snapshot.Height,
					"age":      age.Truncate(time.Second).String(),
				}).WithError(cause).Warn("Last known good data is too old to serve")
				return model.BlockchainSnapshot{}, model.MarketPrices{}, cause
			}

			logrus.WithFields(logrus.Fields{
				"currency":   currency,
				"height":     sample.Snapshot.Height,
				"checked_at": sample.CheckedAt,
			}).WithError(cause).Warn("Using last known good data")
			return sample.Snapshot, sample.Prices, nil
		}
	}
	return model.BlockchainSnapshot{}, model.MarketPrices{}, cause
}
