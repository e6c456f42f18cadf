package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/ratelimit"

	"github.com/yourorg/epic-mining-calc/internal/metrics"
	"github.com/yourorg/epic-mining-calc/internal/model"
	tracing "github.com/yourorg/epic-mining-calc/internal/otel"
)

const (
	marketProvider = "market"

	nativeCoinID    = "epic-cash"
	referenceCoinID = "bitcoin"
)

// MarketDataClient fetches native and reference coin prices from a
// CoinGecko-compatible simple price API
type MarketDataClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cache      *Cache
}

// NewMarketDataClient creates a market data client for baseURL
func NewMarketDataClient(baseURL string, timeout time.Duration, limiter ratelimit.Limiter, cache *Cache) *MarketDataClient {
	return &MarketDataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newRetryClient(timeout),
		limiter:    limiter,
		cache:      cache,
	}
}

// Prices returns the native and reference prices in currency
func (c *MarketDataClient) Prices(ctx context.Context, currency string) (_ model.MarketPrices, err error) {
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = model.DefaultCurrency
	}

	ctx, span := tracing.Tracer().Start(ctx, "fetch.Prices")
	span.SetAttributes(attribute.String("currency", currency))
	defer span.End()

	cacheKey := "prices:" + currency
	var cached model.MarketPrices
	if c.cache.Get(cacheKey, &cached) {
		metrics.ObserveProviderCache(marketProvider, true)
		return cached, nil
	}
	metrics.ObserveProviderCache(marketProvider, false)

	started := time.Now()
	defer func() {
		metrics.ObserveProviderFetch(marketProvider, err, started)
		tracing.RecordError(ctx, err)
	}()

	vs := strings.ToLower(currency)
	q := url.Values{}
	q.Set("ids", nativeCoinID+","+referenceCoinID)
	q.Set("vs_currencies", vs)

	var response map[string]map[string]float64
	if err := getJSON(ctx, c.httpClient, c.limiter, c.baseURL+"/simple/price?"+q.Encode(), marketProvider, &response); err != nil {
		return model.MarketPrices{}, err
	}

	native, ok := response[nativeCoinID][vs]
	if !ok {
		return model.MarketPrices{}, fmt.Errorf("no %s price in %s", nativeCoinID, currency)
	}
	reference, ok := response[referenceCoinID][vs]
	if !ok {
		return model.MarketPrices{}, fmt.Errorf("no %s price in %s", referenceCoinID, currency)
	}

	prices, err := model.NewMarketPrices(currency, native, reference)
	if err != nil {
		return model.MarketPrices{}, err
	}

	logrus.WithFields(logrus.Fields{
		"currency":  prices.Currency,
		"native":    prices.Native,
		"reference": prices.Reference,
	}).Debug("Fetched market prices")

	c.cache.Set(cacheKey, prices)
	return prices, nil
}
