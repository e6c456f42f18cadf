package fetch

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/ratelimit"

	"github.com/yourorg/epic-mining-calc/internal/metrics"
	"github.com/yourorg/epic-mining-calc/internal/model"
	tracing "github.com/yourorg/epic-mining-calc/internal/otel"
	"github.com/yourorg/epic-mining-calc/internal/types"
)

const (
	blockchainProvider = "explorer"
	latestBlockKey     = "block:latest"
)

// ErrNoBlocks is returned when the explorer lists no blocks
var ErrNoBlocks = errors.New("explorer returned no blocks")

// BlockchainClient reads the latest block from the explorer API
type BlockchainClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cache      *Cache
}

type explorerBlock struct {
	Height          uint64             `json:"height"`
	Algo            string             `json:"algo"`
	Reward          float64            `json:"reward"`
	AvgTime         float64            `json:"avg_time"`
	Timestamp       float64            `json:"timestamp"`
	NetworkHashrate map[string]float64 `json:"network_hashrate"`
}

// NewBlockchainClient creates an explorer client for baseURL
func NewBlockchainClient(baseURL string, timeout time.Duration, limiter ratelimit.Limiter, cache *Cache) *BlockchainClient {
	return &BlockchainClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newRetryClient(timeout),
		limiter:    limiter,
		cache:      cache,
	}
}

// LatestBlock returns a snapshot of the most recent block
func (c *BlockchainClient) LatestBlock(ctx context.Context) (_ model.BlockchainSnapshot, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "fetch.LatestBlock")
	defer span.End()

	var cached model.BlockchainSnapshot
	if c.cache.Get(latestBlockKey, &cached) {
		metrics.ObserveProviderCache(blockchainProvider, true)
		return cached, nil
	}
	metrics.ObserveProviderCache(blockchainProvider, false)

	started := time.Now()
	defer func() {
		metrics.ObserveProviderFetch(blockchainProvider, err, started)
		tracing.RecordError(ctx, err)
	}()

	var response struct {
		Results []explorerBlock `json:"results"`
	}
	if err := getJSON(ctx, c.httpClient, c.limiter, c.baseURL+"/explorer/blocks/", blockchainProvider, &response); err != nil {
		return model.BlockchainSnapshot{}, err
	}
	if len(response.Results) == 0 {
		return model.BlockchainSnapshot{}, ErrNoBlocks
	}

	snapshot, err := toSnapshot(response.Results[0])
	if err != nil {
		return model.BlockchainSnapshot{}, err
	}
	span.SetAttributes(attribute.Int64("height", int64(snapshot.Height)))

	logrus.WithFields(logrus.Fields{
		"height":    snapshot.Height,
		"algorithm": snapshot.Algorithm,
		"block_age": time.Since(snapshot.Timestamp).Truncate(time.Second).String(),
	}).Debug("Fetched latest block")

	c.cache.Set(latestBlockKey, snapshot)
	return snapshot, nil
}

func toSnapshot(b explorerBlock) (model.BlockchainSnapshot, error) {
	rates := make(map[types.Algorithm]float64, len(b.NetworkHashrate))
	for name, h := range b.NetworkHashrate {
		algo, err := types.ParseAlgorithm(name)
		if err != nil {
			// the explorer may list algorithms we do not price
			continue
		}
		rates[algo] = h
	}

	var ts time.Time
	if b.Timestamp > 0 {
		sec, frac := math.Modf(b.Timestamp)
		ts = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}

	snapshot, err := model.NewBlockchainSnapshot(b.Height, rates, b.AvgTime, ts)
	if err != nil {
		return model.BlockchainSnapshot{}, err
	}
	if algo, err := types.ParseAlgorithm(b.Algo); err == nil {
		snapshot.Algorithm = algo
	}
	snapshot.Reward = b.Reward
	return snapshot, snapshot.Validate()
}
