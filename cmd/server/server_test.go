package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/epic-mining-calc/internal/calculator"
	"github.com/yourorg/epic-mining-calc/internal/circuitbreaker"
	"github.com/yourorg/epic-mining-calc/internal/config"
	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/query"
	"github.com/yourorg/epic-mining-calc/internal/report"
	"github.com/yourorg/epic-mining-calc/internal/reward"
	"github.com/yourorg/epic-mining-calc/internal/security"
	"github.com/yourorg/epic-mining-calc/internal/service"
	"github.com/yourorg/epic-mining-calc/internal/types"
)

type stubMarket struct {
	native float64
	err    error
}

func (m stubMarket) Prices(_ context.Context, currency string) (model.MarketPrices, error) {
	if m.err != nil {
		return model.MarketPrices{}, m.err
	}
	return model.MarketPrices{Currency: currency, Native: m.native, Reference: 60000}, nil
}

type stubChain struct {
	height uint64
	err    error
}

func (c stubChain) LatestBlock(context.Context) (model.BlockchainSnapshot, error) {
	if c.err != nil {
		return model.BlockchainSnapshot{}, c.err
	}
	return model.BlockchainSnapshot{
		Height:    c.height,
		BlockTime: 60,
		Timestamp: time.Now().Add(-time.Minute),
		NetworkHashrate: map[types.Algorithm]float64{
			types.AlgorithmCuckoo:  2.5e9,
			types.AlgorithmProgPow: 1e12,
			types.AlgorithmRandomX: 5e6,
		},
	}, nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.RateLimitRPS = 0
	cfg.RequestTimeout = time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, market stubMarket, chain stubChain, signer *security.ReportSigner) *Server {
	t.Helper()
	svc := service.New(market, chain)
	if cfg.EnableCircuitBreaker {
		svc.WithCircuitBreaker(circuitbreaker.New(circuitbreaker.Thresholds{
			MaxPriceChange:    cfg.MaxPriceChange,
			MaxHashrateChange: cfg.MaxHashrateChange,
		}))
	}
	return NewServer(cfg, svc, signer)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleCalculate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		market   stubMarket
		chain    stubChain
		wantCode int
		check    func(t *testing.T, body []byte)
	}{
		{
			name:     "text query",
			body:     `{"query":"1 GH cuckoo 2%","consumption":1000,"energy":0.1,"name":"rig-1"}`,
			market:   stubMarket{native: 0.05},
			chain:    stubChain{height: 2_000_000},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var rep report.Report
				require.NoError(t, json.Unmarshal(body, &rep))
				assert.Equal(t, "rig-1", rep.Rig.Name)
				assert.Equal(t, types.AlgorithmCuckoo, rep.Rig.Algorithm)
				assert.Equal(t, 8.8e-7, rep.EpicPerDay)
				assert.Equal(t, "USD", rep.Currency)
				assert.Equal(t, uint64(2_023_200), rep.RewardTierExpiresAt)
			},
		},
		{
			name:     "numeric query with hints",
			body:     `{"query":5000,"algorithm":"randomx","currency":"eur"}`,
			market:   stubMarket{native: 0.04},
			chain:    stubChain{height: 2_000_000},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var rep report.Report
				require.NoError(t, json.Unmarshal(body, &rep))
				assert.Equal(t, uint64(5000), rep.Rig.Hashrate)
				assert.Equal(t, types.AlgorithmRandomX, rep.Rig.Algorithm)
				assert.Equal(t, "EUR", rep.Currency)
				assert.Equal(t, model.DefaultRigName, rep.Rig.Name)
			},
		},
		{
			name:     "malformed body",
			body:     `{"query":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no hashrate",
			body:     `{"query":"cuckoo"}`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "error", resp.Status)
				assert.Contains(t, resp.Error, "hashrate")
				assert.NotEmpty(t, resp.RequestID)
			},
		},
		{
			name:     "hashrate beyond range",
			body:     `{"query":"99999999999 GH cuckoo"}`,
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Contains(t, resp.Error, "rig.hashrate")
			},
		},
		{
			name:     "height past the schedule",
			body:     `{"query":"1 GH cuckoo"}`,
			market:   stubMarket{native: 0.05},
			chain:    stubChain{height: 3_000_000},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "explorer down",
			body:     `{"query":"1 GH cuckoo"}`,
			market:   stubMarket{native: 0.05},
			chain:    stubChain{err: errors.New("connection refused")},
			wantCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.EnableCircuitBreaker = false
			srv := newTestServer(t, cfg, tt.market, tt.chain, nil)

			rec := post(t, srv.Handler(), tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}

func TestHandleCalculate_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, testConfig(), stubMarket{native: 0.05}, stubChain{height: 2_000_000}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calculate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCalculate_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg, stubMarket{native: 0.05}, stubChain{height: 2_000_000}, nil)

	body := `{"query":"1 GH cuckoo"}`
	assert.Equal(t, http.StatusOK, post(t, srv.Handler(), body).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, srv.Handler(), body).Code)
}

func TestHandleCalculate_Signed(t *testing.T) {
	signer, err := security.NewReportSigner("")
	require.NoError(t, err)
	srv := newTestServer(t, testConfig(), stubMarket{native: 0.05}, stubChain{height: 2_000_000}, signer)

	rec := post(t, srv.Handler(), `{"query":"1 GH cuckoo"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var signed security.SignedReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	assert.Equal(t, signer.PublicKey(), signed.PublicKey)
	require.NoError(t, security.Verify(signed))

	var rep report.Report
	require.NoError(t, json.Unmarshal(signed.Payload, &rep))
	assert.Equal(t, uint64(2_000_000), rep.Height)
}

func TestHandleHealthAndStatus(t *testing.T) {
	srv := newTestServer(t, testConfig(), stubMarket{native: 0.05}, stubChain{height: 2_000_000}, nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)

	require.Equal(t, http.StatusOK, post(t, h, `{"query":"1 GH cuckoo"}`).Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "operational", status["status"])
	assert.Equal(t, "closed", status["circuit_state"])
	assert.EqualValues(t, 2_000_000, status["last_block_height"])
	assert.NotEmpty(t, status["last_block_age"])
}

func TestHandleCircuit(t *testing.T) {
	srv := newTestServer(t, testConfig(), stubMarket{native: 0.05}, stubChain{height: 2_000_000}, nil)
	h := srv.Handler()
	require.Equal(t, http.StatusOK, post(t, h, `{"query":"1 GH cuckoo"}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/circuit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_good_count":1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/circuit?action=reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Circuit breaker reset")
}

func TestHandleCircuit_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCircuitBreaker = false
	srv := newTestServer(t, cfg, stubMarket{native: 0.05}, stubChain{height: 2_000_000}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/circuit", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{query.ErrNoHashrate, http.StatusBadRequest},
		{&model.ConfigError{Field: "pool_fee", Value: 150, Accepted: "0 <= percent <= 100"}, http.StatusBadRequest},
		{fmt.Errorf("resolve: %w", reward.ErrUnknownTier), http.StatusUnprocessableEntity},
		{calculator.ErrZeroNetworkHashrate, http.StatusUnprocessableEntity},
		{calculator.ErrNoBlocks, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", service.ErrUpstream, &model.ConfigError{Field: "blockchain.height"}), http.StatusBadGateway},
		{service.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
