package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveProviderFetch(t *testing.T) {
	before := testutil.ToFloat64(providerFetchTotal.WithLabelValues("test-provider", "error"))

	ObserveProviderFetch("test-provider", errors.New("boom"), time.Now())
	ObserveProviderFetch("test-provider", nil, time.Now())

	assert.Equal(t, before+1, testutil.ToFloat64(providerFetchTotal.WithLabelValues("test-provider", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(providerFetchTotal.WithLabelValues("test-provider", "success")))
}

func TestObserveReport(t *testing.T) {
	ObserveReport("randomx", "EUR", 1.5, -0.25, nil)
	ObserveReport("randomx", "EUR", 9, 9, errors.New("no tier"))

	assert.Equal(t, -0.25, testutil.ToFloat64(reportLastProfit.WithLabelValues("randomx", "EUR")))
	assert.Equal(t, 1.5, testutil.ToFloat64(reportLastYield.WithLabelValues("randomx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reportsTotal.WithLabelValues("randomx", "error")))
}

func TestObserveRequest(t *testing.T) {
	ObserveRequest("/calculate", http.StatusBadRequest, time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(serverRequestsTotal.WithLabelValues("/calculate", "400")))
}

func TestSetCircuitState(t *testing.T) {
	SetCircuitState(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitState))
	SetCircuitState(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitState))
}
