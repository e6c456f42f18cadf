package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "generated_total",
		Help:      "Count of profitability report attempts.",
	}, []string{"algorithm", "status"})
	reportLastProfit = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "last_profit",
		Help:      "Daily profit of the last report, in its currency.",
	}, []string{"algorithm", "currency"})
	reportLastYield = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "report",
		Name:      "last_yield_coins",
		Help:      "Daily coin yield of the last report.",
	}, []string{"algorithm"})
	circuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
	})
)

func ObserveReport(algorithm, currency string, yield, profit float64, err error) {
	if err != nil {
		reportsTotal.WithLabelValues(algorithm, "error").Inc()
		return
	}
	reportsTotal.WithLabelValues(algorithm, "success").Inc()
	reportLastProfit.WithLabelValues(algorithm, currency).Set(profit)
	reportLastYield.WithLabelValues(algorithm).Set(yield)
}

func SetCircuitState(state int) {
	circuitState.Set(float64(state))
}
