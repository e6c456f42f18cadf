package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "epiccalc"

var (
	serverRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "requests_total",
		Help:      "Count of handled HTTP requests.",
	}, []string{"route", "code"})
	serverRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "request_duration_seconds",
		Help:      "Duration of handled HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})
	serverRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "rate_limited_total",
		Help:      "Count of requests rejected by the rate limiter.",
	})
)

func ObserveRequest(route string, code int, started time.Time) {
	c := strconv.Itoa(code)
	serverRequestsTotal.WithLabelValues(route, c).Inc()
	serverRequestDuration.WithLabelValues(route, c).Observe(time.Since(started).Seconds())
}

func ObserveRateLimited() {
	serverRateLimited.Inc()
}
