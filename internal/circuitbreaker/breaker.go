// Package circuitbreaker guards calculations against implausible jumps in live
// chain and market data, serving the last good data while tripped.
package circuitbreaker

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/metrics"
	"github.com/yourorg/epic-mining-calc/internal/model"
)

// ErrOpen is returned while the breaker blocks fresh data
var ErrOpen = errors.New("circuit breaker open: system protection engaged")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, fresh data rejected
	StateHalfOpen              // Testing if upstream has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Sample is one accepted pair of upstream readings
type Sample struct {
	Snapshot  model.BlockchainSnapshot `json:"snapshot"`
	Prices    model.MarketPrices       `json:"prices"`
	CheckedAt time.Time                `json:"checked_at"`
}

// Thresholds defines the limits that will trigger the circuit breaker
type Thresholds struct {
	// Maximum relative change of the native price between checks (0.5 for 50%)
	MaxPriceChange float64 `json:"max_price_change"`

	// Maximum relative change of any algorithm's network hashrate between checks
	MaxHashrateChange float64 `json:"max_hashrate_change"`
}

// CircuitBreaker compares each reading against the previous good one
type CircuitBreaker struct {
	thresholds Thresholds

	state    State
	lastTrip time.Time
	reason   string

	resetDelay time.Duration

	mu sync.RWMutex

	// last good sample per currency
	lastGood map[string]Sample

	successCount     int
	successThreshold int

	onTripCallback func(reason string, sample Sample)

	now func() time.Time
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	metrics.SetCircuitState(int(StateClosed))
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
		lastGood:         make(map[string]Sample),
		now:              time.Now,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of successful checks needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback function that is called when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string, sample Sample)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// Check evaluates a reading against the last good one for the same currency.
// While open it returns ErrOpen; a violation trips the circuit. The first
// reading after the reset delay becomes the new baseline, so a lasting step
// change does not hold the circuit open.
func (cb *CircuitBreaker) Check(snapshot model.BlockchainSnapshot, prices model.MarketPrices) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	rebaseline := false
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastTrip) <= cb.resetDelay {
			return fmt.Errorf("%w (%s)", ErrOpen, cb.reason)
		}
		cb.setState(StateHalfOpen)
		cb.successCount = 0
		rebaseline = true
		logrus.Info("Circuit breaker half-open: testing upstream recovery")
	}

	sample := Sample{Snapshot: snapshot, Prices: prices, CheckedAt: cb.now()}

	if prev, ok := cb.lastGood[prices.Currency]; ok && !rebaseline {
		if reason := cb.violation(prev, sample); reason != "" {
			cb.trip(reason, sample)
			return errors.New(reason)
		}
	}

	logrus.Debug("Circuit breaker checks passed")
	cb.lastGood[prices.Currency] = sample

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.successCount = 0
			logrus.Info("Circuit breaker closed: upstream has recovered")
		}
	}
	return nil
}

func (cb *CircuitBreaker) violation(prev, cur Sample) string {
	if cur.Snapshot.Height < prev.Snapshot.Height {
		return fmt.Sprintf("block height went backwards: %d < %d", cur.Snapshot.Height, prev.Snapshot.Height)
	}

	if change := relativeChange(prev.Prices.Native, cur.Prices.Native); change > cb.thresholds.MaxPriceChange {
		return fmt.Sprintf("price change too drastic: %.2f%% (threshold: %.2f%%)",
			change*100, cb.thresholds.MaxPriceChange*100)
	}

	for algo, before := range prev.Snapshot.NetworkHashrate {
		after, ok := cur.Snapshot.NetworkHashrate[algo]
		if !ok {
			continue
		}
		if change := relativeChange(before, after); change > cb.thresholds.MaxHashrateChange {
			return fmt.Sprintf("%s network hashrate change too drastic: %.2f%% (threshold: %.2f%%)",
				algo, change*100, cb.thresholds.MaxHashrateChange*100)
		}
	}
	return ""
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reason returns why the circuit last tripped
func (cb *CircuitBreaker) Reason() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.reason
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.successCount = 0
	cb.reason = ""
	logrus.Info("Circuit breaker manually reset to closed state")
}

// LastGood returns the most recent accepted sample for currency
func (cb *CircuitBreaker) LastGood(currency string) (Sample, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	s, ok := cb.lastGood[currency]
	return s, ok
}

// LastGoodCount returns the number of currencies with a fallback sample
func (cb *CircuitBreaker) LastGoodCount() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return len(cb.lastGood)
}

// trip must be called with the lock held
func (cb *CircuitBreaker) trip(reason string, sample Sample) {
	cb.setState(StateOpen)
	cb.lastTrip = cb.now()
	cb.reason = reason
	logrus.Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		go cb.onTripCallback(reason, sample)
	}
}

func (cb *CircuitBreaker) setState(s State) {
	cb.state = s
	metrics.SetCircuitState(int(s))
}

func relativeChange(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return math.Abs(after-before) / before
}
