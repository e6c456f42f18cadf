// Package model defines the core data structures consumed by the profitability calculator.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/epic-mining-calc/internal/types"
)

const (
	// DefaultRigName is used when a rig is created without a name
	DefaultRigName = "Default Rig"

	// DefaultBlockTime is the target block interval in seconds
	DefaultBlockTime = 60.0

	// DefaultCurrency is the base currency for prices
	DefaultCurrency = "USD"

	maxPowerWatts = 10_000_000
	maxHeight     = 100_000_000
	maxReward     = 16
)

// ConfigError reports an invalid configuration value
type ConfigError struct {
	Field    string
	Value    interface{}
	Accepted string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: accepted %s", e.Field, e.Value, e.Accepted)
}

// Rig is the mining hardware being evaluated.
// Hashrate is always in hashes/second.
type Rig struct {
	Name             string          `json:"name"`
	Hashrate         uint64          `json:"hashrate"`
	Algorithm        types.Algorithm `json:"algorithm"`
	PowerConsumption *float64        `json:"power_consumption,omitempty"`
}

// NewRig validates its inputs and returns a Rig. power may be nil when the
// draw is unknown.
func NewRig(name string, hashrate uint64, algorithm string, power *float64) (Rig, error) {
	algo, err := types.ParseAlgorithm(algorithm)
	if err != nil {
		return Rig{}, &ConfigError{Field: "rig.algorithm", Value: fmt.Sprintf("%q", algorithm), Accepted: "one of " + types.AcceptedAlgorithms()}
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultRigName
	}

	r := Rig{Name: name, Hashrate: hashrate, Algorithm: algo, PowerConsumption: power}
	return r, r.Validate()
}

// Validate checks the rig invariants
func (r Rig) Validate() error {
	if !r.Algorithm.Valid() {
		return &ConfigError{Field: "rig.algorithm", Value: fmt.Sprintf("%q", r.Algorithm), Accepted: "one of " + types.AcceptedAlgorithms()}
	}
	if r.PowerConsumption != nil {
		if w := *r.PowerConsumption; w <= 0 || w >= maxPowerWatts {
			return &ConfigError{Field: "rig.power_consumption", Value: w, Accepted: "0 < watts < 10000000"}
		}
	}
	return nil
}

// Power returns the power draw in watts and whether it is known
func (r Rig) Power() (float64, bool) {
	if r.PowerConsumption == nil {
		return 0, false
	}
	return *r.PowerConsumption, true
}

// BlockchainSnapshot is the latest chain state as reported by an explorer
type BlockchainSnapshot struct {
	Height uint64 `json:"height"`

	// NetworkHashrate as reported upstream; cuckoo is in gigahash-equivalent units
	NetworkHashrate map[types.Algorithm]float64 `json:"network_hashrate"`

	// BlockTime is the average block interval in seconds
	BlockTime float64 `json:"block_time"`

	// Algorithm that mined the latest block, if known
	Algorithm types.Algorithm `json:"algorithm,omitempty"`

	// Reward reported for the latest block, zero if not reported
	Reward float64 `json:"reward,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewBlockchainSnapshot validates and returns a snapshot. A zero blockTime
// defaults to DefaultBlockTime.
func NewBlockchainSnapshot(height uint64, hashrates map[types.Algorithm]float64, blockTime float64, timestamp time.Time) (BlockchainSnapshot, error) {
	if blockTime == 0 {
		blockTime = DefaultBlockTime
	}
	s := BlockchainSnapshot{
		Height:          height,
		NetworkHashrate: hashrates,
		BlockTime:       blockTime,
		Timestamp:       timestamp,
	}
	return s, s.Validate()
}

// Validate checks the snapshot invariants
func (s BlockchainSnapshot) Validate() error {
	if s.Height == 0 || s.Height >= maxHeight {
		return &ConfigError{Field: "blockchain.height", Value: s.Height, Accepted: "0 < height < 100000000"}
	}
	if s.BlockTime <= 0 {
		return &ConfigError{Field: "blockchain.block_time", Value: s.BlockTime, Accepted: "seconds > 0"}
	}
	if s.Reward != 0 && (s.Reward < 0 || s.Reward > maxReward) {
		return &ConfigError{Field: "blockchain.reward", Value: s.Reward, Accepted: "0 < reward <= 16"}
	}
	for algo, h := range s.NetworkHashrate {
		if !algo.Valid() {
			return &ConfigError{Field: "blockchain.network_hashrate", Value: fmt.Sprintf("%q", algo), Accepted: "one of " + types.AcceptedAlgorithms()}
		}
		if h < 0 {
			return &ConfigError{Field: "blockchain.network_hashrate." + string(algo), Value: h, Accepted: "hashrate >= 0"}
		}
	}
	return nil
}

// MarketPrices holds the native coin and reference asset prices in Currency
type MarketPrices struct {
	Currency  string  `json:"currency"`
	Native    float64 `json:"native"`
	Reference float64 `json:"reference"`
}

// NewMarketPrices validates and returns a price pair. An empty currency
// defaults to DefaultCurrency.
func NewMarketPrices(currency string, native, reference float64) (MarketPrices, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	p := MarketPrices{Currency: currency, Native: native, Reference: reference}
	return p, p.Validate()
}

// Validate checks the price invariants
func (p MarketPrices) Validate() error {
	if p.Currency == "" {
		return &ConfigError{Field: "prices.currency", Value: `""`, Accepted: "a currency code"}
	}
	if p.Native <= 0 {
		return &ConfigError{Field: "prices.native", Value: p.Native, Accepted: "price > 0"}
	}
	if p.Reference <= 0 {
		return &ConfigError{Field: "prices.reference", Value: p.Reference, Accepted: "price > 0"}
	}
	return nil
}
