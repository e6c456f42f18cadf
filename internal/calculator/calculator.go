// Package calculator derives mining yield, costs and profit for a single rig.
// All arithmetic is done at full precision; rounding belongs to the report.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/reward"
)

const secondsPerDay = 86400.0

var (
	// ErrZeroNetworkHashrate is returned when the snapshot has no usable
	// network hashrate for the rig's algorithm
	ErrZeroNetworkHashrate = errors.New("network hashrate is zero or missing")

	// ErrNoBlocks is returned when the rig is expected to find no blocks,
	// leaving the time per block undefined
	ErrNoBlocks = errors.New("rig produces no blocks")
)

// Params holds the operator-supplied cost inputs
type Params struct {
	// PoolFeePercent is the pool's cut, 0 to 100
	PoolFeePercent float64 `json:"pool_fee"`

	// ElectricityCostPerKWh in the prices' currency; zero means not configured
	ElectricityCostPerKWh float64 `json:"electricity_cost"`

	// HorizonDays multiplies the income figure, defaults to 1
	HorizonDays int `json:"days"`
}

// Validate checks the cost inputs
func (p Params) Validate() error {
	if p.PoolFeePercent < 0 || p.PoolFeePercent > 100 || math.IsNaN(p.PoolFeePercent) {
		return &model.ConfigError{Field: "pool_fee", Value: p.PoolFeePercent, Accepted: "0 <= percent <= 100"}
	}
	if p.ElectricityCostPerKWh < 0 || math.IsNaN(p.ElectricityCostPerKWh) {
		return &model.ConfigError{Field: "electricity_cost", Value: p.ElectricityCostPerKWh, Accepted: "price per kWh >= 0"}
	}
	if p.HorizonDays < 0 {
		return &model.ConfigError{Field: "days", Value: p.HorizonDays, Accepted: "days >= 1"}
	}
	return nil
}

// Result is the unrounded outcome of a calculation
type Result struct {
	Height          uint64      `json:"height"`
	NetworkHashrate float64     `json:"network_hashrate"`
	Tier            reward.Tier `json:"tier"`

	BlocksPerDay  float64 `json:"blocks_per_day"`
	YieldPerDay   float64 `json:"yield_per_day"`
	HoursPerBlock float64 `json:"hours_per_block"`

	// PoolCost is in coin, EnergyCost, TotalCost, Profit and Income in currency
	PoolCost   float64 `json:"pool_cost"`
	EnergyCost float64 `json:"energy_cost"`
	TotalCost  float64 `json:"total_cost"`
	Profit     float64 `json:"profit"`
	Income     float64 `json:"income"`

	// HorizonDays is the number of days Income covers
	HorizonDays int `json:"horizon_days"`

	Currency string `json:"currency"`
}

// Calculate computes expected daily yield and profitability. It performs no
// I/O and is safe for concurrent use.
func Calculate(rig model.Rig, snapshot model.BlockchainSnapshot, prices model.MarketPrices, params Params) (Result, error) {
	if err := rig.Validate(); err != nil {
		return Result{}, err
	}
	if err := snapshot.Validate(); err != nil {
		return Result{}, err
	}
	if err := prices.Validate(); err != nil {
		return Result{}, err
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	algo, _ := rig.Algorithm.Config()

	network := snapshot.NetworkHashrate[rig.Algorithm] * algo.NetworkScale
	if network <= 0 || math.IsNaN(network) || math.IsInf(network, 0) {
		return Result{}, fmt.Errorf("%w for %s", ErrZeroNetworkHashrate, rig.Algorithm)
	}

	tier, err := reward.Resolve(snapshot.Height)
	if err != nil {
		return Result{}, err
	}

	share := float64(rig.Hashrate) / network
	algoBlocksPerDay := (secondsPerDay / snapshot.BlockTime) * algo.BlockShare
	blocksPerDay := share * algoBlocksPerDay
	if blocksPerDay <= 0 {
		return Result{}, fmt.Errorf("%w: hashrate %d", ErrNoBlocks, rig.Hashrate)
	}
	yield := blocksPerDay * tier.MinerNet

	poolCost := yield * (params.PoolFeePercent / 100)

	var energyCost float64
	if watts, ok := rig.Power(); ok && params.ElectricityCostPerKWh > 0 {
		activeHours := 24 * algo.BlockShare
		energyCost = (watts / 1000) * params.ElectricityCostPerKWh * activeHours
	}

	days := params.HorizonDays
	if days == 0 {
		days = 1
	}

	return Result{
		Height:          snapshot.Height,
		NetworkHashrate: network,
		Tier:            tier,
		BlocksPerDay:    blocksPerDay,
		YieldPerDay:     yield,
		HoursPerBlock:   24 / blocksPerDay,
		PoolCost:        poolCost,
		EnergyCost:      energyCost,
		TotalCost:       poolCost*prices.Native + energyCost,
		Profit:          (yield-poolCost)*prices.Native - energyCost,
		Income:          yield * prices.Native * float64(days),
		HorizonDays:     days,
		Currency:        prices.Currency,
	}, nil
}
