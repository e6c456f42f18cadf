// Package report turns calculator results into the published report shape.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yourorg/epic-mining-calc/internal/calculator"
	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/units"
)

// CoinSymbol is the ticker of the mined coin
const CoinSymbol = "EPIC"

// Report is the published profitability report. Coin amounts are rounded to
// 8 decimals and time figures to 1 to 3 decimals; currency values are not rounded.
type Report struct {
	Rig      model.Rig `json:"rig"`
	Currency string    `json:"currency"`

	EpicPerDay    float64 `json:"epic_per_day"`
	BlocksPerDay  float64 `json:"blocks_per_day"`
	HoursForBlock float64 `json:"hours_for_block"`
	DaysForBlock  float64 `json:"days_for_block"`
	BlockReward   float64 `json:"block_reward"`

	Costs      float64 `json:"costs"`
	CostPool   float64 `json:"cost_pool"`
	CostEnergy float64 `json:"cost_energy"`
	Profit     float64 `json:"profit"`
	YieldValue float64 `json:"yield_value"`

	// Days is the horizon YieldValue covers
	Days int `json:"days"`

	Height              uint64 `json:"height"`
	RewardTierExpiresAt uint64 `json:"reward_tier_expires_at"`
}

// Assemble builds a report from a rig and its calculation result
func Assemble(rig model.Rig, res calculator.Result) Report {
	return Report{
		Rig:                 rig,
		Currency:            res.Currency,
		EpicPerDay:          round(res.YieldPerDay, 8),
		BlocksPerDay:        round(res.BlocksPerDay, 3),
		HoursForBlock:       round(res.HoursPerBlock, 1),
		DaysForBlock:        round(res.HoursPerBlock/24, 1),
		BlockReward:         res.Tier.MinerNet,
		Costs:               res.TotalCost,
		CostPool:            round(res.PoolCost, 8),
		CostEnergy:          res.EnergyCost,
		Profit:              res.Profit,
		YieldValue:          res.Income,
		Days:                res.HorizonDays,
		Height:              res.Height,
		RewardTierExpiresAt: res.Tier.ExpiresAt,
	}
}

// Formatted renders a human readable summary. It is display only.
func (r Report) Formatted() string {
	hashrate, label := units.FormatForAlgorithm(float64(r.Rig.Hashrate), r.Rig.Algorithm)

	var b strings.Builder
	fmt.Fprintf(&b, "REPORT FOR '%s' | PoW: '%s'\n", r.Rig.Name, strings.ToUpper(string(r.Rig.Algorithm)))
	fmt.Fprintf(&b, "HASHRATE: %s %s\n", display(hashrate, 3), label)
	fmt.Fprintf(&b, "24H YIELD: %s %s | %s %s\n", strconv.FormatFloat(r.EpicPerDay, 'f', -1, 64), CoinSymbol, display(r.dailyValue(), 3), r.Currency)
	if r.Days > 1 {
		fmt.Fprintf(&b, "%dD YIELD: %s %s\n", r.Days, display(r.YieldValue, 3), r.Currency)
	}
	fmt.Fprintf(&b, "24H COSTS: %s %s\n", display(r.Costs, 3), r.Currency)
	fmt.Fprintf(&b, "24H PROFIT: %s %s\n", display(r.Profit, 3), r.Currency)
	fmt.Fprintf(&b, "BLOCK EVERY: %s hours (%s days)", display(r.HoursForBlock, 1), display(r.DaysForBlock, 1))
	return b.String()
}

// dailyValue is YieldValue for a single day
func (r Report) dailyValue() float64 {
	if r.Days > 1 {
		return r.YieldValue / float64(r.Days)
	}
	return r.YieldValue
}

// display rounds before grouping; CommafWithDigits alone truncates.
func display(v float64, places int) string {
	return humanize.CommafWithDigits(round(v, places), places)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
