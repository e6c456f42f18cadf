// Package reward resolves the block reward schedule in effect at a given height.
package reward

import (
	"errors"
	"fmt"
)

// ErrUnknownTier is returned for heights outside every known tier
var ErrUnknownTier = errors.New("no reward tier for height")

// Tier is one step of the halving schedule. Start and ExpiresAt are both inclusive.
type Tier struct {
	Start        uint64  `json:"start"`
	ExpiresAt    uint64  `json:"expires_at"`
	Gross        float64 `json:"gross"`
	FounderShare float64 `json:"founder_share"`
	MinerNet     float64 `json:"miner_net"`
}

var schedule = []Tier{
	{Start: 698402, ExpiresAt: 1157760, Gross: 8.0, FounderShare: 0.5328, MinerNet: 7.4672},
	{Start: 1157761, ExpiresAt: 1224000, Gross: 4.0, FounderShare: 0.2664, MinerNet: 3.7336},
	{Start: 1224001, ExpiresAt: 1749600, Gross: 4.0, FounderShare: 0.2220, MinerNet: 3.7780},
	{Start: 1749601, ExpiresAt: 2023200, Gross: 4.0, FounderShare: 0.1776, MinerNet: 3.8224},
	{Start: 2023201, ExpiresAt: 2275200, Gross: 2.0, FounderShare: 0.0888, MinerNet: 1.9112},
}

// Tiers returns a copy of the schedule, ordered by height
func Tiers() []Tier {
	out := make([]Tier, len(schedule))
	copy(out, schedule)
	return out
}

// Resolve returns the tier containing height
func Resolve(height uint64) (Tier, error) {
	for _, t := range schedule {
		if height >= t.Start && height <= t.ExpiresAt {
			return t, nil
		}
	}
	return Tier{}, fmt.Errorf("%w %d", ErrUnknownTier, height)
}
