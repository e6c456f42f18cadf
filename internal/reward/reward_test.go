package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		height    uint64
		wantGross float64
		wantNet   float64
		wantErr   bool
	}{
		{name: "first tier start", height: 698402, wantGross: 8.0, wantNet: 7.4672},
		{name: "first tier end", height: 1157760, wantGross: 8.0, wantNet: 7.4672},
		{name: "second tier start", height: 1157761, wantGross: 4.0, wantNet: 3.7336},
		{name: "third tier", height: 1500000, wantGross: 4.0, wantNet: 3.7780},
		{name: "fourth tier start", height: 1749601, wantGross: 4.0, wantNet: 3.8224},
		{name: "fourth tier mid", height: 2000000, wantGross: 4.0, wantNet: 3.8224},
		{name: "last tier end", height: 2275200, wantGross: 2.0, wantNet: 1.9112},
		{name: "before schedule", height: 698401, wantErr: true},
		{name: "after schedule", height: 2275201, wantErr: true},
		{name: "zero", height: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.height)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownTier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGross, got.Gross)
			assert.Equal(t, tt.wantNet, got.MinerNet)
		})
	}
}

func TestTiers_ContiguousAndConsistent(t *testing.T) {
	tiers := Tiers()
	require.Len(t, tiers, 5)

	for i, tier := range tiers {
		assert.InDelta(t, tier.Gross, tier.FounderShare+tier.MinerNet, 1e-9)
		assert.Less(t, tier.Start, tier.ExpiresAt)
		if i > 0 {
			assert.Equal(t, tiers[i-1].ExpiresAt+1, tier.Start)
		}
	}

	tiers[0].MinerNet = 0
	again, err := Resolve(698402)
	require.NoError(t, err)
	assert.Equal(t, 7.4672, again.MinerNet)
}
