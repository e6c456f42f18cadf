// Package units converts hashrate magnitudes between unit tags and base hashes per second.
package units

import (
	"strings"

	"github.com/yourorg/epic-mining-calc/internal/types"
)

// Unit is a hashrate unit tag
type Unit string

const (
	Hash     Unit = "hash"
	KiloHash Unit = "kilohash"
	MegaHash Unit = "megahash"
	GigaHash Unit = "gigahash"
)

type unitSpec struct {
	factor float64
	label  string
	tokens []string
}

var unitSpecs = map[Unit]unitSpec{
	Hash:     {factor: 1, label: "H/s", tokens: []string{"h", "H"}},
	KiloHash: {factor: 1e3, label: "KH/s", tokens: []string{"kh", "Kh", "KH"}},
	MegaHash: {factor: 1e6, label: "MH/s", tokens: []string{"mh", "Mh", "MH"}},
	GigaHash: {factor: 1e9, label: "GH/s", tokens: []string{"gh", "Gh", "GH"}},
}

// Ordered returns the unit tags from smallest to largest
func Ordered() []Unit {
	return []Unit{Hash, KiloHash, MegaHash, GigaHash}
}

func (u Unit) spec() unitSpec {
	if s, ok := unitSpecs[u]; ok {
		return s
	}
	return unitSpecs[Hash]
}

// Factor returns the multiplier to hashes/second. Unknown tags fall back to 1.
func (u Unit) Factor() float64 {
	return u.spec().factor
}

// Label returns the display label, "H/s" for unknown tags
func (u Unit) Label() string {
	return u.spec().label
}

// Normalize scales magnitude to hashes/second and returns the canonical label
// of the unit it was expressed in.
func Normalize(magnitude float64, u Unit) (float64, string) {
	s := u.spec()
	return magnitude * s.factor, s.label
}

// Denormalize is the inverse of Normalize
func Denormalize(hashrate float64, u Unit) float64 {
	return hashrate / u.spec().factor
}

// ParseUnit matches a single token against the unit tables. A trailing "/s"
// is accepted ("GH/s").
func ParseUnit(token string) (Unit, bool) {
	token = strings.TrimSuffix(token, "/s")
	var (
		found Unit
		ok    bool
	)
	for _, u := range Ordered() {
		for _, t := range unitSpecs[u].tokens {
			if token == t {
				found, ok = u, true
			}
		}
	}
	return found, ok
}

// FormatForAlgorithm rescales a hashrate for display in the algorithm's
// customary unit. Unknown algorithms are shown unscaled in H/s.
func FormatForAlgorithm(hashrate float64, algo types.Algorithm) (float64, string) {
	c, ok := algo.Config()
	if !ok {
		return hashrate, unitSpecs[Hash].label
	}
	return hashrate / c.DisplayDivisor, c.DisplayLabel
}
