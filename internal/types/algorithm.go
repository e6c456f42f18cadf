// Package types contains shared type definitions used across multiple packages
package types

import (
	"fmt"
	"strings"
)

// Algorithm represents a proof-of-work algorithm supported by the chain
type Algorithm string

// Supported proof-of-work algorithms
const (
	AlgorithmCuckoo  Algorithm = "cuckoo"
	AlgorithmProgPow Algorithm = "progpow"
	AlgorithmRandomX Algorithm = "randomx"
)

// AlgorithmConfig holds the fixed per-algorithm constants
type AlgorithmConfig struct {
	// BlockShare is the fraction of all blocks produced by this algorithm
	BlockShare float64 `json:"block_share"`

	// DisplayDivisor and DisplayLabel control how hashrates are presented
	DisplayDivisor float64 `json:"display_divisor"`
	DisplayLabel   string  `json:"display_label"`

	// NetworkScale converts the upstream network hashrate to hashes/second
	NetworkScale float64 `json:"network_scale"`
}

var algorithmConfigs = map[Algorithm]AlgorithmConfig{
	AlgorithmCuckoo:  {BlockShare: 0.40, DisplayDivisor: 1e9, DisplayLabel: "GH/s", NetworkScale: 1e9},
	AlgorithmProgPow: {BlockShare: 0.48, DisplayDivisor: 1e6, DisplayLabel: "MH/s", NetworkScale: 1},
	AlgorithmRandomX: {BlockShare: 0.48, DisplayDivisor: 1e3, DisplayLabel: "KH/s", NetworkScale: 1},
}

// Algorithms returns the supported algorithms in a stable order
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmCuckoo, AlgorithmProgPow, AlgorithmRandomX}
}

// ParseAlgorithm resolves a case-insensitive algorithm name
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown algorithm %q (accepted: %s)", s, AcceptedAlgorithms())
	}
	return a, nil
}

// AcceptedAlgorithms lists the accepted algorithm names for error messages
func AcceptedAlgorithms() string {
	names := make([]string, 0, len(algorithmConfigs))
	for _, a := range Algorithms() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// Valid reports whether a belongs to the supported set
func (a Algorithm) Valid() bool {
	_, ok := algorithmConfigs[a]
	return ok
}

// Config returns the static constants for a. ok is false for unknown algorithms.
func (a Algorithm) Config() (AlgorithmConfig, bool) {
	c, ok := algorithmConfigs[a]
	return c, ok
}

func (a Algorithm) String() string {
	return string(a)
}
