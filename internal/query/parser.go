// Package query extracts mining parameters from loosely formatted user input.
package query

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/model"
	"github.com/yourorg/epic-mining-calc/internal/types"
	"github.com/yourorg/epic-mining-calc/internal/units"
)

// ErrNoHashrate is returned when neither the text nor the request carried a hashrate
var ErrNoHashrate = errors.New("no hashrate found in query")

// maxHashrate is 2^64, the first value a uint64 cannot hold
const maxHashrate = float64(math.MaxUint64)

var numericPattern = regexp.MustCompile(`^(?:\d*\.?\d+|[-+]?\d+)`)

// Checked in this order; a later family overwrites an earlier match.
var algorithmPatterns = []struct {
	algo   types.Algorithm
	tokens []string
}{
	{types.AlgorithmProgPow, []string{"Pp", "pp", "progpow", "ProgPow", "PROGPOW", "Progpow"}},
	{types.AlgorithmRandomX, []string{"Rx", "rx", "randomx", "RANDOMX", "RandomX", "Randomx", "randomX"}},
	{types.AlgorithmCuckoo, []string{"cu", "ck", "co", "cuckoo", "Cuckoo", "CUCKOO"}},
}

// ParsedQuery holds what could be extracted from a query. Unset optional
// fields are left at their zero value (Hashrate is nil).
type ParsedQuery struct {
	Tokens    []string        `json:"tokens"`
	Algorithm types.Algorithm `json:"algorithm,omitempty"`
	Unit      units.Unit      `json:"unit,omitempty"`
	Magnitude float64         `json:"magnitude,omitempty"`
	Hashrate  *uint64         `json:"hashrate,omitempty"`
	PoolFee   float64         `json:"pool_fee"`
	Direct    bool            `json:"direct"`

	// OutOfRange is set when the magnitude does not fit a hashrate in H/s
	OutOfRange bool `json:"out_of_range,omitempty"`
}

// RigHashrate returns the parsed hashrate or ErrNoHashrate
func (q ParsedQuery) RigHashrate() (uint64, error) {
	if q.OutOfRange {
		return 0, &model.ConfigError{Field: "rig.hashrate", Value: q.Magnitude, Accepted: "hashrate < 2^64 H/s"}
	}
	if q.Hashrate == nil {
		return 0, ErrNoHashrate
	}
	return *q.Hashrate, nil
}

// Parser turns raw text into a ParsedQuery
type Parser struct {
	log logrus.FieldLogger
}

// NewParser returns a parser that reports each parse to log. A nil log uses
// the standard logger.
func NewParser(log logrus.FieldLogger) *Parser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Parser{log: log}
}

// Parse extracts algorithm, hashrate, unit and pool fee from text. A
// directly supplied hashrate greater than 1 is taken as-is in H/s.
func (p *Parser) Parse(text string, hashrate uint64) ParsedQuery {
	q := ParsedQuery{Tokens: strings.Fields(text)}

	q.Algorithm = matchAlgorithm(q.Tokens)
	q.PoolFee = matchPoolFee(q.Tokens)

	if hashrate > 1 {
		h := hashrate
		q.Hashrate = &h
		q.Unit = units.Hash
		q.Magnitude = float64(hashrate)
		q.Direct = true
	} else if token, value, ok := firstNumeric(q.Tokens); ok {
		q.Magnitude = value
		q.Unit = matchUnit(q.Tokens, token)
		normalized, _ := units.Normalize(value, q.Unit)
		if rounded := math.Round(normalized); math.IsNaN(rounded) || rounded >= maxHashrate {
			q.OutOfRange = true
		} else {
			h := uint64(rounded)
			q.Hashrate = &h
		}
	}

	p.report(q)
	return q
}

func (p *Parser) report(q ParsedQuery) {
	fields := logrus.Fields{
		"tokens":    q.Tokens,
		"algorithm": q.Algorithm,
		"unit":      q.Unit,
		"magnitude": q.Magnitude,
		"pool_fee":  q.PoolFee,
		"direct":    q.Direct,
	}
	if q.OutOfRange {
		fields["out_of_range"] = true
	}
	if q.Hashrate != nil {
		fields["hashrate"] = *q.Hashrate
		p.log.WithFields(fields).Debug("Query parsed")
		return
	}
	p.log.WithFields(fields).Debug("Query parsed without hashrate")
}

func matchAlgorithm(tokens []string) types.Algorithm {
	var algo types.Algorithm
	for _, family := range algorithmPatterns {
		if containsAny(tokens, family.tokens) {
			algo = family.algo
		}
	}
	return algo
}

func containsAny(tokens, patterns []string) bool {
	for _, t := range tokens {
		for _, p := range patterns {
			if t == p {
				return true
			}
		}
	}
	return false
}

// firstNumeric returns the first token starting with a non-negative number,
// skipping percentages.
func firstNumeric(tokens []string) (string, float64, bool) {
	for _, t := range tokens {
		if strings.HasSuffix(t, "%") {
			continue
		}
		m := numericPattern.FindString(t)
		if m == "" {
			continue
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < 0 {
			continue
		}
		return t, v, true
	}
	return "", 0, false
}

func matchUnit(tokens []string, numericToken string) units.Unit {
	var (
		unit  units.Unit
		found bool
	)
	for _, t := range tokens {
		if u, ok := units.ParseUnit(t); ok {
			unit, found = u, true
		}
	}
	if found {
		return unit
	}

	// "500gh" carries the unit in the same token
	suffix := strings.TrimPrefix(numericToken, numericPattern.FindString(numericToken))
	if u, ok := units.ParseUnit(suffix); ok {
		return u
	}
	return units.Hash
}

func matchPoolFee(tokens []string) float64 {
	for _, t := range tokens {
		if !strings.HasSuffix(t, "%") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(t, "%"), 64)
		if err == nil && v >= 0 && v <= 100 {
			return v
		}
	}
	return 0
}

// Text renders a query payload as text. Numbers are stringified so that
// 123 becomes "123".
func Text(v interface{}) string {
	switch q := v.(type) {
	case nil:
		return ""
	case string:
		return q
	case json.Number:
		return q.String()
	case float64:
		return strconv.FormatFloat(q, 'f', -1, 64)
	case int:
		return strconv.Itoa(q)
	case int64:
		return strconv.FormatInt(q, 10)
	case uint64:
		return strconv.FormatUint(q, 10)
	default:
		return ""
	}
}
