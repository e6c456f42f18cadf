// Package validation checks that fetched chain and market data is fresh and plausible
// before it is used for a calculation.
package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/epic-mining-calc/internal/model"
)

var (
	ErrStaleSnapshot = errors.New("block snapshot too old")
	ErrImplausible   = errors.New("implausible upstream value")
)

// ValidationOptions holds configuration for the validation process
type ValidationOptions struct {
	// MaxBlockAge defines how recent the latest block must be; zero disables the check
	MaxBlockAge time.Duration

	// MaxBlockTime is the largest believable average block interval in seconds
	MaxBlockTime float64

	// MaxPriceRatio bounds native/reference; the native coin is never worth more than the reference asset
	MaxPriceRatio float64
}

// DefaultValidationOptions returns sensible defaults for validation
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxBlockAge:   time.Hour,
		MaxBlockTime:  600,
		MaxPriceRatio: 1,
	}
}

// CheckSnapshot verifies that a snapshot is fresh and believable at now. A
// missing network hashrate is left to the calculator.
func CheckSnapshot(s model.BlockchainSnapshot, opts ValidationOptions, now time.Time) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if opts.MaxBlockAge > 0 && !s.Timestamp.IsZero() {
		if age := now.Sub(s.Timestamp); age > opts.MaxBlockAge {
			logrus.WithFields(logrus.Fields{
				"height": s.Height,
				"age":    age.String(),
			}).Debug("Rejected stale snapshot")
			return fmt.Errorf("%w: height %d is %s old", ErrStaleSnapshot, s.Height, age.Truncate(time.Second))
		}
	}

	if opts.MaxBlockTime > 0 && s.BlockTime > opts.MaxBlockTime {
		return fmt.Errorf("%w: block time %.1fs", ErrImplausible, s.BlockTime)
	}
	return nil
}

// CheckPrices verifies a price pair
func CheckPrices(p model.MarketPrices, opts ValidationOptions) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if opts.MaxPriceRatio > 0 && p.Native/p.Reference > opts.MaxPriceRatio {
		logrus.WithFields(logrus.Fields{
			"currency":  p.Currency,
			"native":    p.Native,
			"reference": p.Reference,
		}).Debug("Rejected implausible prices")
		return fmt.Errorf("%w: native price %g exceeds reference %g", ErrImplausible, p.Native, p.Reference)
	}
	return nil
}
