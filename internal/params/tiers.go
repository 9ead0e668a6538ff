package params

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoMatchingTier indicates the loan amount falls outside every configured
// tier range. This is a hard configuration error, never silently defaulted.
var ErrNoMatchingTier = errors.New("amount does not fit into any tier")

// TierRange bounds the loan amounts a tier applies to, inclusive on both ends.
type TierRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// TierTable pairs tier ranges with the interest rate each tier carries.
// Ranges are assumed non-overlapping.
type TierTable struct {
	Ranges map[string]TierRange
	Rates  map[string]decimal.Decimal
}

// ParseTierTable decodes the JSON-encoded tier_ranges and rate-per-tier
// parameters. Rates may be JSON strings or numbers.
func ParseTierTable(rangesJSON, ratesJSON string) (TierTable, error) {
	var rawRanges map[string]struct {
		Min json.Number `json:"min"`
		Max json.Number `json:"max"`
	}
	if err := json.Unmarshal([]byte(rangesJSON), &rawRanges); err != nil {
		return TierTable{}, fmt.Errorf("parse tier_ranges: %w", err)
	}

	var rawRates map[string]json.Number
	if err := json.Unmarshal([]byte(ratesJSON), &rawRates); err != nil {
		// Rates are sometimes configured as quoted strings.
		var stringRates map[string]string
		if err2 := json.Unmarshal([]byte(ratesJSON), &stringRates); err2 != nil {
			return TierTable{}, fmt.Errorf("parse interest rate tiers: %w", err)
		}
		rawRates = make(map[string]json.Number, len(stringRates))
		for tier, rate := range stringRates {
			rawRates[tier] = json.Number(rate)
		}
	}

	table := TierTable{
		Ranges: make(map[string]TierRange, len(rawRanges)),
		Rates:  make(map[string]decimal.Decimal, len(rawRates)),
	}
	for tier, bounds := range rawRanges {
		min, err := decimal.NewFromString(bounds.Min.String())
		if err != nil {
			return TierTable{}, fmt.Errorf("tier %s min: %w", tier, err)
		}
		max, err := decimal.NewFromString(bounds.Max.String())
		if err != nil {
			return TierTable{}, fmt.Errorf("tier %s max: %w", tier, err)
		}
		table.Ranges[tier] = TierRange{Min: min, Max: max}
	}
	for tier, rate := range rawRates {
		d, err := decimal.NewFromString(rate.String())
		if err != nil {
			return TierTable{}, fmt.Errorf("tier %s rate: %w", tier, err)
		}
		table.Rates[tier] = d
	}
	return table, nil
}

// RateForAmount returns the rate of the tier whose range contains amount.
// Bounds are inclusive. An amount outside every range is a configuration
// error, as is a matching range without a configured rate.
func (t TierTable) RateForAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	for tier, bounds := range t.Ranges {
		if amount.GreaterThanOrEqual(bounds.Min) && amount.LessThanOrEqual(bounds.Max) {
			rate, ok := t.Rates[tier]
			if !ok {
				return decimal.Zero, fmt.Errorf("tier %s has a range but no rate", tier)
			}
			return rate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrNoMatchingTier, amount)
}
