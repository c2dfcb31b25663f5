// Package calc computes the profit or loss of a leveraged trade.
package calc

import (
	"fmt"
	"math"

	"levercalc/internal/errors"
)

// Position is the direction of a trade.
type Position string

// Position values.
const (
	Long  Position = "Long"
	Short Position = "Short"
)

// IsValid reports whether p is Long or Short.
func (p Position) IsValid() bool {
	return p == Long || p == Short
}

const (
	// DefaultFeeRate is the per-side exchange fee (0.05%).
	DefaultFeeRate = 0.0005
	MinLeverage    = 1
	MaxLeverage    = 125
)

// Field names used in validation errors.
const (
	FieldEntryPrice   = "entry_price"
	FieldTargetPrice  = "target_price"
	FieldLeverage     = "leverage"
	FieldPosition     = "position"
	FieldCapitalUSD   = "capital_usd"
	FieldExchangeRate = "exchange_rate"
	FieldFeeRate      = "fee_rate"
)

// Input holds everything one calculation needs.
type Input struct {
	EntryPrice   float64  `json:"entry_price"`
	TargetPrice  float64  `json:"target_price"`
	Leverage     int      `json:"leverage"`
	Position     Position `json:"position"`
	CapitalUSD   float64  `json:"capital_usd"`
	ExchangeRate float64  `json:"exchange_rate"`
	FeeRate      float64  `json:"fee_rate"`
}

// Result is derived from an Input and never stored as authoritative state.
type Result struct {
	RawPercent       float64 `json:"raw_percent"`
	FeeDragPercent   float64 `json:"fee_drag_percent"`
	LeveragedPercent float64 `json:"leveraged_percent"`
	ProfitUSD        float64 `json:"profit_usd"`
	ProfitKRW        float64 `json:"profit_krw"`
	FinalCapitalUSD  float64 `json:"final_capital_usd"`
	FinalCapitalKRW  float64 `json:"final_capital_krw"`
}

// Validate checks the input. It returns a *errors.ValidationError for the
// first field that fails.
func (in Input) Validate() error {
	positives := []struct {
		field string
		value float64
	}{
		{FieldEntryPrice, in.EntryPrice},
		{FieldTargetPrice, in.TargetPrice},
		{FieldCapitalUSD, in.CapitalUSD},
		{FieldExchangeRate, in.ExchangeRate},
	}
	for _, p := range positives {
		if err := checkPositive(p.field, p.value); err != nil {
			return err
		}
	}

	if in.Leverage <= 0 {
		return errors.NewRangeError(FieldLeverage, in.Leverage, errors.RulePositive, "must be greater than zero")
	}
	if in.Leverage > MaxLeverage {
		return errors.NewRangeError(FieldLeverage, in.Leverage, errors.RuleBounds,
			fmt.Sprintf("must be between %d and %d", MinLeverage, MaxLeverage))
	}

	if !in.Position.IsValid() {
		return errors.NewParseError(FieldPosition, in.Position, errors.RuleEnum, "must be Long or Short")
	}

	if math.IsNaN(in.FeeRate) || math.IsInf(in.FeeRate, 0) {
		return errors.NewRangeError(FieldFeeRate, in.FeeRate, errors.RuleFinite, "must be a finite number")
	}
	if in.FeeRate < 0 || in.FeeRate > 1 {
		return errors.NewRangeError(FieldFeeRate, in.FeeRate, errors.RuleBounds, "must be between 0 and 1")
	}

	return nil
}

func checkPositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewRangeError(field, v, errors.RuleFinite, "must be a finite number")
	}
	if v <= 0 {
		return errors.NewRangeError(field, v, errors.RulePositive, "must be greater than zero")
	}
	return nil
}

// Compute validates in and derives the leveraged return and the amounts
// that follow from it. Nothing is rounded.
func Compute(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	raw := RawPercent(in.Position, in.EntryPrice, in.TargetPrice)
	feeDrag := FeeDragPercent(in.FeeRate, in.Leverage)
	leveraged := raw*float64(in.Leverage) - feeDrag

	profitUSD := in.CapitalUSD * leveraged / 100
	finalUSD := in.CapitalUSD + profitUSD

	return Result{
		RawPercent:       raw,
		FeeDragPercent:   feeDrag,
		LeveragedPercent: leveraged,
		ProfitUSD:        profitUSD,
		ProfitKRW:        profitUSD * in.ExchangeRate,
		FinalCapitalUSD:  finalUSD,
		FinalCapitalKRW:  finalUSD * in.ExchangeRate,
	}, nil
}

// RawPercent returns the unleveraged price move in percent, signed so that
// a favourable move is positive.
func RawPercent(pos Position, entry, target float64) float64 {
	if pos == Short {
		return (entry - target) / entry * 100
	}
	return (target - entry) / entry * 100
}

// FeeDragPercent returns the round-trip fee (entry and exit) in
// percentage points of capital.
func FeeDragPercent(feeRate float64, leverage int) float64 {
	return feeRate * 2 * 100 * float64(leverage)
}

// BreakEvenPrice returns the target price at which the leveraged return
// is zero after fees. Leverage scales the move and the fee alike, so it
// drops out.
func BreakEvenPrice(in Input) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if in.Position == Short {
		return in.EntryPrice * (1 - 2*in.FeeRate), nil
	}
	return in.EntryPrice * (1 + 2*in.FeeRate), nil
}
