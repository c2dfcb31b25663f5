// Package form turns raw text fields into calculator input.
//
// A Form mirrors what a user has typed so far. Every edit is followed by a
// full re-evaluation; no partial result is ever kept.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
)

// Form holds the raw field values.
type Form struct {
	EntryPrice   string
	TargetPrice  string
	Leverage     string
	Position     string
	Capital      string
	ExchangeRate string
	FeeRate      float64
}

var aliases = map[string]string{
	"entry":         calc.FieldEntryPrice,
	"entry_price":   calc.FieldEntryPrice,
	"target":        calc.FieldTargetPrice,
	"target_price":  calc.FieldTargetPrice,
	"leverage":      calc.FieldLeverage,
	"lev":           calc.FieldLeverage,
	"position":      calc.FieldPosition,
	"side":          calc.FieldPosition,
	"capital":       calc.FieldCapitalUSD,
	"capital_usd":   calc.FieldCapitalUSD,
	"rate":          calc.FieldExchangeRate,
	"exchange_rate": calc.FieldExchangeRate,
}

// Fields lists the editable field names.
func Fields() []string {
	return []string{"entry", "target", "leverage", "position", "capital", "rate"}
}

// Set edits one field by name or alias.
func (f *Form) Set(field, value string) error {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return fmt.Errorf("unknown field %q (valid: %s)", field, strings.Join(Fields(), ", "))
	}

	switch name {
	case calc.FieldEntryPrice:
		f.EntryPrice = value
	case calc.FieldTargetPrice:
		f.TargetPrice = value
	case calc.FieldLeverage:
		f.Leverage = value
	case calc.FieldPosition:
		f.Position = value
	case calc.FieldCapitalUSD:
		f.Capital = value
	case calc.FieldExchangeRate:
		f.ExchangeRate = value
	}
	return nil
}

// Input parses the fields. Failures are parse errors; range checks are
// left to calc.
func (f Form) Input() (calc.Input, error) {
	var in calc.Input
	var err error

	if in.EntryPrice, err = parseFloat(calc.FieldEntryPrice, f.EntryPrice); err != nil {
		return calc.Input{}, err
	}
	if in.TargetPrice, err = parseFloat(calc.FieldTargetPrice, f.TargetPrice); err != nil {
		return calc.Input{}, err
	}
	if in.Leverage, err = parseInt(calc.FieldLeverage, f.Leverage); err != nil {
		return calc.Input{}, err
	}
	if in.Position, err = ParsePosition(f.Position); err != nil {
		return calc.Input{}, err
	}
	if in.CapitalUSD, err = parseFloat(calc.FieldCapitalUSD, f.Capital); err != nil {
		return calc.Input{}, err
	}
	if in.ExchangeRate, err = parseFloat(calc.FieldExchangeRate, f.ExchangeRate); err != nil {
		return calc.Input{}, err
	}
	in.FeeRate = f.FeeRate

	return in, nil
}

// Evaluate parses the form and computes the result.
func (f Form) Evaluate() (calc.Input, calc.Result, error) {
	in, err := f.Input()
	if err != nil {
		return calc.Input{}, calc.Result{}, err
	}
	res, err := calc.Compute(in)
	if err != nil {
		return in, calc.Result{}, err
	}
	return in, res, nil
}

// ParsePosition accepts long/short in any case, plus buy/sell.
func ParsePosition(s string) (calc.Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy", "l":
		return calc.Long, nil
	case "short", "sell", "s":
		return calc.Short, nil
	default:
		return "", errors.NewParseError(calc.FieldPosition, s, errors.RuleEnum, "must be Long or Short")
	}
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.NewParseError(field, raw, errors.RuleNumber, "must be a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewParseError(field, raw, errors.RuleNumber, "must be a finite number")
	}
	return v, nil
}

func parseInt(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewParseError(field, raw, errors.RuleInteger, "must be a whole number")
	}
	return v, nil
}
