package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
)

func validForm() Form {
	return Form{
		EntryPrice:   "100",
		TargetPrice:  "110",
		Leverage:     "10",
		Position:     "Long",
		Capital:      "6000",
		ExchangeRate: "1450",
		FeeRate:      calc.DefaultFeeRate,
	}
}

func TestForm_Evaluate(t *testing.T) {
	in, res, err := validForm().Evaluate()
	require.NoError(t, err)

	assert.Equal(t, calc.Input{
		EntryPrice:   100,
		TargetPrice:  110,
		Leverage:     10,
		Position:     calc.Long,
		CapitalUSD:   6000,
		ExchangeRate: 1450,
		FeeRate:      0.0005,
	}, in)
	assert.InDelta(t, 99.0, res.LeveragedPercent, 1e-9)
	assert.InDelta(t, 5940.0, res.ProfitUSD, 1e-6)
}

func TestForm_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"empty entry", "entry", "", calc.FieldEntryPrice},
		{"text target", "target", "abc", calc.FieldTargetPrice},
		{"fractional leverage", "leverage", "2.5", calc.FieldLeverage},
		{"unknown side", "position", "sideways", calc.FieldPosition},
		{"infinite capital", "capital", "Inf", calc.FieldCapitalUSD},
		{"NaN rate", "rate", "NaN", calc.FieldExchangeRate},
		{"comma grouping", "capital", "6,000", calc.FieldCapitalUSD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			require.NoError(t, f.Set(tt.field, tt.value))

			_, _, err := f.Evaluate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInputParse))

			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.want, ve.Field)
			assert.Equal(t, errors.MsgCheckInput, errors.UserMessage(err))
		})
	}
}

func TestForm_RangeErrorsComeFromCalc(t *testing.T) {
	f := validForm()
	require.NoError(t, f.Set("entry", "0"))

	in, res, err := f.Evaluate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOutOfRange))
	assert.Equal(t, errors.MsgMustBePositive, errors.UserMessage(err))
	assert.Equal(t, 0.0, in.EntryPrice)
	assert.Equal(t, calc.Result{}, res)
}

func TestForm_Set(t *testing.T) {
	f := validForm()

	require.NoError(t, f.Set("ENTRY_PRICE", "250"))
	require.NoError(t, f.Set(" lev ", "25"))
	require.NoError(t, f.Set("side", "sell"))
	require.NoError(t, f.Set("exchange_rate", "1300"))

	assert.Equal(t, "250", f.EntryPrice)
	assert.Equal(t, "25", f.Leverage)
	assert.Equal(t, "sell", f.Position)
	assert.Equal(t, "1300", f.ExchangeRate)

	err := f.Set("volume", "1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestForm_TrimsWhitespace(t *testing.T) {
	f := validForm()
	f.EntryPrice = "  100  "
	f.Leverage = " 10"

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, 100.0, in.EntryPrice)
	assert.Equal(t, 10, in.Leverage)
}

func TestParsePosition(t *testing.T) {
	tests := map[string]calc.Position{
		"Long":  calc.Long,
		"long":  calc.Long,
		"BUY":   calc.Long,
		"l":     calc.Long,
		"Short": calc.Short,
		"sell":  calc.Short,
		" S ":   calc.Short,
	}
	for raw, want := range tests {
		got, err := ParsePosition(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParsePosition("flat")
	assert.True(t, errors.Is(err, errors.ErrInputParse))
}
