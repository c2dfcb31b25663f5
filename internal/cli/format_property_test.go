package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var (
	usdPattern = regexp.MustCompile(`^-?\$\d{1,3}(,\d{3})*\.\d{2}$`)
	krwPattern = regexp.MustCompile(`^-?₩\d{1,3}(,\d{3})*$`)
)

// parseGrouped strips the symbol and separators and parses what is left.
func parseGrouped(s, symbol string) float64 {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, symbol)
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if neg {
		return -v
	}
	return v
}

func TestProperty_CurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatUSD groups thousands and keeps two decimals", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatUSD(amount)
			if !usdPattern.MatchString(formatted) {
				t.Logf("bad USD format for %f: %s", amount, formatted)
				return false
			}
			return math.Abs(parseGrouped(formatted, "$")-amount) <= 0.005+1e-9*math.Abs(amount)
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatKRW groups thousands with no decimals", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatKRW(amount)
			if !krwPattern.MatchString(formatted) {
				t.Logf("bad KRW format for %f: %s", amount, formatted)
				return false
			}
			return parseGrouped(formatted, "₩") == math.Round(amount)
		},
		gen.Float64Range(-1e13, 1e13),
	))

	properties.Property("FormatPercent has a sign only when positive", prop.ForAll(
		func(pct float64) bool {
			formatted := FormatPercent(pct)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			if pct > 0 {
				return strings.HasPrefix(formatted, "+")
			}
			return !strings.HasPrefix(formatted, "+")
		},
		gen.Float64Range(-1e4, 1e4),
	))

	properties.TestingRun(t)
}

func TestCurrencyFormatExamples(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"usd profit", FormatUSD(5940), "$5,940.00"},
		{"usd loss", FormatUSD(-6060), "-$6,060.00"},
		{"usd small", FormatUSD(0.5), "$0.50"},
		{"usd zero", FormatUSD(0), "$0.00"},
		{"krw profit", FormatKRW(8613000), "₩8,613,000"},
		{"krw rounds", FormatKRW(1234.5), "₩1,235"},
		{"krw loss", FormatKRW(-8787000), "-₩8,787,000"},
		{"pnl positive", FormatPnL(5940), "+$5,940.00"},
		{"pnl negative", FormatPnL(-60), "-$60.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFormatPercentExamples(t *testing.T) {
	assert.Equal(t, "+99.00%", FormatPercent(99))
	assert.Equal(t, "-101.00%", FormatPercent(-101))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestFormatFeeRate(t *testing.T) {
	assert.Equal(t, "0.05%", FormatFeeRate(0.0005))
	assert.Equal(t, "0.04%", FormatFeeRate(0.0004))
	assert.Equal(t, "0%", FormatFeeRate(0))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "64,000.00", FormatPrice(64000))
	assert.Equal(t, "99.90", FormatPrice(99.9))
	assert.Equal(t, "0.1234", FormatPrice(0.1234))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))

	note := "비트코인 숏 포지션 청산 직전 손절"
	got := TruncateString(note, 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "비트코인 숏 ...", got)
	assert.Equal(t, "비트코인", TruncateString("비트코인", 4))
}
