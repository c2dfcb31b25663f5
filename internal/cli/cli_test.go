package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levercalc/internal/calc"
	"levercalc/internal/config"
	"levercalc/internal/errors"
)

// execute runs one command line against the config directory dir, the way
// main does: settings are reloaded for every invocation and the history
// store is closed afterwards whatever the outcome.
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	app := NewApp(cfg, zerolog.Nop())
	root := NewRootCmd(app)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err = root.Execute()
	require.NoError(t, app.Close())
	require.Nil(t, app.Store)
	return out.String(), err
}

var shortScenario = []string{"--entry", "100", "--target", "90", "-l", "10", "-p", "short", "--capital", "6000", "--rate", "1450"}

func TestCalc_Text(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", append([]string{"calc"}, shortScenario...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Short 10x")
	assert.Contains(t, out, "+99.00%")
	assert.Contains(t, out, "+$5,940.00")
	assert.Contains(t, out, "₩8,613,000")
	assert.Contains(t, out, "$11,940.00")
	assert.Contains(t, out, "99.90")
}

func TestCalc_JSON(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", append([]string{"calc", "--json"}, shortScenario...)...)
	require.NoError(t, err)

	var report calcReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(1), report.ID)
	assert.InDelta(t, 99.0, report.Result.LeveragedPercent, 1e-9)
	assert.InDelta(t, 5940.0, report.Result.ProfitUSD, 1e-9)
	assert.InDelta(t, 99.9, report.BreakEvenPrice, 1e-9)
}

func TestCalc_LongLoss(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "calc", "--json", "--entry", "100", "--target", "90", "-l", "10", "-p", "long", "--capital", "6000", "--rate", "1450")
	require.NoError(t, err)

	var report calcReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.InDelta(t, -101.0, report.Result.LeveragedPercent, 1e-9)
	assert.InDelta(t, -6060.0, report.Result.ProfitUSD, 1e-9)
	assert.InDelta(t, -60.0, report.Result.FinalCapitalUSD, 1e-9)
}

func TestCalc_FeeFlagInPercent(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "calc", "--json", "--entry", "100", "--target", "110", "-l", "10", "-p", "long", "--capital", "6000", "--rate", "1450", "--fee", "0")
	require.NoError(t, err)

	var report calcReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0.0, report.Input.FeeRate)
	assert.InDelta(t, 100.0, report.Result.LeveragedPercent, 1e-9)
}

func TestCalc_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{
			name:    "not a number",
			args:    []string{"--entry", "abc", "--target", "110"},
			message: errors.MsgCheckInput,
		},
		{
			name:    "zero entry",
			args:    []string{"--entry", "0", "--target", "110"},
			message: errors.MsgMustBePositive,
		},
		{
			name:    "negative capital",
			args:    []string{"--entry", "100", "--target", "110", "--capital", "-5"},
			message: errors.MsgMustBePositive,
		},
		{
			name:    "bad position",
			args:    []string{"--entry", "100", "--target", "110", "-p", "sideways"},
			message: errors.MsgCheckInput,
		},
		{
			name:    "leverage above maximum",
			args:    []string{"--entry", "100", "--target", "110", "-l", "126"},
			message: "leverage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, t.TempDir(), "", append([]string{"calc"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, IsReported(err))
			assert.Contains(t, out, tt.message)
		})
	}
}

func TestCalc_ValidationErrorJSON(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "calc", "--json", "--entry", "0", "--target", "110")
	require.Error(t, err)

	var report errorReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, errors.MsgMustBePositive, report.Error)
	assert.Equal(t, "range", report.Kind)
	assert.Equal(t, "entry_price", report.Field)
	assert.Equal(t, errors.RulePositive, report.Rule)
}

func TestCalc_RememberPrefillsNextRun(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", append([]string{"calc", "--remember"}, shortScenario...)...)
	require.NoError(t, err)

	// Only the target changes; everything else comes from settings.
	out, err := execute(t, dir, "", "calc", "--json", "--target", "110")
	require.NoError(t, err)

	var report calcReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 100.0, report.Input.EntryPrice)
	assert.Equal(t, 10, report.Input.Leverage)
	assert.Equal(t, "Short", string(report.Input.Position))
	assert.Equal(t, 6000.0, report.Input.CapitalUSD)
	assert.InDelta(t, -101.0, report.Result.LeveragedPercent, 1e-9)
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	plot := filepath.Join(dir, "payoff.png")

	out, err := execute(t, dir, "", "sweep", "--entry", "100", "--from", "90", "--to", "110", "--steps", "5",
		"-l", "10", "-p", "long", "--capital", "6000", "--rate", "1450", "--plot", plot)
	require.NoError(t, err)

	assert.Contains(t, out, "Target")
	assert.Contains(t, out, "-101.00%")
	assert.Contains(t, out, "+99.00%")
	assert.Contains(t, out, "Chart saved")
	assert.FileExists(t, plot)
}

func TestSweep_InvalidSteps(t *testing.T) {
	for _, steps := range []string{"1", "1099511627776"} {
		out, err := execute(t, t.TempDir(), "", "sweep", "--json", "--entry", "100", "--steps", steps)
		require.Error(t, err, "steps %s", steps)
		assert.True(t, IsReported(err))

		var report errorReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, "steps", report.Field)
		assert.Equal(t, errors.RuleBounds, report.Rule)
	}
}

func TestInteractive(t *testing.T) {
	dir := t.TempDir()
	script := strings.Join([]string{
		"entry 100",
		"target=90",
		"leverage 10",
		"position short",
		"capital 6000",
		"rate 1450",
		"entry abc",
		"entry 100",
		"save",
		"quit",
	}, "\n")

	out, err := execute(t, dir, script, "interactive")
	require.NoError(t, err)

	assert.Contains(t, out, "+$5,940.00")
	assert.Contains(t, out, errors.MsgCheckInput)
	assert.Contains(t, out, "Settings saved")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "100", cfg.LastValues.EntryPrice)
	assert.Equal(t, "90", cfg.LastValues.TargetPrice)
	assert.Equal(t, "Short", cfg.LastValues.Position)
}

func TestInteractive_FeeAndUnknownField(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "fee 0.04\nfoo 1\n", "interactive")
	require.NoError(t, err)
	assert.Contains(t, out, "Fee set to 0.04% per side")
	assert.Contains(t, out, "unknown field")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.0004, cfg.FeeRate, 1e-12)
}

func TestInteractive_RejectsNonFiniteFee(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "fee nan\nfee inf\n", "interactive")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Fee rate must be between 0% and 100%"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, calc.DefaultFeeRate, cfg.FeeRate)
}

func TestConfigFee_RejectsNonFinite(t *testing.T) {
	dir := t.TempDir()

	for _, value := range []string{"nan", "NaN", "inf", "+Inf"} {
		_, err := execute(t, dir, "", "config", "fee", value)
		require.Error(t, err, value)
		assert.True(t, IsReported(err))
	}

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, calc.DefaultFeeRate, cfg.FeeRate)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "config", "fee", "0.02")
	require.NoError(t, err)
	assert.Contains(t, out, "0.02%")

	out, err = execute(t, dir, "", "config", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, config.ThemeLight)

	out, err = execute(t, dir, "", "config", "show", "--json")
	require.NoError(t, err)
	var shown config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.InDelta(t, 0.0002, shown.FeeRate, 1e-12)
	assert.Equal(t, config.ThemeLight, shown.Theme)

	out, err = execute(t, dir, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(out))

	_, err = execute(t, dir, "", "config", "fee", "150")
	require.Error(t, err)

	_, err = execute(t, dir, "", "config", "reset")
	require.NoError(t, err)
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.ThemeDark, cfg.Theme)
}

func TestHistoryCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", append([]string{"calc", "--note", "first"}, shortScenario...)...)
	require.NoError(t, err)
	_, err = execute(t, dir, "", "calc", "--entry", "100", "--target", "110", "-l", "5", "-p", "long", "--capital", "1000", "--rate", "1450")
	require.NoError(t, err)
	_, err = execute(t, dir, "", append([]string{"calc", "--no-history"}, shortScenario...)...)
	require.NoError(t, err)

	out, err := execute(t, dir, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "Long")

	out, err = execute(t, dir, "", "history", "list", "--json", "-p", "short")
	require.NoError(t, err)
	var shorts []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &shorts))
	assert.Len(t, shorts, 1)

	out, err = execute(t, dir, "", "history", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "+$5,940.00")
	assert.Contains(t, out, "first")

	csvPath := filepath.Join(dir, "history.csv")
	_, err = execute(t, dir, "", "history", "export", "--out", csvPath)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,"))

	_, err = execute(t, dir, "", "history", "delete", "1")
	require.NoError(t, err)
	out, err = execute(t, dir, "", "history", "show", "1")
	require.Error(t, err)
	assert.Contains(t, out, "not found")

	out, err = execute(t, dir, "", "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 calculations")
}

func TestHistoryStore_OpenedOnlyWhenNeeded(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, HistoryFile)

	_, err := execute(t, dir, "", "version")
	require.NoError(t, err)
	_, err = execute(t, dir, "", "config", "path")
	require.NoError(t, err)
	_, err = execute(t, dir, "", "calc", "--entry", "0", "--target", "110")
	require.Error(t, err)
	_, err = execute(t, dir, "", append([]string{"calc", "--no-history"}, shortScenario...)...)
	require.NoError(t, err)
	assert.NoFileExists(t, dbPath)

	_, err = execute(t, dir, "", append([]string{"calc"}, shortScenario...)...)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestApp_CloseAfterFailedCommand(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	app := NewApp(cfg, zerolog.Nop())
	root := NewRootCmd(app)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"history", "show", "42"})

	err = root.Execute()
	require.Error(t, err)
	require.NotNil(t, app.Store, "history command opens the store")
	assert.NoError(t, app.Close())
	assert.Nil(t, app.Store)
	assert.NoError(t, app.Close())
}

func TestExportAndClose_ReportsCloseError(t *testing.T) {
	w := &failingCloser{}
	err := exportAndClose(w, nil)
	assert.ErrorIs(t, err, errCloseFailed)
	assert.True(t, w.closed)
}

var errCloseFailed = fmt.Errorf("disk full")

type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errCloseFailed
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
