package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
	"levercalc/internal/form"
	"levercalc/internal/logging"
	"levercalc/internal/models"
)

// inputFlags are the raw calculator inputs shared by calc and sweep.
type inputFlags struct {
	entry    string
	target   string
	leverage string
	position string
	capital  string
	rate     string
	fee      string
}

func (f *inputFlags) register(cmd *cobra.Command, withTarget bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.entry, "entry", "", "entry price")
	if withTarget {
		flags.StringVar(&f.target, "target", "", "target (exit) price")
	}
	flags.StringVarP(&f.leverage, "leverage", "l", "", "leverage multiplier (1-125)")
	flags.StringVarP(&f.position, "position", "p", "", "position: long or short")
	flags.StringVar(&f.capital, "capital", "", "capital in USD")
	flags.StringVar(&f.rate, "rate", "", "exchange rate in KRW per USD")
	flags.StringVar(&f.fee, "fee", "", "fee per side in percent (e.g. 0.05)")
}

// form overlays the flags that were set on the remembered values.
func (f *inputFlags) form(cmd *cobra.Command, app *App) (form.Form, error) {
	fm := app.Config.Form()
	set := func(flag, field, value string) {
		if cmd.Flags().Changed(flag) {
			// Field names are fixed, Set cannot fail here.
			_ = fm.Set(field, value)
		}
	}
	set("entry", "entry", f.entry)
	set("target", "target", f.target)
	set("leverage", "leverage", f.leverage)
	set("position", "position", f.position)
	set("capital", "capital", f.capital)
	set("rate", "rate", f.rate)

	if cmd.Flags().Changed("fee") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(f.fee), 64)
		if err != nil {
			return fm, errors.NewParseError(calc.FieldFeeRate, f.fee, errors.RuleNumber, "must be a number")
		}
		fm.FeeRate = pct / 100
	}
	return fm, nil
}

// calcReport is the JSON shape of a calculation.
type calcReport struct {
	ID             int64       `json:"id,omitempty"`
	Input          calc.Input  `json:"input"`
	Result         calc.Result `json:"result"`
	BreakEvenPrice float64     `json:"break_even_price"`
}

// errorReport is the JSON shape of a rejected input.
type errorReport struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message,omitempty"`
}

func newErrorReport(err error) errorReport {
	rep := errorReport{Error: errors.UserMessage(err)}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		rep.Kind = ve.Kind.String()
		rep.Field = ve.Field
		rep.Rule = ve.Rule
		rep.Message = ve.Message
	}
	return rep
}

func newCalcCmd(app *App) *cobra.Command {
	var (
		flags     inputFlags
		remember  bool
		noHistory bool
		note      string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate leveraged profit or loss",
		Long: `Calculate the leveraged return of a trade after round-trip fees.

Examples:
  levercalc calc --entry 100 --target 110 -l 10 -p long --capital 6000
  levercalc calc --target 95 -p short --remember`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			logger := logging.WithOperation(app.Logger, "calc")

			fm, err := flags.form(cmd, app)
			if err == nil {
				var in calc.Input
				var res calc.Result
				in, res, err = fm.Evaluate()
				if err == nil {
					return app.finishCalc(cmd, output, fm, in, res, remember, noHistory, note)
				}
			}

			logging.LogRejected(logger, err)
			if output.IsJSON() {
				_ = output.JSON(newErrorReport(err))
			} else {
				output.Error("%s", errors.UserMessage(err))
				output.Dim("%v", err)
			}
			return reported(err)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&remember, "remember", false, "save these inputs as the new defaults")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this calculation")
	cmd.Flags().StringVar(&note, "note", "", "note to store with the calculation")

	return cmd
}

func (a *App) finishCalc(cmd *cobra.Command, output *Output, fm form.Form, in calc.Input, res calc.Result, remember, noHistory bool, note string) error {
	logging.LogCalculation(a.Logger, in, res)

	// Validated already, so this cannot fail.
	breakEven, _ := calc.BreakEvenPrice(in)
	report := calcReport{Input: in, Result: res, BreakEvenPrice: breakEven}

	if !noHistory {
		report.ID = a.record(cmd, in, res, note)
	}

	if remember {
		a.Config.Remember(fm)
		if err := a.Config.Save(); err != nil {
			output.Error("Failed to save settings: %v", err)
			return reported(err)
		}
	}

	if output.IsJSON() {
		return output.JSON(report)
	}

	renderResult(output, in, res, breakEven)
	if remember {
		output.Dim("Inputs saved to %s", a.Config.Path())
	}
	return nil
}

// record saves a calculation to history and returns its ID. History is
// optional, so failures are only logged and give 0.
func (a *App) record(cmd *cobra.Command, in calc.Input, res calc.Result, note string) int64 {
	hist, err := a.history()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to open history store, calculation not recorded")
		return 0
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	rec := models.NewCalculation(in, res, time.Now(), note)
	if err := hist.SaveCalculation(ctx, rec); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to record calculation")
		return 0
	}
	return rec.ID
}

// renderResult prints a computed result block.
func renderResult(output *Output, in calc.Input, res calc.Result, breakEven float64) {
	output.Bold("%s %dx  %s → %s", in.Position, in.Leverage, FormatPrice(in.EntryPrice), FormatPrice(in.TargetPrice))
	output.Printf("  Return:         %s\n", output.FormatPercent(res.LeveragedPercent))
	output.Printf("  Profit:         %s (%s)\n",
		output.FormatPnL(res.ProfitUSD),
		output.FormatSigned(res.ProfitKRW, FormatKRW(res.ProfitKRW)))
	output.Printf("  Final capital:  %s (%s)\n",
		output.FormatSigned(res.LeveragedPercent, FormatUSD(res.FinalCapitalUSD)),
		FormatKRW(res.FinalCapitalKRW))
	output.Printf("  Break-even:     %s\n", FormatPrice(breakEven))
	output.Dim("  Price move %s, fees %.2f%%p (%s per side)",
		FormatPercent(res.RawPercent), res.FeeDragPercent, FormatFeeRate(in.FeeRate))
}

// renderRejected prints the error indicator that replaces a result.
func renderRejected(output *Output, err error) {
	output.Error("  %s", errors.UserMessage(err))
	output.Printf("  Return:         -\n")
	output.Printf("  Profit:         -\n")
	output.Printf("  Final capital:  -\n")
}
