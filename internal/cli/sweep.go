package cli

import (
	"github.com/spf13/cobra"

	"levercalc/internal/calc"
	"levercalc/internal/chart"
	"levercalc/internal/errors"
	"levercalc/internal/logging"
)

func newSweepCmd(app *App) *cobra.Command {
	var (
		flags    inputFlags
		from, to float64
		steps    int
		plotPath string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate the return over a range of target prices",
		Long: `Compute the leveraged return for evenly spaced target prices.

Without --from/--to the range is 10% either side of the entry price.

Examples:
  levercalc sweep --entry 64000 -l 20 -p short --steps 9
  levercalc sweep --entry 100 --from 80 --to 120 --plot payoff.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			logger := logging.WithOperation(app.Logger, "sweep")

			fail := func(err error) error {
				logging.LogRejected(logger, err)
				if output.IsJSON() {
					_ = output.JSON(newErrorReport(err))
				} else {
					output.Error("%s", errors.UserMessage(err))
					output.Dim("%v", err)
				}
				return reported(err)
			}

			fm, err := flags.form(cmd, app)
			if err != nil {
				return fail(err)
			}
			// The sweep supplies its own targets; keep parsing happy.
			fm.TargetPrice = fm.EntryPrice
			in, err := fm.Input()
			if err != nil {
				return fail(err)
			}
			in.TargetPrice = in.EntryPrice

			if !cmd.Flags().Changed("from") {
				from = in.EntryPrice * 0.9
			}
			if !cmd.Flags().Changed("to") {
				to = in.EntryPrice * 1.1
			}

			points, err := calc.Sweep(in, from, to, steps)
			if err != nil {
				return fail(err)
			}
			logger.Debug().Int("points", len(points)).Float64("from", from).Float64("to", to).Msg("Sweep computed")

			if plotPath != "" {
				if err := chart.RenderPayoff(points, in, plotPath); err != nil {
					output.Error("Failed to render chart: %v", err)
					return reported(err)
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"input":  in,
					"points": points,
				})
			}

			output.Bold("%s %dx from %s, fee %s per side", in.Position, in.Leverage, FormatPrice(in.EntryPrice), FormatFeeRate(in.FeeRate))
			table := NewTable(output, "Target", "Move", "Return", "Profit USD", "Profit KRW")
			for _, p := range points {
				table.AddRow(
					FormatPrice(p.TargetPrice),
					FormatPercent(p.RawPercent),
					output.FormatPercent(p.LeveragedPercent),
					output.FormatPnL(p.ProfitUSD),
					FormatKRW(p.ProfitKRW),
				)
			}
			table.Render()

			if plotPath != "" {
				output.Println()
				output.Success("Chart saved to %s", plotPath)
			}
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().Float64Var(&from, "from", 0, "first target price")
	cmd.Flags().Float64Var(&to, "to", 0, "last target price")
	cmd.Flags().IntVar(&steps, "steps", 11, "number of target prices")
	cmd.Flags().StringVar(&plotPath, "plot", "", "also render the payoff curve to this file (.png, .svg, .pdf)")

	return cmd
}
