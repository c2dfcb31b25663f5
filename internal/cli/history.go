package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
	"levercalc/internal/form"
	"levercalc/internal/models"
	"levercalc/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Review saved calculations",
		Long:  "List, inspect, delete and export the calculations recorded by 'levercalc calc'.",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryDeleteCmd(app))
	cmd.AddCommand(newHistoryClearCmd(app))
	cmd.AddCommand(newHistoryExportCmd(app))

	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var (
		position string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved calculations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app, output); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			filter := store.HistoryFilter{Limit: limit}
			if position != "" {
				pos, err := form.ParsePosition(position)
				if err != nil {
					output.Error("Position must be long or short")
					return reported(err)
				}
				filter.Position = pos
			}

			calcs, err := app.Store.GetCalculations(ctx, filter)
			if err != nil {
				output.Error("Failed to fetch history: %v", err)
				return reported(err)
			}

			if output.IsJSON() {
				return output.JSON(calcs)
			}
			if len(calcs) == 0 {
				output.Info("No calculations recorded yet.")
				return nil
			}

			table := NewTable(output, "ID", "Time", "Side", "Lev", "Entry", "Target", "Return", "Profit USD", "Note")
			for _, c := range calcs {
				table.AddRow(
					strconv.FormatInt(c.ID, 10),
					FormatDateTime(c.CreatedAt),
					string(c.Input.Position),
					fmt.Sprintf("%dx", c.Input.Leverage),
					FormatPrice(c.Input.EntryPrice),
					FormatPrice(c.Input.TargetPrice),
					output.FormatPercent(c.Result.LeveragedPercent),
					output.FormatPnL(c.Result.ProfitUSD),
					TruncateString(c.Note, 20),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&position, "position", "p", "", "only long or short calculations")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of rows (0 for all)")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app, output); err != nil {
				return err
			}
			id, err := parseID(output, args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			c, err := app.Store.GetCalculation(ctx, id)
			if err != nil {
				return reportLookup(output, id, err)
			}

			breakEven, _ := calc.BreakEvenPrice(c.Input)
			if output.IsJSON() {
				return output.JSON(calcReport{ID: c.ID, Input: c.Input, Result: c.Result, BreakEvenPrice: breakEven})
			}

			output.Dim("#%d  %s", c.ID, FormatDateTime(c.CreatedAt))
			renderResult(output, c.Input, c.Result, breakEven)
			output.Printf("  Capital:        %s at %s per USD\n", FormatUSD(c.Input.CapitalUSD), FormatKRW(c.Input.ExchangeRate))
			if c.Note != "" {
				output.Printf("  Note:           %s\n", c.Note)
			}
			return nil
		},
	}
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app, output); err != nil {
				return err
			}
			id, err := parseID(output, args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Store.DeleteCalculation(ctx, id); err != nil {
				return reportLookup(output, id, err)
			}
			output.Success("Deleted calculation #%d", id)
			return nil
		},
	}
}

func newHistoryClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved calculation",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app, output); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			n, err := app.Store.ClearHistory(ctx)
			if err != nil {
				output.Error("Failed to clear history: %v", err)
				return reported(err)
			}
			app.Logger.Info().Int64("removed", n).Msg("History cleared")
			output.Success("Removed %d calculations", n)
			return nil
		},
	}
}

func newHistoryExportCmd(app *App) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved calculations as CSV",
		Long: `Write every saved calculation as CSV, oldest last.

Examples:
  levercalc history export > history.csv
  levercalc history export --out history.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := requireStore(app, output); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			calcs, err := app.Store.GetCalculations(ctx, store.HistoryFilter{})
			if err != nil {
				output.Error("Failed to fetch history: %v", err)
				return reported(err)
			}

			if outPath == "" {
				if err := store.ExportCSV(cmd.OutOrStdout(), calcs); err != nil {
					output.Error("Failed to write CSV: %v", err)
					return reported(err)
				}
				return nil
			}

			f, err := os.Create(outPath)
			if err != nil {
				output.Error("Failed to create %s: %v", outPath, err)
				return reported(err)
			}
			if err := exportAndClose(f, calcs); err != nil {
				output.Error("Failed to write %s: %v", outPath, err)
				return reported(err)
			}
			output.Success("Exported %d calculations to %s", len(calcs), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

// exportAndClose writes calcs as CSV and closes wc. A failed close is an
// error: buffered data may not have reached the file.
func exportAndClose(wc io.WriteCloser, calcs []models.Calculation) error {
	if err := store.ExportCSV(wc, calcs); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// requireStore opens the history database or reports why it cannot.
func requireStore(app *App, output *Output) error {
	if _, err := app.history(); err != nil {
		output.Error("History is not available: %v", err)
		return reported(errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}
	return nil
}

func parseID(output *Output, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		output.Error("Invalid calculation ID: %s", arg)
		return 0, reported(fmt.Errorf("invalid calculation ID %q", arg))
	}
	return id, nil
}

func reportLookup(output *Output, id int64, err error) error {
	if errors.Is(err, errors.ErrDataNotFound) {
		output.Error("Calculation #%d not found", id)
	} else {
		output.Error("Failed to read history: %v", err)
	}
	return reported(err)
}
