package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long:  "Manage the settings file: fee rate, theme and remembered inputs.",
	}

	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigPathCmd(app))
	cmd.AddCommand(newConfigFeeCmd(app))
	cmd.AddCommand(newConfigThemeCmd(app))
	cmd.AddCommand(newConfigResetCmd(app))

	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			cfg := app.Config
			if output.IsJSON() {
				return output.JSON(cfg)
			}

			output.Bold("Settings (%s)", cfg.Path())
			output.Printf("  Theme:          %s\n", cfg.Theme)
			output.Printf("  Exchange rate:  %s per USD\n", FormatKRW(cfg.ExchangeRate))
			output.Printf("  Fee rate:       %s per side\n", FormatFeeRate(cfg.FeeRate))
			output.Println()
			output.Bold("Remembered inputs")
			lv := cfg.LastValues
			output.Printf("  Entry price:    %s\n", orDash(lv.EntryPrice))
			output.Printf("  Target price:   %s\n", orDash(lv.TargetPrice))
			output.Printf("  Leverage:       %dx\n", lv.Leverage)
			output.Printf("  Position:       %s\n", lv.Position)
			output.Printf("  Capital:        %s\n", FormatUSD(lv.Capital))
			output.Println()
			output.Dim("Log level %s, API address %s", cfg.Logging.Level, cfg.Server.Addr)
			return nil
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"dir":      app.Config.Dir(),
					"settings": app.Config.Path(),
				})
			}
			output.Println(app.Config.Dir())
			return nil
		},
	}
}

func newConfigFeeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fee <percent>",
		Short: "Set the fee per side in percent",
		Long: `Set the exchange fee charged on each side of the trade.

Example:
  levercalc config fee 0.04    # 0.04% per side`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"), 64)
			if err != nil {
				output.Error("Enter a valid number")
				return reported(err)
			}
			if err := app.Config.SetFeeRate(pct / 100); err != nil {
				output.Error("Fee rate must be between 0%% and 100%%")
				return reported(err)
			}
			if err := app.Config.Save(); err != nil {
				output.Error("Failed to save settings: %v", err)
				return reported(err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]float64{"fee_rate": app.Config.FeeRate})
			}
			output.Success("Fee set to %s per side", FormatFeeRate(app.Config.FeeRate))
			return nil
		},
	}
}

func newConfigThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle between the dark and light theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := app.Config.ToggleTheme()
			output := app.output(cmd)
			if err := app.Config.Save(); err != nil {
				output.Error("Failed to save settings: %v", err)
				return reported(err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"theme": theme})
			}
			output.Success("Theme set to %s", theme)
			return nil
		},
	}
}

func newConfigResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Config.Reset()
			output := app.output(cmd)
			if err := app.Config.Save(); err != nil {
				output.Error("Failed to save settings: %v", err)
				return reported(err)
			}

			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Success("Settings restored to defaults")
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
