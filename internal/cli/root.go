package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"levercalc/internal/config"
	"levercalc/internal/errors"
	"levercalc/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-01"
)

// HistoryFile is the SQLite database inside the config directory.
const HistoryFile = "history.db"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Store is opened on first use; see history.
	Store store.HistoryStore
}

// NewApp creates an App. Nothing is opened until a command needs it.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger,
	}
}

// history returns the history store, opening the SQLite database in the
// config directory on first use.
func (a *App) history() (store.HistoryStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	dataStore, err := store.NewSQLiteStore(filepath.Join(a.Config.Dir(), HistoryFile))
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Msg("SQLite history store initialized")
	a.Store = dataStore
	return dataStore, nil
}

// Close releases the history store if one was opened. It must run after
// Execute whatever the outcome.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "levercalc",
		Short: "Leveraged trade profit/loss calculator",
		Long: `levercalc computes the return of a leveraged long or short trade after
round-trip exchange fees, in percent, USD and KRW.

Inputs left out on the command line fall back to the last remembered values
in the settings file. Use 'levercalc interactive' to edit inputs one at a time
and see the result recomputed after every change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags; --config is read by main before the command tree exists.
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/levercalc)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newCalcCmd(app))
	rootCmd.AddCommand(newSweepCmd(app))
	rootCmd.AddCommand(newInteractiveCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

// output creates an Output using the current theme.
func (a *App) output(cmd *cobra.Command) *Output {
	return NewOutput(cmd, a.Config.Theme)
}

// reportedError marks an error whose message has already been shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

// IsReported reports whether err was already printed by the command.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("levercalc v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}
