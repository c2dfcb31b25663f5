package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"levercalc/internal/cli"
	"levercalc/internal/config"
	"levercalc/internal/logging"
)

func main() {
	configDir := configDirFromArgs(os.Args[1:])
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	if err := config.LoadEnvFiles(".env", filepath.Join(configDir, ".env")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig(cfg.Dir())
	logCfg.Level = cfg.Logging.Level
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	app := cli.NewApp(cfg, logger)
	err = cli.NewRootCmd(app).Execute()
	if closeErr := app.Close(); closeErr != nil {
		logger.Warn().Err(closeErr).Msg("Failed to close history store")
	}
	if err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// configDirFromArgs finds --config before cobra parses the command line,
// since the settings are needed to build the command tree.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
