// Package config provides settings management for the calculator.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
	"levercalc/internal/form"
)

const (
	// FileName is the settings file inside the config directory.
	FileName = "settings.toml"

	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config holds all application settings.
type Config struct {
	Theme        string        `mapstructure:"theme" json:"theme"`
	ExchangeRate float64       `mapstructure:"exchange_rate" json:"exchange_rate"`
	FeeRate      float64       `mapstructure:"fee_rate" json:"fee_rate"`
	LastValues   LastValues    `mapstructure:"last_values" json:"last_values"`
	Logging      LoggingConfig `mapstructure:"logging" json:"logging"`
	Server       ServerConfig  `mapstructure:"server" json:"server"`

	dir string
}

// LastValues holds the most recently remembered form inputs.
type LastValues struct {
	EntryPrice  string  `mapstructure:"entry_price" json:"entry_price"`
	TargetPrice string  `mapstructure:"target_price" json:"target_price"`
	Leverage    int     `mapstructure:"leverage" json:"leverage"`
	Position    string  `mapstructure:"position" json:"position"`
	Capital     float64 `mapstructure:"capital" json:"capital"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"` // debug, info, warn, error
	File  bool   `mapstructure:"file" json:"file"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// envOverrides is filled from LEVERCALC_* environment variables.
type envOverrides struct {
	Theme        string   `envconfig:"THEME"`
	ExchangeRate *float64 `envconfig:"EXCHANGE_RATE"`
	FeeRate      *float64 `envconfig:"FEE_RATE"`
	LogLevel     string   `envconfig:"LOG_LEVEL"`
	ServerAddr   string   `envconfig:"SERVER_ADDR"`
}

var defaults = map[string]interface{}{
	"theme":                    ThemeDark,
	"exchange_rate":            1450.0,
	"fee_rate":                 calc.DefaultFeeRate,
	"last_values.entry_price":  "",
	"last_values.target_price": "",
	"last_values.leverage":     10,
	"last_values.position":     string(calc.Long),
	"last_values.capital":      1000.0,
	"logging.level":            "info",
	"logging.file":             true,
	"server.addr":              "127.0.0.1:8080",
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/levercalc"
	}
	return filepath.Join(home, ".config", "levercalc")
}

// Default returns a config holding only default values.
func Default(configDir string) *Config {
	cfg, err := decode(newViper(configDir))
	if err != nil {
		cfg = &Config{}
	}
	cfg.dir = configDir
	return cfg
}

// Load loads settings from the specified directory. Missing keys are filled
// from defaults; a missing file is created from the template.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading %s: %w", FileName, err)
		}
		if err := createTemplateSettings(configDir); err != nil {
			return nil, err
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	cfg.dir = configDir

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFiles loads LEVERCALC_* variables from .env files. Files that do
// not exist are skipped, and variables already set in the environment win.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("levercalc", &env); err != nil {
		return err
	}

	if env.Theme != "" {
		cfg.Theme = env.Theme
	}
	if env.ExchangeRate != nil {
		cfg.ExchangeRate = *env.ExchangeRate
	}
	if env.FeeRate != nil {
		cfg.FeeRate = *env.FeeRate
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.ServerAddr != "" {
		cfg.Server.Addr = env.ServerAddr
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Theme != ThemeDark && c.Theme != ThemeLight {
		return errors.Wrapf(errors.ErrConfigInvalid, "theme %q must be %q or %q", c.Theme, ThemeDark, ThemeLight)
	}
	if !finite(c.ExchangeRate) || c.ExchangeRate <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "exchange_rate must be a finite number greater than zero")
	}
	if !validFeeRate(c.FeeRate) {
		return errors.Wrap(errors.ErrConfigInvalid, "fee_rate must be between 0 and 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Dir returns the directory the config was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

// Path returns the settings file path.
func (c *Config) Path() string {
	return filepath.Join(c.dir, FileName)
}

// Save writes the whole configuration to the settings file.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.Set("theme", c.Theme)
	v.Set("exchange_rate", c.ExchangeRate)
	v.Set("fee_rate", c.FeeRate)
	v.Set("last_values.entry_price", c.LastValues.EntryPrice)
	v.Set("last_values.target_price", c.LastValues.TargetPrice)
	v.Set("last_values.leverage", c.LastValues.Leverage)
	v.Set("last_values.position", c.LastValues.Position)
	v.Set("last_values.capital", c.LastValues.Capital)
	v.Set("logging.level", c.Logging.Level)
	v.Set("logging.file", c.Logging.File)
	v.Set("server.addr", c.Server.Addr)

	if err := v.WriteConfigAs(c.Path()); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// SetFeeRate sets the fee rate as a fraction (0.0005 is 0.05%).
func (c *Config) SetFeeRate(rate float64) error {
	if !validFeeRate(rate) {
		return errors.Wrap(errors.ErrConfigInvalid, "fee rate must be between 0% and 100%")
	}
	c.FeeRate = rate
	return nil
}

// ToggleTheme switches between dark and light and returns the new theme.
func (c *Config) ToggleTheme() string {
	if c.Theme == ThemeDark {
		c.Theme = ThemeLight
	} else {
		c.Theme = ThemeDark
	}
	return c.Theme
}

// Reset restores every setting to its default, keeping the directory.
func (c *Config) Reset() {
	*c = *Default(c.dir)
}

// Form builds a form prefilled with the remembered values.
func (c *Config) Form() form.Form {
	return form.Form{
		EntryPrice:   c.LastValues.EntryPrice,
		TargetPrice:  c.LastValues.TargetPrice,
		Leverage:     strconv.Itoa(c.LastValues.Leverage),
		Position:     c.LastValues.Position,
		Capital:      strconv.FormatFloat(c.LastValues.Capital, 'f', -1, 64),
		ExchangeRate: strconv.FormatFloat(c.ExchangeRate, 'f', -1, 64),
		FeeRate:      c.FeeRate,
	}
}

// Remember stores the form's values as the last used inputs. Numeric
// fields that do not parse keep their previous value.
func (c *Config) Remember(f form.Form) {
	c.LastValues.EntryPrice = f.EntryPrice
	c.LastValues.TargetPrice = f.TargetPrice
	if lev, err := strconv.Atoi(f.Leverage); err == nil {
		c.LastValues.Leverage = lev
	}
	if pos, err := form.ParsePosition(f.Position); err == nil {
		c.LastValues.Position = string(pos)
	}
	if capital, err := strconv.ParseFloat(f.Capital, 64); err == nil && finite(capital) && capital > 0 {
		c.LastValues.Capital = capital
	}
	if rate, err := strconv.ParseFloat(f.ExchangeRate, 64); err == nil && finite(rate) && rate > 0 {
		c.ExchangeRate = rate
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validFeeRate rejects NaN, which fails every comparison.
func validFeeRate(rate float64) bool {
	return rate >= 0 && rate <= 1
}
