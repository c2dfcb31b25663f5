package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const settingsTemplate = `# levercalc settings

# Color theme: "dark" or "light"
theme = "dark"
# KRW per USD
exchange_rate = 1450.0
# Per-side exchange fee as a fraction (0.0005 = 0.05%)
fee_rate = 0.0005

# Inputs remembered by 'levercalc calc --remember' and the interactive 'save'
[last_values]
entry_price = ""
target_price = ""
leverage = 10
position = "Long"
capital = 1000.0

[logging]
# debug, info, warn, error
level = "info"
# Also write a rotating log file under <config dir>/logs
file = true

[server]
addr = "127.0.0.1:8080"
`

func createTemplateSettings(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	if err := os.WriteFile(path, []byte(settingsTemplate), 0644); err != nil {
		return fmt.Errorf("writing settings template: %w", err)
	}
	return nil
}
