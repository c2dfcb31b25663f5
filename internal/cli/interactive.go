package cli

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"levercalc/internal/calc"
	"levercalc/internal/form"
	"levercalc/internal/logging"
)

const interactiveHelp = `Commands:
  <field> <value>   set a field and recompute (fields: entry, target, leverage, position, capital, rate)
  <field>=<value>   same as above
  show              print the current inputs and result
  fee <percent>     set the fee per side in percent, e.g. "fee 0.04"
  theme             toggle dark/light colors
  save              remember the current inputs
  help              show this help
  quit              leave`

// session is the state of an interactive run: the form being edited and
// where to print.
type session struct {
	app    *App
	cmd    *cobra.Command
	output *Output
	form   form.Form
}

func newInteractiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Edit inputs one at a time and recompute after every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &session{
				app:    app,
				cmd:    cmd,
				output: app.output(cmd),
				form:   app.Config.Form(),
			}

			s.output.Bold("levercalc interactive (type 'help' for commands)")
			s.render()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				s.output.Printf("> ")
				if !scanner.Scan() {
					s.output.Println()
					return scanner.Err()
				}
				if quit := s.handle(scanner.Text()); quit {
					return nil
				}
			}
		},
	}
}

// handle runs one input line and reports whether the session should end.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	name, value := splitCommand(line)
	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.output.Println(interactiveHelp)
	case "show":
		s.showInputs()
		s.render()
	case "fee":
		s.setFee(value)
	case "theme":
		theme := s.app.Config.ToggleTheme()
		if err := s.app.Config.Save(); err != nil {
			s.output.Error("Failed to save settings: %v", err)
			return false
		}
		s.output = s.app.output(s.cmd)
		s.output.Success("Theme set to %s", theme)
	case "save":
		s.app.Config.Remember(s.form)
		if err := s.app.Config.Save(); err != nil {
			s.output.Error("Failed to save settings: %v", err)
			return false
		}
		s.output.Success("Settings saved")
	default:
		if err := s.form.Set(name, value); err != nil {
			s.output.Error("%v", err)
			return false
		}
		s.render()
	}
	return false
}

func (s *session) setFee(value string) {
	pct, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		s.output.Error("Enter a valid number")
		return
	}
	if err := s.app.Config.SetFeeRate(pct / 100); err != nil {
		s.output.Error("Fee rate must be between 0%% and 100%%")
		return
	}
	if err := s.app.Config.Save(); err != nil {
		s.output.Error("Failed to save settings: %v", err)
		return
	}
	s.form.FeeRate = s.app.Config.FeeRate
	s.output.Success("Fee set to %s per side", FormatFeeRate(s.form.FeeRate))
	s.render()
}

// render recomputes from scratch and replaces whatever was shown before.
func (s *session) render() {
	in, res, err := s.form.Evaluate()
	if err != nil {
		logging.LogRejected(s.app.Logger, err)
		renderRejected(s.output, err)
		return
	}
	logging.LogCalculation(s.app.Logger, in, res)
	breakEven, _ := calc.BreakEvenPrice(in)
	renderResult(s.output, in, res, breakEven)
}

func (s *session) showInputs() {
	f := s.form
	s.output.Printf("  entry=%s target=%s leverage=%s position=%s capital=%s rate=%s fee=%s\n",
		f.EntryPrice, f.TargetPrice, f.Leverage, f.Position, f.Capital, f.ExchangeRate, FormatFeeRate(f.FeeRate))
}

// splitCommand accepts "name value" and "name=value".
func splitCommand(line string) (string, string) {
	if i := strings.Index(line, "="); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
	}
	fields := strings.Fields(line)
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
}
