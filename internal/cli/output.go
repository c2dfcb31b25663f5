package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"levercalc/internal/config"
)

// palette maps P&L direction to terminal colors for one theme.
type palette struct {
	positive *color.Color
	negative *color.Color
	neutral  *color.Color
	accent   *color.Color
	dim      *color.Color
}

func newPalette(theme string) palette {
	if theme == config.ThemeLight {
		return palette{
			positive: color.New(color.FgGreen),
			negative: color.New(color.FgRed),
			neutral:  color.New(color.FgBlack),
			accent:   color.New(color.FgBlue, color.Bold),
			dim:      color.New(color.Faint),
		}
	}
	return palette{
		positive: color.New(color.FgHiGreen),
		negative: color.New(color.FgHiRed),
		neutral:  color.New(color.FgHiWhite),
		accent:   color.New(color.FgHiCyan, color.Bold),
		dim:      color.New(color.Faint),
	}
}

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
	colors       palette
}

// NewOutput creates a new Output instance for a command.
func NewOutput(cmd *cobra.Command, theme string) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	w := cmd.OutOrStdout()
	o := &Output{
		writer:       w,
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(w),
		colors:       newPalette(theme),
	}
	if o.colorEnabled {
		for _, c := range []*color.Color{o.colors.positive, o.colors.negative, o.colors.neutral, o.colors.accent, o.colors.dim} {
			c.EnableColor()
		}
	}
	return o
}

// isTerminal checks if w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(o.colors.positive, format, args...)
}

// Error prints an error message.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(o.colors.negative, format, args...)
}

// Info prints an info message.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(o.colors.accent, format, args...)
}

// Bold prints a heading.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(o.colors.accent, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(o.colors.dim, format, args...)
}

func (o *Output) line(c *color.Color, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(c, fmt.Sprintf(format, args...)))
}

func (o *Output) paint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	return c.Sprint(text)
}

// pnlColor returns the palette entry for a signed value.
func (o *Output) pnlColor(v float64) *color.Color {
	switch {
	case v > 0:
		return o.colors.positive
	case v < 0:
		return o.colors.negative
	default:
		return o.colors.neutral
	}
}

// FormatPnL formats a dollar P&L with color.
func (o *Output) FormatPnL(pnl float64) string {
	return o.paint(o.pnlColor(pnl), FormatPnL(pnl))
}

// FormatPercent formats percentage with color.
func (o *Output) FormatPercent(pct float64) string {
	return o.paint(o.pnlColor(pct), FormatPercent(pct))
}

// FormatSigned colors any preformatted text by the sign of v.
func (o *Output) FormatSigned(v float64, text string) string {
	return o.paint(o.pnlColor(v), text)
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := visibleLen(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - visibleLen(cell)
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if isHeader {
				padded = t.output.paint(t.output.colors.accent, padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.paint(t.output.colors.dim, strings.Join(parts, "──")))
}

// visibleLen counts runes, skipping ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
