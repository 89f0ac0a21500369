// Package output renders tips, reports and statistics for the terminal.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	ColorPrimary = lipgloss.Color("#64b5f6")
	ColorSuccess = lipgloss.Color("#66bb6a")
	ColorError   = lipgloss.Color("#ef5350")
	ColorWarning = lipgloss.Color("#fff59d")
	ColorMuted   = lipgloss.Color("#888888")
)

// Styles shared by the renderers. SetNoColor swaps them for plain ones.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style
	StyleLabel   lipgloss.Style
	StyleCommand lipgloss.Style
)

// noColor tracks whether color output is disabled.
var noColor bool

// ruleWidth is the width of section rules and wrapped text.
var ruleWidth = 66

func init() {
	applyStyles(false)
}

func applyStyles(plain bool) {
	if plain {
		p := lipgloss.NewStyle()
		StyleHeader, StyleSuccess, StyleError, StyleWarning = p, p, p, p
		StyleMuted, StyleBold, StyleCommand = p, p, p
		StyleLabel = p.Width(11)
		return
	}
	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleLabel = lipgloss.NewStyle().Foreground(ColorMuted).Width(11)
	StyleCommand = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
}

// SetNoColor disables or re-enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// SetWidth sets the width of section rules. Values below 20 are ignored.
func SetWidth(n int) {
	if n >= 20 {
		ruleWidth = n - 2
	}
}

// IsTerminal reports whether w is a terminal. Anything that is not an
// *os.File counts as a pipe.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConfigureColor disables color when forced off or when w is not a terminal.
func ConfigureColor(w io.Writer, enabled bool) {
	SetNoColor(!enabled || !IsTerminal(w))
}
