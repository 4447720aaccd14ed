package output

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	styleGreen   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleYellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleRed     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleCyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleMagenta = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// ColorGreen colors text green
func ColorGreen(text string) string { return styleGreen.Render(text) }

// ColorYellow colors text yellow
func ColorYellow(text string) string { return styleYellow.Render(text) }

// ColorRed colors text red
func ColorRed(text string) string { return styleRed.Render(text) }

// ColorCyan colors text cyan
func ColorCyan(text string) string { return styleCyan.Render(text) }

// ColorDim makes text dim/gray
func ColorDim(text string) string { return styleDim.Render(text) }

// ColorMagenta colors text magenta
func ColorMagenta(text string) string { return styleMagenta.Render(text) }
