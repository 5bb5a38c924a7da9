// Package util holds small helpers shared by the process and rendering code.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// TruncateString shortens s to at most maxRunes runes, ending in Ellipsis
// when anything was cut. Escape sequences are counted as text; use
// TruncateANSI for styled output.
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= len(Ellipsis) {
		return Ellipsis[:max(maxRunes, 0)]
	}
	return string(runes[:maxRunes-len(Ellipsis)]) + Ellipsis
}

// TruncateANSI shortens styled terminal text to width display columns,
// keeping escape sequences intact. A width of zero or less disables
// truncation.
func TruncateANSI(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}
