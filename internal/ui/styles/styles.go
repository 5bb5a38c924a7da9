// Package styles holds the lipgloss colors and styles shared by both CLIs.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on dark terminals
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple (violet-400)
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red (red-400)
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Status colors
	StatusLaunching = lipgloss.Color("#60A5FA") // Blue
	StatusReady     = lipgloss.Color("#10B981") // Green
	StatusFailed    = lipgloss.Color("#F87171") // Red
	StatusStopped   = lipgloss.Color("#9CA3AF") // Gray

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Success = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	ErrorTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)

	// Key/value rows in summaries
	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(14)

	Value = lipgloss.NewStyle().
		Foreground(TextColor)

	// Indented detail block under an error
	Detail = lipgloss.NewStyle().
		Foreground(MutedColor).
		PaddingLeft(2)

	// Spinner next to progress messages
	Spinner = lipgloss.NewStyle().
		Foreground(PrimaryColor)
)

type statusLook struct {
	color lipgloss.Color
	icon  string
}

// statusLooks is keyed by session status names.
var statusLooks = map[string]statusLook{
	"launching": {StatusLaunching, "○"},
	"ready":     {StatusReady, "●"},
	"failed":    {StatusFailed, "✗"},
	"stopped":   {StatusStopped, "■"},
}

// StatusColor returns the color for a session status. Unknown statuses are
// muted.
func StatusColor(status string) lipgloss.Color {
	if look, ok := statusLooks[status]; ok {
		return look.color
	}
	return MutedColor
}

// StatusIcon returns the marker drawn before a session status.
func StatusIcon(status string) string {
	if look, ok := statusLooks[status]; ok {
		return look.icon
	}
	return "●"
}
