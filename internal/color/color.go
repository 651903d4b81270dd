package color

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	success = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	failure = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	warning = lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFA726"}
	info    = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#42A5F5"}
	muted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true)
	PassedStyle  = lipgloss.NewStyle().Foreground(success)
	FailedStyle  = lipgloss.NewStyle().Foreground(failure).Bold(true)
	SkippedStyle = lipgloss.NewStyle().Foreground(warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(info)
	MutedStyle   = lipgloss.NewStyle().Foreground(muted)
)

// Initialize tells lipgloss which background the terminal has so adaptive
// colors resolve to the right variant.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}
