package color

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		isDarkMode bool
		expected   bool
	}{
		{"set dark mode", true, true},
		{"set light mode", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Initialize(tt.isDarkMode)
			assert.Equal(t, tt.expected, lipgloss.HasDarkBackground())
		})
	}
}

func TestStylesKeepText(t *testing.T) {
	for _, style := range []lipgloss.Style{TitleStyle, PassedStyle, FailedStyle, SkippedStyle, InfoStyle, MutedStyle} {
		assert.Contains(t, style.Render("booking"), "booking")
	}
}
