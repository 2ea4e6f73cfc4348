// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jkamya/pesaflow/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#2EC4B6")
	// SuccessColor indicates healthy metrics.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or critical conditions.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats healthy values.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats errors and critical alerts.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)
)

// PriorityStyle returns the style used to render an alert priority.
func PriorityStyle(p model.AlertPriority) lipgloss.Style {
	switch p {
	case model.PriorityCritical, model.PriorityHigh:
		return ErrorStyle
	case model.PriorityMedium:
		return WarningStyle
	default:
		return SubtleStyle
	}
}

// TrendStyle returns the style used to render a trend classification.
func TrendStyle(t model.Trend) lipgloss.Style {
	switch t {
	case model.TrendUp:
		return SuccessStyle
	case model.TrendDown:
		return ErrorStyle
	default:
		return SubtleStyle
	}
}

// HealthStyle grades a 0-100 health score into a color band.
func HealthStyle(score int) lipgloss.Style {
	switch {
	case score >= 75:
		return SuccessStyle
	case score >= 50:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
