// Package ui provides consistent styling and components for the Wayfold CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("39")  // Bright blue
	ColorSecondary = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorInfo      = lipgloss.Color("86")  // Cyan

	// Neutral colors
	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
	ColorMuted  = lipgloss.Color("238") // Dark gray

	// Status colors
	ColorEnabled  = ColorSuccess
	ColorDisabled = ColorError
	ColorFocused  = ColorPrimary
)

// Base styles - building blocks for other styles
var (
	// Text styles
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Header styles
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubheaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorMuted).
			Padding(0, 1)

	// Status styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(1, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	ControlKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	ControlDescStyle = lipgloss.NewStyle().
				Foreground(ColorText)
)

// Indicators
var (
	EnabledIndicator = lipgloss.NewStyle().
				Foreground(ColorEnabled).
				Render("●")

	DisabledIndicator = lipgloss.NewStyle().
				Foreground(ColorDisabled).
				Render("○")
)

// Icons for consistent app-wide usage
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconSetup   = "»"
	IconPhase   = "·"
	IconSteps   = "→"
)

// Spinner frames
var SpinnerDot = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

func FormatControl(key, desc string) string {
	return ControlKeyStyle.Render(key) + " - " + ControlDescStyle.Render(desc)
}

// FormatStatus prefixes status with an enabled or disabled indicator.
func FormatStatus(enabled bool, status string) string {
	indicator := DisabledIndicator
	if enabled {
		indicator = EnabledIndicator
	}
	return indicator + " " + status
}

// FormatAppHeader renders a title with a subtle subtitle and a separator.
func FormatAppHeader(title, subtitle string) string {
	header := TitleStyle.Render("WAYFOLD " + title)
	if subtitle != "" {
		header += " " + SubtleStyle.Render(subtitle)
	}
	return header + "\n" + CreateSeparator(50, "─")
}

func FormatSetupHeader(title string) string {
	header := HeaderStyle.UnsetMarginBottom().Render(InfoStyle.Render(IconSetup) + " " + title)
	return header + "\n" + CreateSeparator(50, "─")
}

func FormatSetupPhase(phase string) string {
	return SubheaderStyle.Foreground(ColorInfo).Render(IconPhase + " " + phase)
}

// FormatSetupResult renders one setup step outcome.
func FormatSetupResult(success bool, step, message string) string {
	icon, style := ErrorStyle.Render(IconError), ErrorStyle
	if success {
		icon, style = SuccessStyle.Render(IconSuccess), SuccessStyle
	}

	result := "   " + icon + " " + step
	if message != "" {
		result += " - " + style.Render(message)
	}
	return result
}

// FormatSetupSkipped reports an optional step that did not complete.
func FormatSetupSkipped(step, message string) string {
	result := "   " + WarningStyle.Render(IconWarning) + " " + step
	if message != "" {
		result += " - " + WarningStyle.Render(message)
	}
	return result
}

func FormatActionItem(index int, action string) string {
	return TextStyle.MarginLeft(1).Render(fmt.Sprintf("   %d. %s", index, action))
}

func FormatNextStepsHeader() string {
	return SubheaderStyle.Foreground(ColorInfo).Render(IconSteps + " Next Steps:")
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
