package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatControl(t *testing.T) {
	tests := []struct {
		name string
		key  string
		desc string
	}{
		{name: "basic control", key: "q", desc: "Quit"},
		{name: "longer key", key: "ctrl+alt+backspace", desc: "Release grab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatControl(tt.key, tt.desc)
			assert.Contains(t, got, tt.key)
			assert.Contains(t, got, tt.desc)
		})
	}
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name      string
		enabled   bool
		status    string
		indicator string
	}{
		{name: "enabled", enabled: true, status: "HDMI-A-1", indicator: "●"},
		{name: "disabled", enabled: false, status: "DP-2", indicator: "○"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.enabled, tt.status)
			assert.Contains(t, got, tt.status)
			assert.Contains(t, got, tt.indicator)
		})
	}
}

func TestFormatAppHeader(t *testing.T) {
	got := FormatAppHeader("OUTPUTS", "x11")
	assert.Contains(t, got, "WAYFOLD OUTPUTS")
	assert.Contains(t, got, "x11")
	assert.Contains(t, got, "─")
}

func TestFormatSetupResult(t *testing.T) {
	ok := FormatSetupResult(true, "pointer", "/dev/input/event3")
	assert.Contains(t, ok, IconSuccess)
	assert.Contains(t, ok, "/dev/input/event3")

	failed := FormatSetupResult(false, "keyboard", "")
	assert.Contains(t, failed, IconError)
	assert.NotContains(t, failed, " - ")
}

func TestFormatSetupSkipped(t *testing.T) {
	got := FormatSetupSkipped("touch", "no touch devices found")
	assert.Contains(t, got, IconWarning)
	assert.Contains(t, got, "touch")
	assert.Contains(t, got, "no touch devices found")
	assert.NotContains(t, got, IconError)
}

func TestCreateSeparator(t *testing.T) {
	tests := []struct {
		name  string
		width int
		char  string
		want  int
	}{
		{name: "explicit", width: 10, char: "=", want: 10},
		{name: "default width", width: 0, char: "-", want: 50},
		{name: "default char", width: 5, char: "", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSeparator(tt.width, tt.char)
			assert.Equal(t, tt.want, lipgloss.Width(got))
			if tt.char != "" {
				assert.Equal(t, tt.want, strings.Count(got, tt.char))
			}
		})
	}
}
