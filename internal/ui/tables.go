package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/wayfold/internal/ipc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().
					Foreground(ColorPrimary).
					Bold(true).
					Padding(0, 1)
			case col == 0:
				return lipgloss.NewStyle().
					Foreground(ColorInfo).
					Bold(true).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorText).
					Padding(0, 1)
			}
		}).
		Headers(headers...)
}

// FormatRefresh renders a refresh rate given in mHz.
func FormatRefresh(mHz int) string {
	if mHz <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f Hz", float64(mHz)/1000)
}

// OutputsTable renders outputs in layout order.
func OutputsTable(outputs []ipc.OutputInfo) string {
	if len(outputs) == 0 {
		return MutedStyle.Italic(true).Render("No outputs")
	}

	t := newTable("NAME", "MODE", "POSITION", "SCALE", "MODEL", "STATE")
	for _, o := range outputs {
		state := FormatStatus(true, "enabled")
		if !o.Enabled {
			state = FormatStatus(false, "disabled")
		}
		model := strings.TrimSpace(o.Make + " " + o.Model)
		if model == "" {
			model = "-"
		}
		t.Row(
			o.Name,
			fmt.Sprintf("%dx%d @ %s", o.Width, o.Height, FormatRefresh(o.Refresh)),
			fmt.Sprintf("%d,%d", o.X, o.Y),
			strconv.Itoa(o.Scale),
			model,
			state,
		)
	}
	return t.String()
}

// SceneTable renders views front to back.
func SceneTable(views []ipc.ViewInfo) string {
	if len(views) == 0 {
		return MutedStyle.Italic(true).Render("No mapped surfaces")
	}

	t := newTable("#", "SURFACE", "CLIENT", "POSITION", "SIZE")
	for i, v := range views {
		t.Row(
			strconv.Itoa(i),
			v.Surface,
			strconv.FormatUint(v.Client, 10),
			fmt.Sprintf("%d,%d", v.X, v.Y),
			fmt.Sprintf("%dx%d", v.Width, v.Height),
		)
	}
	return t.String()
}

// StatusPanel renders the compositor summary box.
func StatusPanel(s ipc.StatusInfo) string {
	label := func(name string) string {
		return SubheaderStyle.Width(16).Render(name)
	}
	focus := func(name string) string {
		if name == "" {
			return MutedStyle.Render("none")
		}
		return lipgloss.NewStyle().Foreground(ColorFocused).Render(name)
	}

	lines := []string{
		SuccessStyle.Render("● Running") + " " + SubtleStyle.Render("on "+s.Platform),
		label("Seat") + TextStyle.Render(s.Seat),
		label("Capabilities") + TextStyle.Render(s.Capabilities),
		label("Outputs") + TextStyle.Render(strconv.Itoa(s.Outputs)),
		label("Surfaces") + TextStyle.Render(fmt.Sprintf("%d (%d mapped)", s.Surfaces, s.Views)),
		label("Frames") + TextStyle.Render(strconv.FormatUint(s.Frames, 10)),
		label("Serial") + TextStyle.Render(strconv.FormatUint(uint64(s.Serial), 10)),
		label("Pending jobs") + TextStyle.Render(strconv.Itoa(s.PendingJobs)),
		label("Pointer focus") + focus(s.PointerFocus),
		label("Keyboard focus") + focus(s.KeyboardFocus),
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}
