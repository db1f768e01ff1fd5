package ui

import (
	"strings"
	"time"

	"github.com/bnema/wayfold/internal/ipc"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Snapshot is one poll of a running compositor.
type Snapshot struct {
	Status  ipc.StatusInfo
	Outputs []ipc.OutputInfo
	Scene   []ipc.ViewInfo
}

// FetchFunc polls the compositor.
type FetchFunc func() (Snapshot, error)

type snapshotMsg struct {
	snap Snapshot
	err  error
}

type tickMsg time.Time

// WatchModel refreshes the status view every interval until q is pressed.
type WatchModel struct {
	fetch    FetchFunc
	interval time.Duration
	spinner  spinner.Model

	snap    Snapshot
	err     error
	loaded  bool
	updated time.Time
	width   int
}

// NewWatchModel creates a model that calls fetch every interval.
func NewWatchModel(fetch FetchFunc, interval time.Duration) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerDot,
		FPS:    time.Second / 10,
	}
	s.Style = SpinnerStyle

	if interval <= 0 {
		interval = time.Second
	}
	return &WatchModel{
		fetch:    fetch,
		interval: interval,
		spinner:  s,
		width:    80,
	}
}

func (m *WatchModel) poll() tea.Msg {
	snap, err := m.fetch()
	return snapshotMsg{snap: snap, err: err}
}

func (m *WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll)
}

// Update implements tea.Model
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.poll
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.updated = time.Now()
		}
		return m, m.tick()
	case tickMsg:
		return m, m.poll
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m *WatchModel) View() string {
	var b strings.Builder
	b.WriteString(FormatAppHeader("STATUS", "refresh "+m.interval.String()))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.spinner.View() + " " + SubtleStyle.Render("Connecting to compositor..."))
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(IconError+" "+m.err.Error()) + " " + m.spinner.View())
	default:
		b.WriteString(StatusPanel(m.snap.Status))
		b.WriteString("\n\n")
		b.WriteString(SubheaderStyle.Render("Outputs"))
		b.WriteString("\n")
		b.WriteString(OutputsTable(m.snap.Outputs))
		b.WriteString("\n\n")
		b.WriteString(SubheaderStyle.Render("Scene"))
		b.WriteString("\n")
		b.WriteString(SceneTable(m.snap.Scene))
		b.WriteString("\n\n")
		b.WriteString(SubtleStyle.Render("Updated " + m.updated.Format(time.TimeOnly)))
	}

	b.WriteString("\n\n")
	b.WriteString(FormatControl("r", "refresh") + "  " + FormatControl("q", "quit"))
	b.WriteString("\n")
	return b.String()
}
