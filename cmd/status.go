package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/ipc"
	"github.com/bnema/wayfold/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the running compositor",
	Long: `Show the seat, focus, outputs and mapped surfaces of the running compositor.
With --watch the view refreshes until q is pressed.`,
	RunE: runStatus,
}

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List the outputs of the running compositor",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		outputs, err := client.Outputs()
		if err != nil {
			return notRunning(cmd, err)
		}

		var out strings.Builder
		out.WriteString(ui.FormatAppHeader("OUTPUTS", fmt.Sprintf("%d connected", len(outputs))))
		out.WriteString("\n\n")
		out.WriteString(ui.OutputsTable(outputs))
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Refresh continuously")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", time.Second, "Refresh interval for --watch")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(outputsCmd)
}

func newClient() (*ipc.Client, error) {
	client, err := ipc.NewClient(config.Get().IPC.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPC client: %w", err)
	}
	return client, nil
}

// notRunning reports a missing compositor as a message rather than an error.
func notRunning(cmd *cobra.Command, err error) error {
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Fprintln(cmd.OutOrStdout(), "Wayfold compositor is not running")
		return nil
	}
	return err
}

func fetchSnapshot(client *ipc.Client) (ui.Snapshot, error) {
	var snap ui.Snapshot
	var err error
	if snap.Status, err = client.Status(); err != nil {
		return snap, err
	}
	if snap.Outputs, err = client.Outputs(); err != nil {
		return snap, err
	}
	snap.Scene, err = client.Scene()
	return snap, err
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if statusWatch {
		model := ui.NewWatchModel(func() (ui.Snapshot, error) {
			return fetchSnapshot(client)
		}, statusInterval)
		_, err := tea.NewProgram(model, tea.WithOutput(cmd.OutOrStdout())).Run()
		return err
	}

	snap, err := fetchSnapshot(client)
	if err != nil {
		return notRunning(cmd, err)
	}

	var out strings.Builder
	out.WriteString(ui.FormatAppHeader("STATUS", snap.Status.Platform))
	out.WriteString("\n\n")
	out.WriteString(ui.StatusPanel(snap.Status))
	out.WriteString("\n\n")
	out.WriteString(ui.SubheaderStyle.Render(fmt.Sprintf("Scene (%d)", len(snap.Scene))))
	out.WriteString("\n")
	out.WriteString(ui.SceneTable(snap.Scene))
	out.WriteString("\n\n")
	out.WriteString(ui.SubtleStyle.Render("Use 'wayfold outputs' for output modes and layout"))
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}
