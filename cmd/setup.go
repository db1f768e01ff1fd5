package cmd

import (
	"fmt"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the platform and input devices",
	Long: `Interactively choose the platform and, for DRM sessions, the evdev devices
the compositor reads input from. The choices are saved to the config file.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// deviceKinds are asked for in order; touch is optional.
var deviceKinds = []struct {
	kind     input.DeviceType
	optional bool
}{
	{input.DeviceTypePointer, false},
	{input.DeviceTypeKeyboard, false},
	{input.DeviceTypeTouch, true},
}

func runSetup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.FormatSetupHeader("Wayfold Setup"))

	platform := config.Get().Compositor.Platform
	pickDevices := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Platform").
				Description("Where the compositor presents its outputs").
				Options(
					huh.NewOption("DRM/KMS (console session)", config.PlatformDRM),
					huh.NewOption("Nested in X11", config.PlatformX11),
					huh.NewOption("Nested in Wayland", config.PlatformWayland),
					huh.NewOption("Headless", config.PlatformHeadless),
				).
				Value(&platform),
			huh.NewConfirm().
				Title("Select evdev input devices now?").
				Description("Needed for DRM sessions, unless devices are auto-detected").
				Value(&pickDevices),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := config.SetPlatform(platform); err != nil {
		fmt.Fprintln(out, ui.FormatSetupResult(false, "platform", err.Error()))
		return err
	}
	fmt.Fprintln(out, ui.FormatSetupResult(true, "platform", platform))

	var failures int
	if pickDevices {
		fmt.Fprintln(out, ui.FormatSetupPhase("Input devices"))
		selector := input.NewDeviceSelector()
		for _, d := range deviceKinds {
			path, err := selector.Select(d.kind)
			if err != nil {
				if d.optional {
					fmt.Fprintln(out, ui.FormatSetupSkipped(d.kind.String(), err.Error()))
					continue
				}
				failures++
				fmt.Fprintln(out, ui.FormatSetupResult(false, d.kind.String(), err.Error()))
				continue
			}
			if err := config.SetInputDevice(d.kind.String(), path); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.FormatSetupResult(true, d.kind.String(), path))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.FormatNextStepsHeader())
	fmt.Fprintln(out, ui.FormatActionItem(1, "Review the saved settings: wayfold config show"))
	fmt.Fprintln(out, ui.FormatActionItem(2, "Start the compositor: wayfold run"))
	if failures > 0 {
		fmt.Fprintln(out, ui.FormatActionItem(3, "Add your user to the 'input' group to read /dev/input"))
	}
	return nil
}
