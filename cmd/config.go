package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Wayfold configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		orUnset := func(s string) string {
			if s == "" {
				return ui.MutedStyle.Render("(auto)")
			}
			return s
		}
		outputs := func(list []config.OutputConfig) string {
			parts := make([]string, 0, len(list))
			for _, o := range list {
				parts = append(parts, fmt.Sprintf("%s %dx%d", o.Name, o.Width, o.Height))
			}
			return strings.Join(parts, ", ")
		}

		var b strings.Builder
		section := func(name string) {
			b.WriteString("\n" + ui.SubheaderStyle.Render("["+name+"]") + "\n")
		}
		field := func(name, value string) {
			b.WriteString(fmt.Sprintf("  %-16s %s\n", name, value))
		}

		b.WriteString(ui.FormatAppHeader("CONFIG", config.GetConfigPath()) + "\n")
		section("compositor")
		field("platform", cfg.Compositor.Platform)
		field("seat", cfg.Compositor.Seat)
		section("drm")
		field("device", orUnset(cfg.DRM.Device))
		field("sysfs_root", cfg.DRM.SysfsRoot)
		field("udev_data", cfg.DRM.UdevData)
		section("x11")
		field("display", orUnset(cfg.X11.Display))
		field("outputs", outputs(cfg.X11.Outputs))
		section("wayland")
		field("display", orUnset(cfg.Wayland.Display))
		section("headless")
		field("outputs", outputs(cfg.Headless.Outputs))
		section("input")
		field("pointer_device", orUnset(cfg.Input.PointerDevice))
		field("keyboard_device", orUnset(cfg.Input.KeyboardDevice))
		field("touch_device", orUnset(cfg.Input.TouchDevice))
		field("grab", fmt.Sprint(cfg.Input.Grab))
		section("ipc")
		field("socket_path", orUnset(cfg.IPC.SocketPath))
		section("logging")
		field("log_level", orUnset(cfg.Logging.LogLevel))

		fmt.Fprint(cmd.OutOrStdout(), b.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists at: %s\nUse --force to overwrite\n", configPath)
				return nil
			}
		}

		if err := config.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
	rootCmd.AddCommand(configCmd)
}
