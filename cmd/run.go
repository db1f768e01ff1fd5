package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/bnema/wayfold/internal/server"
	"github.com/spf13/cobra"
)

var (
	runPlatform string
	runSocket   string
	runGrab     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compositor",
	Long: `Run the compositor on the configured platform until interrupted.

Platforms:
  drm       take over a GPU from the console (needs a free VT and access to /dev/dri)
  x11       one X11 window per output
  wayland   mirror the outputs of a host Wayland compositor
  headless  virtual outputs, no display`,
	RunE: runCompositor,
}

func init() {
	runCmd.Flags().StringVarP(&runPlatform, "platform", "p", "", "Platform override: drm, x11, wayland or headless")
	runCmd.Flags().StringVar(&runSocket, "socket", "", "Control socket path override")
	runCmd.Flags().BoolVar(&runGrab, "grab", false, "Grab evdev devices exclusively")
	rootCmd.AddCommand(runCmd)
}

func runCompositor(cmd *cobra.Command, args []string) error {
	cfg := *config.Get()
	if runPlatform != "" {
		cfg.Compositor.Platform = runPlatform
	}
	if runSocket != "" {
		cfg.IPC.SocketPath = runSocket
	}
	if cmd.Flags().Changed("grab") {
		cfg.Input.Grab = runGrab
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Compositor.Platform == config.PlatformDRM && os.Getenv("WAYLAND_DISPLAY") != "" {
		logger.Warn("A Wayland session is already running, DRM master will likely be unavailable",
			"hint", "use --platform wayland to run nested")
	}

	srv, err := server.New(&cfg)
	if err != nil {
		return fmt.Errorf("failed to create compositor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting wayfold", "version", Version, "platform", cfg.Compositor.Platform, "seat", cfg.Compositor.Seat)
	return srv.Run(ctx)
}
