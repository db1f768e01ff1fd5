package cmd

import (
	"fmt"

	"github.com/bnema/wayfold/internal/config"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "wayfold",
		Short: "Wayfold - a minimal Wayland compositor",
		Long: `Wayfold is a small Wayland compositor core. It runs directly on DRM/KMS,
nested inside an X11 or Wayland session, or headless for testing, and can be
inspected through a control socket while it runs.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default searches /etc/wayfold, ~/.config/wayfold, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	defer logger.Debug("Configuration loaded", "path", config.GetConfigPath())

	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.Logger.SetLevel(level)
		return nil
	}
	return logger.SetLevel(config.Get().Logging.LogLevel)
}
