// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Platforms the compositor can run on.
const (
	PlatformDRM      = "drm"
	PlatformX11      = "x11"
	PlatformWayland  = "wayland"
	PlatformHeadless = "headless"
)

// Config represents the application configuration
type Config struct {
	Compositor CompositorConfig `mapstructure:"compositor"`
	DRM        DRMConfig        `mapstructure:"drm"`
	X11        X11Config        `mapstructure:"x11"`
	Wayland    WaylandConfig    `mapstructure:"wayland"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Input      InputConfig      `mapstructure:"input"`
	IPC        IPCConfig        `mapstructure:"ipc"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CompositorConfig selects the platform and seat
type CompositorConfig struct {
	Platform string `mapstructure:"platform"` // drm, x11, wayland or headless
	Seat     string `mapstructure:"seat"`
}

// DRMConfig contains GPU discovery settings
type DRMConfig struct {
	Device    string `mapstructure:"device"` // Skip discovery and open this card node
	SysfsRoot string `mapstructure:"sysfs_root"`
	UdevData  string `mapstructure:"udev_data"`
}

// OutputConfig describes a window or virtual output
type OutputConfig struct {
	Name    string `mapstructure:"name"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Refresh int    `mapstructure:"refresh"` // mHz, headless only
	Scale   int    `mapstructure:"scale"`   // headless only
}

// X11Config contains nested X11 settings
type X11Config struct {
	Display string         `mapstructure:"display"` // Empty means $DISPLAY
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// WaylandConfig contains nested Wayland settings
type WaylandConfig struct {
	Display string `mapstructure:"display"` // Empty means $WAYLAND_DISPLAY
}

// HeadlessConfig contains virtual output settings
type HeadlessConfig struct {
	Outputs []OutputConfig `mapstructure:"outputs"`
}

// InputConfig contains evdev input settings. Empty device paths are
// auto-detected.
type InputConfig struct {
	PointerDevice  string `mapstructure:"pointer_device"`
	KeyboardDevice string `mapstructure:"keyboard_device"`
	TouchDevice    string `mapstructure:"touch_device"`
	Grab           bool   `mapstructure:"grab"` // EVIOCGRAB the devices
}

// IPCConfig contains control socket settings
type IPCConfig struct {
	SocketPath string `mapstructure:"socket_path"` // Empty means /tmp/wayfold-<user>.sock
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Compositor: CompositorConfig{
			Platform: PlatformDRM,
			Seat:     "seat0",
		},
		DRM: DRMConfig{
			SysfsRoot: "/sys",
			UdevData:  "/run/udev/data",
		},
		X11: X11Config{
			Outputs: []OutputConfig{{Name: "X1", Width: 1024, Height: 640}},
		},
		Headless: HeadlessConfig{
			Outputs: []OutputConfig{{Name: "HEADLESS-1", Width: 1920, Height: 1080, Refresh: 60000, Scale: 1}},
		},
		Input: InputConfig{
			Grab: false,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("wayfold")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		// Add config paths in order of precedence
		viper.AddConfigPath("/etc/wayfold")

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/wayfold", sudoUser))
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wayfold"))
		}

		viper.AddConfigPath(".")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("compositor.platform", DefaultConfig.Compositor.Platform)
	viper.SetDefault("compositor.seat", DefaultConfig.Compositor.Seat)

	viper.SetDefault("drm.device", DefaultConfig.DRM.Device)
	viper.SetDefault("drm.sysfs_root", DefaultConfig.DRM.SysfsRoot)
	viper.SetDefault("drm.udev_data", DefaultConfig.DRM.UdevData)

	viper.SetDefault("x11.display", DefaultConfig.X11.Display)
	viper.SetDefault("x11.outputs", outputMaps(DefaultConfig.X11.Outputs))
	viper.SetDefault("wayland.display", DefaultConfig.Wayland.Display)
	viper.SetDefault("headless.outputs", outputMaps(DefaultConfig.Headless.Outputs))

	viper.SetDefault("input.pointer_device", DefaultConfig.Input.PointerDevice)
	viper.SetDefault("input.keyboard_device", DefaultConfig.Input.KeyboardDevice)
	viper.SetDefault("input.touch_device", DefaultConfig.Input.TouchDevice)
	viper.SetDefault("input.grab", DefaultConfig.Input.Grab)

	viper.SetDefault("ipc.socket_path", DefaultConfig.IPC.SocketPath)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

// outputMaps converts outputs into the form viper writes back to TOML.
func outputMaps(outputs []OutputConfig) []map[string]any {
	out := make([]map[string]any, 0, len(outputs))
	for _, o := range outputs {
		m := map[string]any{"name": o.Name, "width": o.Width, "height": o.Height}
		if o.Refresh != 0 {
			m["refresh"] = o.Refresh
		}
		if o.Scale != 0 {
			m["scale"] = o.Scale
		}
		out = append(out, m)
	}
	return out
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Compositor.Platform {
	case PlatformDRM, PlatformX11, PlatformWayland, PlatformHeadless:
	default:
		return fmt.Errorf("unknown platform %q, expected one of drm, x11, wayland, headless", c.Compositor.Platform)
	}
	for _, section := range []struct {
		name    string
		outputs []OutputConfig
	}{{"x11", c.X11.Outputs}, {"headless", c.Headless.Outputs}} {
		for i, o := range section.outputs {
			if o.Width <= 0 || o.Height <= 0 {
				return fmt.Errorf("%s.outputs[%d]: invalid size %dx%d", section.name, i, o.Width, o.Height)
			}
		}
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	// DRM sessions usually run as root, prefer system config
	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/wayfold/wayfold.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/wayfold/wayfold.toml"
	}
	return filepath.Join(home, ".config", "wayfold", "wayfold.toml")
}

// SetInputDevice stores the device path chosen for kind ("pointer",
// "keyboard" or "touch") and saves the file.
func SetInputDevice(kind, path string) error {
	c := Get()
	switch kind {
	case "pointer":
		c.Input.PointerDevice = path
	case "keyboard":
		c.Input.KeyboardDevice = path
	case "touch":
		c.Input.TouchDevice = path
	default:
		return fmt.Errorf("unknown input device kind %q", kind)
	}
	viper.Set("input."+kind+"_device", path)
	return Save()
}

// SetPlatform updates the platform and saves the file.
func SetPlatform(platform string) error {
	c := Get()
	prev := c.Compositor.Platform
	c.Compositor.Platform = platform
	if err := c.Validate(); err != nil {
		c.Compositor.Platform = prev
		return err
	}
	viper.Set("compositor.platform", platform)
	return Save()
}
