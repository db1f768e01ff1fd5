package input

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/huh"
	"github.com/gvalkov/golang-evdev"
)

// DeviceType is the seat capability an evdev node provides.
type DeviceType int

const (
	DeviceTypePointer DeviceType = iota
	DeviceTypeKeyboard
	DeviceTypeTouch
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypePointer:
		return "pointer"
	case DeviceTypeKeyboard:
		return "keyboard"
	case DeviceTypeTouch:
		return "touch"
	}
	return fmt.Sprintf("DeviceType(%d)", int(t))
}

// Capability returns the seat capability the device type enables.
func (t DeviceType) Capability() Capability {
	switch t {
	case DeviceTypePointer:
		return CapabilityPointer
	case DeviceTypeKeyboard:
		return CapabilityKeyboard
	case DeviceTypeTouch:
		return CapabilityTouch
	}
	return 0
}

// DeviceInfo represents information about an input device
type DeviceInfo struct {
	Path        string
	Name        string
	Symlink     string
	Descriptive string
}

// DeviceSelector lists evdev nodes by type and lets the user pick one.
type DeviceSelector struct {
	pattern string
}

func NewDeviceSelector() *DeviceSelector {
	return &DeviceSelector{pattern: "/dev/input/event*"}
}

// Select presents an interactive selection for a device of the given type.
// A single candidate is picked without asking.
func (s *DeviceSelector) Select(deviceType DeviceType) (string, error) {
	devices, err := s.ListDevices(deviceType)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no %s devices found", deviceType)
	}
	if len(devices) == 1 {
		logger.Infof("Auto-selected %s device: %s", deviceType, devices[0].Descriptive)
		return devices[0].Path, nil
	}

	options := make([]huh.Option[string], len(devices))
	for i, dev := range devices {
		options[i] = huh.NewOption(dev.Descriptive, dev.Path)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Select %s device", deviceType)).
				Description("Choose the device the compositor reads input from").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("device selection cancelled: %w", err)
	}

	// Prefer the stable by-id link so the config survives renumbering.
	for _, dev := range devices {
		if dev.Path == selected && dev.Symlink != "" {
			return dev.Symlink, nil
		}
	}
	return selected, nil
}

// ListDevices lists the input devices of the given type.
func (s *DeviceSelector) ListDevices(deviceType DeviceType) ([]DeviceInfo, error) {
	evdevices, err := evdev.ListInputDevices(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var devices []DeviceInfo
	for _, dev := range evdevices {
		if !deviceMatches(dev.Name, dev.CapabilitiesFlat, deviceType) {
			continue
		}
		info := DeviceInfo{
			Path:    dev.Fn,
			Name:    dev.Name,
			Symlink: findSymlink(dev.Fn),
		}
		if info.Symlink != "" {
			info.Descriptive = fmt.Sprintf("%s (%s → %s)", dev.Name, info.Symlink, dev.Fn)
		} else {
			info.Descriptive = fmt.Sprintf("%s (%s)", dev.Name, dev.Fn)
		}
		devices = append(devices, info)
	}
	return devices, nil
}

// Classify returns every device type the capabilities support.
func Classify(name string, caps map[int][]int) []DeviceType {
	var types []DeviceType
	for _, t := range []DeviceType{DeviceTypePointer, DeviceTypeKeyboard, DeviceTypeTouch} {
		if deviceMatches(name, caps, t) {
			types = append(types, t)
		}
	}
	return types
}

func deviceMatches(name string, caps map[int][]int, deviceType DeviceType) bool {
	if caps == nil {
		return false
	}
	keys := caps[evdev.EV_KEY]

	switch deviceType {
	case DeviceTypePointer:
		rel := caps[evdev.EV_REL]
		if !slices.Contains(rel, evdev.REL_X) || !slices.Contains(rel, evdev.REL_Y) {
			return false
		}
		return slices.ContainsFunc(keys, func(k int) bool {
			return k == evdev.BTN_LEFT || k == evdev.BTN_RIGHT || k == evdev.BTN_MIDDLE
		})

	case DeviceTypeKeyboard:
		lower := strings.ToLower(name)
		for _, skip := range []string{"power", "video", "sleep", "button"} {
			if strings.Contains(lower, skip) {
				return false
			}
		}
		return slices.ContainsFunc(keys, func(k int) bool { return k >= evdev.KEY_A && k <= evdev.KEY_Z })

	case DeviceTypeTouch:
		abs := caps[evdev.EV_ABS]
		if !slices.Contains(abs, evdev.ABS_MT_SLOT) ||
			!slices.Contains(abs, evdev.ABS_MT_POSITION_X) ||
			!slices.Contains(abs, evdev.ABS_MT_POSITION_Y) {
			return false
		}
		// Touchpads report finger tools and drive the pointer instead.
		return !slices.Contains(keys, evdev.BTN_TOOL_FINGER)
	}
	return false
}

// findSymlink finds the symlink for a device path in /dev/input/by-id or /dev/input/by-path
func findSymlink(devicePath string) string {
	for _, dir := range []string{"/dev/input/by-id", "/dev/input/by-path"} {
		if link := findSymlinkInDir(devicePath, dir); link != "" {
			return link
		}
	}
	return ""
}

func findSymlinkInDir(devicePath, dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(dir, entry.Name())
		if resolveLink(link) == devicePath {
			return link
		}
	}
	return ""
}

// resolveLink returns the event node a /dev/input symlink points to, or the
// path itself when it is not a link.
func resolveLink(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		return path
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target)
}
