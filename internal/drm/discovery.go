// Package drm drives outputs on bare metal through the kernel mode setting
// API: it finds the primary GPU of a seat, assigns CRTCs to the connected
// connectors, picks their modes and turns them into compositor outputs.
package drm

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// DefaultSeat is the seat of devices that udev did not tag with ID_SEAT.
const DefaultSeat = "seat0"

var (
	ErrNoDevice = errors.New("no drm capable gpu device found")
	ErrNoMode   = errors.New("could not find a valid mode")
)

// Device is a DRM card node as seen through sysfs.
type Device struct {
	Name    string // card0
	SysPath string
	DevNode string
	// Sysnum is the numeric suffix of the name.
	Sysnum  int
	DevNum  string // major:minor
	Seat    string
	BootVGA bool
}

// Discovery enumerates DRM cards from sysfs and the udev database.
type Discovery struct {
	fs        afero.Fs
	sysfsRoot string
	udevData  string
	devRoot   string
}

// NewDiscovery reads sysfs below sysfsRoot (normally /sys) and udev device
// properties from udevData (normally /run/udev/data).
func NewDiscovery(fs afero.Fs, sysfsRoot, udevData string) *Discovery {
	return &Discovery{fs: fs, sysfsRoot: sysfsRoot, udevData: udevData, devRoot: "/dev/dri"}
}

// Devices lists every card node, ordered by card number.
func (d *Discovery) Devices() ([]Device, error) {
	classDir := path.Join(d.sysfsRoot, "class", "drm")
	entries, err := afero.ReadDir(d.fs, classDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classDir, err)
	}

	var devices []Device
	for _, entry := range entries {
		num, ok := cardNumber(entry.Name())
		if !ok {
			continue
		}
		dev := Device{
			Name:    entry.Name(),
			SysPath: path.Join(classDir, entry.Name()),
			DevNode: path.Join(d.devRoot, entry.Name()),
			Sysnum:  num,
			Seat:    DefaultSeat,
		}
		dev.DevNum = d.readAttr(path.Join(dev.SysPath, "dev"))
		if seat := d.udevProperty(dev.DevNum, "ID_SEAT"); seat != "" {
			dev.Seat = seat
		}
		dev.BootVGA = d.readAttr(path.Join(dev.SysPath, "device", "boot_vga")) == "1"
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Sysnum < devices[j].Sysnum })
	return devices, nil
}

// FindPrimaryGPU picks the card of seat whose PCI parent is the boot VGA
// device, or the first card of the seat when none is.
func (d *Discovery) FindPrimaryGPU(seat string) (Device, error) {
	devices, err := d.Devices()
	if err != nil {
		return Device{}, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}

	var first *Device
	for i := range devices {
		dev := &devices[i]
		if dev.Seat != seat {
			continue
		}
		if dev.BootVGA {
			return *dev, nil
		}
		if first == nil {
			first = dev
		}
	}
	if first == nil {
		return Device{}, ErrNoDevice
	}
	return *first, nil
}

// cardNumber matches card[0-9]+ and leaves out connector entries such as
// card0-DP-1.
func cardNumber(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "card")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (d *Discovery) readAttr(p string) string {
	data, err := afero.ReadFile(d.fs, p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// udevProperty looks up an E: property in the udev database entry of a
// character device.
func (d *Discovery) udevProperty(devnum, key string) string {
	if devnum == "" {
		return ""
	}
	data, err := afero.ReadFile(d.fs, path.Join(d.udevData, "c"+devnum))
	if err != nil {
		return ""
	}
	prefix := "E:" + key + "="
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
