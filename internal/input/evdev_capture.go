package input

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/bnema/wayfold/internal/reactor"
	"github.com/charmbracelet/log"
	"github.com/gvalkov/golang-evdev"
	"github.com/sourcegraph/conc"
)

// EvdevConfig names the device nodes to open. Empty paths are auto-detected.
type EvdevConfig struct {
	PointerDevice  string
	KeyboardDevice string
	TouchDevice    string
	// Grab takes exclusive access so the devices stop feeding other consumers.
	Grab bool
}

type evdevDevice struct {
	kind       DeviceType
	dev        *evdev.InputDevice
	translator *evdevTranslator
}

// EvdevCapture reads evdev devices on worker goroutines and hands every
// completed event batch to the seat on the reactor.
type EvdevCapture struct {
	cfg   EvdevConfig
	sched core.Scheduler
	seat  *Seat
	area  func() geo.Rectangle
	log   *log.Logger

	mu        sync.Mutex
	devices   []*evdevDevice
	capturing bool
	grabbed   bool
	closing   bool
	wg        conc.WaitGroup
}

// NewEvdevCapture returns a stopped capture. area is evaluated on the reactor
// and gives the rectangle touchscreens map onto.
func NewEvdevCapture(cfg EvdevConfig, sched core.Scheduler, seat *Seat, area func() geo.Rectangle) *EvdevCapture {
	return &EvdevCapture{
		cfg:   cfg,
		sched: sched,
		seat:  seat,
		area:  area,
		log:   logger.WithPrefix("evdev"),
	}
}

// Start opens the devices and starts reading them. A missing keyboard or
// touchscreen is not an error; at least one device must open.
func (e *EvdevCapture) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capturing {
		return fmt.Errorf("already capturing")
	}

	wanted := []struct {
		kind DeviceType
		path string
	}{
		{DeviceTypePointer, e.cfg.PointerDevice},
		{DeviceTypeKeyboard, e.cfg.KeyboardDevice},
		{DeviceTypeTouch, e.cfg.TouchDevice},
	}
	for _, w := range wanted {
		d, err := e.open(w.kind, w.path)
		if err != nil {
			e.log.Warn("no device", "type", w.kind, "err", err)
			continue
		}
		e.devices = append(e.devices, d)
	}
	if len(e.devices) == 0 {
		return fmt.Errorf("no usable input devices")
	}

	if e.cfg.Grab {
		if err := e.grabDevices(); err != nil {
			e.closeDevices()
			e.devices = nil
			return err
		}
		e.grabbed = true
	}

	var caps Capability
	for _, d := range e.devices {
		caps |= d.kind.Capability()
		e.wg.Go(func() { e.readLoop(d) })
	}
	if err := e.sched.Submit(func() { e.seat.AddCapabilities(caps) }); err != nil {
		e.log.Warn("could not announce capabilities", "err", err)
	}

	e.capturing = true
	e.log.Info("Evdev input capture started", "devices", len(e.devices), "capabilities", caps)
	return nil
}

// Stop closes the devices and waits for the readers to exit.
func (e *EvdevCapture) Stop() {
	e.mu.Lock()
	if !e.capturing {
		e.mu.Unlock()
		return
	}
	e.closing = true
	if e.grabbed {
		e.ungrabDevices()
		e.grabbed = false
	}
	e.closeDevices()
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	e.devices = nil
	e.capturing = false
	e.closing = false
	e.mu.Unlock()
	e.log.Info("Evdev input capture stopped")
}

func (e *EvdevCapture) open(kind DeviceType, path string) (*evdevDevice, error) {
	if path == "" {
		devices, err := NewDeviceSelector().ListDevices(kind)
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("no suitable %s device found", kind)
		}
		path = devices[0].Path
	}
	path = resolveLink(path)

	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s device %s: %w", kind, path, err)
	}

	var absX, absY AbsInfo
	if kind == DeviceTypeTouch {
		if absX, err = QueryAbsInfo(dev.File, evdev.ABS_MT_POSITION_X); err != nil {
			dev.File.Close()
			return nil, err
		}
		if absY, err = QueryAbsInfo(dev.File, evdev.ABS_MT_POSITION_Y); err != nil {
			dev.File.Close()
			return nil, err
		}
	}
	e.log.Info("Using input device", "type", kind, "name", dev.Name, "path", path)
	return &evdevDevice{kind: kind, dev: dev, translator: newEvdevTranslator(kind, absX, absY)}, nil
}

func (e *EvdevCapture) readLoop(d *evdevDevice) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("reader panic", "device", d.dev.Name, "panic", r)
		}
	}()

	for {
		records, err := d.dev.Read()
		if err != nil {
			e.mu.Lock()
			closing := e.closing
			e.mu.Unlock()
			if !closing && !errors.Is(err, os.ErrClosed) {
				e.log.Error("read failed", "device", d.dev.Name, "err", err)
			}
			return
		}
		for _, rec := range records {
			batch := d.translator.Feed(rec)
			if len(batch) == 0 {
				continue
			}
			err := e.sched.Submit(func() { e.dispatch(d, batch) })
			if errors.Is(err, reactor.ErrQueueFull) {
				e.log.Warn("Reactor busy, input dropped", "type", d.kind, "device", d.dev.Fn)
				continue
			}
			if err != nil {
				// The reactor is gone.
				return
			}
		}
	}
}

// ReleaseGrab gives up exclusive access while the devices keep being read.
// It reports whether a grab was held.
func (e *EvdevCapture) ReleaseGrab() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.grabbed {
		return false
	}
	e.ungrabDevices()
	e.grabbed = false
	e.log.Warn("Released exclusive device access")
	return true
}

// Grabbed reports whether the devices are held exclusively.
func (e *EvdevCapture) Grabbed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grabbed
}

// dispatch runs on the reactor.
func (e *EvdevCapture) dispatch(d *evdevDevice, batch []Event) {
	if d.kind == DeviceTypeTouch && e.area != nil {
		batch = d.translator.ScaleTouch(batch, e.area())
	}
	e.seat.Dispatch(batch...)
}

func (e *EvdevCapture) grabDevices() error {
	for i, d := range e.devices {
		if err := d.dev.Grab(); err != nil {
			for _, g := range e.devices[:i] {
				g.dev.Release()
			}
			return fmt.Errorf("failed to grab %s device: %w", d.kind, err)
		}
		e.log.Debug("Grabbed exclusive access", "type", d.kind)
	}
	return nil
}

func (e *EvdevCapture) ungrabDevices() {
	for _, d := range e.devices {
		d.dev.Release()
	}
}

func (e *EvdevCapture) closeDevices() {
	for _, d := range e.devices {
		d.dev.File.Close()
	}
}

// IsEvdevAvailable checks if any evdev node can be listed.
func IsEvdevAvailable() bool {
	if _, err := os.Stat("/dev/input"); os.IsNotExist(err) {
		return false
	}
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return false
	}
	return len(devices) > 0
}
