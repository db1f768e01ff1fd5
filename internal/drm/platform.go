package drm

import (
	"fmt"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/bnema/wayfold/internal/reactor"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Config selects the card to drive.
type Config struct {
	Seat string
	// Device skips discovery and opens this node directly.
	Device    string
	SysfsRoot string
	UdevData  string
}

// Opener opens a card node. A privileged launcher would hand out descriptors
// here; the default opens the node directly.
type Opener interface {
	Open(devnode string) (Card, error)
}

type OpenerFunc func(devnode string) (Card, error)

func (f OpenerFunc) Open(devnode string) (Card, error) { return f(devnode) }

// DirectOpener opens card nodes with the compositor's own privileges.
var DirectOpener = OpenerFunc(func(devnode string) (Card, error) { return OpenCard(devnode) })

// Probe finds the card for cfg, opens it and computes the output allocation.
// The caller owns the returned card.
func Probe(cfg Config, fs afero.Fs, opener Opener, l *log.Logger) (Device, Card, []Allocation, error) {
	var dev Device
	if cfg.Device != "" {
		dev = Device{Name: cfg.Device, DevNode: cfg.Device, Seat: cfg.Seat}
	} else {
		seat := cfg.Seat
		if seat == "" {
			seat = DefaultSeat
		}
		var err error
		dev, err = NewDiscovery(fs, cfg.SysfsRoot, cfg.UdevData).FindPrimaryGPU(seat)
		if err != nil {
			return Device{}, nil, nil, err
		}
	}

	card, err := opener.Open(dev.DevNode)
	if err != nil {
		return Device{}, nil, nil, fmt.Errorf("failed to open drm device %s: %w", dev.DevNode, err)
	}
	allocs, err := Allocate(card, l)
	if err != nil {
		card.Close()
		return Device{}, nil, nil, err
	}
	return dev, card, allocs, nil
}

// Output is the render side of one allocated connector.
type Output struct {
	core.RenderHooks
	alloc  Allocation
	output *core.Output
	log    *log.Logger

	enabled bool
	flips   uint64
	last    VBlankEvent
}

func (o *Output) Allocation() Allocation { return o.alloc }
func (o *Output) Output() *core.Output   { return o.output }
func (o *Output) Flips() uint64          { return o.flips }
func (o *Output) LastFlip() VBlankEvent  { return o.last }
func (o *Output) Enabled() bool          { return o.enabled }

func (o *Output) Enable()  { o.enabled = true }
func (o *Output) Disable() { o.enabled = false }

func (o *Output) pageFlipped(ev VBlankEvent) {
	o.flips++
	o.last = ev
	o.log.Debug("page flip", "output", o.output.Name(), "seq", ev.Sequence)
}

// Platform owns the open card and the outputs created from it.
type Platform struct {
	device  Device
	card    Card
	outputs []*Output
	bus     *EventBus
	source  *reactor.Source
	log     *log.Logger
}

// NewPlatform opens the primary GPU, creates one output per allocated
// connector laid out left to right, adds them to comp and watches the card
// for page flip events on loop. A nil loop leaves the card unwatched.
func NewPlatform(cfg Config, fs afero.Fs, opener Opener, comp *core.Compositor, loop *reactor.EventLoop) (*Platform, error) {
	l := logger.WithPrefix("drm")
	dev, card, allocs, err := Probe(cfg, fs, opener, l)
	if err != nil {
		return nil, err
	}
	l.Info("Using drm device", "device", dev.DevNode, "seat", dev.Seat, "boot_vga", dev.BootVGA)

	p := &Platform{device: dev, card: card, bus: NewEventBus(l), log: l}
	for _, a := range allocs {
		out := &Output{alloc: a, log: l}
		geometry := core.OutputGeometry{
			X:              comp.NextOutputX(),
			PhysicalWidth:  int(a.Connector.MMWidth),
			PhysicalHeight: int(a.Connector.MMHeight),
			Subpixel:       a.Connector.CoreSubpixel(),
			Make:           "unknown",
			Model:          "unknown",
		}
		out.output = core.NewOutput(a.Connector.Name(), geometry, a.Mode.CoreMode(), out)
		p.bus.OnPageFlip(a.CRTCID, out.pageFlipped)
		p.outputs = append(p.outputs, out)
		comp.AddOutput(out.output)
		l.Info("Output allocated", "name", a.Connector.Name(), "crtc", a.CRTCID, "mode", a.Mode)
	}

	if loop != nil {
		src, err := loop.AddFD(card.FD(), reactor.Readable, p.bus.Handle)
		if err != nil {
			for _, out := range p.outputs {
				comp.RemoveOutput(out.output)
			}
			card.Close()
			return nil, fmt.Errorf("watch drm device: %w", err)
		}
		p.source = src
	}
	return p, nil
}

func (p *Platform) Device() Device      { return p.device }
func (p *Platform) Outputs() []*Output  { return p.outputs }
func (p *Platform) EventBus() *EventBus { return p.bus }

// Close stops watching the card and closes it.
func (p *Platform) Close() error {
	if p.source != nil {
		if err := p.source.Remove(); err != nil {
			p.log.Warn("remove drm source", "err", err)
		}
	}
	return p.card.Close()
}
